package raster

import (
	"fmt"
	"strings"
)

// Channel is the colour slot a source raster is bound to inside a
// composite. The assignment is fixed: slot 0 is Red, 1 is Green, 2 is Blue.
type Channel uint8

const (
	Red Channel = iota
	Green
	Blue
)

// Channels lists the slots in composition order.
var Channels = [3]Channel{Red, Green, Blue}

// Valid reports whether c is one of Red, Green or Blue.
func (c Channel) Valid() bool { return c <= Blue }

// Index is the sample offset of the channel inside an RGB(A) pixel.
func (c Channel) Index() int { return int(c) }

func (c Channel) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	default:
		return fmt.Sprintf("channel(%d)", uint8(c))
	}
}

// Short returns the one-letter label used in scan summaries.
func (c Channel) Short() string {
	switch c {
	case Red:
		return "R"
	case Green:
		return "G"
	case Blue:
		return "B"
	default:
		return "?"
	}
}

// ParseChannel accepts "red", "r", "green", "g", "blue" or "b".
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red", "r":
		return Red, nil
	case "green", "g":
		return Green, nil
	case "blue", "b":
		return Blue, nil
	default:
		return 0, fmt.Errorf("unknown channel %q (must be red, green or blue)", s)
	}
}
