package raster

import (
	"errors"
	"fmt"
	"image"
)

// Sentinels for errors.Is matching against the typed errors below.
var (
	ErrDimensionMismatch = errors.New("raster: dimension mismatch")
	ErrUnsupportedFormat = errors.New("raster: unsupported format")
	ErrMissingInput      = errors.New("raster: missing input")
)

// DimensionMismatchError reports rasters of unequal width/height combined
// in one operation. Rasters are never cropped or padded to fit.
type DimensionMismatchError struct {
	Op   string
	Want image.Point
	Got  image.Point
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("raster %s: dimension mismatch: want %dx%d, got %dx%d",
		e.Op, e.Want.X, e.Want.Y, e.Got.X, e.Got.Y)
}

// Is matches ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool { return target == ErrDimensionMismatch }

// UnsupportedFormatError reports a raster whose channel layout the
// operation cannot handle.
type UnsupportedFormatError struct {
	Op       string
	Channels int
	Reason   string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("raster %s: unsupported format (%d channels): %s", e.Op, e.Channels, e.Reason)
	}
	return fmt.Sprintf("raster %s: unsupported format (%d channels)", e.Op, e.Channels)
}

// Is matches ErrUnsupportedFormat.
func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// MissingInputError reports fewer source rasters than the operation needs.
type MissingInputError struct {
	Op   string
	Want int
	Got  int
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("raster %s: missing input: want %d source rasters, got %d", e.Op, e.Want, e.Got)
}

// Is matches ErrMissingInput.
func (e *MissingInputError) Is(target error) bool { return target == ErrMissingInput }

func checkSameSize(op string, ref *Raster, others ...*Raster) error {
	for _, o := range others {
		if !ref.SameSize(o) {
			return &DimensionMismatchError{Op: op, Want: ref.Size(), Got: o.Size()}
		}
	}
	return nil
}

func requireChannels(op string, r *Raster, allowed ...int) error {
	if r == nil {
		return &UnsupportedFormatError{Op: op, Reason: "nil raster"}
	}
	for _, c := range allowed {
		if r.Channels == c {
			return nil
		}
	}
	return &UnsupportedFormatError{Op: op, Channels: r.Channels}
}
