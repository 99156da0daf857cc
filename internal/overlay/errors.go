package overlay

import (
	"errors"
	"fmt"
)

// ErrInvalidGeometry matches every InvalidGeometryError via errors.Is.
var ErrInvalidGeometry = errors.New("invalid geometry")

// InvalidGeometryError reports a quadrilateral that does not have exactly
// four points.
type InvalidGeometryError struct {
	Index  int
	Points int
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("overlay: quadrilateral %d has %d points, want 4", e.Index, e.Points)
}

func (e *InvalidGeometryError) Is(target error) bool { return target == ErrInvalidGeometry }
