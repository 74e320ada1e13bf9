package scene

import (
	"errors"
	"fmt"
)

var (
	ErrWindowTooLarge   = errors.New("scene: window exceeds bin table")
	ErrVertexCapacity   = errors.New("scene: vertex capacity exceeded")
	ErrTriangleCapacity = errors.New("scene: triangle capacity exceeded")
	ErrUnknownChunk     = errors.New("scene: unknown chunk index")
	ErrSwapPending      = errors.New("scene: previous swap not yet adopted")
	ErrIndexRange       = errors.New("scene: triangle index out of range")
	ErrSplitTriangle    = errors.New("scene: triangle vertices span chunks or priority bands")
)

// CapacityError reports an append that would overflow a pre-sized array.
type CapacityError struct {
	Kind string // "vertex" or "triangle"
	Have int
	Want int
	Max  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("scene: %s capacity exceeded: have %d, appending %d, max %d", e.Kind, e.Have, e.Want, e.Max)
}

func (e *CapacityError) Unwrap() error {
	if e.Kind == "triangle" {
		return ErrTriangleCapacity
	}
	return ErrVertexCapacity
}

// WindowError reports a frame size the bin table cannot hold.
type WindowError struct {
	Width, Height int
	MaxW, MaxH    int
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("scene: window %dx%d outside 1x1..%dx%d", e.Width, e.Height, e.MaxW, e.MaxH)
}

func (e *WindowError) Unwrap() error {
	return ErrWindowTooLarge
}
