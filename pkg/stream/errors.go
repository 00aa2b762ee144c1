// ABOUTME: Error taxonomy for stream setup and streaming
// ABOUTME: DeviceError carries the failing session operation and its cause
package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned for operations in the wrong pump state
	ErrInvalidState = errors.New("invalid stream state")

	// ErrZeroBuffer is returned when the device reports no buffer capacity
	ErrZeroBuffer = errors.New("device buffer size is 0 frames")

	// ErrPaddingExceedsBuffer is returned when queued frames exceed capacity
	ErrPaddingExceedsBuffer = errors.New("padding exceeds buffer size")
)

// Kind separates failures before streaming from failures during it
type Kind int

const (
	KindSetup Kind = iota
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindSetup:
		return "setup"
	case KindIO:
		return "io"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// DeviceError reports a failed session call
type DeviceError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device %s failure in %s: %v", e.Kind, e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

func setupError(op string, err error) error {
	return &DeviceError{Kind: KindSetup, Op: op, Err: err}
}

func ioError(op string, err error) error {
	return &DeviceError{Kind: KindIO, Op: op, Err: err}
}
