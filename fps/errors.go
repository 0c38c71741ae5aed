package fps

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigNil indicates that NewSensor was given a nil config.
	ErrConfigNil = errors.New("fps: sensor config is nil")
	// ErrNotConnected indicates that the sensor has no open port.
	ErrNotConnected = errors.New("fps: sensor is not connected")
	// ErrNoResponse indicates that no complete frame arrived within the read timeout.
	ErrNoResponse = errors.New("fps: no complete response from sensor")
	// ErrInvalidBaudRate indicates a baud rate the sensor does not support.
	ErrInvalidBaudRate = errors.New("fps: unsupported baud rate")
	// ErrInvalidID indicates a negative template ID.
	ErrInvalidID = errors.New("fps: invalid template ID")
	// ErrWriteFailed indicates that a request could not be written to the port.
	ErrWriteFailed = errors.New("fps: write to sensor failed")
	// ErrReadFailed indicates that the port failed while reading a response.
	ErrReadFailed = errors.New("fps: read from sensor failed")
	// ErrReconnectFailed indicates that the port could not be reopened after
	// the sensor accepted a new baud rate.
	ErrReconnectFailed = errors.New("fps: reconnect after baud rate change failed")
	// ErrSensorClosed indicates that the sensor has been closed. It matches
	// ErrNotConnected with errors.Is.
	ErrSensorClosed = fmt.Errorf("%w: sensor closed", ErrNotConnected)
)

// EnrollError reports the step at which an enrollment flow stopped.
//
// Stage 0 is EnrollStart; stages 1 to 3 are the three capture and merge rounds.
type EnrollError struct {
	ID            int
	Stage         int
	Start         EnrollStartResult
	Result        EnrollResult
	CaptureFailed bool
}

func (e *EnrollError) Error() string {
	switch {
	case e.Stage == 0:
		return fmt.Sprintf("fps: enroll %d: start rejected: %s", e.ID, e.Start)
	case e.CaptureFailed:
		return fmt.Sprintf("fps: enroll %d: capture failed at stage %d", e.ID, e.Stage)
	default:
		return fmt.Sprintf("fps: enroll %d: stage %d rejected: %s", e.ID, e.Stage, e.Result)
	}
}
