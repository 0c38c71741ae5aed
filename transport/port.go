package transport

import (
	"errors"
	"io"
	"time"
)

// ErrPortClosed is returned by operations on a closed port.
var ErrPortClosed = errors.New("transport: port closed")

// Port is a byte-oriented duplex serial channel.
type Port interface {
	io.Writer
	io.Closer

	// Read reads up to len(p) bytes, blocking at most for the port's read timeout.
	Read(p []byte) (int, error)

	// BytesAvailable returns the number of bytes that can be read without blocking.
	BytesAvailable() (int, error)
}

// Opener opens a named port at the given baud rate with the given read timeout.
type Opener func(name string, baud int, timeout time.Duration) (Port, error)
