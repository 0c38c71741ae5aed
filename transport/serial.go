package transport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
)

// pollTimeout bounds the non-blocking probe BytesAvailable performs, since the
// serial library has no in-waiting query.
const pollTimeout = 10 * time.Millisecond

// pollBufferSize bounds the bytes a single BytesAvailable call takes from the
// port, and the pending bytes above which it does not probe at all.
const pollBufferSize = 512

// SerialPort is a Port backed by a go.bug.st/serial port.
//
// Bytes picked up by BytesAvailable are held in a pending buffer and served
// by the next Read before the underlying port is touched again.
type SerialPort struct {
	mu      sync.Mutex
	name    string
	port    serial.Port
	timeout time.Duration
	pending []byte
	closed  bool
}

var _ Port = (*SerialPort)(nil)

// OpenSerial opens name as an 8N1 serial port. It satisfies Opener.
func OpenSerial(name string, baud int, timeout time.Duration) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", name, err)
	}

	if err := p.SetReadTimeout(timeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("transport: set read timeout on %s: %w", name, err)
	}

	// discard anything the sensor pushed before we were listening
	_ = p.ResetInputBuffer()

	return &SerialPort{
		name:    name,
		port:    p,
		timeout: timeout,
	}, nil
}

// Name returns the device name the port was opened with.
func (sp *SerialPort) Name() string {
	return sp.name
}

// Write writes all of p to the port.
func (sp *SerialPort) Write(p []byte) (int, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if sp.closed {
		return 0, ErrPortClosed
	}

	for written := 0; written < len(p); {
		n, err := sp.port.Write(p[written:])
		written += n

		if err != nil {
			return written, err
		}
	}

	return len(p), nil
}

// Read serves pending bytes first, then reads from the port with the
// configured read timeout. A timeout yields (0, nil).
func (sp *SerialPort) Read(p []byte) (int, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if sp.closed {
		return 0, ErrPortClosed
	}

	if len(p) == 0 {
		return 0, nil
	}

	if len(sp.pending) > 0 {
		n := copy(p, sp.pending)
		sp.pending = sp.pending[n:]

		return n, nil
	}

	return sp.port.Read(p)
}

// BytesAvailable probes the port with a short read timeout, buffering what
// arrives, and returns the number of buffered bytes. One call reads at most
// pollBufferSize bytes so a continuous stream cannot hold the port.
func (sp *SerialPort) BytesAvailable() (int, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if sp.closed {
		return 0, ErrPortClosed
	}
	if len(sp.pending) >= pollBufferSize {
		return len(sp.pending), nil
	}

	if err := sp.port.SetReadTimeout(pollTimeout); err != nil {
		return len(sp.pending), err
	}
	defer func() { _ = sp.port.SetReadTimeout(sp.timeout) }()

	buf := make([]byte, pollBufferSize)
	for read := 0; read < pollBufferSize; {
		n, err := sp.port.Read(buf[:pollBufferSize-read])
		if n > 0 {
			sp.pending = append(sp.pending, buf[:n]...)
			read += n
		}
		if err != nil {
			return len(sp.pending), err
		}
		if n == 0 {
			break
		}
	}

	return len(sp.pending), nil
}

// Close closes the underlying port. Closing twice is a no-op.
func (sp *SerialPort) Close() error {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if sp.closed {
		return nil
	}
	sp.closed = true
	sp.pending = nil

	err := sp.port.Close()
	var portErr *serial.PortError
	if errors.As(err, &portErr) && portErr.Code() == serial.PortClosed {
		return nil
	}

	return err
}
