package fps

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-fps/logger"
	"github.com/arloliu/go-fps/packet"
	"github.com/arloliu/go-fps/transport"
)

var errInjected = errors.New("injected transport failure")

// fakePort is a scripted transport.Port. Every written request is passed to
// respond, and the returned chunks become readable one BytesAvailable poll
// at a time, once delay has passed since the write.
type fakePort struct {
	mu       sync.Mutex
	respond  func(req packet.Request) [][]byte
	requests []packet.Request
	out      [][]byte
	delay    time.Duration
	readyAt  time.Time
	closed   bool
	writeErr error
	availErr error
}

var _ transport.Port = (*fakePort)(nil)

func (p *fakePort) setRespond(f func(req packet.Request) [][]byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.respond = f
}

func (p *fakePort) setDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = d
}

// pending returns the number of bytes written by the device but not read yet.
func (p *fakePort) pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, chunk := range p.out {
		n += len(chunk)
	}

	return n
}

func (p *fakePort) setWriteErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeErr = err
}

func (p *fakePort) setAvailErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.availErr = err
}

// sent returns the requests written so far.
func (p *fakePort) sent() []packet.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]packet.Request(nil), p.requests...)
}

func (p *fakePort) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, transport.ErrPortClosed
	}
	if p.writeErr != nil {
		return 0, p.writeErr
	}

	var req packet.Request
	copy(req[:], b)
	p.requests = append(p.requests, req)
	p.readyAt = time.Now().Add(p.delay)

	if p.respond == nil {
		p.out = append(p.out, ackFrame(0))
		return len(b), nil
	}
	for _, chunk := range p.respond(req) {
		if len(chunk) > 0 {
			p.out = append(p.out, chunk)
		}
	}

	return len(b), nil
}

func (p *fakePort) BytesAvailable() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, transport.ErrPortClosed
	}
	if p.availErr != nil {
		return 0, p.availErr
	}
	if len(p.out) == 0 || time.Now().Before(p.readyAt) {
		return 0, nil
	}

	return len(p.out[0]), nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, transport.ErrPortClosed
	}
	if len(p.out) == 0 || time.Now().Before(p.readyAt) {
		return 0, nil
	}

	n := copy(b, p.out[0])
	p.out[0] = p.out[0][n:]
	if len(p.out[0]) == 0 {
		p.out = p.out[1:]
	}

	return n, nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true

	return nil
}

func ackFrame(param uint32) []byte {
	return packet.Encode(packet.Ack, param).Bytes()
}

func nackFrame(code uint32) []byte {
	return packet.Encode(packet.Nack, code).Bytes()
}

// replyAll answers every request with the given chunks.
func replyAll(chunks ...[]byte) func(packet.Request) [][]byte {
	return func(packet.Request) [][]byte {
		return chunks
	}
}

// testOpener hands out port and records every baud rate it is asked for.
type testOpener struct {
	mu    sync.Mutex
	port  transport.Port
	err   error
	bauds []int
}

func (o *testOpener) open(_ string, baud int, _ time.Duration) (transport.Port, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.bauds = append(o.bauds, baud)
	if o.err != nil {
		return nil, o.err
	}

	return o.port, nil
}

func (o *testOpener) setErr(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
}

func (o *testOpener) opened() []int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]int(nil), o.bauds...)
}

// testReadTimeout bounds the wait for a response in tests.
const testReadTimeout = 50 * time.Millisecond

// newTestConfig creates a Config with zero settle intervals and a short read
// timeout suitable for tests.
func newTestConfig(t *testing.T, opener transport.Opener, opts ...Option) *Config {
	t.Helper()

	defaults := []Option{
		WithOpener(opener),
		WithSettleInterval(0),
		WithBaudChangeSettle(0),
		WithReadTimeout(testReadTimeout),
		WithLogger(logger.NewSlogWriter(io.Discard, logger.DebugLevel, false)),
	}

	cfg, err := NewConfig("/dev/ttyTEST0", append(defaults, opts...)...)
	require.NoError(t, err)

	return cfg
}

// newTestSensor creates a connected Sensor backed by a fakePort.
func newTestSensor(t *testing.T, opts ...Option) (*Sensor, *fakePort, *testOpener) {
	t.Helper()

	port := &fakePort{}
	opener := &testOpener{port: port}

	sensor, err := NewSensor(context.Background(), newTestConfig(t, opener.open, opts...))
	require.NoError(t, err)
	require.Equal(t, Connected, sensor.State())

	return sensor, port, opener
}
