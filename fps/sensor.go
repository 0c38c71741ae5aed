package fps

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/go-fps/internal/pool"
	"github.com/arloliu/go-fps/logger"
	"github.com/arloliu/go-fps/packet"
	"github.com/arloliu/go-fps/transport"
)

// minPollInterval is the shortest pause between response polls.
const minPollInterval = time.Millisecond

// Sensor is a session with one GT-511C3 device.
//
// Exchanges are serialized: a caller issuing an operation while another is in
// flight blocks until the first completes. State, BaudRate, PortName and
// Metrics never block.
type Sensor struct {
	cfg     *Config
	logger  logger.Logger
	metrics *Metrics
	state   AtomicState
	baud    atomic.Int64

	mu           sync.Mutex // guards the fields below and serializes exchanges
	port         transport.Port
	lastResponse *packet.Response
}

// NewSensor creates a sensor session and connects to the device described by cfg.
//
// A non-nil Sensor is returned whenever cfg is non-nil, even if the port
// cannot be opened; it is then left Disconnected and Connect may be retried.
func NewSensor(ctx context.Context, cfg *Config) (*Sensor, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	s := &Sensor{
		cfg:          cfg,
		logger:       cfg.logger.With("port", cfg.portName),
		metrics:      newMetrics(),
		lastResponse: packet.Decode(nil),
	}
	s.baud.Store(int64(cfg.baudRate))

	return s, s.Connect(ctx)
}

// Connect opens the port and performs the Open handshake.
//
// Connect is a no-op when the sensor is already connected, and fails with
// ErrSensorClosed after Close. A rejected or missing handshake response is
// logged but does not fail Connect; the port stays open.
func (s *Sensor) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state.Get() {
	case Closed:
		return ErrSensorClosed
	case Connected, AwaitingResponse:
		return nil
	}

	if err := s.connectLocked(ctx, s.BaudRate()); err != nil {
		return err
	}

	rsp, err := s.exchangeLocked(ctx, packet.Open, 1, s.cfg.settleInterval)
	switch {
	case err != nil:
		s.logger.Warn("fps: open handshake failed", "error", err)
	case !rsp.ACK:
		s.logger.Warn("fps: open handshake rejected", "reason", rsp.Error)
	default:
		s.logger.Debug("fps: open handshake done", "info_bytes", len(rsp.Payload()))
	}

	return nil
}

// State returns the current session state.
func (s *Sensor) State() State {
	return s.state.Get()
}

// BaudRate returns the baud rate the session talks to the device at.
func (s *Sensor) BaudRate() int {
	return int(s.baud.Load())
}

// PortName returns the serial device name.
func (s *Sensor) PortName() string {
	return s.cfg.portName
}

// Metrics returns the session counters.
func (s *Sensor) Metrics() *Metrics {
	return s.metrics
}

// LastResponse returns the response of the most recent exchange. Before the
// first exchange it is an empty, incomplete response.
func (s *Sensor) LastResponse() *packet.Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastResponse
}

// Close sends the Close command, releases the port and moves the session to
// Closed. The port is released even when the command fails.
func (s *Sensor) Close(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsClosed() {
		return false, ErrSensorClosed
	}

	rsp, exErr := s.exchangeLocked(ctx, packet.Close, 0, s.cfg.settleInterval)
	closeErr := s.closePortLocked()
	s.state.ToClosed()
	s.logger.Info("fps: sensor closed")

	if err := errors.Join(exErr, closeErr); err != nil {
		return false, err
	}

	return rsp.ACK, nil
}

// ChangeBaudRate switches the device and the session to baud.
//
// Requesting the current rate is a no-op returning false, and an unsupported
// rate fails with ErrInvalidBaudRate; neither sends a packet. After the device
// acknowledges, the port is reopened at the new rate. If that fails the
// session is left Disconnected at the new rate and ErrReconnectFailed is
// returned; Connect may be retried.
func (s *Sensor) ChangeBaudRate(ctx context.Context, baud int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if baud == s.BaudRate() {
		return false, nil
	}
	if !IsSupportedBaudRate(baud) {
		return false, fmt.Errorf("%w: %d", ErrInvalidBaudRate, baud)
	}

	rsp, err := s.exchangeLocked(ctx, packet.ChangeBaudrate, uint32(baud), s.cfg.baudChangeSettle) //nolint:gosec
	if err != nil {
		return false, err
	}
	if !rsp.ACK {
		s.logger.Warn("fps: baud rate change rejected", "baud", baud, "reason", rsp.Error)
		return false, nil
	}

	if err := pool.Sleep(ctx, s.cfg.baudChangeSettle); err != nil {
		return false, err
	}

	if err := s.closePortLocked(); err != nil {
		s.logger.Warn("fps: close port before reconnect", "error", err)
	}
	s.state.ToDisconnected()
	s.baud.Store(int64(baud))

	if err := s.connectLocked(ctx, baud); err != nil {
		return false, fmt.Errorf("%w: %w", ErrReconnectFailed, err)
	}
	s.metrics.incReconnect()

	return true, nil
}

func (s *Sensor) connectLocked(ctx context.Context, baud int) error {
	port, err := s.cfg.opener(s.cfg.portName, baud, s.cfg.readTimeout)
	if err != nil {
		s.logger.Error("fps: cannot connect to sensor", "baud", baud, "error", err)
		return fmt.Errorf("fps: connect %s at %d baud: %w", s.cfg.portName, baud, err)
	}

	if err := pool.Sleep(ctx, s.cfg.settleInterval); err != nil {
		_ = port.Close()
		return err
	}

	s.port = port
	s.baud.Store(int64(baud))
	s.state.ToConnected()
	s.logger.Info("fps: sensor connected", "baud", baud)

	return nil
}

func (s *Sensor) closePortLocked() error {
	if s.port == nil {
		return nil
	}

	err := s.port.Close()
	s.port = nil

	return err
}

// exchange runs one request/response cycle under the session lock.
func (s *Sensor) exchange(ctx context.Context, cmd packet.Command, param uint32) (*packet.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.exchangeLocked(ctx, cmd, param, s.cfg.settleInterval)
}

func (s *Sensor) exchangeLocked(ctx context.Context, cmd packet.Command, param uint32, settle time.Duration) (*packet.Response, error) {
	if !s.state.ToAwaiting() {
		s.lastResponse = packet.Decode(nil)
		if s.state.IsClosed() {
			return s.lastResponse, ErrSensorClosed
		}

		return s.lastResponse, ErrNotConnected
	}
	defer s.state.ToConnected()

	rsp, err := s.roundTrip(ctx, cmd, param, settle)
	s.lastResponse = rsp
	if err != nil {
		return rsp, err
	}

	s.metrics.incResponse(rsp)
	if !rsp.Complete() {
		s.logger.Warn("fps: no complete response", "cmd", cmd, "received", len(rsp.Raw))
		return rsp, fmt.Errorf("%w: %s", ErrNoResponse, cmd)
	}

	if err := rsp.Verify(); err != nil {
		s.logger.Warn("fps: malformed response frame", "cmd", cmd, "error", err)
	}

	return rsp, nil
}

func (s *Sensor) roundTrip(ctx context.Context, cmd packet.Command, param uint32, settle time.Duration) (*packet.Response, error) {
	if err := s.discardStale(cmd); err != nil {
		return packet.Decode(nil), err
	}

	req := packet.Encode(cmd, param)
	s.metrics.incRequest(cmd)
	s.logger.Debug("fps: send request", "cmd", cmd, "param", param, "bytes", req.String())

	n, err := s.port.Write(req.Bytes())
	s.metrics.addBytesSent(n)
	if err != nil {
		s.metrics.incTransportErr()
		s.logger.Error("fps: write request failed", "cmd", cmd, "error", err)

		return packet.Decode(nil), fmt.Errorf("%w: %s: %w", ErrWriteFailed, cmd, err)
	}

	buf, err := s.readResponse(ctx, cmd, settle)
	if err != nil {
		return packet.Decode(buf), err
	}

	rsp := packet.Decode(buf)
	s.logger.Debug("fps: received response", "cmd", cmd, "response", rsp.String(), "bytes", packet.HexDump(head(rsp.Raw)))

	if rsp.ACK && cmd.HasPayload() {
		if err := s.drain(ctx, rsp); err != nil {
			return rsp, err
		}
		s.logger.Debug("fps: drained payload", "cmd", cmd, "payload_bytes", len(rsp.Payload()))
	}

	return rsp, nil
}

// discardStale drops input left over from an earlier exchange, such as a
// response that arrived after its read timeout, so it cannot be taken for
// the reply to cmd.
func (s *Sensor) discardStale(cmd packet.Command) error {
	stale := 0
	for range s.cfg.maxDrainRounds {
		chunk, err := s.readAvailable()
		stale += len(chunk)
		if err != nil {
			s.metrics.incTransportErr()
			s.logger.Error("fps: read stale input failed", "cmd", cmd, "error", err)

			return fmt.Errorf("%w: %s: %w", ErrReadFailed, cmd, err)
		}
		if len(chunk) == 0 {
			break
		}
	}

	if stale > 0 {
		s.logger.Warn("fps: discarded stale input", "cmd", cmd, "bytes", stale)
	}

	return nil
}

// readResponse polls the port until a whole frame has accumulated or the read
// timeout has elapsed. The first poll happens after settle, later ones every
// settle interval.
func (s *Sensor) readResponse(ctx context.Context, cmd packet.Command, settle time.Duration) ([]byte, error) {
	deadline := time.Now().Add(s.cfg.readTimeout)

	var buf []byte
	for wait := settle; ; wait = max(s.cfg.settleInterval, minPollInterval) {
		if err := pool.Sleep(ctx, wait); err != nil {
			return buf, err
		}

		chunk, err := s.readAvailable()
		buf = append(buf, chunk...)
		if err != nil {
			s.metrics.incTransportErr()
			s.logger.Error("fps: read response failed", "cmd", cmd, "error", err)

			return buf, fmt.Errorf("%w: %s: %w", ErrReadFailed, cmd, err)
		}

		if len(buf) >= packet.FrameSize || !time.Now().Before(deadline) {
			return buf, nil
		}
	}
}

// drain appends whatever the device keeps sending after an ACK, until a poll
// comes back empty or maxDrainRounds polls have returned data.
func (s *Sensor) drain(ctx context.Context, rsp *packet.Response) error {
	for range s.cfg.maxDrainRounds {
		if err := pool.Sleep(ctx, s.cfg.settleInterval); err != nil {
			return err
		}

		chunk, err := s.readAvailable()
		if len(chunk) > 0 {
			rsp.Append(chunk)
			s.metrics.incDrainRound()
		}
		if err != nil {
			s.metrics.incTransportErr()
			return fmt.Errorf("%w: drain: %w", ErrReadFailed, err)
		}
		if len(chunk) == 0 {
			return nil
		}
	}

	s.logger.Warn("fps: drain rounds exhausted", "rounds", s.cfg.maxDrainRounds, "received", len(rsp.Raw))

	return nil
}

// readAvailable reads every byte the port reports as available.
func (s *Sensor) readAvailable() ([]byte, error) {
	avail, err := s.port.BytesAvailable()
	if err != nil {
		return nil, err
	}
	if avail <= 0 {
		return nil, nil
	}

	buf := make([]byte, 0, avail)
	chunk := make([]byte, min(avail, s.cfg.readChunkSize))
	for len(buf) < avail {
		want := min(avail-len(buf), len(chunk))
		n, err := s.port.Read(chunk[:want])
		buf = append(buf, chunk[:n]...)
		if err != nil {
			s.metrics.addBytesRecv(len(buf))
			return buf, err
		}
		if n == 0 {
			break
		}
	}
	s.metrics.addBytesRecv(len(buf))

	return buf, nil
}

func head(b []byte) []byte {
	if len(b) > packet.FrameSize {
		return b[:packet.FrameSize]
	}

	return b
}
