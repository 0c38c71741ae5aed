package fps

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-fps/packet"
)

// Metrics contains atomic counters for a Sensor.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type Metrics struct {
	// RequestCount indicates the number of request frames written.
	RequestCount atomic.Uint64
	// AckCount indicates the number of ACK responses.
	AckCount atomic.Uint64
	// NackCount indicates the number of NACK responses.
	NackCount atomic.Uint64
	// NoResponseCount indicates the number of exchanges without a complete response.
	NoResponseCount atomic.Uint64
	// TransportErrCount indicates the number of failed port writes and reads.
	TransportErrCount atomic.Uint64

	// BytesSent indicates the number of bytes written to the port.
	BytesSent atomic.Uint64
	// BytesRecv indicates the number of bytes read from the port.
	BytesRecv atomic.Uint64
	// DrainRoundCount indicates the number of drain rounds that returned data.
	DrainRoundCount atomic.Uint64

	// ReconnectCount indicates the number of successful baud rate reconnects.
	ReconnectCount atomic.Uint64

	commands *xsync.MapOf[packet.Command, *xsync.Counter]
	nacks    *xsync.MapOf[packet.ErrorCode, *xsync.Counter]
}

func newMetrics() *Metrics {
	return &Metrics{
		commands: xsync.NewMapOf[packet.Command, *xsync.Counter](),
		nacks:    xsync.NewMapOf[packet.ErrorCode, *xsync.Counter](),
	}
}

// CommandCount returns how many times cmd was sent.
func (m *Metrics) CommandCount(cmd packet.Command) int64 {
	if c, ok := m.commands.Load(cmd); ok {
		return c.Value()
	}

	return 0
}

// RangeCommands calls f for each command sent at least once. Iteration stops
// when f returns false.
func (m *Metrics) RangeCommands(f func(cmd packet.Command, count int64) bool) {
	m.commands.Range(func(cmd packet.Command, c *xsync.Counter) bool {
		return f(cmd, c.Value())
	})
}

// NackErrorCount returns how many NACKs carried code.
func (m *Metrics) NackErrorCount(code packet.ErrorCode) int64 {
	if c, ok := m.nacks.Load(code); ok {
		return c.Value()
	}

	return 0
}

// RangeNackErrors calls f for each NACK reason seen at least once.
func (m *Metrics) RangeNackErrors(f func(code packet.ErrorCode, count int64) bool) {
	m.nacks.Range(func(code packet.ErrorCode, c *xsync.Counter) bool {
		return f(code, c.Value())
	})
}

func (m *Metrics) incRequest(cmd packet.Command) {
	m.RequestCount.Add(1)
	c, _ := m.commands.LoadOrCompute(cmd, xsync.NewCounter)
	c.Inc()
}

func (m *Metrics) incResponse(rsp *packet.Response) {
	switch {
	case !rsp.Complete():
		m.NoResponseCount.Add(1)
	case rsp.ACK:
		m.AckCount.Add(1)
	default:
		m.NackCount.Add(1)
		c, _ := m.nacks.LoadOrCompute(rsp.Error, xsync.NewCounter)
		c.Inc()
	}
}

func (m *Metrics) incTransportErr() {
	m.TransportErrCount.Add(1)
}

func (m *Metrics) addBytesSent(n int) {
	m.BytesSent.Add(uint64(n)) //nolint:gosec
}

func (m *Metrics) addBytesRecv(n int) {
	m.BytesRecv.Add(uint64(n)) //nolint:gosec
}

func (m *Metrics) incDrainRound() {
	m.DrainRoundCount.Add(1)
}

func (m *Metrics) incReconnect() {
	m.ReconnectCount.Add(1)
}
