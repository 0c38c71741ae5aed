// Package metrics exports fps sensor counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arloliu/go-fps/fps"
	"github.com/arloliu/go-fps/packet"
)

const namespace = "fps"

// NewRegistry creates a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg
}

// Handler returns the HTTP handler serving reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Source is what a Collector reads from. *fps.Sensor satisfies it.
type Source interface {
	Metrics() *fps.Metrics
	State() fps.State
	BaudRate() int
	PortName() string
}

var _ Source = (*fps.Sensor)(nil)

type counterDesc struct {
	desc  *prometheus.Desc
	value func(m *fps.Metrics) uint64
}

// Collector is a prometheus.Collector reading a sensor's counters at scrape time.
type Collector struct {
	src      Source
	counters []counterDesc
	commands *prometheus.Desc
	nacks    *prometheus.Desc
	state    *prometheus.Desc
	baud     *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector for src. Every series carries a "port" label.
func NewCollector(src Source) *Collector {
	labels := prometheus.Labels{"port": src.PortName()}
	counter := func(name, help string, value func(m *fps.Metrics) uint64) counterDesc {
		return counterDesc{
			desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, labels),
			value: value,
		}
	}

	return &Collector{
		src: src,
		counters: []counterDesc{
			counter("requests_total", "Request frames written to the sensor.",
				func(m *fps.Metrics) uint64 { return m.RequestCount.Load() }),
			counter("acks_total", "ACK responses received.",
				func(m *fps.Metrics) uint64 { return m.AckCount.Load() }),
			counter("nacks_total", "NACK responses received.",
				func(m *fps.Metrics) uint64 { return m.NackCount.Load() }),
			counter("no_response_total", "Exchanges that ended without a complete response.",
				func(m *fps.Metrics) uint64 { return m.NoResponseCount.Load() }),
			counter("transport_errors_total", "Failed port writes and reads.",
				func(m *fps.Metrics) uint64 { return m.TransportErrCount.Load() }),
			counter("sent_bytes_total", "Bytes written to the port.",
				func(m *fps.Metrics) uint64 { return m.BytesSent.Load() }),
			counter("received_bytes_total", "Bytes read from the port.",
				func(m *fps.Metrics) uint64 { return m.BytesRecv.Load() }),
			counter("drain_rounds_total", "Drain rounds that returned trailing data.",
				func(m *fps.Metrics) uint64 { return m.DrainRoundCount.Load() }),
			counter("reconnects_total", "Reconnects after a baud rate change.",
				func(m *fps.Metrics) uint64 { return m.ReconnectCount.Load() }),
		},
		commands: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "commands_total"),
			"Requests sent, by command.", []string{"command"}, labels),
		nacks: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "nack_errors_total"),
			"NACK responses, by error code.", []string{"code"}, labels),
		state: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "session_state"),
			"Current session state, 1 for the active state.", []string{"state"}, labels),
		baud: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "baud_rate"),
			"Baud rate the session talks at.", nil, labels),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, cd := range c.counters {
		ch <- cd.desc
	}
	ch <- c.commands
	ch <- c.nacks
	ch <- c.state
	ch <- c.baud
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	m := c.src.Metrics()
	for _, cd := range c.counters {
		ch <- prometheus.MustNewConstMetric(cd.desc, prometheus.CounterValue, float64(cd.value(m)))
	}

	m.RangeCommands(func(cmd packet.Command, count int64) bool {
		ch <- prometheus.MustNewConstMetric(c.commands, prometheus.CounterValue, float64(count), cmd.String())
		return true
	})
	m.RangeNackErrors(func(code packet.ErrorCode, count int64) bool {
		ch <- prometheus.MustNewConstMetric(c.nacks, prometheus.CounterValue, float64(count), code.String())
		return true
	})

	current := c.src.State()
	for _, st := range []fps.State{fps.Disconnected, fps.Connected, fps.AwaitingResponse, fps.Closed} {
		v := 0.0
		if st == current {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, v, st.String())
	}

	ch <- prometheus.MustNewConstMetric(c.baud, prometheus.GaugeValue, float64(c.src.BaudRate()))
}
