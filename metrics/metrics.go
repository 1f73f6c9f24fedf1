// Package metrics exports tsdemux.Event counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mpegdemux/tsdemux"
)

// Exporter counts events by kind and PID-keyed continuity discontinuities,
// registering itself with a prometheus.Registerer.
type Exporter struct {
	events        *prometheus.CounterVec
	discontinuity *prometheus.CounterVec
	crcFailures   *prometheus.CounterVec
}

// NewExporter creates an Exporter and registers its collectors with reg.
func NewExporter(reg prometheus.Registerer) (*Exporter, error) {
	e := &Exporter{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tsdemux",
			Name:      "events_total",
			Help:      "Number of demuxer events observed, by kind.",
		}, []string{"kind"}),
		discontinuity: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tsdemux",
			Name:      "continuity_discontinuities_total",
			Help:      "Number of continuity counter discontinuities, by PID.",
		}, []string{"pid"}),
		crcFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tsdemux",
			Name:      "section_crc_failures_total",
			Help:      "Number of PSI/SI sections that failed CRC validation, by table_id.",
		}, []string{"table_id"}),
	}
	for _, c := range []prometheus.Collector{e.events, e.discontinuity, e.crcFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Observe updates the exporter's counters from one event. It does not
// block and performs no I/O beyond the in-process counter increment.
func (e *Exporter) Observe(ev *tsdemux.Event) {
	e.events.WithLabelValues(ev.Kind.String()).Inc()
	if ev.Kind == tsdemux.EventContinuityDiscontinuity {
		e.discontinuity.WithLabelValues(pidLabel(ev.PID)).Inc()
	}
	if ev.Kind == tsdemux.EventCRCFailure {
		e.crcFailures.WithLabelValues(tableIDLabel(ev.TableID)).Inc()
	}
}

func pidLabel(pid uint16) string {
	return hexLabel(uint32(pid), 4)
}

func tableIDLabel(id uint8) string {
	return hexLabel(uint32(id), 2)
}

func hexLabel(v uint32, width int) string {
	const digits = "0123456789abcdef"
	b := make([]byte, width+2)
	b[0], b[1] = '0', 'x'
	for i := width - 1; i >= 0; i-- {
		b[2+i] = digits[v&0xf]
		v >>= 4
	}
	return string(b)
}
