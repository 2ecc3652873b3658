// Package metrics holds the Prometheus instruments of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups every instrument exported by the service. A nil *Metrics is
// valid and records nothing, which keeps components usable without a registry.
type Metrics struct {
	TelemetryReceived      prometheus.Counter
	TelemetryMalformed     prometheus.Counter
	TelemetryStored        prometheus.Counter
	TelemetryStoreFailures prometheus.Counter
	TelemetryDropped       prometheus.Counter

	CommandsPublished prometheus.Counter
	CommandsSkipped   prometheus.Counter
	CommandsFailed    prometheus.Counter

	PropertyUpdates prometheus.Counter
	MQTTConnected   prometheus.Gauge

	HTTPDuration *prometheus.HistogramVec
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TelemetryReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aas_telemetry_received_total",
			Help: "Telemetry messages received on the sensor topic.",
		}),
		TelemetryMalformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aas_telemetry_malformed_total",
			Help: "Telemetry messages dropped because the payload could not be parsed.",
		}),
		TelemetryStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aas_telemetry_stored_total",
			Help: "Temperature readings appended to the time-series store.",
		}),
		TelemetryStoreFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aas_telemetry_store_failures_total",
			Help: "Temperature readings that could not be written to the time-series store.",
		}),
		TelemetryDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aas_telemetry_dropped_total",
			Help: "Temperature readings lost because the ingest channel was full.",
		}),
		CommandsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aas_commands_published_total",
			Help: "Device commands published to the broker.",
		}),
		CommandsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aas_commands_skipped_total",
			Help: "Device commands not published because the transport was unavailable.",
		}),
		CommandsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aas_commands_failed_total",
			Help: "Device commands the broker did not accept.",
		}),
		PropertyUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aas_property_updates_total",
			Help: "Property values written to the shell.",
		}),
		MQTTConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aas_mqtt_connected",
			Help: "1 while the broker connection is established, 0 otherwise.",
		}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aas_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"method", "status"}),
	}

	reg.MustRegister(
		m.TelemetryReceived,
		m.TelemetryMalformed,
		m.TelemetryStored,
		m.TelemetryStoreFailures,
		m.TelemetryDropped,
		m.CommandsPublished,
		m.CommandsSkipped,
		m.CommandsFailed,
		m.PropertyUpdates,
		m.MQTTConnected,
		m.HTTPDuration,
	)
	return m
}

func (m *Metrics) add(c func(*Metrics) prometheus.Counter) {
	if m == nil {
		return
	}
	c(m).Inc()
}

func (m *Metrics) IncTelemetryReceived() {
	m.add(func(m *Metrics) prometheus.Counter { return m.TelemetryReceived })
}

func (m *Metrics) IncTelemetryMalformed() {
	m.add(func(m *Metrics) prometheus.Counter { return m.TelemetryMalformed })
}

func (m *Metrics) IncTelemetryStored() {
	m.add(func(m *Metrics) prometheus.Counter { return m.TelemetryStored })
}

func (m *Metrics) IncTelemetryStoreFailures() {
	m.add(func(m *Metrics) prometheus.Counter { return m.TelemetryStoreFailures })
}

func (m *Metrics) IncTelemetryDropped() {
	m.add(func(m *Metrics) prometheus.Counter { return m.TelemetryDropped })
}

func (m *Metrics) IncCommandsPublished() {
	m.add(func(m *Metrics) prometheus.Counter { return m.CommandsPublished })
}

func (m *Metrics) IncCommandsSkipped() {
	m.add(func(m *Metrics) prometheus.Counter { return m.CommandsSkipped })
}

func (m *Metrics) IncCommandsFailed() {
	m.add(func(m *Metrics) prometheus.Counter { return m.CommandsFailed })
}

func (m *Metrics) IncPropertyUpdates() {
	m.add(func(m *Metrics) prometheus.Counter { return m.PropertyUpdates })
}

// SetConnected records the broker connection state.
func (m *Metrics) SetConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.MQTTConnected.Set(1)
	} else {
		m.MQTTConnected.Set(0)
	}
}

// ObserveHTTP records the latency of one HTTP request.
func (m *Metrics) ObserveHTTP(method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(method, status).Observe(seconds)
}
