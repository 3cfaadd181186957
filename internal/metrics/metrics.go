// Package metrics exposes the service's Prometheus collectors. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ledger"

type Metrics struct {
	registry     *prometheus.Registry
	commands     *prometheus.CounterVec
	exports      *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	mirrorSyncs  *prometheus.CounterVec
	customers    prometheus.Gauge
	records      prometheus.Gauge
}

// New registers the ledger collectors plus the Go and process collectors on a
// private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Ledger commands by name and outcome.",
		}, []string{"command", "outcome"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_exports_total",
			Help:      "PDF report exports by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		mirrorSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_syncs_total",
			Help:      "Spreadsheet mirror writes by outcome.",
		}, []string{"outcome"}),
		customers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "customers",
			Help:      "Customers currently in the ledger.",
		}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Records currently in the ledger.",
		}),
	}
	m.registry.MustRegister(
		m.commands, m.exports, m.httpRequests, m.mirrorSyncs, m.customers, m.records,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Command counts one ledger command.
func (m *Metrics) Command(name string, err error) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(name, outcome(err)).Inc()
}

func (m *Metrics) Export(err error) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) MirrorSync(err error) {
	if m == nil {
		return
	}
	m.mirrorSyncs.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) HTTPRequest(method string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

// SetLedgerSize updates the customer and record gauges.
func (m *Metrics) SetLedgerSize(customers, records int) {
	if m == nil {
		return
	}
	m.customers.Set(float64(customers))
	m.records.Set(float64(records))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
