package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK         = "ok"
	outcomeError      = "error"
	outcomeNoResponse = "no_response"
)

type metrics struct {
	requests *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "web3c",
				Subsystem: "gateway",
				Name:      "requests_total",
				Help:      "Number of JSON-RPC requests served, by method and outcome.",
			},
			[]string{"method", "outcome"},
		),
	}
	reg.MustRegister(m.requests)
	return m
}

func (m *metrics) observe(method, outcome string) {
	m.requests.WithLabelValues(method, outcome).Inc()
}
