package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/halcyon-id/go-authz-endpoint/flow"
)

// Metrics holds the endpoint's Prometheus instrumentation on its own
// registry, keeping process-global state out of the server.
type Metrics struct {
	registry           *prometheus.Registry
	authorizeResponses *prometheus.CounterVec
	consentPrompts     prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		authorizeResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authz_endpoint_responses_total",
			Help: "Authorize endpoint responses by status code and delivery kind.",
		}, []string{"status", "kind"}),
		consentPrompts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authz_endpoint_consent_prompts_total",
			Help: "Flows that required an explicit consent decision.",
		}),
	}
	m.registry.MustRegister(m.authorizeResponses, m.consentPrompts)
	return m
}

func (m *Metrics) ObserveAuthorizeResponse(resp *flow.Response) {
	kind := "body"
	if resp.IsRedirect() {
		kind = "redirect"
	}
	m.authorizeResponses.WithLabelValues(strconv.Itoa(resp.Status), kind).Inc()
}

func (m *Metrics) ObserveConsentPrompt() {
	m.consentPrompts.Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
