package metrics

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// InvoiceMetrics counts document rendering and lookup fallbacks. It satisfies
// the recorder interfaces of the renderer and the currency formatter.
type InvoiceMetrics struct {
	rendered  *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
}

func NewInvoiceMetrics(registerer prometheus.Registerer, cfg Config) *InvoiceMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := serviceLabels(cfg)

	rendered := registerCounterVec(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "invoicebuilder_documents_rendered_total",
		Help:        "Invoice documents rendered by template.",
		ConstLabels: constLabels,
	}, []string{"template"}))
	fallbacks := registerCounterVec(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "invoicebuilder_lookup_fallbacks_total",
		Help:        "Unknown currency or template selectors replaced by the default.",
		ConstLabels: constLabels,
	}, []string{"kind"}))

	return &InvoiceMetrics{rendered: rendered, fallbacks: fallbacks}
}

func (m *InvoiceMetrics) ObserveRender(tmpl string) {
	if m == nil || m.rendered == nil {
		return
	}
	m.rendered.WithLabelValues(tmpl).Inc()
}

// ObserveFallback counts by kind only; the rejected value is user input and
// is logged instead.
func (m *InvoiceMetrics) ObserveFallback(kind, _ string) {
	if m == nil || m.fallbacks == nil {
		return
	}
	m.fallbacks.WithLabelValues(kind).Inc()
}

func serviceLabels(cfg Config) prometheus.Labels {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "invoicebuilder"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	return prometheus.Labels{"service": serviceName, "env": environment}
}

func registerCounterVec(registerer prometheus.Registerer, vec *prometheus.CounterVec) *prometheus.CounterVec {
	if err := registerer.Register(vec); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		return nil
	}
	return vec
}

func registerHistogramVec(registerer prometheus.Registerer, vec *prometheus.HistogramVec) *prometheus.HistogramVec {
	if err := registerer.Register(vec); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing
			}
		}
		return nil
	}
	return vec
}
