package observability

import (
	obs "github.com/edge-gallery/storefront/internal/observability"
)

type provider struct {
	tracer  obs.Tracer
	logger  obs.Logger
	metrics obs.Metrics
}

type registeredMetrics struct {
	counters   map[obs.MetricKey]obs.Counter
	histograms map[obs.MetricKey]obs.Histogram
}

func (m *registeredMetrics) Counter(name obs.MetricKey) obs.Counter {
	if m == nil || m.counters == nil {
		return obs.NopCounter()
	}
	if c, ok := m.counters[name]; ok && c != nil {
		return c
	}
	return obs.NopCounter()
}

func (m *registeredMetrics) Histogram(name obs.MetricKey) obs.Histogram {
	if m == nil || m.histograms == nil {
		return obs.NopHistogram()
	}
	if h, ok := m.histograms[name]; ok && h != nil {
		return h
	}
	return obs.NopHistogram()
}

// New assembles an Observability provider backed by the supplied tracer,
// logger, and metric instruments. Nil components degrade to no-ops.
func New(
	tracer obs.Tracer,
	logger obs.Logger,
	counters map[obs.MetricKey]obs.Counter,
	histograms map[obs.MetricKey]obs.Histogram,
) obs.Observability {
	if tracer == nil {
		tracer = obs.NopTracer()
	}
	if logger == nil {
		logger = obs.NopLogger()
	}

	var metrics obs.Metrics = obs.NopMetrics()
	if len(counters) > 0 || len(histograms) > 0 {
		m := &registeredMetrics{
			counters:   make(map[obs.MetricKey]obs.Counter, len(counters)),
			histograms: make(map[obs.MetricKey]obs.Histogram, len(histograms)),
		}
		for k, v := range counters {
			if v != nil {
				m.counters[k] = v
			}
		}
		for k, v := range histograms {
			if v != nil {
				m.histograms[k] = v
			}
		}
		metrics = m
	}

	return &provider{tracer: tracer, logger: logger, metrics: metrics}
}

func (p *provider) Tracer() obs.Tracer   { return p.tracer }
func (p *provider) Logger() obs.Logger   { return p.logger }
func (p *provider) Metrics() obs.Metrics { return p.metrics }
