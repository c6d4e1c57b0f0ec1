package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
)

var _ driven.MetricsRecorder = (*PrometheusRecorder)(nil)

const namespace = "ilayer"

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
)

// PrometheusRecorder implements driven.MetricsRecorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry        *prom.Registry
	taskDuration    *prom.HistogramVec
	taskResults     *prom.CounterVec
	requestDuration *prom.HistogramVec
	requestResults  *prom.CounterVec
	evaluations     *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the metrics on reg.
// A nil registry creates a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		taskDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of task runs",
			Buckets:   prom.DefBuckets,
		}, []string{"task"}),
		taskResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "task_runs_total",
			Help:      "Task runs by outcome",
		}, []string{"task", "result"}),
		requestDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "model_request_duration_seconds",
			Help:      "Duration of model API requests",
			Buckets:   prom.DefBuckets,
		}, []string{"operation"}),
		requestResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "model_requests_total",
			Help:      "Model API requests by outcome",
		}, []string{"operation", "result"}),
		evaluations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "example_evaluations_total",
			Help:      "Example evaluations by outcome",
		}, []string{"result"}),
	}
	reg.MustRegister(pr.taskDuration, pr.taskResults, pr.requestDuration, pr.requestResults, pr.evaluations)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.registry
}

func (p *PrometheusRecorder) ObserveTaskRun(task string, d time.Duration, err error) {
	if p == nil {
		return
	}
	p.taskDuration.WithLabelValues(task).Observe(d.Seconds())
	p.taskResults.WithLabelValues(task, resultLabel(err == nil)).Inc()
}

func (p *PrometheusRecorder) ObserveModelRequest(operation string, d time.Duration, err error) {
	if p == nil {
		return
	}
	p.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
	p.requestResults.WithLabelValues(operation, resultLabel(err == nil)).Inc()
}

func (p *PrometheusRecorder) ObserveExampleEvaluation(failed bool) {
	if p == nil {
		return
	}
	p.evaluations.WithLabelValues(resultLabel(!failed)).Inc()
}

// HTTPHandler serves the recorder's metrics.
func (p *PrometheusRecorder) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func resultLabel(success bool) string {
	if success {
		return ResultSuccess
	}
	return ResultFailed
}
