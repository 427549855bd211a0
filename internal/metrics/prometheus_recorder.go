package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry      *prom.Registry
	stageDuration *prom.HistogramVec
	buildDuration prom.Histogram
	stageResults  *prom.CounterVec
	buildOutcome  *prom.CounterVec
	httpRequests  *prom.CounterVec
	reloadsSent   prom.Counter
	reloadClients prom.Gauge
}

// NewPrometheusRecorder constructs and registers the lithos metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "lithos",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "lithos",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "lithos",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "lithos",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		httpRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "lithos",
			Name:      "http_requests_total",
			Help:      "Development server requests by status code",
		}, []string{"status"}),
		reloadsSent: prom.NewCounter(prom.CounterOpts{
			Namespace: "lithos",
			Name:      "reload_broadcasts_total",
			Help:      "Live-reload pulses broadcast to clients",
		}),
		reloadClients: prom.NewGauge(prom.GaugeOpts{
			Namespace: "lithos",
			Name:      "reload_clients",
			Help:      "Currently connected live-reload clients",
		}),
	}
	reg.MustRegister(
		pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
		pr.httpRequests, pr.reloadsSent, pr.reloadClients,
	)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncHTTPRequest(status int) {
	p.httpRequests.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (p *PrometheusRecorder) IncReloadBroadcast() { p.reloadsSent.Inc() }

func (p *PrometheusRecorder) SetReloadClients(n int) { p.reloadClients.Set(float64(n)) }

// Handler exposes the registry for the development server's /metrics route.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
