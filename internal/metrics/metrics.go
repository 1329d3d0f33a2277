package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the scheduler's Prometheus metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	scheduleRequests *prometheus.CounterVec
	scheduleLatency  prometheus.Histogram
	chargePromoted   prometheus.Counter
	dayPlansInit     prometheus.Counter
	dayPlansReset    prometheus.Counter
}

// NewCollector creates and registers all metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		scheduleRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schedule_requests_total",
			Help: "Delivery scheduling requests by outcome",
		}, []string{"outcome"}),
		scheduleLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "schedule_request_duration_seconds",
			Help:    "Time spent handling a delivery scheduling request",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		chargePromoted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "charge_slots_promoted_total",
			Help: "RESERVED_FOR_CHARGE slots switched to CHARGING",
		}),
		dayPlansInit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "day_plans_initialized_total",
			Help: "Drone day-plans initialised lazily",
		}),
		dayPlansReset: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "day_plans_reset_total",
			Help: "Drone day-plans cleared at day rollover",
		}),
	}
	c.registry.MustRegister(c.scheduleRequests, c.scheduleLatency, c.chargePromoted, c.dayPlansInit, c.dayPlansReset)
	return c
}

// ObserveSchedule records one scheduling request; outcome is "accepted" or an error kind.
func (c *Collector) ObserveSchedule(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.scheduleRequests.WithLabelValues(outcome).Inc()
	c.scheduleLatency.Observe(d.Seconds())
}

func (c *Collector) ChargePromoted(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.chargePromoted.Add(float64(n))
}

func (c *Collector) DayPlanInitialized() {
	if c == nil {
		return
	}
	c.dayPlansInit.Inc()
}

func (c *Collector) DayPlanReset() {
	if c == nil {
		return
	}
	c.dayPlansReset.Inc()
}

// Registry exposes the underlying registry for tests and custom handlers.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
