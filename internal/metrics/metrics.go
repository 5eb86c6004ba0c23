// Package metrics holds the client's Prometheus collectors.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/manhunt_client/internal/api"
)

// Collector bundles the client metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	APIRequests  *prometheus.CounterVec
	APIDurations *prometheus.HistogramVec
	Samples      *prometheus.CounterVec
	Reconciles   *prometheus.CounterVec
	Rotation     prometheus.Gauge
	RosterSize   prometheus.Gauge
}

// New registers the collectors against reg, or the default registry when
// reg is nil.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "manhunt_api_requests_total",
		Help: "Game API calls, labeled by endpoint and response status.",
	}, []string{"endpoint", "status"}))
	if err != nil {
		return nil, err
	}
	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "manhunt_api_request_duration_seconds",
		Help:    "Game API call latency in seconds.",
		Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"}))
	if err != nil {
		return nil, err
	}
	samples, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "manhunt_heading_samples_total",
		Help: "Orientation samples received, labeled by whether they carried a usable heading.",
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}
	reconciles, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "manhunt_needle_updates_total",
		Help: "Needle reconciliation steps, labeled by whether the needle moved.",
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}
	rotation, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "manhunt_needle_rotation_degrees",
		Help: "Accumulated needle rotation in degrees.",
	}))
	if err != nil {
		return nil, err
	}
	roster, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "manhunt_roster_players",
		Help: "Players in the last roster received from the lobby.",
	}))
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:     gatherer,
		APIRequests:  requests,
		APIDurations: durations,
		Samples:      samples,
		Reconciles:   reconciles,
		Rotation:     rotation,
		RosterSize:   roster,
	}, nil
}

// ObserveRequest implements api.Observer.
func (c *Collector) ObserveRequest(endpoint string, status api.Status, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.APIRequests.WithLabelValues(endpoint, string(status)).Inc()
	c.APIDurations.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// SampleApplied implements heading.Observer.
func (c *Collector) SampleApplied() {
	if c == nil {
		return
	}
	c.Samples.WithLabelValues("applied").Inc()
}

// SampleIgnored implements heading.Observer.
func (c *Collector) SampleIgnored() {
	if c == nil {
		return
	}
	c.Samples.WithLabelValues("ignored").Inc()
}

// NeedleUpdated records one reconciliation step.
func (c *Collector) NeedleUpdated(moved bool, accumulated float64) {
	if c == nil {
		return
	}
	outcome := "noise"
	if moved {
		outcome = "moved"
	}
	c.Reconciles.WithLabelValues(outcome).Inc()
	c.Rotation.Set(accumulated)
}

// RosterUpdated records the roster size.
func (c *Collector) RosterUpdated(players int) {
	if c == nil {
		return
	}
	c.RosterSize.Set(float64(players))
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil || c.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector already registered with incompatible type: %w", err)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
