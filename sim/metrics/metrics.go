// Package metrics exposes instantiation progress as Prometheus metrics.
// Collector implements sim.Observer and publish.Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/demand-sim/demand-sim/sim"
)

type Collector struct {
	reg *prometheus.Registry

	People   prometheus.Counter
	Vehicles prometheus.Counter
	Trips    *prometheus.CounterVec // kind label: TripSpec.Kind()

	ParkedCars *prometheus.CounterVec // outcome label: seeded|stranded|blackholed

	PhaseDuration *prometheus.HistogramVec // phase label: allocate|resolve|parking

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram
}

var _ sim.Observer = (*Collector)(nil)

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		People: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "demand_sim_people_total",
			Help: "People registered with the simulator.",
		}),
		Vehicles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "demand_sim_vehicles_total",
			Help: "Vehicles allocated to registered people.",
		}),
		Trips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "demand_sim_trips_total",
			Help: "Trips scheduled, by trip spec kind.",
		}, []string{"kind"}),
		ParkedCars: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "demand_sim_parked_cars_total",
			Help: "Cars that should start the day parked, by seeding outcome.",
		}, []string{"outcome"}),
		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "demand_sim_phase_duration_seconds",
			Help:    "Duration of each instantiation phase.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}, []string{"phase"}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "demand_sim_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "demand_sim_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "demand_sim_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "demand_sim_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
	}

	reg.MustRegister(
		c.People, c.Vehicles, c.Trips,
		c.ParkedCars, c.PhaseDuration,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
	)
	return c
}

func (c *Collector) PersonRegistered(numVehicles int) {
	c.People.Inc()
	c.Vehicles.Add(float64(numVehicles))
}

func (c *Collector) TripScheduled(spec sim.TripSpec) {
	c.Trips.WithLabelValues(spec.Kind()).Inc()
}

func (c *Collector) ParkingSeeded(report sim.ParkingReport) {
	c.ParkedCars.WithLabelValues("seeded").Add(float64(report.Seeded))
	c.ParkedCars.WithLabelValues("stranded").Add(float64(report.Stranded))
	c.ParkedCars.WithLabelValues("blackholed").Add(float64(report.Blackholed))
}

func (c *Collector) PhaseDone(phase string, elapsed time.Duration) {
	c.PhaseDuration.WithLabelValues(phase).Observe(elapsed.Seconds())
}

func (c *Collector) NATSPublishedInc()  { c.NATSPublished.Inc() }
func (c *Collector) NATSPublishErrInc() { c.NATSPublishErrs.Inc() }

func (c *Collector) PublishObserve(d time.Duration) { c.PublishDuration.Observe(d.Seconds()) }

func (c *Collector) NATSSetConnected(connected bool) {
	if connected {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Errorf("metrics server error: %v", err)
		}
	}()
	logrus.Infof("metrics listening on %s", addr)
	return srv
}
