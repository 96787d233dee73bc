package server

import (
	"strconv"
	"sync"
	"time"

	movingaverage "github.com/RobinUS2/golang-moving-average"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	monitor *Monitor

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blogsync",
			Subsystem: "api_server",
			Name:      "requests_total",
			Help:      "Served API requests by route and status.",
		},
		[]string{"route", "status"},
	)
	opsApplied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blogsync",
			Subsystem: "api_server",
			Name:      "store_operations_total",
			Help:      "Store operations applied by the batch worker.",
		},
	)
)

// Monitor keeps BlogService stats.
type Monitor struct {
	sync.Mutex
	opsHandled   int
	reqsHandled  int
	reqDur       *movingaverage.MovingAverage
	registerOnce sync.Once
	stopCh       chan struct{}
}

// OpsHandled increments the store operations performed metric.
func (m *Monitor) OpsHandled(count int) {
	opsApplied.Add(float64(count))

	m.Lock()
	defer m.Unlock()

	m.opsHandled += count
}

// RequestServed updates the request handling duration metric.
func (m *Monitor) RequestServed(route string, status int, dur time.Duration) {
	httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()

	m.Lock()
	defer m.Unlock()

	m.reqDur.Add(float64(dur/time.Microsecond) / 1000.0)
	m.reqsHandled++
}

// Register adds the collectors to the registerer (once).
func (m *Monitor) Register(reg prometheus.Registerer) {
	m.registerOnce.Do(func() {
		reg.MustRegister(httpRequests, opsApplied)
	})
}

// Start starts the Monitor worker.
func (m *Monitor) Start(period time.Duration) {
	m.Lock()
	defer m.Unlock()

	if m.stopCh != nil || period <= 0 {
		return
	}

	m.stopCh = make(chan struct{})
	go m.worker(period, m.stopCh)
}

// Stop stops the Monitor worker.
func (m *Monitor) Stop() {
	m.Lock()
	defer m.Unlock()

	if m.stopCh == nil {
		return
	}

	close(m.stopCh)
	m.stopCh = nil
}

// worker does the actual job.
func (m *Monitor) worker(period time.Duration, stopCh chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			// Stop the monitor
			return
		case <-ticker.C:
			// Print the report
			m.Lock()

			updsPerSec := float64(m.opsHandled) / period.Seconds()
			reqsPerSec := float64(m.reqsHandled) / period.Seconds()
			log.Info().
				Float64("storeUpdatesPerSec", updsPerSec).
				Float64("requestsPerSec", reqsPerSec).
				Float64("requestDurMs", m.reqDur.Avg()).
				Msg("api server monitor")
			m.opsHandled = 0
			m.reqsHandled = 0

			m.Unlock()
		}
	}
}

func init() {
	monitor = &Monitor{
		reqDur: movingaverage.New(5),
	}
}
