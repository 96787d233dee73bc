package client

import (
	"sync"
	"time"

	movingaverage "github.com/RobinUS2/golang-moving-average"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	monitor *Monitor

	apiCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blogsync",
			Subsystem: "api_client",
			Name:      "calls_total",
			Help:      "Remote API calls by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)
	apiCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "blogsync",
			Subsystem: "api_client",
			Name:      "call_duration_seconds",
			Help:      "Remote API call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

// Monitor keeps Client stats.
type Monitor struct {
	sync.Mutex
	callDur      *movingaverage.MovingAverage
	callsServed  int
	callsFailed  int
	registerOnce sync.Once
	stopCh       chan struct{}
}

// MonitorReport is a Monitor stats snapshot.
type MonitorReport struct {
	CallsServed int
	CallsFailed int
	// Average of the last calls [ms]
	AvgCallDurMs float64
}

// CallServed updates the call stats.
func (m *Monitor) CallServed(endpoint, outcome string, dur time.Duration) {
	apiCalls.WithLabelValues(endpoint, outcome).Inc()
	apiCallDuration.WithLabelValues(endpoint).Observe(dur.Seconds())

	m.Lock()
	defer m.Unlock()

	m.callsServed++
	if outcome != outcomeSuccess && outcome != outcomeEmpty {
		m.callsFailed++
	}
	m.callDur.Add(float64(dur/time.Microsecond) / 1000.0)
}

// Report returns the current stats and resets the counters.
func (m *Monitor) Report() MonitorReport {
	m.Lock()
	defer m.Unlock()

	report := MonitorReport{
		CallsServed:  m.callsServed,
		CallsFailed:  m.callsFailed,
		AvgCallDurMs: m.callDur.Avg(),
	}
	m.callsServed = 0
	m.callsFailed = 0

	return report
}

// Register adds the collectors to the registerer (once).
func (m *Monitor) Register(reg prometheus.Registerer) {
	m.registerOnce.Do(func() {
		reg.MustRegister(apiCalls, apiCallDuration)
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
			report := m.Report()
			callsPerSec := float64(report.CallsServed) / period.Seconds()
			log.Info().
				Float64("callsPerSec", callsPerSec).
				Int("failed", report.CallsFailed).
				Float64("avgCallMs", report.AvgCallDurMs).
				Msg("api client monitor")
		}
	}
}

// GetMonitor returns the package Monitor.
func GetMonitor() *Monitor {
	return monitor
}

func init() {
	monitor = &Monitor{
		callDur: movingaverage.New(5),
	}
}
