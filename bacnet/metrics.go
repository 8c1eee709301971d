// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bacnet

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// latencyBucketsMs are the request-latency histogram bucket boundaries,
// in milliseconds.
var latencyBucketsMs = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000}

// Counter wraps a prometheus.Counter behind the int64 call-site shape
// the client already uses, so instrumentation reads like simple
// in-process bookkeeping while actually feeding a scrapeable collector.
type Counter struct {
	c prometheus.Counter
}

// Add adds a non-negative delta to the counter.
func (c Counter) Add(delta int64) {
	c.c.Add(float64(delta))
}

// Inc increments the counter by 1.
func (c Counter) Inc() {
	c.c.Inc()
}

// Value returns the current counter value.
func (c Counter) Value() int64 {
	var m dto.Metric
	if err := c.c.Write(&m); err != nil {
		return 0
	}
	return int64(m.GetCounter().GetValue())
}

// Gauge wraps a prometheus.Gauge behind the int64 call-site shape the
// client already uses.
type Gauge struct {
	g prometheus.Gauge
}

// Set sets the gauge value.
func (g Gauge) Set(value int64) {
	g.g.Set(float64(value))
}

// Add adds a delta to the gauge.
func (g Gauge) Add(delta int64) {
	g.g.Add(float64(delta))
}

// Inc increments the gauge by 1.
func (g Gauge) Inc() {
	g.g.Inc()
}

// Dec decrements the gauge by 1.
func (g Gauge) Dec() {
	g.g.Dec()
}

// Value returns the current gauge value.
func (g Gauge) Value() int64 {
	var m dto.Metric
	if err := g.g.Write(&m); err != nil {
		return 0
	}
	return int64(m.GetGauge().GetValue())
}

// LatencyHistogram wraps a prometheus.Histogram, recording
// time.Duration measurements directly instead of float64 milliseconds
// at every call site.
type LatencyHistogram struct {
	h prometheus.Histogram
}

// Record records a latency measurement.
func (h LatencyHistogram) Record(d time.Duration) {
	h.h.Observe(float64(d.Milliseconds()))
}

// Stats returns histogram statistics gathered from the underlying
// collector.
func (h LatencyHistogram) Stats() LatencyStats {
	var m dto.Metric
	if err := h.h.(prometheus.Metric).Write(&m); err != nil {
		return LatencyStats{}
	}
	hist := m.GetHistogram()
	stats := LatencyStats{Count: int64(hist.GetSampleCount())}
	if stats.Count > 0 {
		stats.Avg = time.Duration(hist.GetSampleSum()/float64(stats.Count)) * time.Millisecond
	}
	buckets := make([]int64, len(hist.GetBucket()))
	var prev uint64
	for i, b := range hist.GetBucket() {
		buckets[i] = int64(b.GetCumulativeCount() - prev)
		prev = b.GetCumulativeCount()
	}
	stats.Buckets = buckets
	return stats
}

// LatencyStats contains latency statistics derived from the
// prometheus histogram's cumulative buckets.
type LatencyStats struct {
	Count   int64
	Avg     time.Duration
	Buckets []int64
}

// Metrics holds client metrics
type Metrics struct {
	// Connection metrics
	ConnectAttempts  Counter
	ConnectSuccesses Counter
	ConnectFailures  Counter
	Disconnects      Counter

	// Request metrics
	RequestsSent     Counter
	RequestsSucceeded Counter
	RequestsFailed   Counter
	RequestsTimedOut Counter

	// Response metrics
	ResponsesReceived Counter
	ErrorsReceived   Counter
	RejectsReceived  Counter
	AbortsReceived   Counter

	// Discovery metrics
	WhoIsSent        Counter
	IAmReceived      Counter
	DevicesDiscovered Counter

	// COV metrics
	COVSubscriptions Counter
	COVNotifications Counter

	// Latency
	RequestLatency LatencyHistogram

	// Bytes
	BytesSent     Counter
	BytesReceived Counter

	// Current state
	ActiveRequests      Gauge
	ActiveSubscriptions Gauge

	// Timestamps
	startTime    time.Time
	lastActivity atomic.Int64
}

// newCounter builds and registers a prometheus counter under the
// bacnet namespace.
func newCounter(reg prometheus.Registerer, name, help string) Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bacnet",
		Name:      name,
		Help:      help,
	})
	if reg != nil {
		reg.MustRegister(c)
	}
	return Counter{c: c}
}

// newGauge builds and registers a prometheus gauge under the bacnet
// namespace.
func newGauge(reg prometheus.Registerer, name, help string) Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bacnet",
		Name:      name,
		Help:      help,
	})
	if reg != nil {
		reg.MustRegister(g)
	}
	return Gauge{g: g}
}

// NewMetrics creates a new Metrics instance, registering every
// collector against reg. A nil reg constructs unregistered collectors,
// useful for tests or a client run without a scrape endpoint.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectAttempts:  newCounter(reg, "connect_attempts_total", "Total connection attempts."),
		ConnectSuccesses: newCounter(reg, "connect_successes_total", "Total successful connections."),
		ConnectFailures:  newCounter(reg, "connect_failures_total", "Total failed connection attempts."),
		Disconnects:      newCounter(reg, "disconnects_total", "Total disconnections."),

		RequestsSent:      newCounter(reg, "requests_sent_total", "Total requests sent."),
		RequestsSucceeded: newCounter(reg, "requests_succeeded_total", "Total requests that received a successful response."),
		RequestsFailed:    newCounter(reg, "requests_failed_total", "Total requests that failed."),
		RequestsTimedOut:  newCounter(reg, "requests_timed_out_total", "Total requests that timed out."),

		ResponsesReceived: newCounter(reg, "responses_received_total", "Total responses received."),
		ErrorsReceived:    newCounter(reg, "errors_received_total", "Total BACnet-Error responses received."),
		RejectsReceived:   newCounter(reg, "rejects_received_total", "Total BACnet-Reject responses received."),
		AbortsReceived:    newCounter(reg, "aborts_received_total", "Total BACnet-Abort responses received."),

		WhoIsSent:         newCounter(reg, "who_is_sent_total", "Total Who-Is requests broadcast."),
		IAmReceived:       newCounter(reg, "i_am_received_total", "Total I-Am responses received."),
		DevicesDiscovered: newCounter(reg, "devices_discovered_total", "Total distinct devices discovered."),

		COVSubscriptions: newCounter(reg, "cov_subscriptions_total", "Total COV subscriptions established."),
		COVNotifications: newCounter(reg, "cov_notifications_total", "Total COV notifications received."),

		RequestLatency: LatencyHistogram{h: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bacnet",
			Name:      "request_latency_milliseconds",
			Help:      "Confirmed-request round-trip latency in milliseconds.",
			Buckets:   latencyBucketsMs,
		})},

		BytesSent:     newCounter(reg, "bytes_sent_total", "Total bytes sent on the wire."),
		BytesReceived: newCounter(reg, "bytes_received_total", "Total bytes received on the wire."),

		ActiveRequests:      newGauge(reg, "active_requests", "Requests currently awaiting a response."),
		ActiveSubscriptions: newGauge(reg, "active_subscriptions", "Currently active COV subscriptions."),

		startTime: time.Now(),
	}
	if reg != nil {
		reg.MustRegister(m.RequestLatency.h)
	}
	return m
}

// RecordActivity records the last activity time
func (m *Metrics) RecordActivity() {
	m.lastActivity.Store(time.Now().UnixNano())
}

// LastActivity returns the last activity time
func (m *Metrics) LastActivity() time.Time {
	ns := m.lastActivity.Load()
	if ns == 0 {
		return m.startTime
	}
	return time.Unix(0, ns)
}

// Uptime returns the time since metrics started
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// Snapshot returns a snapshot of current metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Uptime: m.Uptime(),

		ConnectAttempts:  m.ConnectAttempts.Value(),
		ConnectSuccesses: m.ConnectSuccesses.Value(),
		ConnectFailures:  m.ConnectFailures.Value(),
		Disconnects:      m.Disconnects.Value(),

		RequestsSent:      m.RequestsSent.Value(),
		RequestsSucceeded: m.RequestsSucceeded.Value(),
		RequestsFailed:    m.RequestsFailed.Value(),
		RequestsTimedOut:  m.RequestsTimedOut.Value(),

		ResponsesReceived: m.ResponsesReceived.Value(),
		ErrorsReceived:    m.ErrorsReceived.Value(),
		RejectsReceived:   m.RejectsReceived.Value(),
		AbortsReceived:    m.AbortsReceived.Value(),

		WhoIsSent:         m.WhoIsSent.Value(),
		IAmReceived:       m.IAmReceived.Value(),
		DevicesDiscovered: m.DevicesDiscovered.Value(),

		COVSubscriptions: m.COVSubscriptions.Value(),
		COVNotifications: m.COVNotifications.Value(),

		LatencyStats: m.RequestLatency.Stats(),

		BytesSent:     m.BytesSent.Value(),
		BytesReceived: m.BytesReceived.Value(),

		ActiveRequests:      m.ActiveRequests.Value(),
		ActiveSubscriptions: m.ActiveSubscriptions.Value(),

		LastActivity: m.LastActivity(),
	}
}

// MetricsSnapshot is a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	Uptime time.Duration

	ConnectAttempts  int64
	ConnectSuccesses int64
	ConnectFailures  int64
	Disconnects      int64

	RequestsSent      int64
	RequestsSucceeded int64
	RequestsFailed    int64
	RequestsTimedOut  int64

	ResponsesReceived int64
	ErrorsReceived    int64
	RejectsReceived   int64
	AbortsReceived    int64

	WhoIsSent         int64
	IAmReceived       int64
	DevicesDiscovered int64

	COVSubscriptions int64
	COVNotifications int64

	LatencyStats LatencyStats

	BytesSent     int64
	BytesReceived int64

	ActiveRequests      int64
	ActiveSubscriptions int64

	LastActivity time.Time
}
