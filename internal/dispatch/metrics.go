package dispatch

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks dispatch performance.
type Metrics struct {
	// Event counters
	keyEventsTotal   atomic.Uint64
	actionsTotal     atomic.Uint64
	suppressedTotal  atomic.Uint64
	sequenceTimeouts atomic.Uint64
	cancelsTotal     atomic.Uint64
	missesTotal      atomic.Uint64

	// Latency tracking
	mu                sync.RWMutex
	keyLatencies      []time.Duration
	actionLatencies   []time.Duration
	maxLatencySamples int
	keyLatencyIdx     int
	actionLatencyIdx  int

	// Peak latency (all time)
	peakKeyLatency    atomic.Int64
	peakActionLatency atomic.Int64

	startTime time.Time

	enabled atomic.Bool
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{
		keyLatencies:      make([]time.Duration, 1000),
		actionLatencies:   make([]time.Duration, 1000),
		maxLatencySamples: 1000,
		startTime:         time.Now(),
	}
	m.enabled.Store(true)
	return m
}

// SetEnabled enables or disables metrics collection.
func (m *Metrics) SetEnabled(enabled bool) {
	m.enabled.Store(enabled)
}

// IsEnabled returns whether metrics collection is enabled.
func (m *Metrics) IsEnabled() bool {
	return m.enabled.Load()
}

// RecordKeyEvent records a processed key event with its dispatch time.
func (m *Metrics) RecordKeyEvent(latency time.Duration) {
	if !m.enabled.Load() {
		return
	}

	m.keyEventsTotal.Add(1)
	updatePeak(&m.peakKeyLatency, latency)

	m.mu.Lock()
	m.keyLatencies[m.keyLatencyIdx] = latency
	m.keyLatencyIdx = (m.keyLatencyIdx + 1) % m.maxLatencySamples
	m.mu.Unlock()
}

// RecordAction records a fired binding with its handler time.
func (m *Metrics) RecordAction(latency time.Duration) {
	if !m.enabled.Load() {
		return
	}

	m.actionsTotal.Add(1)
	updatePeak(&m.peakActionLatency, latency)

	m.mu.Lock()
	m.actionLatencies[m.actionLatencyIdx] = latency
	m.actionLatencyIdx = (m.actionLatencyIdx + 1) % m.maxLatencySamples
	m.mu.Unlock()
}

// RecordSuppressed records a key event ignored because an editable widget
// had focus.
func (m *Metrics) RecordSuppressed() {
	if !m.enabled.Load() {
		return
	}
	m.suppressedTotal.Add(1)
}

// RecordTimeout records a pending buffer reset by the debounce window.
func (m *Metrics) RecordTimeout() {
	if !m.enabled.Load() {
		return
	}
	m.sequenceTimeouts.Add(1)
}

// RecordCancel records a pending buffer cancelled by Escape or Cancel.
func (m *Metrics) RecordCancel() {
	if !m.enabled.Load() {
		return
	}
	m.cancelsTotal.Add(1)
}

// RecordMiss records a buffer reset because no binding could match.
func (m *Metrics) RecordMiss() {
	if !m.enabled.Load() {
		return
	}
	m.missesTotal.Add(1)
}

// updatePeak raises the stored peak latency if the new sample exceeds it.
func updatePeak(peak *atomic.Int64, latency time.Duration) {
	latencyNs := latency.Nanoseconds()
	for {
		current := peak.Load()
		if latencyNs <= current {
			return
		}
		if peak.CompareAndSwap(current, latencyNs) {
			return
		}
	}
}

// MetricsSnapshot holds a point-in-time view of metrics.
type MetricsSnapshot struct {
	// Counters
	KeyEventsTotal   uint64
	ActionsTotal     uint64
	SuppressedTotal  uint64
	SequenceTimeouts uint64
	CancelsTotal     uint64
	MissesTotal      uint64

	// Latency stats
	AvgKeyLatency  time.Duration
	MaxKeyLatency  time.Duration
	P99KeyLatency  time.Duration
	PeakKeyLatency time.Duration

	AvgActionLatency  time.Duration
	MaxActionLatency  time.Duration
	P99ActionLatency  time.Duration
	PeakActionLatency time.Duration

	// Rates
	EventsPerSecond  float64
	ActionsPerSecond float64

	Uptime time.Duration
}

// Snapshot returns a point-in-time view of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	keyLatencies := make([]time.Duration, len(m.keyLatencies))
	copy(keyLatencies, m.keyLatencies)
	actionLatencies := make([]time.Duration, len(m.actionLatencies))
	copy(actionLatencies, m.actionLatencies)
	m.mu.RUnlock()

	keyCount := m.keyEventsTotal.Load()
	actionCount := m.actionsTotal.Load()
	uptime := time.Since(m.startTime)

	snap := MetricsSnapshot{
		KeyEventsTotal:    keyCount,
		ActionsTotal:      actionCount,
		SuppressedTotal:   m.suppressedTotal.Load(),
		SequenceTimeouts:  m.sequenceTimeouts.Load(),
		CancelsTotal:      m.cancelsTotal.Load(),
		MissesTotal:       m.missesTotal.Load(),
		PeakKeyLatency:    time.Duration(m.peakKeyLatency.Load()),
		PeakActionLatency: time.Duration(m.peakActionLatency.Load()),
		Uptime:            uptime,
	}

	if uptime > 0 {
		snap.EventsPerSecond = float64(keyCount) / uptime.Seconds()
		snap.ActionsPerSecond = float64(actionCount) / uptime.Seconds()
	}

	snap.AvgKeyLatency, snap.MaxKeyLatency, snap.P99KeyLatency = latencyStats(keyLatencies)
	snap.AvgActionLatency, snap.MaxActionLatency, snap.P99ActionLatency = latencyStats(actionLatencies)

	return snap
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.keyEventsTotal.Store(0)
	m.actionsTotal.Store(0)
	m.suppressedTotal.Store(0)
	m.sequenceTimeouts.Store(0)
	m.cancelsTotal.Store(0)
	m.missesTotal.Store(0)
	m.peakKeyLatency.Store(0)
	m.peakActionLatency.Store(0)

	m.mu.Lock()
	for i := range m.keyLatencies {
		m.keyLatencies[i] = 0
	}
	for i := range m.actionLatencies {
		m.actionLatencies[i] = 0
	}
	m.keyLatencyIdx = 0
	m.actionLatencyIdx = 0
	m.startTime = time.Now()
	m.mu.Unlock()
}

// latencyStats computes average, max, and p99 from a slice of latencies.
func latencyStats(latencies []time.Duration) (avg, maxLat, p99 time.Duration) {
	valid := make([]time.Duration, 0, len(latencies))
	for _, l := range latencies {
		if l > 0 {
			valid = append(valid, l)
		}
	}

	if len(valid) == 0 {
		return 0, 0, 0
	}

	var sum time.Duration
	for _, l := range valid {
		sum += l
		if l > maxLat {
			maxLat = l
		}
	}
	avg = sum / time.Duration(len(valid))

	sort.Slice(valid, func(i, j int) bool { return valid[i] < valid[j] })
	idx := int(float64(len(valid)) * 0.99)
	if idx >= len(valid) {
		idx = len(valid) - 1
	}
	p99 = valid[idx]

	return avg, maxLat, p99
}
