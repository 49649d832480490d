package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Labels represents key-value pairs for metric labeling.
type Labels map[string]string

// Collector aggregates metrics across channels.
type Collector struct {
	channelsActive atomic.Uint64
	channelsTotal  atomic.Uint64
	channelsFailed atomic.Uint64

	bytesSealed   atomic.Uint64
	bytesOpened   atomic.Uint64
	recordsSealed atomic.Uint64
	recordsOpened atomic.Uint64

	authFailures       atomic.Uint64
	sequenceViolations atomic.Uint64

	handshakeLatency *Histogram
	recordSizes      *Histogram

	createdAt time.Time
	labels    Labels
}

// NewCollector creates a new metrics collector.
func NewCollector(labels Labels) *Collector {
	if labels == nil {
		labels = make(Labels)
	}
	return &Collector{
		handshakeLatency: NewHistogram(HandshakeLatencyBuckets),
		recordSizes:      NewHistogram(RecordSizeBuckets),
		createdAt:        time.Now(),
		labels:           labels,
	}
}

// ChannelEstablished records a successful handshake.
func (c *Collector) ChannelEstablished() {
	c.channelsActive.Add(1)
	c.channelsTotal.Add(1)
}

// ChannelClosed decrements the active channel counter.
func (c *Collector) ChannelClosed() {
	for {
		current := c.channelsActive.Load()
		if current == 0 {
			return
		}
		if c.channelsActive.CompareAndSwap(current, current-1) {
			return
		}
	}
}

// ChannelFailed records a failed establishment attempt.
func (c *Collector) ChannelFailed() {
	c.channelsFailed.Add(1)
}

// RecordHandshakeLatency records a handshake duration.
func (c *Collector) RecordHandshakeLatency(d time.Duration) {
	c.handshakeLatency.Observe(float64(d.Milliseconds()))
}

// RecordSealed accounts one sealed record of n plaintext bytes.
func (c *Collector) RecordSealed(n int) {
	c.recordsSealed.Add(1)
	c.bytesSealed.Add(uint64(n))
	c.recordSizes.Observe(float64(n))
}

// RecordOpened accounts one opened record of n ciphertext bytes.
func (c *Collector) RecordOpened(n int) {
	c.recordsOpened.Add(1)
	c.bytesOpened.Add(uint64(n))
}

// RecordAuthFailure increments the authentication failure counter.
func (c *Collector) RecordAuthFailure() {
	c.authFailures.Add(1)
}

// RecordSequenceViolation increments the replay/reorder counter.
func (c *Collector) RecordSequenceViolation() {
	c.sequenceViolations.Add(1)
}

// Snapshot is a point-in-time view of all collected metrics.
type Snapshot struct {
	Timestamp time.Time
	Uptime    time.Duration

	ChannelsActive uint64
	ChannelsTotal  uint64
	ChannelsFailed uint64

	BytesSealed   uint64
	BytesOpened   uint64
	RecordsSealed uint64
	RecordsOpened uint64

	AuthFailures       uint64
	SequenceViolations uint64

	HandshakeLatency HistogramSummary
	RecordSizes      HistogramSummary

	Labels Labels
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:          time.Now(),
		Uptime:             time.Since(c.createdAt),
		ChannelsActive:     c.channelsActive.Load(),
		ChannelsTotal:      c.channelsTotal.Load(),
		ChannelsFailed:     c.channelsFailed.Load(),
		BytesSealed:        c.bytesSealed.Load(),
		BytesOpened:        c.bytesOpened.Load(),
		RecordsSealed:      c.recordsSealed.Load(),
		RecordsOpened:      c.recordsOpened.Load(),
		AuthFailures:       c.authFailures.Load(),
		SequenceViolations: c.sequenceViolations.Load(),
		HandshakeLatency:   c.handshakeLatency.Summary(),
		RecordSizes:        c.recordSizes.Summary(),
		Labels:             c.labels,
	}
}

// Reset clears all metrics. Intended for tests.
func (c *Collector) Reset() {
	c.channelsActive.Store(0)
	c.channelsTotal.Store(0)
	c.channelsFailed.Store(0)
	c.bytesSealed.Store(0)
	c.bytesOpened.Store(0)
	c.recordsSealed.Store(0)
	c.recordsOpened.Store(0)
	c.authFailures.Store(0)
	c.sequenceViolations.Store(0)
	c.handshakeLatency.Reset()
	c.recordSizes.Reset()
	c.createdAt = time.Now()
}

// --- Global Collector ---

var (
	globalCollector     *Collector
	globalCollectorOnce sync.Once
)

// Global returns the global metrics collector, creating it on first use.
func Global() *Collector {
	globalCollectorOnce.Do(func() {
		globalCollector = NewCollector(Labels{"instance": "default"})
	})
	return globalCollector
}
