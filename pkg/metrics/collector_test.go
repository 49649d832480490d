package metrics

import (
	"testing"
	"time"
)

func TestCollectorChannelCounters(t *testing.T) {
	c := NewCollector(nil)

	c.ChannelEstablished()
	c.ChannelEstablished()
	c.ChannelClosed()
	c.ChannelFailed()

	snap := c.Snapshot()
	if snap.ChannelsActive != 1 {
		t.Errorf("ChannelsActive = %d, want 1", snap.ChannelsActive)
	}
	if snap.ChannelsTotal != 2 {
		t.Errorf("ChannelsTotal = %d, want 2", snap.ChannelsTotal)
	}
	if snap.ChannelsFailed != 1 {
		t.Errorf("ChannelsFailed = %d, want 1", snap.ChannelsFailed)
	}
}

func TestCollectorActiveNeverNegative(t *testing.T) {
	c := NewCollector(nil)
	c.ChannelClosed()
	if got := c.Snapshot().ChannelsActive; got != 0 {
		t.Errorf("ChannelsActive = %d, want 0", got)
	}
}

func TestCollectorRecordAccounting(t *testing.T) {
	c := NewCollector(nil)

	c.RecordSealed(100)
	c.RecordSealed(200)
	c.RecordOpened(316)
	c.RecordAuthFailure()
	c.RecordSequenceViolation()

	snap := c.Snapshot()
	if snap.RecordsSealed != 2 || snap.BytesSealed != 300 {
		t.Errorf("sealed = %d records / %d bytes, want 2 / 300", snap.RecordsSealed, snap.BytesSealed)
	}
	if snap.RecordsOpened != 1 || snap.BytesOpened != 316 {
		t.Errorf("opened = %d records / %d bytes, want 1 / 316", snap.RecordsOpened, snap.BytesOpened)
	}
	if snap.AuthFailures != 1 {
		t.Errorf("AuthFailures = %d, want 1", snap.AuthFailures)
	}
	if snap.SequenceViolations != 1 {
		t.Errorf("SequenceViolations = %d, want 1", snap.SequenceViolations)
	}
	if snap.RecordSizes.Count != 2 {
		t.Errorf("RecordSizes.Count = %d, want 2", snap.RecordSizes.Count)
	}
}

func TestCollectorReset(t *testing.T) {
	c := NewCollector(Labels{"env": "test"})
	c.ChannelEstablished()
	c.RecordSealed(64)
	c.RecordHandshakeLatency(42 * time.Millisecond)

	c.Reset()

	snap := c.Snapshot()
	if snap.ChannelsTotal != 0 || snap.RecordsSealed != 0 || snap.HandshakeLatency.Count != 0 {
		t.Error("Reset should clear all counters and histograms")
	}
	if snap.Labels["env"] != "test" {
		t.Error("Reset should keep labels")
	}
}

func TestHistogramSummary(t *testing.T) {
	h := NewHistogram([]float64{10, 100})

	for _, v := range []float64{5, 50, 500} {
		h.Observe(v)
	}

	s := h.Summary()
	if s.Count != 3 {
		t.Errorf("Count = %d, want 3", s.Count)
	}
	if s.Min != 5 || s.Max != 500 {
		t.Errorf("Min/Max = %v/%v, want 5/500", s.Min, s.Max)
	}
	if len(s.Buckets) != 3 {
		t.Fatalf("buckets = %d, want 3", len(s.Buckets))
	}
	if s.Buckets[0].Count != 1 || s.Buckets[1].Count != 2 || s.Buckets[2].Count != 3 {
		t.Errorf("cumulative bucket counts = %v", s.Buckets)
	}
}

func TestHistogramEmptySummary(t *testing.T) {
	h := NewHistogram(HandshakeLatencyBuckets)
	s := h.Summary()
	if s.Count != 0 || len(s.Buckets) != 0 {
		t.Error("empty histogram should summarize to zero")
	}
}
