package llm

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink collects events and can optionally block to simulate a slow
// consumer.
type recordingSink struct {
	mu      sync.Mutex
	events  []CallEvent
	entered chan struct{}
	release chan struct{}
}

func (s *recordingSink) Record(ev CallEvent) {
	if s.entered != nil {
		s.entered <- struct{}{}
		<-s.release
	}
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *recordingSink) purposes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Meta.Purpose
	}
	return out
}

func event(purpose string) CallEvent {
	return CallEvent{
		Backend: BackendGeminiFlash,
		Model:   "gemini-2.0-flash",
		Success: true,
		Meta:    CallMeta{JobID: "job-1", Purpose: purpose},
		At:      time.Now(),
	}
}

func TestTelemetryCloseFlushesQueuedEvents(t *testing.T) {
	sink := &recordingSink{}
	tel := NewTelemetry(sink, 16)

	for _, p := range []string{"draft", "score:slop", "refine"} {
		tel.Record(event(p))
	}
	tel.Close()

	assert.Equal(t, []string{"draft", "score:slop", "refine"}, sink.purposes())
}

func TestTelemetryRecordNeverBlocksAndDropsOldest(t *testing.T) {
	sink := &recordingSink{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	tel := NewTelemetry(sink, 4)

	// Park the drain goroutine inside the sink so the queue stops moving.
	tel.Record(event("blocked"))
	select {
	case <-sink.entered:
	case <-time.After(time.Second):
		t.Fatal("drain never reached the sink")
	}

	// Fill the queue, then overflow it. The overflowing Record must return
	// promptly, evicting the oldest queued entry.
	for _, p := range []string{"e1", "e2", "e3", "e4"} {
		tel.Record(event(p))
	}
	done := make(chan struct{})
	go func() {
		tel.Record(event("e5"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full queue")
	}

	sink.entered = nil
	close(sink.release)
	tel.Close()

	got := sink.purposes()
	require.Len(t, got, 5)
	assert.Equal(t, "blocked", got[0])
	assert.NotContains(t, got, "e1")
	assert.Equal(t, []string{"e2", "e3", "e4", "e5"}, got[1:])
}

func TestTelemetryNilSinkDiscards(t *testing.T) {
	tel := NewTelemetry(nil, 2)
	for i := 0; i < 10; i++ {
		tel.Record(event("draft"))
	}
	tel.Close() // must not panic or hang
}

func TestTelemetryCloseIsIdempotent(t *testing.T) {
	sink := &recordingSink{}
	tel := NewTelemetry(sink, 4)
	tel.Record(event("draft"))
	tel.Close()
	tel.Close()
	assert.Len(t, sink.purposes(), 1)
}
