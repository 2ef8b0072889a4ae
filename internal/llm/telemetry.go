package llm

import (
	"sync"
	"time"
)

// CallMeta is the explicit correlation context threaded through every
// generation call.
type CallMeta struct {
	JobID       string
	Purpose     string // e.g. "draft", "score:slop", "refine"
	Combination string // "assetType/voiceSlug"
}

// CallEvent is one telemetry record for a generation call, success or failure.
type CallEvent struct {
	Backend     Backend
	Model       string
	PromptChars int
	SystemChars int
	Usage       Usage
	LatencyMs   int64
	Success     bool
	Meta        CallMeta
	At          time.Time
}

// Sink receives telemetry events from the background drain.
type Sink interface {
	Record(ev CallEvent)
}

// Telemetry is a bounded, non-blocking outbound queue with a background
// drain. A full queue drops the oldest entry; Record never blocks a
// generation call.
type Telemetry struct {
	ch        chan CallEvent
	sink      Sink
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewTelemetry starts the drain goroutine. A nil sink discards events.
func NewTelemetry(sink Sink, buffer int) *Telemetry {
	if buffer <= 0 {
		buffer = 256
	}
	t := &Telemetry{
		ch:   make(chan CallEvent, buffer),
		sink: sink,
	}
	t.wg.Add(1)
	go t.drain()
	return t
}

// Record enqueues an event without blocking. When the queue is full the
// oldest entry is dropped to make room.
func (t *Telemetry) Record(ev CallEvent) {
	for {
		select {
		case t.ch <- ev:
			return
		default:
		}
		// Queue full: drop the oldest entry and retry.
		select {
		case <-t.ch:
		default:
		}
	}
}

func (t *Telemetry) drain() {
	defer t.wg.Done()
	for ev := range t.ch {
		if t.sink != nil {
			t.sink.Record(ev)
		}
	}
}

// Close flushes remaining events and stops the drain goroutine.
func (t *Telemetry) Close() {
	t.closeOnce.Do(func() {
		close(t.ch)
	})
	t.wg.Wait()
}
