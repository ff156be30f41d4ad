package harvest

import (
	"log"
	"sync"
)

// SliceBounds returns the closed sub-interval of the progress axis reserved
// for unit i of n. Every unit owns an equal slice so overall progress stays
// monotonic even when units contain different amounts of work.
func SliceBounds(i, n int) (lo, hi float64) {
	if n <= 0 {
		return 0, 1
	}
	return float64(i) / float64(n), float64(i+1) / float64(n)
}

// Lerp maps a completion fraction into a slice.
func Lerp(lo, hi, fraction float64) float64 {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return lo + (hi-lo)*fraction
}

const eventBuffer = 64

// EventReporter turns runner callbacks into a stream of Events for a live
// subscriber. Progress is clamped to be non-decreasing regardless of callback
// ordering across workers. Events are dropped when the subscriber lags behind
// the buffer; the terminal event closes the channel.
type EventReporter struct {
	counts *Accumulator

	mu     sync.Mutex
	max    float64
	closed bool
	events chan Event
}

func NewEventReporter(counts *Accumulator) *EventReporter {
	return &EventReporter{
		counts: counts,
		events: make(chan Event, eventBuffer),
	}
}

// Events is the subscriber side of the stream.
func (r *EventReporter) Events() <-chan Event {
	return r.events
}

func (r *EventReporter) OnPhase(phase Phase, message string, fraction float64) {
	r.emit(Event{
		Phase:    phase,
		Message:  message,
		Progress: fraction,
		Counts:   r.counts.Snapshot(),
	}, false)
}

func (r *EventReporter) OnUnitSkipped(message string) {
	r.emit(Event{
		Phase:   PhaseError,
		Message: message,
		Counts:  r.counts.Snapshot(),
	}, false)
}

func (r *EventReporter) OnComplete(counts Counts) {
	r.emit(Event{
		Phase:    PhaseDone,
		Message:  "harvest complete",
		Progress: 1,
		Counts:   counts,
		Done:     true,
	}, true)
}

func (r *EventReporter) OnError(err error, counts Counts) {
	r.emit(Event{
		Phase:   PhaseError,
		Message: "harvest failed",
		Counts:  counts,
		Done:    true,
		Error:   err.Error(),
	}, true)
}

func (r *EventReporter) emit(ev Event, terminal bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	if ev.Progress < r.max {
		ev.Progress = r.max
	}
	r.max = ev.Progress

	select {
	case r.events <- ev:
	default:
	}

	if terminal {
		r.closed = true
		close(r.events)
	}
}

// SummaryReporter logs phase transitions and records the terminal outcome.
// Used by batch runs (CLI, scheduler) where no subscriber is attached.
type SummaryReporter struct {
	mu     sync.Mutex
	counts Counts
	err    error
}

func NewSummaryReporter() *SummaryReporter {
	return &SummaryReporter{}
}

func (r *SummaryReporter) OnPhase(phase Phase, message string, fraction float64) {
	log.Printf("[harvest] %s (%.0f%%): %s", phase, fraction*100, message)
}

func (r *SummaryReporter) OnUnitSkipped(message string) {
	log.Printf("[harvest] skipped: %s", message)
}

func (r *SummaryReporter) OnComplete(counts Counts) {
	r.mu.Lock()
	r.counts = counts
	r.mu.Unlock()
	log.Printf("[harvest] done: %d competitions, %d clubs, %d players, %d profiles, %d skipped",
		counts.Competitions, counts.Clubs, counts.Players, counts.Profiles, counts.Skipped)
}

func (r *SummaryReporter) OnError(err error, counts Counts) {
	r.mu.Lock()
	r.counts = counts
	r.err = err
	r.mu.Unlock()
	log.Printf("[harvest] failed: %v", err)
}

// Summary returns the terminal counters and error of the run.
func (r *SummaryReporter) Summary() (Counts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts, r.err
}

// multiReporter fans callbacks out to several reporters.
type multiReporter []Reporter

func (m multiReporter) OnPhase(phase Phase, message string, fraction float64) {
	for _, r := range m {
		r.OnPhase(phase, message, fraction)
	}
}

func (m multiReporter) OnUnitSkipped(message string) {
	for _, r := range m {
		r.OnUnitSkipped(message)
	}
}

func (m multiReporter) OnComplete(counts Counts) {
	for _, r := range m {
		r.OnComplete(counts)
	}
}

func (m multiReporter) OnError(err error, counts Counts) {
	for _, r := range m {
		r.OnError(err, counts)
	}
}
