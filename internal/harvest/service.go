package harvest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fvockel/squadscout/internal/store"
)

// ErrRunInProgress is returned when a harvest is requested while another run
// is active. One run at a time keeps the politeness budget honest.
var ErrRunInProgress = errors.New("a harvesting run is already in progress")

// Broadcaster pushes progress events to connected live subscribers.
type Broadcaster interface {
	BroadcastEvent(ev Event)
}

// StreamPublisher publishes progress events and run summaries to downstream
// consumers outside this process.
type StreamPublisher interface {
	PublishProgressEvent(ctx context.Context, ev Event) error
	PublishRunSummary(ctx context.Context, spec RunSpec, counts Counts, runErr string) error
}

// SnapshotCache stores the flattened output of a (country, season) harvest.
type SnapshotCache interface {
	GetSnapshot(ctx context.Context, countryID, seasonID int) ([]store.FlatPlayer, bool)
	SetSnapshot(ctx context.Context, countryID, seasonID int, rows []store.FlatPlayer)
}

// RunStatus describes the current or most recent run.
type RunStatus struct {
	Spec       RunSpec    `json:"spec"`
	Running    bool       `json:"running"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Counts     Counts     `json:"counts"`
	Error      string     `json:"error,omitempty"`
}

// Service is the single entry point for harvesting runs. Batch and streaming
// triggers share one runner implementation; only the reporter differs. At
// most one run is active at a time.
type Service struct {
	source    Source
	sink      Sink
	cache     SnapshotCache
	broadcast Broadcaster
	publisher StreamPublisher

	// Runner tuning applied to every run; zero values keep runner defaults.
	Workers  int
	MinDelay time.Duration
	MaxDelay time.Duration

	mu     sync.Mutex
	active bool
	status *RunStatus
}

func NewService(source Source, sink Sink, cache SnapshotCache) *Service {
	return &Service{source: source, sink: sink, cache: cache}
}

// SetBroadcaster attaches a live-subscriber fanout. Optional.
func (s *Service) SetBroadcaster(b Broadcaster) { s.broadcast = b }

// SetPublisher attaches a downstream event publisher. Optional.
func (s *Service) SetPublisher(p StreamPublisher) { s.publisher = p }

// RunBatch executes a run to completion and returns its terminal counts.
func (s *Service) RunBatch(ctx context.Context, spec RunSpec) (Counts, error) {
	spec = normalize(spec)
	if err := s.begin(spec); err != nil {
		return Counts{}, err
	}

	reporter := NewSummaryReporter()
	result, err := s.execute(ctx, spec, reporter)
	counts, _ := reporter.Summary()
	s.finish(counts, err)

	if err != nil {
		return counts, err
	}
	s.storeSnapshot(ctx, spec, result)
	return result.Counts, nil
}

// StartBatch begins a run and executes it in the background. The caller gets
// an immediate ErrRunInProgress when another run holds the slot; the outcome
// of an accepted run is observable through Status.
func (s *Service) StartBatch(spec RunSpec) error {
	spec = normalize(spec)
	if err := s.begin(spec); err != nil {
		return err
	}

	go func() {
		reporter := NewSummaryReporter()
		result, err := s.execute(context.Background(), spec, reporter)
		counts, _ := reporter.Summary()
		s.finish(counts, err)
		if err == nil {
			s.storeSnapshot(context.Background(), spec, result)
		}
	}()

	return nil
}

// RunStreaming starts a run and returns its live event channel. The run
// executes in the calling goroutine's context: cancelling ctx stops it at the
// next unit boundary. The channel closes after the terminal event.
func (s *Service) RunStreaming(ctx context.Context, spec RunSpec) (<-chan Event, error) {
	spec = normalize(spec)
	if err := s.begin(spec); err != nil {
		return nil, err
	}

	counts := NewAccumulator()
	reporter := NewEventReporter(counts)
	out := make(chan Event, eventBuffer)

	// Tee the reporter stream to the subscriber and every attached fanout.
	go func() {
		defer close(out)
		for ev := range reporter.Events() {
			s.fanout(ev)
			select {
			case out <- ev:
			default:
			}
		}
	}()

	go func() {
		result, err := s.executeWith(ctx, spec, reporter, counts)
		s.finish(counts.Snapshot(), err)
		if err == nil {
			s.storeSnapshot(context.Background(), spec, result)
		}
	}()

	return out, nil
}

// Status reports the active or most recent run. The zero status means no run
// has happened since startup.
func (s *Service) Status() RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == nil {
		return RunStatus{}
	}
	return *s.status
}

// Snapshot returns the flattened (country, season) harvest, from cache unless
// refresh is set or nothing is cached, in which case a fresh flat run executes.
func (s *Service) Snapshot(ctx context.Context, countryPath string, countryID, seasonID int, refresh bool) ([]store.FlatPlayer, error) {
	if !refresh && s.cache != nil {
		if rows, ok := s.cache.GetSnapshot(ctx, countryID, seasonID); ok {
			return rows, nil
		}
	}

	spec := normalize(RunSpec{
		Path:      countryPath,
		CountryID: countryID,
		SeasonID:  seasonID,
		Details:   true,
		Flat:      true,
		Refresh:   refresh,
	})
	if err := s.begin(spec); err != nil {
		return nil, err
	}

	reporter := NewSummaryReporter()
	result, err := s.execute(ctx, spec, reporter)
	counts, _ := reporter.Summary()
	s.finish(counts, err)
	if err != nil {
		return nil, err
	}

	s.storeSnapshot(ctx, spec, result)
	return result.Flat, nil
}

func (s *Service) execute(ctx context.Context, spec RunSpec, reporter Reporter) (*Result, error) {
	return s.executeWith(ctx, spec, reporter, NewAccumulator())
}

func (s *Service) executeWith(ctx context.Context, spec RunSpec, reporter Reporter, counts *Accumulator) (*Result, error) {
	runner := NewRunner(s.source, s.sink, reporter, counts)
	if s.Workers > 0 {
		runner.Workers = s.Workers
	}
	if s.MinDelay != 0 || s.MaxDelay != 0 {
		runner.MinDelay = s.MinDelay
		runner.MaxDelay = s.MaxDelay
	}
	return runner.Run(ctx, spec)
}

func (s *Service) begin(spec RunSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return ErrRunInProgress
	}
	s.active = true
	s.status = &RunStatus{Spec: spec, Running: true, StartedAt: time.Now()}
	return nil
}

func (s *Service) finish(counts Counts, err error) {
	s.mu.Lock()
	s.active = false
	if s.status != nil {
		now := time.Now()
		s.status.Running = false
		s.status.FinishedAt = &now
		s.status.Counts = counts
		if err != nil {
			s.status.Error = err.Error()
		}
	}
	spec := RunSpec{}
	if s.status != nil {
		spec = s.status.Spec
	}
	s.mu.Unlock()

	if s.publisher != nil {
		msg := ""
		if err != nil {
			msg = err.Error()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if perr := s.publisher.PublishRunSummary(ctx, spec, counts, msg); perr != nil {
			log.Printf("[harvest] publish run summary: %v", perr)
		}
	}
}

func (s *Service) fanout(ev Event) {
	if s.broadcast != nil {
		s.broadcast.BroadcastEvent(ev)
	}
	if s.publisher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := s.publisher.PublishProgressEvent(ctx, ev); err != nil {
			log.Printf("[harvest] publish progress event: %v", err)
		}
		cancel()
	}
}

func (s *Service) storeSnapshot(ctx context.Context, spec RunSpec, result *Result) {
	if s.cache == nil || result == nil || !spec.Flat {
		return
	}
	s.cache.SetSnapshot(ctx, spec.CountryID, spec.SeasonID, result.Flat)
}

// normalize fills in derived spec fields: a flat run needs the full hierarchy.
func normalize(spec RunSpec) RunSpec {
	if spec.Flat {
		spec.Details = true
	}
	return spec
}

// Validate rejects specs a run cannot start from.
func (spec RunSpec) Validate() error {
	if spec.Path == "" {
		return errors.New("path is required")
	}
	if spec.SeasonID <= 0 {
		return fmt.Errorf("season %d is not a valid season", spec.SeasonID)
	}
	return nil
}
