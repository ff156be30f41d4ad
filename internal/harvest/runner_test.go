package harvest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/fvockel/squadscout/internal/ingest/kickwelt"
	"github.com/fvockel/squadscout/internal/store"
)

// oplog records the interleaving of source and sink calls so ordering
// invariants (clubs persisted before any roster fetch) can be asserted.
type oplog struct {
	mu  sync.Mutex
	ops []string
}

func (l *oplog) add(op string) {
	l.mu.Lock()
	l.ops = append(l.ops, op)
	l.mu.Unlock()
}

func (l *oplog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ops...)
}

type fakeSource struct {
	log          *oplog
	competitions []kickwelt.CompetitionRow
	pages        map[string]*kickwelt.CompetitionPage
	squads       map[string][]kickwelt.SquadPlayerRow
	squadErr     map[string]error
	profiles     map[string]*kickwelt.ProfileData
}

func (f *fakeSource) Competitions(ctx context.Context, countryPath string, seasonID int) ([]kickwelt.CompetitionRow, error) {
	f.log.add("fetch-index")
	return f.competitions, nil
}

func (f *fakeSource) CompetitionPage(ctx context.Context, competitionPath string, seasonID int, referer string) (*kickwelt.CompetitionPage, error) {
	f.log.add("fetch-competition:" + competitionPath)
	page, ok := f.pages[competitionPath]
	if !ok {
		return nil, errors.New("no such competition page")
	}
	return page, nil
}

func (f *fakeSource) Squad(ctx context.Context, rosterPath, referer string) ([]kickwelt.SquadPlayerRow, error) {
	id := clubIDFromPath(rosterPath)
	f.log.add("fetch-squad:" + id)
	if err := f.squadErr[id]; err != nil {
		return nil, err
	}
	return f.squads[id], nil
}

func (f *fakeSource) Profile(ctx context.Context, profilePath, referer string, refresh bool) (*kickwelt.ProfileData, error) {
	f.log.add("fetch-profile:" + profilePath)
	return f.profiles[profilePath], nil
}

type fakeSink struct {
	log     *oplog
	mu      sync.Mutex
	players []*store.SquadPlayer
	merges  int
	saveErr error
}

func (s *fakeSink) SaveCompetition(ctx context.Context, c *store.Competition) error {
	s.log.add("save-competition:" + c.Code)
	return nil
}

func (s *fakeSink) SaveClub(ctx context.Context, c *store.Club) error {
	s.log.add("save-club:" + c.ExternalClubID)
	return nil
}

func (s *fakeSink) SaveSquadPlayer(ctx context.Context, p *store.SquadPlayer) error {
	s.log.add("save-player:" + p.ExternalPlayerID)
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	s.players = append(s.players, p)
	s.mu.Unlock()
	return nil
}

func (s *fakeSink) SaveProfile(ctx context.Context, p *store.PlayerProfile) error {
	s.log.add("save-profile:" + p.ExternalPlayerID)
	return nil
}

func (s *fakeSink) MergeIdentity(ctx context.Context, p *store.SquadPlayer, clubName string) error {
	s.mu.Lock()
	s.merges++
	s.mu.Unlock()
	return nil
}

type recordingReporter struct {
	mu        sync.Mutex
	skips     []string
	completes int
	errs      []error
}

func (r *recordingReporter) OnPhase(phase Phase, message string, fraction float64) {}

func (r *recordingReporter) OnUnitSkipped(message string) {
	r.mu.Lock()
	r.skips = append(r.skips, message)
	r.mu.Unlock()
}

func (r *recordingReporter) OnComplete(counts Counts) {
	r.mu.Lock()
	r.completes++
	r.mu.Unlock()
}

func (r *recordingReporter) OnError(err error, counts Counts) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

func clubIDFromPath(p string) string {
	i := strings.Index(p, "/verein/")
	if i < 0 {
		return ""
	}
	rest := p[i+len("/verein/"):]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

func newCountryFixture(log *oplog) *fakeSource {
	return &fakeSource{
		log: log,
		competitions: []kickwelt.CompetitionRow{
			{Code: "L1", Name: "Super League", SourcePath: "/super-league/startseite/wettbewerb/L1"},
		},
		pages: map[string]*kickwelt.CompetitionPage{
			"/super-league/startseite/wettbewerb/L1": {
				Name: "Super League",
				Clubs: []kickwelt.ClubRow{
					{ExternalClubID: "42", Name: "FC Adler", ProfilePath: "/fc-adler/startseite/verein/42"},
					{ExternalClubID: "77", Name: "SV Blitz", ProfilePath: "/sv-blitz/startseite/verein/77"},
				},
			},
		},
		squads: map[string][]kickwelt.SquadPlayerRow{
			"42": {
				{ExternalPlayerID: "9001", Name: "Jan Weiß", ProfilePath: "/jan-weiss/profil/spieler/9001"},
				{ExternalPlayerID: "9002", Name: "Max Kurz", ProfilePath: "/max-kurz/profil/spieler/9002"},
			},
			"77": {
				{ExternalPlayerID: "9003", Name: "Timo Lang", ProfilePath: "/timo-lang/profil/spieler/9003"},
			},
		},
		squadErr: map[string]error{},
		profiles: map[string]*kickwelt.ProfileData{},
	}
}

func newTestRunner(source Source, sink Sink, reporter Reporter, counts *Accumulator) *Runner {
	r := NewRunner(source, sink, reporter, counts)
	r.Workers = 1
	r.MinDelay = -1
	r.MaxDelay = -1
	return r
}

func TestRunnerCountryRun(t *testing.T) {
	log := &oplog{}
	source := newCountryFixture(log)
	sink := &fakeSink{log: log}
	reporter := &recordingReporter{}

	runner := newTestRunner(source, sink, reporter, NewAccumulator())
	spec := RunSpec{Path: "/wettbewerbe/national/wettbewerbe/40", CountryID: 40, SeasonID: 2025, Details: true, Flat: true}

	result, err := runner.Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := Counts{Competitions: 1, Clubs: 2, Players: 3}
	if result.Counts != want {
		t.Errorf("counts = %+v, want %+v", result.Counts, want)
	}
	if len(result.Flat) != 3 {
		t.Errorf("flat rows = %d, want 3", len(result.Flat))
	}
	if sink.merges != 3 {
		t.Errorf("identity merges = %d, want 3", sink.merges)
	}
	if reporter.completes != 1 || len(reporter.errs) != 0 {
		t.Errorf("terminal callbacks: completes=%d errs=%v", reporter.completes, reporter.errs)
	}

	// Every club must be persisted before any roster fetch starts.
	ops := log.snapshot()
	lastSave, firstFetch := -1, len(ops)
	for i, op := range ops {
		if strings.HasPrefix(op, "save-club:") && i > lastSave {
			lastSave = i
		}
		if strings.HasPrefix(op, "fetch-squad:") && i < firstFetch {
			firstFetch = i
		}
	}
	if lastSave == -1 || firstFetch == len(ops) {
		t.Fatalf("missing club saves or roster fetches in %v", ops)
	}
	if lastSave > firstFetch {
		t.Errorf("roster fetch started before all clubs were saved: %v", ops)
	}
}

func TestRunnerContainsFailedRoster(t *testing.T) {
	log := &oplog{}
	source := newCountryFixture(log)
	source.squadErr["77"] = errors.New("status 500")
	sink := &fakeSink{log: log}
	reporter := &recordingReporter{}

	runner := newTestRunner(source, sink, reporter, NewAccumulator())
	spec := RunSpec{Path: "/wettbewerbe/national/wettbewerbe/40", CountryID: 40, SeasonID: 2025, Details: true}

	result, err := runner.Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("a failing roster must not abort the run: %v", err)
	}
	if result.Counts.Players != 2 {
		t.Errorf("players = %d, want 2 from the surviving club", result.Counts.Players)
	}
	if result.Counts.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", result.Counts.Skipped)
	}
	if len(reporter.skips) != 1 || !strings.Contains(reporter.skips[0], "SV Blitz") {
		t.Errorf("skip reports = %v", reporter.skips)
	}
	if reporter.completes != 1 {
		t.Errorf("completes = %d, want 1", reporter.completes)
	}
}

func TestRunnerSinkFailureAborts(t *testing.T) {
	log := &oplog{}
	source := newCountryFixture(log)
	sink := &fakeSink{log: log, saveErr: errors.New("connection refused")}
	reporter := &recordingReporter{}

	runner := newTestRunner(source, sink, reporter, NewAccumulator())
	spec := RunSpec{Path: "/wettbewerbe/national/wettbewerbe/40", CountryID: 40, SeasonID: 2025, Details: true}

	if _, err := runner.Run(context.Background(), spec); err == nil {
		t.Fatal("a sink failure must abort the run")
	}
	if len(reporter.errs) != 1 || reporter.completes != 0 {
		t.Errorf("terminal callbacks: completes=%d errs=%v", reporter.completes, reporter.errs)
	}
}

func TestRunnerCompetitionScope(t *testing.T) {
	log := &oplog{}
	source := newCountryFixture(log)
	sink := &fakeSink{log: log}
	reporter := &recordingReporter{}

	runner := newTestRunner(source, sink, reporter, NewAccumulator())
	spec := RunSpec{Path: "/super-league/startseite/wettbewerb/L1", CountryID: 40, SeasonID: 2025, Details: true}

	result, err := runner.Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Counts.Competitions != 1 || result.Counts.Clubs != 2 || result.Counts.Players != 3 {
		t.Errorf("counts = %+v", result.Counts)
	}

	for _, op := range log.snapshot() {
		if op == "fetch-index" {
			t.Error("competition scope must not fetch the country index")
		}
	}
}

func TestRunnerProfileEnrichment(t *testing.T) {
	log := &oplog{}
	source := newCountryFixture(log)
	source.profiles["/jan-weiss/profil/spieler/9001"] = &kickwelt.ProfileData{
		ExternalPlayerID: "9001",
		FullName:         "Jan Weiß",
	}
	// 9002 and 9003 resolve to nil profiles: pages without usable identity
	// are skipped silently, not counted as failures.
	sink := &fakeSink{log: log}
	reporter := &recordingReporter{}

	runner := newTestRunner(source, sink, reporter, NewAccumulator())
	spec := RunSpec{Path: "/wettbewerbe/national/wettbewerbe/40", CountryID: 40, SeasonID: 2025, Details: true, Profiles: true}

	result, err := runner.Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Counts.Profiles != 1 {
		t.Errorf("profiles = %d, want 1", result.Counts.Profiles)
	}
	if result.Counts.Skipped != 0 {
		t.Errorf("skipped = %d, want 0", result.Counts.Skipped)
	}
}

// keyedSink stores rows under their natural keys the way the Postgres
// upserts do, so repeat harvests can be checked for idempotence.
type keyedSink struct {
	noop    fakeSink
	mu      sync.Mutex
	players map[string]*store.SquadPlayer
}

func newKeyedSink(log *oplog) *keyedSink {
	return &keyedSink{noop: fakeSink{log: log}, players: make(map[string]*store.SquadPlayer)}
}

func (s *keyedSink) SaveCompetition(ctx context.Context, c *store.Competition) error {
	return s.noop.SaveCompetition(ctx, c)
}

func (s *keyedSink) SaveClub(ctx context.Context, c *store.Club) error {
	return s.noop.SaveClub(ctx, c)
}

func (s *keyedSink) SaveSquadPlayer(ctx context.Context, p *store.SquadPlayer) error {
	s.mu.Lock()
	s.players[fmt.Sprintf("%d/%s/%s", p.SeasonID, p.ExternalClubID, p.ExternalPlayerID)] = p
	s.mu.Unlock()
	return nil
}

func (s *keyedSink) SaveProfile(ctx context.Context, p *store.PlayerProfile) error {
	return s.noop.SaveProfile(ctx, p)
}

func (s *keyedSink) MergeIdentity(ctx context.Context, p *store.SquadPlayer, clubName string) error {
	return s.noop.MergeIdentity(ctx, p, clubName)
}

func TestRunnerRepeatHarvestIsIdempotent(t *testing.T) {
	log := &oplog{}
	source := newCountryFixture(log)
	sink := newKeyedSink(log)
	spec := RunSpec{Path: "/wettbewerbe/national/wettbewerbe/40", CountryID: 40, SeasonID: 2025, Details: true}

	for i := 0; i < 2; i++ {
		runner := newTestRunner(source, sink, &recordingReporter{}, NewAccumulator())
		if _, err := runner.Run(context.Background(), spec); err != nil {
			t.Fatalf("run %d failed: %v", i+1, err)
		}
	}

	if len(sink.players) != 3 {
		t.Errorf("got %d distinct player rows after two runs, want 3", len(sink.players))
	}
}

func TestRunnerStopsAtUnitBoundaryOnCancel(t *testing.T) {
	log := &oplog{}
	source := newCountryFixture(log)
	sink := &fakeSink{log: log}
	reporter := &recordingReporter{}

	runner := newTestRunner(source, sink, reporter, NewAccumulator())
	spec := RunSpec{Path: "/wettbewerbe/national/wettbewerbe/40", CountryID: 40, SeasonID: 2025, Details: true}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := runner.Run(ctx, spec); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(reporter.errs) != 1 {
		t.Errorf("errs = %v", reporter.errs)
	}
}
