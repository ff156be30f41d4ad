package harvest

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/fvockel/squadscout/internal/ingest/kickwelt"
	"github.com/fvockel/squadscout/internal/store"
)

const (
	defaultWorkers  = 3
	defaultMinDelay = 250 * time.Millisecond
	defaultMaxDelay = 600 * time.Millisecond

	skipMessageLen = 200
)

// Source yields parsed rows per hierarchy level.
type Source interface {
	Competitions(ctx context.Context, countryPath string, seasonID int) ([]kickwelt.CompetitionRow, error)
	CompetitionPage(ctx context.Context, competitionPath string, seasonID int, referer string) (*kickwelt.CompetitionPage, error)
	Squad(ctx context.Context, rosterPath, referer string) ([]kickwelt.SquadPlayerRow, error)
	Profile(ctx context.Context, profilePath, referer string, refresh bool) (*kickwelt.ProfileData, error)
}

// Sink persists harvested records. Save methods must be idempotent upserts;
// MergeIdentity must be safe under concurrent club workers. A sink error is
// fatal to the run, unlike a fetch error, which is contained per unit.
type Sink interface {
	SaveCompetition(ctx context.Context, c *store.Competition) error
	SaveClub(ctx context.Context, c *store.Club) error
	SaveSquadPlayer(ctx context.Context, p *store.SquadPlayer) error
	SaveProfile(ctx context.Context, p *store.PlayerProfile) error
	MergeIdentity(ctx context.Context, p *store.SquadPlayer, clubName string) error
}

// Runner walks the hierarchy breadth-first for one run: competitions are
// discovered and persisted first, then per competition all clubs are persisted
// before any roster is fetched, then rosters fan out across a bounded worker
// pool. Progress slices the [0,1] axis per competition so it never regresses.
type Runner struct {
	source   Source
	sink     Sink
	reporter Reporter
	counts   *Accumulator

	// Workers caps in-flight roster fetches; MinDelay/MaxDelay bound the
	// randomized politeness sleep between units within one worker. Zero
	// values take the defaults; tests set the delays negative to disable.
	Workers  int
	MinDelay time.Duration
	MaxDelay time.Duration
}

func NewRunner(source Source, sink Sink, reporter Reporter, counts *Accumulator) *Runner {
	return &Runner{
		source:   source,
		sink:     sink,
		reporter: reporter,
		counts:   counts,
		Workers:  defaultWorkers,
		MinDelay: defaultMinDelay,
		MaxDelay: defaultMaxDelay,
	}
}

// competitionUnit pairs a competition row with its page, which is already in
// hand for single-competition runs and fetched lazily otherwise.
type competitionUnit struct {
	row  kickwelt.CompetitionRow
	page *kickwelt.CompetitionPage
}

// Run executes one run and reports the terminal outcome exactly once.
func (r *Runner) Run(ctx context.Context, spec RunSpec) (*Result, error) {
	result, err := r.run(ctx, spec)
	if err != nil {
		r.reporter.OnError(err, r.counts.Snapshot())
		return nil, err
	}
	r.reporter.OnComplete(result.Counts)
	return result, nil
}

func (r *Runner) run(ctx context.Context, spec RunSpec) (*Result, error) {
	r.reporter.OnPhase(PhaseInit, fmt.Sprintf("harvest %s season %d", spec.Path, spec.SeasonID), 0)

	units, err := r.discoverCompetitions(ctx, spec)
	if err != nil {
		return nil, err
	}

	flat := &flatCollector{}

	if spec.Details {
		for i, unit := range units {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			lo, hi := SliceBounds(i, len(units))
			if err := r.harvestCompetition(ctx, spec, unit, lo, hi, flat); err != nil {
				return nil, err
			}
		}
	}

	return &Result{Counts: r.counts.Snapshot(), Flat: flat.rows}, nil
}

func (r *Runner) discoverCompetitions(ctx context.Context, spec RunSpec) ([]*competitionUnit, error) {
	if spec.Scope() == ScopeCompetition {
		r.reporter.OnPhase(PhaseFetch, "fetching competition page", 0)
		page, err := r.source.CompetitionPage(ctx, spec.Path, spec.SeasonID, "")
		if err != nil {
			return nil, fmt.Errorf("fetch competition %s: %w", spec.Path, err)
		}

		row := kickwelt.CompetitionRow{
			Code:       kickwelt.CompetitionCode(spec.Path),
			Name:       page.Name,
			SourcePath: kickwelt.CompetitionPath(spec.Path),
		}
		if !row.HasIdentity() {
			return nil, fmt.Errorf("competition page %s carries no usable header", spec.Path)
		}
		if err := r.sink.SaveCompetition(ctx, row.ToStore(spec.CountryID, spec.SeasonID)); err != nil {
			return nil, fmt.Errorf("save competition %s: %w", row.Code, err)
		}
		r.counts.AddCompetitions(1)
		return []*competitionUnit{{row: row, page: page}}, nil
	}

	r.reporter.OnPhase(PhaseFetch, "fetching country index", 0)
	rows, err := r.source.Competitions(ctx, spec.Path, spec.SeasonID)
	if err != nil {
		return nil, fmt.Errorf("fetch country index %s: %w", spec.Path, err)
	}
	r.reporter.OnPhase(PhaseParse, fmt.Sprintf("found %d competitions", len(rows)), 0)

	units := make([]*competitionUnit, 0, len(rows))
	for _, row := range rows {
		if err := r.sink.SaveCompetition(ctx, row.ToStore(spec.CountryID, spec.SeasonID)); err != nil {
			return nil, fmt.Errorf("save competition %s: %w", row.Code, err)
		}
		r.counts.AddCompetitions(1)
		units = append(units, &competitionUnit{row: row})
	}
	return units, nil
}

// harvestCompetition persists every club of one competition, then fans the
// rosters out. A failing competition page is contained like a failing club:
// the slice completes empty and the run moves on.
func (r *Runner) harvestCompetition(ctx context.Context, spec RunSpec, unit *competitionUnit, lo, hi float64, flat *flatCollector) error {
	page := unit.page
	if page == nil {
		r.reporter.OnPhase(PhaseFetch, "fetching clubs: "+unit.row.Name, lo)
		p, err := r.source.CompetitionPage(ctx, unit.row.SourcePath, spec.SeasonID, spec.Path)
		if err != nil {
			r.counts.Skip()
			r.reporter.OnUnitSkipped(truncate(fmt.Sprintf("competition %s: %v", unit.row.Code, err)))
			r.reporter.OnPhase(PhaseSave, "skipped competition "+unit.row.Code, hi)
			return nil
		}
		page = p
	}

	clubs := make([]*store.Club, 0, len(page.Clubs))
	for _, row := range page.Clubs {
		club := row.ToStore(unit.row.Code, spec.SeasonID)
		if err := r.sink.SaveClub(ctx, club); err != nil {
			return fmt.Errorf("save club %s: %w", club.ExternalClubID, err)
		}
		clubs = append(clubs, club)
	}
	r.counts.AddClubs(len(clubs))
	r.reporter.OnPhase(PhaseSave, fmt.Sprintf("%s: %d clubs", unit.row.Name, len(clubs)), lo)

	if len(clubs) == 0 {
		r.reporter.OnPhase(PhaseSave, unit.row.Name+": no clubs", hi)
		return nil
	}

	return r.scrapeRosters(ctx, spec, unit, clubs, lo, hi, flat)
}

func (r *Runner) scrapeRosters(parent context.Context, spec RunSpec, unit *competitionUnit, clubs []*store.Club, lo, hi float64, flat *flatCollector) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	workers := r.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > len(clubs) {
		workers = len(clubs)
	}

	jobs := make(chan *store.Club)
	var wg sync.WaitGroup

	var mu sync.Mutex
	var fatal error
	var done int

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first := true
			for club := range jobs {
				if !first {
					r.politeness(ctx)
				}
				first = false
				if ctx.Err() != nil {
					return
				}

				err := r.harvestClub(ctx, spec, unit, club, flat)

				mu.Lock()
				if err != nil && fatal == nil {
					fatal = err
					cancel()
				}
				done++
				msg := fmt.Sprintf("%s: %d/%d clubs", unit.row.Name, done, len(clubs))
				frac := float64(done) / float64(len(clubs))
				mu.Unlock()

				r.reporter.OnPhase(PhaseSave, msg, Lerp(lo, hi, frac))
			}
		}()
	}

feed:
	for _, club := range clubs {
		select {
		case jobs <- club:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if fatal != nil {
		return fatal
	}
	return parent.Err()
}

// harvestClub fetches and persists one roster, optionally enriched with
// profiles. Fetch failures are contained; only sink failures propagate.
func (r *Runner) harvestClub(ctx context.Context, spec RunSpec, unit *competitionUnit, club *store.Club, flat *flatCollector) error {
	players, err := r.source.Squad(ctx, club.RosterPath, unit.row.SourcePath)
	if err != nil {
		r.counts.Skip()
		r.reporter.OnUnitSkipped(truncate(fmt.Sprintf("club %s: %v", club.Name, err)))
		return nil
	}

	for _, row := range players {
		if err := ctx.Err(); err != nil {
			return err
		}

		player := row.ToStore(spec.SeasonID, club.ExternalClubID)
		if err := r.sink.SaveSquadPlayer(ctx, player); err != nil {
			return fmt.Errorf("save player %s: %w", player.ExternalPlayerID, err)
		}
		if err := r.sink.MergeIdentity(ctx, player, club.Name); err != nil {
			return fmt.Errorf("merge player %s: %w", player.ExternalPlayerID, err)
		}
		r.counts.AddPlayers(1)

		if spec.Flat {
			flat.add(flatPlayer(spec, unit.row, club, player))
		}

		if spec.Profiles {
			r.politeness(ctx)
			profile, err := r.source.Profile(ctx, row.ProfilePath, club.RosterPath, spec.Refresh)
			if err != nil {
				r.counts.Skip()
				r.reporter.OnUnitSkipped(truncate(fmt.Sprintf("profile %s: %v", row.Name, err)))
				continue
			}
			if profile == nil {
				continue
			}
			if err := r.sink.SaveProfile(ctx, profile.ToStore()); err != nil {
				return fmt.Errorf("save profile %s: %w", profile.ExternalPlayerID, err)
			}
			r.counts.AddProfiles(1)
		}
	}

	return nil
}

// politeness sleeps a randomized interval, returning early on cancellation.
func (r *Runner) politeness(ctx context.Context) {
	min, max := r.MinDelay, r.MaxDelay
	if min < 0 || max <= 0 {
		return
	}
	if max < min {
		max = min
	}

	d := min
	if span := max - min; span > 0 {
		d += time.Duration(rand.Int63n(int64(span)))
	}

	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func flatPlayer(spec RunSpec, comp kickwelt.CompetitionRow, club *store.Club, p *store.SquadPlayer) store.FlatPlayer {
	row := store.FlatPlayer{
		CountryID:        spec.CountryID,
		SeasonID:         spec.SeasonID,
		CompetitionCode:  comp.Code,
		CompetitionName:  comp.Name,
		ExternalClubID:   club.ExternalClubID,
		ClubName:         club.Name,
		ExternalPlayerID: p.ExternalPlayerID,
		Name:             p.Name,
		Nationalities:    p.Nationalities,
		ProfilePath:      p.ProfilePath,
	}
	if p.Position.Valid {
		row.Position = p.Position.String
	}
	if p.Age.Valid {
		row.Age = int(p.Age.Int32)
	}
	if p.HeightCm.Valid {
		row.HeightCm = int(p.HeightCm.Int32)
	}
	if p.MarketValueEur.Valid {
		row.MarketValueEur = p.MarketValueEur.Int64
	}
	return row
}

type flatCollector struct {
	mu   sync.Mutex
	rows []store.FlatPlayer
}

func (f *flatCollector) add(row store.FlatPlayer) {
	f.mu.Lock()
	f.rows = append(f.rows, row)
	f.mu.Unlock()
}

func truncate(s string) string {
	if len(s) <= skipMessageLen {
		return s
	}
	return s[:skipMessageLen] + "..."
}
