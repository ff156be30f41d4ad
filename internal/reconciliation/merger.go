package reconciliation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fvockel/squadscout/internal/ingest/kickwelt"
	"github.com/fvockel/squadscout/internal/store"
	"github.com/fvockel/squadscout/internal/store/repository"
)

// GlobalStore is the slice of the global player repository the merger needs.
type GlobalStore interface {
	Merge(ctx context.Context, p *store.GlobalPlayer) error
	GetByKey(ctx context.Context, key string) (*store.GlobalPlayer, error)
}

// Metrics tracks merge statistics
type Metrics struct {
	Merged          int
	FallbackKeys    int
	BirthDateSplits int
	LastMerge       time.Time
}

// Merger collapses harvested squad players into one global record per
// real-world identity. The heavy lifting happens in the store's atomic merge
// statement; the merger's own job is key computation and the fallback-key
// birth-date policy. Safe to call from concurrent club workers.
type Merger struct {
	global GlobalStore

	mu      sync.Mutex
	metrics Metrics
}

// NewMerger creates a new merger
func NewMerger(global GlobalStore) *Merger {
	return &Merger{global: global}
}

// MergeSquadPlayer merges one harvested snapshot row into the global table.
//
// Players identified by external id always share one record per id. Players
// on a fallback (name+club) key additionally honor birth dates: when an
// existing record under the same fallback key carries a conflicting birth
// date, the incoming player gets a birth-date-qualified key instead of being
// folded into a different person's record.
func (m *Merger) MergeSquadPlayer(ctx context.Context, p *store.SquadPlayer, clubName string) error {
	key := DedupeKey(kickwelt.Source, p.ExternalPlayerID, p.Name, clubName)
	fallback := IsFallbackKey(p.ExternalPlayerID)

	if fallback {
		m.countFallback()
		split, err := m.needsBirthDateSplit(ctx, key, p)
		if err != nil {
			return err
		}
		if split {
			key = fmt.Sprintf("%s::%s", key, p.BirthDate.Time.Format("2006-01-02"))
			m.countSplit()
		}
	}

	first, last := SplitName(p.Name)
	gp := &store.GlobalPlayer{
		DedupeKey: key,
		Name:      p.Name,
		FirstName: nullableString(first),
		LastName:  nullableString(last),
		BirthDate: p.BirthDate,
		Position:  p.Position,
		Club:      nullableString(clubName),
		Sources: []store.SourceRef{{
			Source:     kickwelt.Source,
			ExternalID: p.ExternalPlayerID,
			Club:       clubName,
			SeasonID:   p.SeasonID,
			Href:       p.ProfilePath,
		}},
	}
	if len(p.Nationalities) > 0 {
		gp.Nationality = nullableString(p.Nationalities[0])
	}

	if err := m.global.Merge(ctx, gp); err != nil {
		return err
	}

	m.mu.Lock()
	m.metrics.Merged++
	m.metrics.LastMerge = time.Now()
	m.mu.Unlock()

	return nil
}

// needsBirthDateSplit checks whether an existing record under the fallback
// key carries a different birth date than the incoming player.
func (m *Merger) needsBirthDateSplit(ctx context.Context, key string, p *store.SquadPlayer) (bool, error) {
	if !p.BirthDate.Valid {
		return false, nil
	}

	existing, err := m.global.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrGlobalPlayerNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("looking up global player %s: %w", key, err)
	}

	if !existing.BirthDate.Valid {
		return false, nil
	}
	return !sameDay(existing.BirthDate.Time, p.BirthDate.Time), nil
}

// GetMetrics returns current merge metrics
func (m *Merger) GetMetrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.metrics
}

func (m *Merger) countFallback() {
	m.mu.Lock()
	m.metrics.FallbackKeys++
	m.mu.Unlock()
}

func (m *Merger) countSplit() {
	m.mu.Lock()
	m.metrics.BirthDateSplits++
	m.mu.Unlock()
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
