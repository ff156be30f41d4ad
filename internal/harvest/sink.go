package harvest

import (
	"context"

	"github.com/fvockel/squadscout/internal/reconciliation"
	"github.com/fvockel/squadscout/internal/store"
	"github.com/fvockel/squadscout/internal/store/repository"
)

// StoreSink persists harvested rows through the Postgres repositories and
// funnels identities through the reconciliation merger.
type StoreSink struct {
	competitions *repository.CompetitionRepository
	clubs        *repository.ClubRepository
	squads       *repository.SquadPlayerRepository
	profiles     *repository.PlayerProfileRepository
	merger       *reconciliation.Merger
}

// NewStoreSink creates a sink over the given database.
func NewStoreSink(db *store.Database) *StoreSink {
	return &StoreSink{
		competitions: repository.NewCompetitionRepository(db),
		clubs:        repository.NewClubRepository(db),
		squads:       repository.NewSquadPlayerRepository(db),
		profiles:     repository.NewPlayerProfileRepository(db),
		merger:       reconciliation.NewMerger(repository.NewGlobalPlayerRepository(db)),
	}
}

func (s *StoreSink) SaveCompetition(ctx context.Context, c *store.Competition) error {
	return s.competitions.Upsert(ctx, c)
}

func (s *StoreSink) SaveClub(ctx context.Context, c *store.Club) error {
	return s.clubs.Upsert(ctx, c)
}

func (s *StoreSink) SaveSquadPlayer(ctx context.Context, p *store.SquadPlayer) error {
	return s.squads.Upsert(ctx, p)
}

func (s *StoreSink) SaveProfile(ctx context.Context, p *store.PlayerProfile) error {
	return s.profiles.Upsert(ctx, p)
}

func (s *StoreSink) MergeIdentity(ctx context.Context, p *store.SquadPlayer, clubName string) error {
	return s.merger.MergeSquadPlayer(ctx, p, clubName)
}
