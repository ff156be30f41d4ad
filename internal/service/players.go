package service

import (
	"context"
	"fmt"

	"github.com/fvockel/squadscout/internal/store"
	"github.com/fvockel/squadscout/internal/store/repository"
)

// PlayerService handles player read paths across the snapshot, profile and
// global identity tables.
type PlayerService struct {
	profileRepo *repository.PlayerProfileRepository
	squadRepo   *repository.SquadPlayerRepository
	globalRepo  *repository.GlobalPlayerRepository
}

// NewPlayerService creates a new player service
func NewPlayerService(db *store.Database) *PlayerService {
	return &PlayerService{
		profileRepo: repository.NewPlayerProfileRepository(db),
		squadRepo:   repository.NewSquadPlayerRepository(db),
		globalRepo:  repository.NewGlobalPlayerRepository(db),
	}
}

// SearchResult pairs the merged identities with the raw snapshot rows that
// matched a name query.
type SearchResult struct {
	Global    []*store.GlobalPlayer `json:"global"`
	Snapshots []*store.SquadPlayer  `json:"snapshots"`
}

// Search finds players by name across the global and snapshot tables
func (s *PlayerService) Search(ctx context.Context, name string) (*SearchResult, error) {
	global, err := s.globalRepo.Search(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("searching global players: %w", err)
	}

	snapshots, err := s.squadRepo.SearchByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("searching squad snapshots: %w", err)
	}

	return &SearchResult{Global: global, Snapshots: snapshots}, nil
}

// PlayerDetail bundles everything known about one external player id.
type PlayerDetail struct {
	Profile *store.PlayerProfile `json:"profile,omitempty"`
	Global  *store.GlobalPlayer  `json:"global,omitempty"`
}

// GetByExternalID returns the enrichment profile and merged identity of one
// player. At least one of the two must exist.
func (s *PlayerService) GetByExternalID(ctx context.Context, source, externalID string) (*PlayerDetail, error) {
	detail := &PlayerDetail{}

	if profile, err := s.profileRepo.GetByExternalID(ctx, externalID); err == nil {
		detail.Profile = profile
	}
	if global, err := s.globalRepo.GetByKey(ctx, source+":"+externalID); err == nil {
		detail.Global = global
	}

	if detail.Profile == nil && detail.Global == nil {
		return nil, fmt.Errorf("player not found: %s", externalID)
	}

	return detail, nil
}
