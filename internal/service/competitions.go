package service

import (
	"context"
	"fmt"

	"github.com/fvockel/squadscout/internal/store"
	"github.com/fvockel/squadscout/internal/store/repository"
)

// CompetitionService handles competition and club read paths
type CompetitionService struct {
	competitionRepo *repository.CompetitionRepository
	clubRepo        *repository.ClubRepository
	squadRepo       *repository.SquadPlayerRepository
}

// NewCompetitionService creates a new competition service
func NewCompetitionService(db *store.Database) *CompetitionService {
	return &CompetitionService{
		competitionRepo: repository.NewCompetitionRepository(db),
		clubRepo:        repository.NewClubRepository(db),
		squadRepo:       repository.NewSquadPlayerRepository(db),
	}
}

// GetCompetitions returns the harvested competitions of one country and season
func (s *CompetitionService) GetCompetitions(ctx context.Context, countryID, seasonID int) ([]*store.Competition, error) {
	competitions, err := s.competitionRepo.GetByCountry(ctx, countryID, seasonID)
	if err != nil {
		return nil, fmt.Errorf("fetching competitions: %w", err)
	}
	return competitions, nil
}

// CompetitionClubs bundles a competition with its harvested clubs.
type CompetitionClubs struct {
	Competition *store.Competition `json:"competition,omitempty"`
	Clubs       []*store.Club      `json:"clubs"`
}

// GetClubs returns the clubs of one competition and season, with the
// competition header when it was harvested too.
func (s *CompetitionService) GetClubs(ctx context.Context, code string, seasonID int) (*CompetitionClubs, error) {
	clubs, err := s.clubRepo.GetByCompetition(ctx, code, seasonID)
	if err != nil {
		return nil, fmt.Errorf("fetching clubs: %w", err)
	}

	result := &CompetitionClubs{Clubs: clubs}
	if competition, err := s.competitionRepo.FindByCode(ctx, code); err == nil {
		result.Competition = competition
	}

	return result, nil
}

// ClubSquad bundles a club with its season roster snapshot.
type ClubSquad struct {
	Club    *store.Club          `json:"club,omitempty"`
	Players []*store.SquadPlayer `json:"players"`
}

// GetSquad returns one club's roster snapshot for a season.
func (s *CompetitionService) GetSquad(ctx context.Context, externalClubID string, seasonID int) (*ClubSquad, error) {
	players, err := s.squadRepo.GetByClub(ctx, externalClubID, seasonID)
	if err != nil {
		return nil, fmt.Errorf("fetching squad: %w", err)
	}

	result := &ClubSquad{Players: players}
	if club, err := s.clubRepo.GetByExternalID(ctx, externalClubID, seasonID); err == nil {
		result.Club = club
	}

	return result, nil
}
