package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fvockel/squadscout/internal/store"
)

// ClubRepository handles club data access
type ClubRepository struct {
	db *store.Database
}

// NewClubRepository creates a new club repository
func NewClubRepository(db *store.Database) *ClubRepository {
	return &ClubRepository{db: db}
}

// Upsert inserts or updates a club keyed by (competition_code, season_id,
// external_club_id). The roster path is always taken from the current run.
func (r *ClubRepository) Upsert(ctx context.Context, c *store.Club) error {
	query := `
		INSERT INTO clubs (competition_code, season_id, external_club_id, name,
			profile_path, roster_path, squad_size, average_age, foreigner_count,
			avg_market_value_eur, total_market_value_eur)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (competition_code, season_id, external_club_id) DO UPDATE SET
			name = EXCLUDED.name,
			profile_path = EXCLUDED.profile_path,
			roster_path = EXCLUDED.roster_path,
			squad_size = EXCLUDED.squad_size,
			average_age = EXCLUDED.average_age,
			foreigner_count = EXCLUDED.foreigner_count,
			avg_market_value_eur = EXCLUDED.avg_market_value_eur,
			total_market_value_eur = EXCLUDED.total_market_value_eur,
			updated_at = NOW()
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		c.CompetitionCode, c.SeasonID, c.ExternalClubID, c.Name,
		c.ProfilePath, c.RosterPath, c.SquadSize, c.AverageAge, c.ForeignerCount,
		c.AvgMarketValueEur, c.TotalMarketValueEur,
	)
	if err != nil {
		return fmt.Errorf("upserting club %s: %w", c.ExternalClubID, err)
	}

	return nil
}

// GetByCompetition returns all clubs for a competition and season
func (r *ClubRepository) GetByCompetition(ctx context.Context, competitionCode string, seasonID int) ([]*store.Club, error) {
	query := `
		SELECT competition_code, season_id, external_club_id, name,
			profile_path, roster_path, squad_size, average_age, foreigner_count,
			avg_market_value_eur, total_market_value_eur, created_at, updated_at
		FROM clubs
		WHERE competition_code = $1 AND ($2 = 0 OR season_id = $2)
		ORDER BY name
	`

	rows, err := r.db.DB().QueryContext(ctx, query, competitionCode, seasonID)
	if err != nil {
		return nil, fmt.Errorf("querying clubs: %w", err)
	}
	defer rows.Close()

	return r.scanClubs(rows)
}

// GetByExternalID finds a club by its external id and season
func (r *ClubRepository) GetByExternalID(ctx context.Context, externalClubID string, seasonID int) (*store.Club, error) {
	query := `
		SELECT competition_code, season_id, external_club_id, name,
			profile_path, roster_path, squad_size, average_age, foreigner_count,
			avg_market_value_eur, total_market_value_eur, created_at, updated_at
		FROM clubs
		WHERE external_club_id = $1 AND season_id = $2
	`

	c := &store.Club{}
	err := r.db.DB().QueryRowContext(ctx, query, externalClubID, seasonID).Scan(
		&c.CompetitionCode, &c.SeasonID, &c.ExternalClubID, &c.Name,
		&c.ProfilePath, &c.RosterPath, &c.SquadSize, &c.AverageAge, &c.ForeignerCount,
		&c.AvgMarketValueEur, &c.TotalMarketValueEur, &c.CreatedAt, &c.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("club not found: %s", externalClubID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying club: %w", err)
	}

	return c, nil
}

func (r *ClubRepository) scanClubs(rows *sql.Rows) ([]*store.Club, error) {
	var clubs []*store.Club
	for rows.Next() {
		c := &store.Club{}
		err := rows.Scan(
			&c.CompetitionCode, &c.SeasonID, &c.ExternalClubID, &c.Name,
			&c.ProfilePath, &c.RosterPath, &c.SquadSize, &c.AverageAge, &c.ForeignerCount,
			&c.AvgMarketValueEur, &c.TotalMarketValueEur, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning club: %w", err)
		}
		clubs = append(clubs, c)
	}

	return clubs, rows.Err()
}
