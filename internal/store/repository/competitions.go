package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fvockel/squadscout/internal/store"
)

// CompetitionRepository handles competition data access
type CompetitionRepository struct {
	db *store.Database
}

// NewCompetitionRepository creates a new competition repository
func NewCompetitionRepository(db *store.Database) *CompetitionRepository {
	return &CompetitionRepository{db: db}
}

// Upsert inserts or updates a competition keyed by (country_id, code).
// Re-harvesting replaces scalar fields; it never duplicates rows.
func (r *CompetitionRepository) Upsert(ctx context.Context, c *store.Competition) error {
	query := `
		INSERT INTO competitions (country_id, season_id, code, name, source_path,
			club_count, player_count, average_age, foreigner_pct, total_value_eur)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (country_id, code) DO UPDATE SET
			season_id = EXCLUDED.season_id,
			name = EXCLUDED.name,
			source_path = EXCLUDED.source_path,
			club_count = EXCLUDED.club_count,
			player_count = EXCLUDED.player_count,
			average_age = EXCLUDED.average_age,
			foreigner_pct = EXCLUDED.foreigner_pct,
			total_value_eur = EXCLUDED.total_value_eur,
			updated_at = NOW()
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		c.CountryID, c.SeasonID, c.Code, c.Name, c.SourcePath,
		c.ClubCount, c.PlayerCount, c.AverageAge, c.ForeignerPct, c.TotalValueEur,
	)
	if err != nil {
		return fmt.Errorf("upserting competition %s: %w", c.Code, err)
	}

	return nil
}

// GetByCountry returns all competitions for a country, optionally filtered by season
func (r *CompetitionRepository) GetByCountry(ctx context.Context, countryID, seasonID int) ([]*store.Competition, error) {
	query := `
		SELECT country_id, season_id, code, name, source_path,
			club_count, player_count, average_age, foreigner_pct, total_value_eur,
			created_at, updated_at
		FROM competitions
		WHERE country_id = $1 AND ($2 = 0 OR season_id = $2)
		ORDER BY code
	`

	rows, err := r.db.DB().QueryContext(ctx, query, countryID, seasonID)
	if err != nil {
		return nil, fmt.Errorf("querying competitions: %w", err)
	}
	defer rows.Close()

	return r.scanCompetitions(rows)
}

// GetByCode finds a competition by its code within a country
func (r *CompetitionRepository) GetByCode(ctx context.Context, countryID int, code string) (*store.Competition, error) {
	query := `
		SELECT country_id, season_id, code, name, source_path,
			club_count, player_count, average_age, foreigner_pct, total_value_eur,
			created_at, updated_at
		FROM competitions
		WHERE country_id = $1 AND code = $2
	`

	c := &store.Competition{}
	err := r.db.DB().QueryRowContext(ctx, query, countryID, code).Scan(
		&c.CountryID, &c.SeasonID, &c.Code, &c.Name, &c.SourcePath,
		&c.ClubCount, &c.PlayerCount, &c.AverageAge, &c.ForeignerPct, &c.TotalValueEur,
		&c.CreatedAt, &c.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("competition not found: %s", code)
	}
	if err != nil {
		return nil, fmt.Errorf("querying competition: %w", err)
	}

	return c, nil
}

// FindByCode finds a competition by code alone, preferring the newest season
func (r *CompetitionRepository) FindByCode(ctx context.Context, code string) (*store.Competition, error) {
	query := `
		SELECT country_id, season_id, code, name, source_path,
			club_count, player_count, average_age, foreigner_pct, total_value_eur,
			created_at, updated_at
		FROM competitions
		WHERE code = $1
		ORDER BY season_id DESC
		LIMIT 1
	`

	c := &store.Competition{}
	err := r.db.DB().QueryRowContext(ctx, query, code).Scan(
		&c.CountryID, &c.SeasonID, &c.Code, &c.Name, &c.SourcePath,
		&c.ClubCount, &c.PlayerCount, &c.AverageAge, &c.ForeignerPct, &c.TotalValueEur,
		&c.CreatedAt, &c.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("competition not found: %s", code)
	}
	if err != nil {
		return nil, fmt.Errorf("querying competition: %w", err)
	}

	return c, nil
}

func (r *CompetitionRepository) scanCompetitions(rows *sql.Rows) ([]*store.Competition, error) {
	var comps []*store.Competition
	for rows.Next() {
		c := &store.Competition{}
		err := rows.Scan(
			&c.CountryID, &c.SeasonID, &c.Code, &c.Name, &c.SourcePath,
			&c.ClubCount, &c.PlayerCount, &c.AverageAge, &c.ForeignerPct, &c.TotalValueEur,
			&c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning competition: %w", err)
		}
		comps = append(comps, c)
	}

	return comps, rows.Err()
}
