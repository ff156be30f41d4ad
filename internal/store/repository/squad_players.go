package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fvockel/squadscout/internal/store"
)

// SquadPlayerRepository handles season-snapshot squad rows
type SquadPlayerRepository struct {
	db *store.Database
}

// NewSquadPlayerRepository creates a new squad player repository
func NewSquadPlayerRepository(db *store.Database) *SquadPlayerRepository {
	return &SquadPlayerRepository{db: db}
}

// Upsert inserts or updates one player snapshot keyed by
// (season_id, external_club_id, external_player_id).
func (r *SquadPlayerRepository) Upsert(ctx context.Context, p *store.SquadPlayer) error {
	query := `
		INSERT INTO squad_players (season_id, external_club_id, external_player_id,
			shirt_number, name, profile_path, position, age, birth_date, nationalities,
			height_cm, dominant_foot, joined_on, signed_from_club_id,
			contract_until, market_value_eur, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (season_id, external_club_id, external_player_id) DO UPDATE SET
			shirt_number = EXCLUDED.shirt_number,
			name = EXCLUDED.name,
			profile_path = EXCLUDED.profile_path,
			position = EXCLUDED.position,
			age = EXCLUDED.age,
			birth_date = EXCLUDED.birth_date,
			nationalities = EXCLUDED.nationalities,
			height_cm = EXCLUDED.height_cm,
			dominant_foot = EXCLUDED.dominant_foot,
			joined_on = EXCLUDED.joined_on,
			signed_from_club_id = EXCLUDED.signed_from_club_id,
			contract_until = EXCLUDED.contract_until,
			market_value_eur = EXCLUDED.market_value_eur,
			image_url = EXCLUDED.image_url,
			updated_at = NOW()
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		p.SeasonID, p.ExternalClubID, p.ExternalPlayerID,
		p.ShirtNumber, p.Name, p.ProfilePath, p.Position, p.Age, p.BirthDate, p.Nationalities,
		p.HeightCm, p.DominantFoot, p.JoinedOn, p.SignedFromClubID,
		p.ContractUntil, p.MarketValueEur, p.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("upserting squad player %s: %w", p.ExternalPlayerID, err)
	}

	return nil
}

// GetByClub returns the squad snapshot for one club and season
func (r *SquadPlayerRepository) GetByClub(ctx context.Context, externalClubID string, seasonID int) ([]*store.SquadPlayer, error) {
	query := `
		SELECT season_id, external_club_id, external_player_id,
			shirt_number, name, profile_path, position, age, birth_date, nationalities,
			height_cm, dominant_foot, joined_on, signed_from_club_id,
			contract_until, market_value_eur, image_url, created_at, updated_at
		FROM squad_players
		WHERE external_club_id = $1 AND season_id = $2
		ORDER BY shirt_number NULLS LAST, name
	`

	rows, err := r.db.DB().QueryContext(ctx, query, externalClubID, seasonID)
	if err != nil {
		return nil, fmt.Errorf("querying squad players: %w", err)
	}
	defer rows.Close()

	return r.scanSquadPlayers(rows)
}

// SearchByName searches squad snapshots by name (case-insensitive partial match)
func (r *SquadPlayerRepository) SearchByName(ctx context.Context, name string) ([]*store.SquadPlayer, error) {
	query := `
		SELECT season_id, external_club_id, external_player_id,
			shirt_number, name, profile_path, position, age, birth_date, nationalities,
			height_cm, dominant_foot, joined_on, signed_from_club_id,
			contract_until, market_value_eur, image_url, created_at, updated_at
		FROM squad_players
		WHERE name ILIKE $1
		ORDER BY name
		LIMIT 50
	`

	rows, err := r.db.DB().QueryContext(ctx, query, "%"+name+"%")
	if err != nil {
		return nil, fmt.Errorf("searching squad players: %w", err)
	}
	defer rows.Close()

	return r.scanSquadPlayers(rows)
}

func (r *SquadPlayerRepository) scanSquadPlayers(rows *sql.Rows) ([]*store.SquadPlayer, error) {
	var players []*store.SquadPlayer
	for rows.Next() {
		p := &store.SquadPlayer{}
		err := rows.Scan(
			&p.SeasonID, &p.ExternalClubID, &p.ExternalPlayerID,
			&p.ShirtNumber, &p.Name, &p.ProfilePath, &p.Position, &p.Age, &p.BirthDate, &p.Nationalities,
			&p.HeightCm, &p.DominantFoot, &p.JoinedOn, &p.SignedFromClubID,
			&p.ContractUntil, &p.MarketValueEur, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning squad player: %w", err)
		}
		players = append(players, p)
	}

	return players, rows.Err()
}
