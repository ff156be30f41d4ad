package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fvockel/squadscout/internal/store"
)

// PlayerProfileRepository handles season-independent profile rows
type PlayerProfileRepository struct {
	db *store.Database
}

// NewPlayerProfileRepository creates a new player profile repository
func NewPlayerProfileRepository(db *store.Database) *PlayerProfileRepository {
	return &PlayerProfileRepository{db: db}
}

// Upsert inserts or updates a profile keyed by external player id alone
func (r *PlayerProfileRepository) Upsert(ctx context.Context, p *store.PlayerProfile) error {
	query := `
		INSERT INTO player_profiles (external_player_id, full_name, date_of_birth,
			height_cm, dominant_foot, main_position, other_positions, nationalities,
			current_club_name, agent, contract_until, market_value_eur, portrait_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (external_player_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			date_of_birth = EXCLUDED.date_of_birth,
			height_cm = EXCLUDED.height_cm,
			dominant_foot = EXCLUDED.dominant_foot,
			main_position = EXCLUDED.main_position,
			other_positions = EXCLUDED.other_positions,
			nationalities = EXCLUDED.nationalities,
			current_club_name = EXCLUDED.current_club_name,
			agent = EXCLUDED.agent,
			contract_until = EXCLUDED.contract_until,
			market_value_eur = EXCLUDED.market_value_eur,
			portrait_url = EXCLUDED.portrait_url,
			updated_at = NOW()
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		p.ExternalPlayerID, p.FullName, p.DateOfBirth,
		p.HeightCm, p.DominantFoot, p.MainPosition, p.OtherPositions, p.Nationalities,
		p.CurrentClubName, p.Agent, p.ContractUntil, p.MarketValueEur, p.PortraitURL,
	)
	if err != nil {
		return fmt.Errorf("upserting player profile %s: %w", p.ExternalPlayerID, err)
	}

	return nil
}

// GetByExternalID finds a profile by external player id
func (r *PlayerProfileRepository) GetByExternalID(ctx context.Context, externalPlayerID string) (*store.PlayerProfile, error) {
	query := `
		SELECT external_player_id, full_name, date_of_birth,
			height_cm, dominant_foot, main_position, other_positions, nationalities,
			current_club_name, agent, contract_until, market_value_eur, portrait_url,
			created_at, updated_at
		FROM player_profiles
		WHERE external_player_id = $1
	`

	p := &store.PlayerProfile{}
	err := r.db.DB().QueryRowContext(ctx, query, externalPlayerID).Scan(
		&p.ExternalPlayerID, &p.FullName, &p.DateOfBirth,
		&p.HeightCm, &p.DominantFoot, &p.MainPosition, &p.OtherPositions, &p.Nationalities,
		&p.CurrentClubName, &p.Agent, &p.ContractUntil, &p.MarketValueEur, &p.PortraitURL,
		&p.CreatedAt, &p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("player profile not found: %s", externalPlayerID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying player profile: %w", err)
	}

	return p, nil
}

// Exists reports whether a profile row is already present
func (r *PlayerProfileRepository) Exists(ctx context.Context, externalPlayerID string) (bool, error) {
	var exists bool
	err := r.db.DB().QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM player_profiles WHERE external_player_id = $1)",
		externalPlayerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking player profile: %w", err)
	}
	return exists, nil
}
