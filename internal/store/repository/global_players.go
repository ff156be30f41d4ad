package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fvockel/squadscout/internal/store"
)

// ErrGlobalPlayerNotFound is returned when no row matches a dedupe key.
var ErrGlobalPlayerNotFound = errors.New("global player not found")

// GlobalPlayerRepository handles the merged cross-source identity table.
// Only the reconciliation merger should write through it.
type GlobalPlayerRepository struct {
	db *store.Database
}

// NewGlobalPlayerRepository creates a new global player repository
func NewGlobalPlayerRepository(db *store.Database) *GlobalPlayerRepository {
	return &GlobalPlayerRepository{db: db}
}

// Merge upserts a global player in a single statement. The conflict branch
// concatenates and deduplicates the jsonb sources array and only fills scalar
// fields that were previously null, so two in-flight club workers resolving
// the same dedupe key cannot lose each other's update.
func (r *GlobalPlayerRepository) Merge(ctx context.Context, p *store.GlobalPlayer) error {
	sources, err := json.Marshal(p.Sources)
	if err != nil {
		return fmt.Errorf("encoding sources for %s: %w", p.DedupeKey, err)
	}

	query := `
		INSERT INTO global_players (dedupe_key, name, first_name, last_name,
			birth_date, position, club, nationality, sources, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10::jsonb)
		ON CONFLICT (dedupe_key) DO UPDATE SET
			name = CASE WHEN global_players.name = '' THEN EXCLUDED.name ELSE global_players.name END,
			first_name = COALESCE(global_players.first_name, EXCLUDED.first_name),
			last_name = COALESCE(global_players.last_name, EXCLUDED.last_name),
			birth_date = COALESCE(global_players.birth_date, EXCLUDED.birth_date),
			position = COALESCE(global_players.position, EXCLUDED.position),
			club = COALESCE(global_players.club, EXCLUDED.club),
			nationality = COALESCE(global_players.nationality, EXCLUDED.nationality),
			sources = (
				SELECT COALESCE(jsonb_agg(DISTINCT src), '[]'::jsonb)
				FROM jsonb_array_elements(global_players.sources || EXCLUDED.sources) AS src
			),
			meta = COALESCE(global_players.meta, EXCLUDED.meta),
			updated_at = NOW()
	`

	_, err = r.db.DB().ExecContext(ctx, query,
		p.DedupeKey, p.Name, p.FirstName, p.LastName,
		p.BirthDate, p.Position, p.Club, p.Nationality, string(sources), p.Meta,
	)
	if err != nil {
		return fmt.Errorf("merging global player %s: %w", p.DedupeKey, err)
	}

	return nil
}

// GetByKey finds a global player by dedupe key
func (r *GlobalPlayerRepository) GetByKey(ctx context.Context, key string) (*store.GlobalPlayer, error) {
	query := `
		SELECT dedupe_key, name, first_name, last_name, birth_date,
			position, club, nationality, sources, meta, created_at, updated_at
		FROM global_players
		WHERE dedupe_key = $1
	`

	return r.scanGlobalPlayer(r.db.DB().QueryRowContext(ctx, query, key))
}

// Search finds global players by name (case-insensitive partial match)
func (r *GlobalPlayerRepository) Search(ctx context.Context, name string) ([]*store.GlobalPlayer, error) {
	query := `
		SELECT dedupe_key, name, first_name, last_name, birth_date,
			position, club, nationality, sources, meta, created_at, updated_at
		FROM global_players
		WHERE name ILIKE $1
		ORDER BY name
		LIMIT 50
	`

	rows, err := r.db.DB().QueryContext(ctx, query, "%"+name+"%")
	if err != nil {
		return nil, fmt.Errorf("searching global players: %w", err)
	}
	defer rows.Close()

	var players []*store.GlobalPlayer
	for rows.Next() {
		p, err := r.scanGlobalPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}

	return players, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *GlobalPlayerRepository) scanGlobalPlayer(row rowScanner) (*store.GlobalPlayer, error) {
	p := &store.GlobalPlayer{}
	var sources []byte
	err := row.Scan(
		&p.DedupeKey, &p.Name, &p.FirstName, &p.LastName, &p.BirthDate,
		&p.Position, &p.Club, &p.Nationality, &sources, &p.Meta,
		&p.CreatedAt, &p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrGlobalPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning global player: %w", err)
	}

	if len(sources) > 0 {
		if err := json.Unmarshal(sources, &p.Sources); err != nil {
			return nil, fmt.Errorf("decoding sources for %s: %w", p.DedupeKey, err)
		}
	}

	return p, nil
}
