package store

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Competition represents one competition discovered on a country listing page.
// Scoped by (country_id, code); re-harvesting replaces the scalar fields.
type Competition struct {
	CountryID     int             `json:"country_id" db:"country_id"`
	SeasonID      int             `json:"season_id" db:"season_id"`
	Code          string          `json:"code" db:"code"`
	Name          string          `json:"name" db:"name"`
	SourcePath    string          `json:"source_path" db:"source_path"`
	ClubCount     sql.NullInt32   `json:"club_count,omitempty" db:"club_count"`
	PlayerCount   sql.NullInt32   `json:"player_count,omitempty" db:"player_count"`
	AverageAge    sql.NullFloat64 `json:"average_age,omitempty" db:"average_age"`
	ForeignerPct  sql.NullFloat64 `json:"foreigner_pct,omitempty" db:"foreigner_pct"`
	TotalValueEur sql.NullInt64   `json:"total_value_eur,omitempty" db:"total_value_eur"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// Club represents one club row extracted from a competition page.
// Natural key: (competition_code, season_id, external_club_id). The roster
// path is derived, never scraped, because it encodes the season.
type Club struct {
	CompetitionCode     string          `json:"competition_code" db:"competition_code"`
	SeasonID            int             `json:"season_id" db:"season_id"`
	ExternalClubID      string          `json:"external_club_id" db:"external_club_id"`
	Name                string          `json:"name" db:"name"`
	ProfilePath         string          `json:"profile_path" db:"profile_path"`
	RosterPath          string          `json:"roster_path" db:"roster_path"`
	SquadSize           sql.NullInt32   `json:"squad_size,omitempty" db:"squad_size"`
	AverageAge          sql.NullFloat64 `json:"average_age,omitempty" db:"average_age"`
	ForeignerCount      sql.NullInt32   `json:"foreigner_count,omitempty" db:"foreigner_count"`
	AvgMarketValueEur   sql.NullInt64   `json:"avg_market_value_eur,omitempty" db:"avg_market_value_eur"`
	TotalMarketValueEur sql.NullInt64   `json:"total_market_value_eur,omitempty" db:"total_market_value_eur"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
}

// SquadPlayer is a season snapshot of a player's membership in one club.
// Natural key: (season_id, external_club_id, external_player_id). Re-harvesting
// the same season overwrites the row; snapshots are not versioned history.
type SquadPlayer struct {
	SeasonID         int            `json:"season_id" db:"season_id"`
	ExternalClubID   string         `json:"external_club_id" db:"external_club_id"`
	ExternalPlayerID string         `json:"external_player_id" db:"external_player_id"`
	ShirtNumber      sql.NullInt32  `json:"shirt_number,omitempty" db:"shirt_number"`
	Name             string         `json:"name" db:"name"`
	ProfilePath      string         `json:"profile_path" db:"profile_path"`
	Position         sql.NullString `json:"position,omitempty" db:"position"`
	Age              sql.NullInt32  `json:"age,omitempty" db:"age"`
	BirthDate        sql.NullTime   `json:"birth_date,omitempty" db:"birth_date"`
	Nationalities    pq.StringArray `json:"nationalities" db:"nationalities"`
	HeightCm         sql.NullInt32  `json:"height_cm,omitempty" db:"height_cm"`
	DominantFoot     sql.NullString `json:"dominant_foot,omitempty" db:"dominant_foot"`
	JoinedOn         sql.NullTime   `json:"joined_on,omitempty" db:"joined_on"`
	SignedFromClubID sql.NullString `json:"signed_from_club_id,omitempty" db:"signed_from_club_id"`
	ContractUntil    sql.NullTime   `json:"contract_until,omitempty" db:"contract_until"`
	MarketValueEur   sql.NullInt64  `json:"market_value_eur,omitempty" db:"market_value_eur"`
	ImageURL         sql.NullString `json:"image_url,omitempty" db:"image_url"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

// PlayerProfile is the season-independent enrichment record for one player,
// keyed by external id alone.
type PlayerProfile struct {
	ExternalPlayerID string         `json:"external_player_id" db:"external_player_id"`
	FullName         string         `json:"full_name" db:"full_name"`
	DateOfBirth      sql.NullTime   `json:"date_of_birth,omitempty" db:"date_of_birth"`
	HeightCm         sql.NullInt32  `json:"height_cm,omitempty" db:"height_cm"`
	DominantFoot     sql.NullString `json:"dominant_foot,omitempty" db:"dominant_foot"`
	MainPosition     sql.NullString `json:"main_position,omitempty" db:"main_position"`
	OtherPositions   pq.StringArray `json:"other_positions" db:"other_positions"`
	Nationalities    pq.StringArray `json:"nationalities" db:"nationalities"`
	CurrentClubName  sql.NullString `json:"current_club_name,omitempty" db:"current_club_name"`
	Agent            sql.NullString `json:"agent,omitempty" db:"agent"`
	ContractUntil    sql.NullTime   `json:"contract_until,omitempty" db:"contract_until"`
	MarketValueEur   sql.NullInt64  `json:"market_value_eur,omitempty" db:"market_value_eur"`
	PortraitURL      sql.NullString `json:"portrait_url,omitempty" db:"portrait_url"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

// SourceRef describes one harvesting context a global player was seen in.
type SourceRef struct {
	Source     string `json:"source"`
	ExternalID string `json:"externalId"`
	Club       string `json:"club"`
	SeasonID   int    `json:"seasonId"`
	Href       string `json:"href"`
}

// GlobalPlayer is the merged cross-source identity. Exactly one row per
// dedupe key; repeated harvesting appends to Sources, never duplicates rows.
// Only the reconciliation merger writes this table.
type GlobalPlayer struct {
	DedupeKey   string         `json:"dedupe_key" db:"dedupe_key"`
	Name        string         `json:"name" db:"name"`
	FirstName   sql.NullString `json:"first_name,omitempty" db:"first_name"`
	LastName    sql.NullString `json:"last_name,omitempty" db:"last_name"`
	BirthDate   sql.NullTime   `json:"birth_date,omitempty" db:"birth_date"`
	Position    sql.NullString `json:"position,omitempty" db:"position"`
	Club        sql.NullString `json:"club,omitempty" db:"club"`
	Nationality sql.NullString `json:"nationality,omitempty" db:"nationality"`
	Sources     []SourceRef    `json:"sources" db:"sources"`
	Meta        sql.NullString `json:"meta,omitempty" db:"meta"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// FlatPlayer is the denormalized row-per-player shape produced by a flat
// harvest and cached as the (country, season) snapshot.
type FlatPlayer struct {
	CountryID        int      `json:"country_id"`
	SeasonID         int      `json:"season_id"`
	CompetitionCode  string   `json:"competition_code"`
	CompetitionName  string   `json:"competition_name"`
	ExternalClubID   string   `json:"external_club_id"`
	ClubName         string   `json:"club_name"`
	ExternalPlayerID string   `json:"external_player_id"`
	Name             string   `json:"name"`
	Position         string   `json:"position,omitempty"`
	Age              int      `json:"age,omitempty"`
	HeightCm         int      `json:"height_cm,omitempty"`
	Nationalities    []string `json:"nationalities,omitempty"`
	MarketValueEur   int64    `json:"market_value_eur,omitempty"`
	ProfilePath      string   `json:"profile_path"`
}
