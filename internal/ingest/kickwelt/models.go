package kickwelt

import (
	"database/sql"
	"time"

	"github.com/fvockel/squadscout/internal/store"
)

// Source is the identity prefix used for cross-source dedupe keys.
const Source = "kickwelt"

// CompetitionRow is one competition extracted from a country listing page.
// Optional scalars are pointers; a nil pointer means the cell was absent or
// unparseable, which is normal for uneven markup.
type CompetitionRow struct {
	Code          string
	Name          string
	SourcePath    string
	ClubCount     *int
	PlayerCount   *int
	AverageAge    *float64
	ForeignerPct  *float64
	TotalValueEur *int64
}

// HasIdentity reports whether the row carries enough identity to persist.
func (r CompetitionRow) HasIdentity() bool {
	return r.Code != "" && r.Name != ""
}

// ToStore converts the row into a store.Competition.
func (r CompetitionRow) ToStore(countryID, seasonID int) *store.Competition {
	return &store.Competition{
		CountryID:     countryID,
		SeasonID:      seasonID,
		Code:          r.Code,
		Name:          r.Name,
		SourcePath:    r.SourcePath,
		ClubCount:     nullInt32(r.ClubCount),
		PlayerCount:   nullInt32(r.PlayerCount),
		AverageAge:    nullFloat64(r.AverageAge),
		ForeignerPct:  nullFloat64(r.ForeignerPct),
		TotalValueEur: nullInt64(r.TotalValueEur),
	}
}

// ClubRow is one club extracted from a competition page.
type ClubRow struct {
	ExternalClubID      string
	Name                string
	ProfilePath         string
	SquadSize           *int
	AverageAge          *float64
	ForeignerCount      *int
	AvgMarketValueEur   *int64
	TotalMarketValueEur *int64
}

// HasIdentity reports whether the row carries enough identity to persist.
func (r ClubRow) HasIdentity() bool {
	return r.ExternalClubID != "" && r.Name != ""
}

// ToStore converts the row into a store.Club. The roster path is derived
// here, never scraped, because it encodes the season.
func (r ClubRow) ToStore(competitionCode string, seasonID int) *store.Club {
	return &store.Club{
		CompetitionCode:     competitionCode,
		SeasonID:            seasonID,
		ExternalClubID:      r.ExternalClubID,
		Name:                r.Name,
		ProfilePath:         NormalizePath(r.ProfilePath),
		RosterPath:          RosterPath(r.ProfilePath, seasonID),
		SquadSize:           nullInt32(r.SquadSize),
		AverageAge:          nullFloat64(r.AverageAge),
		ForeignerCount:      nullInt32(r.ForeignerCount),
		AvgMarketValueEur:   nullInt64(r.AvgMarketValueEur),
		TotalMarketValueEur: nullInt64(r.TotalMarketValueEur),
	}
}

// SquadPlayerRow is one player extracted from a roster page.
type SquadPlayerRow struct {
	ExternalPlayerID string
	Name             string
	ProfilePath      string
	ShirtNumber      *int
	Position         string
	BirthDate        *time.Time
	Age              *int
	Nationalities    []string
	HeightCm         *int
	DominantFoot     string
	JoinedOn         *time.Time
	SignedFromClubID string
	ContractUntil    *time.Time
	MarketValueEur   *int64
	ImageURL         string
}

// HasIdentity reports whether the row carries enough identity to persist.
// Rows without it are dropped silently: a missing player row is an expected
// outcome of uneven markup, not an error.
func (r SquadPlayerRow) HasIdentity() bool {
	return r.ExternalPlayerID != "" && r.Name != ""
}

// ToStore converts the row into a store.SquadPlayer snapshot.
func (r SquadPlayerRow) ToStore(seasonID int, externalClubID string) *store.SquadPlayer {
	return &store.SquadPlayer{
		SeasonID:         seasonID,
		ExternalClubID:   externalClubID,
		ExternalPlayerID: r.ExternalPlayerID,
		ShirtNumber:      nullInt32(r.ShirtNumber),
		Name:             r.Name,
		ProfilePath:      NormalizePath(r.ProfilePath),
		Position:         nullString(r.Position),
		Age:              nullInt32(r.Age),
		BirthDate:        nullTime(r.BirthDate),
		Nationalities:    r.Nationalities,
		HeightCm:         nullInt32(r.HeightCm),
		DominantFoot:     nullString(r.DominantFoot),
		JoinedOn:         nullTime(r.JoinedOn),
		SignedFromClubID: nullString(r.SignedFromClubID),
		ContractUntil:    nullTime(r.ContractUntil),
		MarketValueEur:   nullInt64(r.MarketValueEur),
		ImageURL:         nullString(r.ImageURL),
	}
}

// ProfileData is the parsed form of a player profile page.
type ProfileData struct {
	ExternalPlayerID string
	FullName         string
	DateOfBirth      *time.Time
	HeightCm         *int
	DominantFoot     string
	MainPosition     string
	OtherPositions   []string
	Nationalities    []string
	CurrentClubName  string
	Agent            string
	ContractUntil    *time.Time
	MarketValueEur   *int64
	PortraitURL      string
}

// HasIdentity reports whether the profile carries enough identity to persist.
func (p ProfileData) HasIdentity() bool {
	return p.ExternalPlayerID != "" && p.FullName != ""
}

// ToStore converts the profile into a store.PlayerProfile.
func (p ProfileData) ToStore() *store.PlayerProfile {
	return &store.PlayerProfile{
		ExternalPlayerID: p.ExternalPlayerID,
		FullName:         p.FullName,
		DateOfBirth:      nullTime(p.DateOfBirth),
		HeightCm:         nullInt32(p.HeightCm),
		DominantFoot:     nullString(p.DominantFoot),
		MainPosition:     nullString(p.MainPosition),
		OtherPositions:   p.OtherPositions,
		Nationalities:    p.Nationalities,
		CurrentClubName:  nullString(p.CurrentClubName),
		Agent:            nullString(p.Agent),
		ContractUntil:    nullTime(p.ContractUntil),
		MarketValueEur:   nullInt64(p.MarketValueEur),
		PortraitURL:      nullString(p.PortraitURL),
	}
}

func nullInt32(v *int) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*v), Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullFloat64(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
