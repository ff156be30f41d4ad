package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fvockel/squadscout/internal/harvest"
	"github.com/fvockel/squadscout/internal/ingest/kickwelt"
	"github.com/fvockel/squadscout/internal/store"
)

// stubSource serves a one-competition, one-club, one-player hierarchy. An
// optional block channel parks competition discovery to hold a run open.
type stubSource struct {
	block chan struct{}
}

func (s *stubSource) Competitions(ctx context.Context, countryPath string, seasonID int) ([]kickwelt.CompetitionRow, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []kickwelt.CompetitionRow{
		{Code: "L1", Name: "Super League", SourcePath: "/super-league/startseite/wettbewerb/L1"},
	}, nil
}

func (s *stubSource) CompetitionPage(ctx context.Context, competitionPath string, seasonID int, referer string) (*kickwelt.CompetitionPage, error) {
	return &kickwelt.CompetitionPage{
		Name: "Super League",
		Clubs: []kickwelt.ClubRow{
			{ExternalClubID: "42", Name: "FC Adler", ProfilePath: "/fc-adler/startseite/verein/42"},
		},
	}, nil
}

func (s *stubSource) Squad(ctx context.Context, rosterPath, referer string) ([]kickwelt.SquadPlayerRow, error) {
	return []kickwelt.SquadPlayerRow{
		{ExternalPlayerID: "9001", Name: "Jan Weiß", ProfilePath: "/jan-weiss/profil/spieler/9001"},
	}, nil
}

func (s *stubSource) Profile(ctx context.Context, profilePath, referer string, refresh bool) (*kickwelt.ProfileData, error) {
	return nil, nil
}

type noopSink struct{}

func (noopSink) SaveCompetition(ctx context.Context, c *store.Competition) error { return nil }
func (noopSink) SaveClub(ctx context.Context, c *store.Club) error               { return nil }
func (noopSink) SaveSquadPlayer(ctx context.Context, p *store.SquadPlayer) error { return nil }
func (noopSink) SaveProfile(ctx context.Context, p *store.PlayerProfile) error   { return nil }
func (noopSink) MergeIdentity(ctx context.Context, p *store.SquadPlayer, clubName string) error {
	return nil
}

func newTestHarvestHandler(source harvest.Source) *HarvestHandler {
	service := harvest.NewService(source, noopSink{}, nil)
	service.Workers = 1
	service.MinDelay = -1
	service.MaxDelay = -1
	return NewHarvestHandler(service)
}

func TestStreamHarvestEmitsTerminalEvent(t *testing.T) {
	handler := newTestHarvestHandler(&stubSource{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/harvest/stream?path=/wettbewerbe/national/wettbewerbe/40&country=40&season=2025&details=1", nil)
	rec := httptest.NewRecorder()

	handler.StreamHarvest(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	var events []harvest.Event
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev harvest.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("undecodable frame %q: %v", line, err)
		}
		events = append(events, ev)
	}

	if len(events) == 0 {
		t.Fatal("no events streamed")
	}
	last := events[len(events)-1]
	if !last.Done || last.Phase != harvest.PhaseDone {
		t.Errorf("terminal event = %+v", last)
	}
	if last.Counts.Players != 1 || last.Counts.Clubs != 1 {
		t.Errorf("terminal counts = %+v", last.Counts)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Progress < events[i-1].Progress {
			t.Errorf("progress regressed at frame %d: %v -> %v", i, events[i-1].Progress, events[i].Progress)
		}
	}
}

func TestStreamHarvestRejectsInvalidSpec(t *testing.T) {
	handler := newTestHarvestHandler(&stubSource{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/harvest/stream?path=/x", nil)
	rec := httptest.NewRecorder()
	handler.StreamHarvest(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestStreamHarvestConflictsWithActiveRun(t *testing.T) {
	source := &stubSource{block: make(chan struct{})}
	handler := newTestHarvestHandler(source)

	spec := harvest.RunSpec{Path: "/wettbewerbe/national/wettbewerbe/40", CountryID: 40, SeasonID: 2025}
	if err := handler.service.StartBatch(spec); err != nil {
		t.Fatalf("holding run: %v", err)
	}
	defer close(source.block)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/harvest/stream?path=/wettbewerbe/national/wettbewerbe/40&season=2025", nil)
	rec := httptest.NewRecorder()
	handler.StreamHarvest(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestTriggerHarvest(t *testing.T) {
	handler := newTestHarvestHandler(&stubSource{})

	body := `{"path": "/wettbewerbe/national/wettbewerbe/40", "country_id": 40, "season": 2025, "details": true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/harvest", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.TriggerHarvest(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status string          `json:"status"`
		Spec   harvest.RunSpec `json:"spec"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != "started" || resp.Spec.SeasonID != 2025 {
		t.Errorf("response = %+v", resp)
	}
}

func TestTriggerHarvestRejectsBadInput(t *testing.T) {
	handler := newTestHarvestHandler(&stubSource{})

	tests := []string{
		`not json`,
		`{"path": "", "season": 2025}`,
		`{"path": "/x"}`,
	}
	for _, body := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/harvest", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.TriggerHarvest(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestGetSnapshotRunsColdHarvest(t *testing.T) {
	handler := newTestHarvestHandler(&stubSource{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshot?country=40&season=2025", nil)
	rec := httptest.NewRecorder()
	handler.GetSnapshot(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Country int                `json:"country"`
		Season  int                `json:"season"`
		Players []store.FlatPlayer `json:"players"`
		Count   int                `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Count != 1 || len(resp.Players) != 1 {
		t.Errorf("response = %+v", resp)
	}
	if resp.Players[0].ExternalPlayerID != "9001" {
		t.Errorf("player = %+v", resp.Players[0])
	}
}

func TestGetSnapshotRequiresParams(t *testing.T) {
	handler := newTestHarvestHandler(&stubSource{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshot?country=40", nil)
	rec := httptest.NewRecorder()
	handler.GetSnapshot(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
