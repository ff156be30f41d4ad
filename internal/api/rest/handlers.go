package rest

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/fvockel/squadscout/internal/ingest/kickwelt"
	"github.com/fvockel/squadscout/internal/service"
	"github.com/fvockel/squadscout/internal/store"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	db                 *store.Database
	competitionService *service.CompetitionService
	playerService      *service.PlayerService
}

// NewHandler creates a new handler
func NewHandler(db *store.Database) *Handler {
	return &Handler{
		db:                 db,
		competitionService: service.NewCompetitionService(db),
		playerService:      service.NewPlayerService(db),
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "squadscout",
		"version": "1.0.0",
	})
}

// GetCompetitions returns harvested competitions filtered by country and season
func (h *Handler) GetCompetitions(w http.ResponseWriter, r *http.Request) {
	countryID := intParam(r, "country")
	if countryID <= 0 {
		respondError(w, http.StatusBadRequest, "country query parameter is required", nil)
		return
	}

	competitions, err := h.competitionService.GetCompetitions(r.Context(), countryID, intParam(r, "season"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch competitions", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"competitions": competitions,
		"count":        len(competitions),
	})
}

// GetCompetitionClubs returns the clubs of one competition
func (h *Handler) GetCompetitionClubs(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	result, err := h.competitionService.GetClubs(r.Context(), code, intParam(r, "season"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch clubs", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetClubSquad returns a club's roster snapshot for a season
func (h *Handler) GetClubSquad(w http.ResponseWriter, r *http.Request) {
	clubID := mux.Vars(r)["clubID"]

	result, err := h.competitionService.GetSquad(r.Context(), clubID, intParam(r, "season"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch squad", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// SearchPlayers searches players by name
func (h *Handler) SearchPlayers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "q query parameter is required", nil)
		return
	}

	result, err := h.playerService.Search(r.Context(), query)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to search players", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetPlayer returns the profile and merged identity of one player
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	externalID := mux.Vars(r)["externalID"]

	detail, err := h.playerService.GetByExternalID(r.Context(), kickwelt.Source, externalID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Player not found", err)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// respondJSON writes a JSON response with status code
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		log.Printf("%s: %v", message, err)
	}
	respondJSON(w, status, map[string]string{"error": message})
}

// intParam reads an integer query parameter, zero when absent or malformed.
func intParam(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}

// boolParam reads a flag query parameter ("1" or "true").
func boolParam(r *http.Request, name string) bool {
	v := r.URL.Query().Get(name)
	return v == "1" || v == "true"
}
