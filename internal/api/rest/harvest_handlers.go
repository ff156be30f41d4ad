package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fvockel/squadscout/internal/harvest"
	"github.com/fvockel/squadscout/internal/ingest/kickwelt"
)

// HarvestHandler exposes the harvesting triggers
type HarvestHandler struct {
	service *harvest.Service
}

// NewHarvestHandler creates a new harvest handler
func NewHarvestHandler(service *harvest.Service) *HarvestHandler {
	return &HarvestHandler{service: service}
}

// TriggerHarvest starts a background batch run
func (h *HarvestHandler) TriggerHarvest(w http.ResponseWriter, r *http.Request) {
	var spec harvest.RunSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := spec.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := h.service.StartBatch(spec); err != nil {
		if errors.Is(err, harvest.ErrRunInProgress) {
			respondError(w, http.StatusConflict, err.Error(), nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to start harvest", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "started",
		"spec":   spec,
	})
}

// HarvestStatus reports the active or most recent run
func (h *HarvestHandler) HarvestStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Status())
}

// GetSnapshot serves the flattened (country, season) harvest. A cache hit
// answers immediately; refresh=1 or a cold cache runs a fresh flat harvest
// in-request.
func (h *HarvestHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	countryID := intParam(r, "country")
	seasonID := intParam(r, "season")
	if countryID <= 0 || seasonID <= 0 {
		respondError(w, http.StatusBadRequest, "country and season query parameters are required", nil)
		return
	}

	rows, err := h.service.Snapshot(r.Context(), kickwelt.CountryPath(countryID), countryID, seasonID, boolParam(r, "refresh"))
	if err != nil {
		if errors.Is(err, harvest.ErrRunInProgress) {
			respondError(w, http.StatusConflict, err.Error(), nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to build snapshot", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"country": countryID,
		"season":  seasonID,
		"players": rows,
		"count":   len(rows),
	})
}
