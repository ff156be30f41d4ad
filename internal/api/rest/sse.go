package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fvockel/squadscout/internal/harvest"
)

const heartbeatInterval = 15 * time.Second

// StreamHarvest runs a harvest and streams its progress as server-sent
// events. Each event is one `data: <json>` frame; a comment `: ping` frame is
// emitted on a fixed interval to keep idle-connection reapers away. The
// stream ends after the terminal done event. A client disconnect cancels the
// request context, which stops the run at the next unit boundary.
func (h *HarvestHandler) StreamHarvest(w http.ResponseWriter, r *http.Request) {
	spec := harvest.RunSpec{
		Path:      r.URL.Query().Get("path"),
		CountryID: intParam(r, "country"),
		SeasonID:  intParam(r, "season"),
		Details:   boolParam(r, "details"),
		Profiles:  boolParam(r, "profiles"),
		Flat:      boolParam(r, "flat"),
		Refresh:   boolParam(r, "refresh"),
	}
	if err := spec.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "Streaming not supported", nil)
		return
	}

	events, err := h.service.RunStreaming(r.Context(), spec)
	if err != nil {
		if errors.Is(err, harvest.ErrRunInProgress) {
			respondError(w, http.StatusConflict, err.Error(), nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to start harvest", err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
			if ev.Done {
				return
			}
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
