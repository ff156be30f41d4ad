package harvest

import (
	"strings"

	"github.com/fvockel/squadscout/internal/store"
)

// Scope selects how much of the hierarchy a run walks.
type Scope string

const (
	// ScopeCountry walks a country index: competitions, then clubs, then
	// rosters.
	ScopeCountry Scope = "country"

	// ScopeCompetition starts at a single competition page.
	ScopeCompetition Scope = "competition"
)

// Phase labels the stage a progress event was emitted from.
type Phase string

const (
	PhaseInit  Phase = "init"
	PhaseFetch Phase = "fetch"
	PhaseParse Phase = "parse"
	PhaseSave  Phase = "save"
	PhaseDone  Phase = "done"
	PhaseError Phase = "error"
)

// RunSpec describes one harvesting run.
type RunSpec struct {
	Path      string `json:"path"`
	CountryID int    `json:"country_id"`
	SeasonID  int    `json:"season"`
	Details   bool   `json:"details"`
	Profiles  bool   `json:"profiles"`
	Flat      bool   `json:"flat"`
	Refresh   bool   `json:"refresh"`
}

// Scope derives the traversal scope from the root path: competition pages
// carry a /wettbewerb/ segment, country index pages do not.
func (s RunSpec) Scope() Scope {
	if strings.Contains(s.Path, "/wettbewerb/") {
		return ScopeCompetition
	}
	return ScopeCountry
}

// Counts are the running counters of one harvesting run.
type Counts struct {
	Competitions int `json:"competitions"`
	Clubs        int `json:"clubs"`
	Players      int `json:"players"`
	Profiles     int `json:"profiles"`
	Skipped      int `json:"skipped"`
}

// Event is one progress report. Transient: events are created and discarded
// per run, never persisted.
type Event struct {
	Phase    Phase   `json:"phase"`
	Message  string  `json:"message"`
	Progress float64 `json:"progress"`
	Counts   Counts  `json:"counts"`
	Done     bool    `json:"done,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// Reporter receives runner lifecycle callbacks. Implementations must tolerate
// calls from concurrent club workers.
type Reporter interface {
	OnPhase(phase Phase, message string, fraction float64)
	OnUnitSkipped(message string)
	OnComplete(counts Counts)
	OnError(err error, counts Counts)
}

// Result is what a completed run hands back to its caller.
type Result struct {
	Counts Counts
	Flat   []store.FlatPlayer
}
