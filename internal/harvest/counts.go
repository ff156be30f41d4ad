package harvest

import "sync"

// Accumulator collects run counters from concurrent club workers. All counter
// updates go through here; workers never share bare variables.
type Accumulator struct {
	mu sync.Mutex
	c  Counts
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

func (a *Accumulator) AddCompetitions(n int) {
	a.mu.Lock()
	a.c.Competitions += n
	a.mu.Unlock()
}

func (a *Accumulator) AddClubs(n int) {
	a.mu.Lock()
	a.c.Clubs += n
	a.mu.Unlock()
}

func (a *Accumulator) AddPlayers(n int) {
	a.mu.Lock()
	a.c.Players += n
	a.mu.Unlock()
}

func (a *Accumulator) AddProfiles(n int) {
	a.mu.Lock()
	a.c.Profiles += n
	a.mu.Unlock()
}

func (a *Accumulator) Skip() {
	a.mu.Lock()
	a.c.Skipped++
	a.mu.Unlock()
}

// Snapshot returns a copy of the current counters.
func (a *Accumulator) Snapshot() Counts {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.c
}
