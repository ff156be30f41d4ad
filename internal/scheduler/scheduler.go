package scheduler

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/fvockel/squadscout/internal/harvest"
)

// Config holds scheduler configuration
type Config struct {
	Enabled     bool
	HarvestHour int           // Default: 3 (3 AM)
	CountryPath string        // root path of the nightly run
	CountryID   int
	SeasonID    int
	Profiles    bool          // enrich with profile pages
	MaxRetries  int           // Default: 3
	RetryDelay  time.Duration // Default: 5s
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		HarvestHour: 3,
		MaxRetries:  3,
		RetryDelay:  5 * time.Second,
	}
}

// Scheduler re-harvests the configured country every night so season
// snapshots track the source without manual triggers.
type Scheduler struct {
	service *harvest.Service
	config  *Config
	cancel  context.CancelFunc
}

// NewScheduler creates a new nightly harvest scheduler
func NewScheduler(service *harvest.Service, config *Config) *Scheduler {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 5 * time.Second
	}

	return &Scheduler{
		service: service,
		config:  config,
	}
}

// Start runs the scheduling loop until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	log.Printf("→ Nightly harvest scheduler started (runs at %02d:00, path %s, season %d)",
		s.config.HarvestHour, s.config.CountryPath, s.config.SeasonID)

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for {
		now := time.Now()
		nextRun := time.Date(now.Year(), now.Month(), now.Day(), s.config.HarvestHour, 0, 0, 0, now.Location())
		if now.After(nextRun) {
			nextRun = nextRun.Add(24 * time.Hour)
		}

		waitDuration := time.Until(nextRun)
		log.Printf("  Next harvest: %s (in %v)", nextRun.Format("2006-01-02 15:04:05"), waitDuration.Round(time.Second))

		select {
		case <-ctx.Done():
			log.Println("→ Nightly harvest scheduler stopped")
			return
		case <-time.After(waitDuration):
			s.runWithRetry(ctx)
		}
	}
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// runWithRetry executes one nightly harvest, retrying on failure. A run
// rejected because another is active counts as an attempt and retries.
func (s *Scheduler) runWithRetry(ctx context.Context) {
	spec := harvest.RunSpec{
		Path:      s.config.CountryPath,
		CountryID: s.config.CountryID,
		SeasonID:  s.config.SeasonID,
		Details:   true,
		Profiles:  s.config.Profiles,
		Flat:      true,
		Refresh:   true,
	}

	startTime := time.Now()
	log.Println("═══ Nightly Harvest Starting ═══")

	var counts harvest.Counts
	var err error
	for attempt := 1; attempt <= s.config.MaxRetries; attempt++ {
		counts, err = s.service.RunBatch(ctx, spec)
		if err == nil {
			break
		}
		if errors.Is(err, context.Canceled) {
			return
		}

		log.Printf("  ⚠️  Harvest attempt %d/%d failed: %v", attempt, s.config.MaxRetries, err)
		if attempt < s.config.MaxRetries {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.config.RetryDelay):
			}
		}
	}

	if err != nil {
		log.Printf("  ❌ All %d harvest attempts failed", s.config.MaxRetries)
		return
	}

	log.Printf("✓ Nightly harvest complete in %v: %d clubs, %d players, %d skipped",
		time.Since(startTime).Round(time.Second), counts.Clubs, counts.Players, counts.Skipped)
}

// GetStatus returns current scheduler status
func (s *Scheduler) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"enabled":      s.config.Enabled,
		"harvest_hour": s.config.HarvestHour,
		"country_path": s.config.CountryPath,
		"season":       s.config.SeasonID,
	}
}
