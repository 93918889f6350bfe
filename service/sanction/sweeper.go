package sanction

import (
	"context"
	"log"
	"time"
)

// SweeperConfig configures the background sweep loop.
type SweeperConfig struct {
	// PollingInterval is how often pending sanctions are checked against
	// their grace period.
	PollingInterval time.Duration
}

// DefaultSweeperConfig returns the default sweeper configuration.
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{PollingInterval: time.Minute}
}

// Sweeper periodically resolves expired sanctions to their provider default
// outcome. Several sweepers may run against the same store; SweepPending is
// compare-and-set protected, so overlapping runs are harmless.
type Sweeper struct {
	service    Service
	config     SweeperConfig
	shutdownCh chan struct{}
}

// NewSweeper creates a sweeper over the supplied sanction service.
func NewSweeper(service Service, config SweeperConfig) *Sweeper {
	if config.PollingInterval <= 0 {
		config.PollingInterval = DefaultSweeperConfig().PollingInterval
	}
	return &Sweeper{
		service:    service,
		config:     config,
		shutdownCh: make(chan struct{}),
	}
}

// Start begins the sweep loop and blocks until ctx is done or Shutdown is
// called.
func (s *Sweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.config.PollingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.shutdownCh:
			return nil
		case <-ticker.C:
			mutated, err := s.service.SweepPending(ctx)
			if err != nil {
				log.Printf("sanction sweep failed: %v", err)
				continue
			}
			for _, sc := range mutated {
				log.Printf("sanction %s (%s) swept to %s", sc.ID, sc.Kind, sc.State)
			}
		}
	}
}

// Shutdown stops the sweep loop.
func (s *Sweeper) Shutdown() {
	close(s.shutdownCh)
}
