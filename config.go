package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the engine configuration. It
// can be populated from YAML or JSON; the zero value is useful, all nested
// fields inherit their package defaults.
type Config struct {
	// PolicyURL points at the provider policy document (any afs scheme).
	PolicyURL string `json:"policyURL" yaml:"policyURL"`

	// ArtifactBaseURL, when set, switches the artifact store from the
	// in-memory DAO to the JSON-on-storage DAO rooted at this URL.
	ArtifactBaseURL string `json:"artifactBaseURL" yaml:"artifactBaseURL"`

	// SanctionBaseURL does the same for the sanction store.
	SanctionBaseURL string `json:"sanctionBaseURL" yaml:"sanctionBaseURL"`

	Sweeper SweeperConfig `json:"sweeper" yaml:"sweeper"`
	Queue   QueueConfig   `json:"queue" yaml:"queue"`
}

// SweeperConfig configures the grace-period sweep loop.
type SweeperConfig struct {
	PollingInterval time.Duration `json:"pollingInterval" yaml:"pollingInterval"`
}

// QueueConfig configures the in-memory event queues.
type QueueConfig struct {
	Buffer int `json:"buffer" yaml:"buffer"`
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() *Config {
	return &Config{
		Sweeper: SweeperConfig{PollingInterval: time.Minute},
		Queue:   QueueConfig{Buffer: 100},
	}
}

// Validate returns an error describing invalid settings, or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Sweeper.PollingInterval < 0 {
		return fmt.Errorf("sweeper.pollingInterval must not be negative")
	}
	if c.Queue.Buffer < 0 {
		return fmt.Errorf("queue.buffer must not be negative")
	}
	return nil
}

// LoadConfig reads a YAML config from any afs-supported URL.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	config := DefaultConfig()
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %v: %w", URL, err)
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
