package policy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Config is the serialisable form of a Policy.
type Config struct {
	Provider    string            `json:"provider" yaml:"provider"`
	Mode        string            `json:"mode,omitempty" yaml:"mode,omitempty"`
	Moderators  []string          `json:"moderators,omitempty" yaml:"moderators,omitempty"`
	GracePeriod string            `json:"gracePeriod,omitempty" yaml:"gracePeriod,omitempty"`
	Defaults    map[string]string `json:"defaults,omitempty" yaml:"defaults,omitempty"`
}

// FromConfig converts a stored Config into a runtime Policy.
func FromConfig(c *Config) (*Policy, error) {
	if c == nil {
		return nil, nil
	}
	ret := &Policy{
		Provider:   c.Provider,
		Mode:       c.Mode,
		Moderators: append([]string(nil), c.Moderators...),
		Defaults:   c.Defaults,
	}
	if ret.Mode == "" {
		ret.Mode = ModeNone
	}
	switch ret.Mode {
	case ModeNone, ModePre, ModePost:
	default:
		return nil, fmt.Errorf("policy: unknown mode %q for provider %q", c.Mode, c.Provider)
	}
	if c.GracePeriod != "" {
		grace, err := time.ParseDuration(c.GracePeriod)
		if err != nil {
			return nil, fmt.Errorf("policy: invalid grace period for provider %q: %w", c.Provider, err)
		}
		ret.GracePeriod = grace
	}
	return ret, nil
}

// ToConfig converts a runtime Policy into its serialisable form.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	ret := &Config{
		Provider:   p.Provider,
		Mode:       p.Mode,
		Moderators: append([]string(nil), p.Moderators...),
		Defaults:   p.Defaults,
	}
	if p.GracePeriod > 0 {
		ret.GracePeriod = p.GracePeriod.String()
	}
	return ret
}

// Registry resolves provider policies. Lookup never returns nil - providers
// without an entry fall back to an unmoderated default.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]*Policy
	fallback *Policy
}

// NewRegistry creates a registry with the supplied policies.
func NewRegistry(policies ...*Policy) *Registry {
	ret := &Registry{
		policies: make(map[string]*Policy),
		fallback: &Policy{Mode: ModeNone},
	}
	for _, p := range policies {
		ret.Register(p)
	}
	return ret
}

// Register adds or replaces a provider policy.
func (r *Registry) Register(p *Policy) {
	if p == nil || p.Provider == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[p.Provider] = p
}

// Lookup returns the policy of a provider, or the unmoderated fallback.
func (r *Registry) Lookup(provider string) *Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.policies[provider]; ok {
		return p
	}
	return r.fallback
}

// IsModerator reports whether userID belongs to the provider moderator group.
func (r *Registry) IsModerator(provider, userID string) bool {
	return r.Lookup(provider).IsModerator(userID)
}

// LoadRegistry reads provider policies from a YAML document at the supplied
// URL (any scheme supported by afs).
func LoadRegistry(ctx context.Context, fs afs.Service, URL string) (*Registry, error) {
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("policy: failed to load registry from %s: %w", URL, err)
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes a YAML policy document.
func ParseRegistry(data []byte) (*Registry, error) {
	var doc struct {
		Providers []*Config `yaml:"providers"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("policy: failed to parse registry: %w", err)
	}
	ret := NewRegistry()
	for _, c := range doc.Providers {
		p, err := FromConfig(c)
		if err != nil {
			return nil, err
		}
		ret.Register(p)
	}
	return ret, nil
}
