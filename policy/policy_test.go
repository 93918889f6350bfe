package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegistry(t *testing.T) {
	data := []byte(`
providers:
  - provider: journal-a
    mode: pre-moderation
    moderators: [mod1, mod2]
    gracePeriod: 72h
    defaults:
      registration_approval: approve
      retraction: reject
  - provider: journal-b
    mode: post-moderation
`)
	registry, err := ParseRegistry(data)
	require.NoError(t, err)

	policyA := registry.Lookup("journal-a")
	assert.Equal(t, ModePre, policyA.Mode)
	assert.True(t, policyA.Moderated())
	assert.Equal(t, 72*time.Hour, policyA.Grace())
	assert.Equal(t, OutcomeApprove, policyA.DefaultOutcome("registration_approval"))
	assert.Equal(t, OutcomeReject, policyA.DefaultOutcome("retraction"))
	assert.Equal(t, "", policyA.DefaultOutcome("embargo"))

	assert.True(t, registry.IsModerator("journal-a", "mod1"))
	assert.True(t, registry.IsModerator("journal-a", "MOD2"))
	assert.False(t, registry.IsModerator("journal-a", "someone"))
	assert.False(t, registry.IsModerator("journal-b", "mod1"))
}

func TestLookupFallback(t *testing.T) {
	registry := NewRegistry(&Policy{Provider: "known", Mode: ModePre})
	unknown := registry.Lookup("unknown")
	require.NotNil(t, unknown)
	assert.False(t, unknown.Moderated())
	assert.Equal(t, DefaultGracePeriod, unknown.Grace())
}

func TestParseRegistryInvalid(t *testing.T) {
	for _, testCase := range []struct {
		description string
		data        string
	}{
		{description: "unknown mode", data: "providers:\n  - provider: p\n    mode: drive-by\n"},
		{description: "invalid grace", data: "providers:\n  - provider: p\n    gracePeriod: soon\n"},
	} {
		_, err := ParseRegistry([]byte(testCase.data))
		assert.Error(t, err, testCase.description)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	original := &Policy{
		Provider:    "p",
		Mode:        ModePost,
		Moderators:  []string{"m1"},
		GracePeriod: 24 * time.Hour,
		Defaults:    map[string]string{"embargo": OutcomeApprove},
	}
	restored, err := FromConfig(ToConfig(original))
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}
