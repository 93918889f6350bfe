package sanction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSigner(t *testing.T) {
	signer, err := NewTokenSigner([]byte("test-key"))
	require.NoError(t, err)

	token := signer.Mint("sanction-1", "user-1", IntentApprove)
	assert.True(t, signer.Verify("sanction-1", "user-1", IntentApprove, token))

	for _, testCase := range []struct {
		description string
		sanctionID  string
		userID      string
		intent      Intent
	}{
		{description: "wrong user", sanctionID: "sanction-1", userID: "user-2", intent: IntentApprove},
		{description: "wrong sanction", sanctionID: "sanction-2", userID: "user-1", intent: IntentApprove},
		{description: "wrong intent", sanctionID: "sanction-1", userID: "user-1", intent: IntentReject},
	} {
		assert.False(t, signer.Verify(testCase.sanctionID, testCase.userID, testCase.intent, token), testCase.description)
	}
	assert.False(t, signer.Verify("sanction-1", "user-1", IntentApprove, "garbage"))
}

func TestTokenSignerLongKey(t *testing.T) {
	long := make([]byte, 200)
	signer, err := NewTokenSigner(long)
	require.NoError(t, err)
	token := signer.Mint("s", "u", IntentReject)
	assert.True(t, signer.Verify("s", "u", IntentReject, token))
}

func TestTokenSignerRequiresKey(t *testing.T) {
	_, err := NewTokenSigner(nil)
	assert.Error(t, err)
}
