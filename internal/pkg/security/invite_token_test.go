package security

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteTokenRoundTrip(t *testing.T) {
	token, err := GenerateInviteToken(1, 42, "member", time.Hour, "secret")
	require.NoError(t, err)

	claims, err := VerifyInviteToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, uint(1), claims.OwnerID)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "member", claims.Role)
}

func TestInviteTokenRequiresSecret(t *testing.T) {
	_, err := GenerateInviteToken(1, 42, "member", time.Hour, "")
	assert.Error(t, err)

	token, _ := GenerateInviteToken(1, 42, "member", time.Hour, "secret")
	_, err = VerifyInviteToken(token, "")
	assert.Error(t, err)
}

func TestInviteTokenWrongSecret(t *testing.T) {
	token, err := GenerateInviteToken(1, 42, "member", time.Hour, "secret")
	require.NoError(t, err)

	_, err = VerifyInviteToken(token, "other")
	assert.Error(t, err)
}

func TestInviteTokenExpired(t *testing.T) {
	token, err := GenerateInviteToken(1, 42, "member", -time.Minute, "secret")
	require.NoError(t, err)

	_, err = VerifyInviteToken(token, "secret")
	assert.ErrorContains(t, err, "expired")
}

func TestInviteTokenTampered(t *testing.T) {
	token, err := GenerateInviteToken(1, 42, "member", time.Hour, "secret")
	require.NoError(t, err)

	parts := strings.SplitN(token, ".", 2)
	tampered := parts[0] + "x." + parts[1]
	_, err = VerifyInviteToken(tampered, "secret")
	assert.Error(t, err)

	_, err = VerifyInviteToken("garbage", "secret")
	assert.Error(t, err)
}
