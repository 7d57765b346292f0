package facebook

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/khobor-poster/pkg/platforms"
	"github.com/Adda-Baaj/khobor-poster/pkg/platforms/platformstest"
)

func debugTokenReply(body string) platformstest.Handler {
	return func(int, platformstest.Call) platformstest.Reply {
		return platformstest.Reply{Status: 200, Body: body}
	}
}

func TestValidateValidToken(t *testing.T) {
	// 2026-03-02T00:00:00Z
	fake := platformstest.New(debugTokenReply(`{"data":{"type":"PAGE","is_valid":true,"expires_at":1772409600,"scopes":["pages_manage_posts","pages_read_engagement"],"profile_id":"page1"}}`))

	v := newTestClient(fake).Validate(context.Background(), testCred)
	assert.Equal(t, platforms.Valid, v.Status)
	assert.True(t, v.OK())
	assert.Equal(t, "PAGE", v.TokenType)
	assert.Equal(t, "page1", v.Account)
	assert.Equal(t, 60, v.DaysLeft(newTestClient(fake).now()))

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "debug_token", calls[0].Path(testBase))
	assert.Equal(t, testCred.AccessToken, calls[0].Params["input_token"])
}

func TestValidateNeverExpiringToken(t *testing.T) {
	fake := platformstest.New(debugTokenReply(`{"data":{"is_valid":true,"expires_at":0,"scopes":["pages_manage_posts"]}}`))
	v := newTestClient(fake).Validate(context.Background(), testCred)
	assert.Equal(t, platforms.Valid, v.Status)
	assert.True(t, v.NeverExpires)
	assert.Equal(t, -1, v.DaysLeft(newTestClient(fake).now()))
}

func TestValidateInvalidToken(t *testing.T) {
	fake := platformstest.New(debugTokenReply(`{"data":{"is_valid":false,"expires_at":1,"error":{"code":190,"message":"Session has expired"}}}`))
	v := newTestClient(fake).Validate(context.Background(), testCred)
	assert.Equal(t, platforms.Expired, v.Status)
	assert.Equal(t, "Session has expired", v.Message)
}

func TestValidatePastExpiry(t *testing.T) {
	// 2025-12-01, before the fixed clock
	fake := platformstest.New(debugTokenReply(`{"data":{"is_valid":true,"expires_at":1764547200,"scopes":["pages_manage_posts"]}}`))
	v := newTestClient(fake).Validate(context.Background(), testCred)
	assert.Equal(t, platforms.Expired, v.Status)
}

func TestValidateMissingScope(t *testing.T) {
	fake := platformstest.New(debugTokenReply(`{"data":{"is_valid":true,"expires_at":0,"scopes":["pages_read_engagement"]}}`))
	v := newTestClient(fake).Validate(context.Background(), testCred)
	assert.Equal(t, platforms.InsufficientScope, v.Status)
	assert.Equal(t, []string{"pages_manage_posts"}, v.MissingScopes)
}

func TestValidateOAuthErrorIsExpired(t *testing.T) {
	fake := platformstest.New(func(int, platformstest.Call) platformstest.Reply {
		return platformstest.Reply{Status: 400, Body: `{"error":{"code":190,"message":"Error validating access token"}}`}
	})
	v := newTestClient(fake).Validate(context.Background(), testCred)
	assert.Equal(t, platforms.Expired, v.Status)
	assert.Len(t, fake.Calls(), 1)
}

func TestValidateUnreachableAfterRetries(t *testing.T) {
	fake := platformstest.New(func(int, platformstest.Call) platformstest.Reply {
		return platformstest.Reply{Status: 503, Body: `down`}
	})
	v := newTestClient(fake).Validate(context.Background(), testCred)
	assert.Equal(t, platforms.Unreachable, v.Status)
	assert.Equal(t, 3, v.Attempts)
	assert.Len(t, fake.Calls(), 3)
	assert.NotContains(t, v.Message, testCred.AccessToken)
}
