package facebook

import (
	"context"
	"time"

	"github.com/Adda-Baaj/khobor-poster/internal/domain"
	"github.com/Adda-Baaj/khobor-poster/pkg/platforms"
)

type debugTokenResponse struct {
	Data struct {
		AppID     string   `json:"app_id"`
		Type      string   `json:"type"`
		IsValid   bool     `json:"is_valid"`
		ExpiresAt int64    `json:"expires_at"`
		Scopes    []string `json:"scopes"`
		ProfileID string   `json:"profile_id"`
		Error     *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"data"`
}

// Validate inspects the token through /debug_token. Network trouble is
// retried with the publish retry policy before reporting Unreachable.
func (c *Client) Validate(ctx context.Context, cred domain.Credential) platforms.Validation {
	var out debugTokenResponse
	attempts, err := c.retry.Do(ctx, platforms.IsTransient, func(ctx context.Context, _ int) error {
		return c.graph.Get(ctx, stepDebugToken, "debug_token", map[string]string{
			"input_token":  cred.AccessToken,
			"access_token": cred.AccessToken,
		}, &out)
	})
	if err != nil {
		return platforms.FailedValidation(domain.PlatformFacebook, attempts, err)
	}

	data := out.Data
	v := platforms.Validation{
		Platform:  domain.PlatformFacebook,
		TokenType: data.Type,
		Scopes:    data.Scopes,
		Account:   data.ProfileID,
		Attempts:  attempts,
	}
	switch {
	case data.ExpiresAt == 0:
		v.NeverExpires = true
	default:
		v.ExpiresAt = time.Unix(data.ExpiresAt, 0).UTC()
	}

	if !data.IsValid {
		v.Status = platforms.Expired
		v.Message = "token is not valid"
		if data.Error != nil && data.Error.Message != "" {
			v.Message = data.Error.Message
		}
		return v
	}
	if !v.NeverExpires && !v.ExpiresAt.After(c.now()) {
		v.Status = platforms.Expired
		v.Message = "token expired at " + v.ExpiresAt.Format(time.RFC3339)
		return v
	}
	if missing := platforms.MissingScopes(c.scopes, data.Scopes); len(missing) > 0 {
		v.Status = platforms.InsufficientScope
		v.MissingScopes = missing
		v.Message = "token lacks required scopes"
		return v
	}

	v.Status = platforms.Valid
	return v
}
