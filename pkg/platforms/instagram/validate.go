package instagram

import (
	"context"

	"github.com/Adda-Baaj/khobor-poster/internal/domain"
	"github.com/Adda-Baaj/khobor-poster/pkg/platforms"
)

type accountResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Validate reads the account behind the token. A readable account means the
// token is live; Graph error codes decide between Expired and InsufficientScope.
func (c *Client) Validate(ctx context.Context, cred domain.Credential) platforms.Validation {
	var out accountResponse
	attempts, err := c.retry.Do(ctx, platforms.IsTransient, func(ctx context.Context, _ int) error {
		return c.graph.Get(ctx, stepCheckAccount, cred.OwnerID, map[string]string{
			"access_token": cred.AccessToken,
			"fields":       "id,username",
		}, &out)
	})
	if err != nil {
		return platforms.FailedValidation(domain.PlatformInstagram, attempts, err)
	}
	return platforms.Validation{
		Platform: domain.PlatformInstagram,
		Status:   platforms.Valid,
		Account:  out.Username,
		Attempts: attempts,
	}
}
