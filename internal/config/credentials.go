package config

import (
	"errors"
	"os"
	"strings"

	"github.com/Adda-Baaj/khobor-poster/internal/domain"
)

const (
	envFacebookToken   = "FACEBOOK_ACCESS_TOKEN"
	envFacebookPageID  = "FACEBOOK_PAGE_ID"
	envInstagramToken  = "INSTAGRAM_ACCESS_TOKEN"
	envInstagramUserID = "INSTAGRAM_USER_ID"
)

type credentialEnv struct {
	token string
	owner string
}

var credentialVars = map[domain.Platform]credentialEnv{
	domain.PlatformFacebook:  {token: envFacebookToken, owner: envFacebookPageID},
	domain.PlatformInstagram: {token: envInstagramToken, owner: envInstagramUserID},
}

// LoadCredentials reads one credential per enabled platform from the process
// environment. Missing values for any platform are reported together.
func LoadCredentials(platforms []domain.Platform) (map[domain.Platform]domain.Credential, error) {
	return loadCredentials(platforms, os.Getenv)
}

func loadCredentials(platforms []domain.Platform, getenv func(string) string) (map[domain.Platform]domain.Credential, error) {
	out := make(map[domain.Platform]domain.Credential, len(platforms))
	var errs []error
	for _, p := range platforms {
		vars, ok := credentialVars[p]
		if !ok {
			errs = append(errs, ConfigError{Field: "enabled_platforms", Reason: "no credential source for " + string(p)})
			continue
		}
		cred := domain.Credential{
			Platform:    p,
			AccessToken: strings.TrimSpace(getenv(vars.token)),
			OwnerID:     strings.TrimSpace(getenv(vars.owner)),
		}

		var missing []string
		if cred.AccessToken == "" {
			missing = append(missing, vars.token)
		}
		if cred.OwnerID == "" {
			missing = append(missing, vars.owner)
		}
		if len(missing) > 0 {
			errs = append(errs, MissingEnvError{Platform: string(p), Variables: missing})
			continue
		}
		out[p] = cred
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
