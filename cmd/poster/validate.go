package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-poster/pkg/platforms"
	"github.com/spf13/cobra"
)

const (
	expiryCriticalDays = 7
	expiryWarnDays     = 30
)

func newValidateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every enabled platform's access token",
		Long:  "Checks each enabled platform and prints token status, type, expiry and granted scopes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			validations, err := c.poster.Validate(cmd.Context())
			if err != nil {
				return err
			}
			ok := printValidations(cmd.OutOrStdout(), validations, time.Now())
			if !ok {
				return errRunFailed
			}
			return nil
		},
	}
}

// printValidations reports whether every platform is usable.
func printValidations(w io.Writer, validations []platforms.Validation, now time.Time) bool {
	allOK := true
	for _, v := range validations {
		if !v.OK() {
			allOK = false
		}
		fmt.Fprintf(w, "%s: %s\n", v.Platform, v.Status)
		if v.Message != "" && !v.OK() {
			fmt.Fprintf(w, "  error: %s\n", v.Message)
		}
		if v.Account != "" {
			fmt.Fprintf(w, "  account: %s\n", v.Account)
		}
		if v.TokenType != "" {
			fmt.Fprintf(w, "  token type: %s\n", v.TokenType)
		}
		switch days := v.DaysLeft(now); {
		case v.NeverExpires:
			fmt.Fprintln(w, "  expires: never")
		case v.ExpiresAt.IsZero():
		default:
			fmt.Fprintf(w, "  expires: %s (%d days left)\n", v.ExpiresAt.UTC().Format("2006-01-02"), days)
			if warn := expiryWarning(days); warn != "" {
				fmt.Fprintf(w, "  warning: %s\n", warn)
			}
		}
		if len(v.Scopes) > 0 {
			fmt.Fprintf(w, "  scopes: %s\n", strings.Join(v.Scopes, ", "))
		}
		if len(v.MissingScopes) > 0 {
			fmt.Fprintf(w, "  missing scopes: %s\n", strings.Join(v.MissingScopes, ", "))
		}
	}
	return allOK
}

func expiryWarning(days int) string {
	switch {
	case days < 0:
		return ""
	case days < expiryCriticalDays:
		return fmt.Sprintf("token expires in %d days, renew it now", days)
	case days < expiryWarnDays:
		return fmt.Sprintf("token expires in %d days", days)
	default:
		return ""
	}
}
