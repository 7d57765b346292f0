package domain

// Domain contains core models shared by the paginator, publishers and orchestrator.

import (
	"encoding/json"
	"fmt"
)

// Platform identifies a social network the pipeline publishes to.
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
)

// ImageRef points to one rendered image artifact. URL is filled when the
// artifact is hosted somewhere a platform can fetch it from.
type ImageRef struct {
	Path string `json:"path" yaml:"path"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
}

// SummarizedItem is one summarized news item reduced to its rendered image.
type SummarizedItem struct {
	ID    string   `json:"id" yaml:"id"`
	Rank  int      `json:"rank" yaml:"rank"`
	Image ImageRef `json:"image" yaml:"image"`
}

// Post is one bounded, ordered group of images published as a single entity.
// Index is 1-based and follows presentation order.
type Post struct {
	Index   int        `json:"index"`
	ItemIDs []string   `json:"item_ids"`
	Images  []ImageRef `json:"images"`
}

// Size returns the number of images in the post.
func (p Post) Size() int { return len(p.Images) }

// Credential is the access token and owning entity used for one platform.
type Credential struct {
	Platform    Platform
	AccessToken string
	OwnerID     string
}

const redacted = "[redacted]"

// String never exposes the token.
func (c Credential) String() string {
	return fmt.Sprintf("%s credential (owner %s, token %s)", c.Platform, c.OwnerID, redacted)
}

// GoString keeps %#v from printing the token.
func (c Credential) GoString() string { return c.String() }

// MarshalJSON keeps structured loggers from printing the token.
func (c Credential) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"platform":     string(c.Platform),
		"owner_id":     c.OwnerID,
		"access_token": redacted,
	})
}
