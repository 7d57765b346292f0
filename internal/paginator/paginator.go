// Package paginator groups summarized items into posts of bounded image count.
package paginator

import (
	"fmt"

	"github.com/Adda-Baaj/khobor-poster/internal/domain"
)

// DefaultMaxImages is the platform-imposed default for albums and carousels.
const DefaultMaxImages = 4

// Paginator chunks items into posts holding at most MaxImages images each.
type Paginator struct {
	maxImages int
}

// New validates the page size once, at startup.
func New(maxImages int) (*Paginator, error) {
	if maxImages < 1 {
		return nil, fmt.Errorf("max images per post must be at least 1, got %d", maxImages)
	}
	return &Paginator{maxImages: maxImages}, nil
}

// MaxImages returns the configured page size.
func (p *Paginator) MaxImages() int { return p.maxImages }

// Paginate returns ceil(N/K) posts in input order. Items are neither
// reordered, duplicated nor dropped, and an empty input yields no posts.
func (p *Paginator) Paginate(items []domain.SummarizedItem) []domain.Post {
	if len(items) == 0 {
		return nil
	}

	posts := make([]domain.Post, 0, len(items)/p.maxImages+1)
	for start := 0; start < len(items); {
		end := start + min(p.maxImages, len(items)-start)
		chunk := items[start:end]
		start = end

		post := domain.Post{
			Index:   len(posts) + 1,
			ItemIDs: make([]string, 0, len(chunk)),
			Images:  make([]domain.ImageRef, 0, len(chunk)),
		}
		for _, item := range chunk {
			post.ItemIDs = append(post.ItemIDs, item.ID)
			post.Images = append(post.Images, item.Image)
		}
		posts = append(posts, post)
	}
	return posts
}
