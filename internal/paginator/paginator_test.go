package paginator

import (
	"fmt"
	"math"
	"testing"

	"github.com/Adda-Baaj/khobor-poster/internal/domain"
	"github.com/google/go-cmp/cmp"
)

func makeItems(n int) []domain.SummarizedItem {
	items := make([]domain.SummarizedItem, n)
	for i := range items {
		items[i] = domain.SummarizedItem{
			ID:    fmt.Sprintf("item-%02d", i+1),
			Rank:  i + 1,
			Image: domain.ImageRef{Path: fmt.Sprintf("output/%02d.png", i+1)},
		}
	}
	return items
}

func TestNewRejectsNonPositivePageSize(t *testing.T) {
	for _, k := range []int{0, -1} {
		if _, err := New(k); err == nil {
			t.Fatalf("New(%d) should fail", k)
		}
	}
}

func TestPaginateEmptyInput(t *testing.T) {
	p, err := New(DefaultMaxImages)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if posts := p.Paginate(nil); len(posts) != 0 {
		t.Fatalf("expected no posts, got %d", len(posts))
	}
}

func TestPaginatePreservesCountAndOrder(t *testing.T) {
	for k := 1; k <= 6; k++ {
		for n := 0; n <= 17; n++ {
			t.Run(fmt.Sprintf("n=%d/k=%d", n, k), func(t *testing.T) {
				p, err := New(k)
				if err != nil {
					t.Fatalf("New: %v", err)
				}
				items := makeItems(n)
				posts := p.Paginate(items)

				wantPosts := (n + k - 1) / k
				if len(posts) != wantPosts {
					t.Fatalf("got %d posts, want %d", len(posts), wantPosts)
				}

				var flattened []domain.ImageRef
				for i, post := range posts {
					if post.Size() == 0 || post.Size() > k {
						t.Fatalf("post %d has %d images (k=%d)", i, post.Size(), k)
					}
					if post.Index != i+1 {
						t.Fatalf("post %d has index %d", i, post.Index)
					}
					if len(post.ItemIDs) != post.Size() {
						t.Fatalf("post %d item ids and images disagree", i)
					}
					flattened = append(flattened, post.Images...)
				}

				var want []domain.ImageRef
				for _, item := range items {
					want = append(want, item.Image)
				}
				if diff := cmp.Diff(want, flattened); diff != "" {
					t.Fatalf("concatenated posts differ from input (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestPaginateTenItemsByFour(t *testing.T) {
	p, _ := New(4)
	posts := p.Paginate(makeItems(10))

	var sizes []int
	for _, post := range posts {
		sizes = append(sizes, post.Size())
	}
	if diff := cmp.Diff([]int{4, 4, 2}, sizes); diff != "" {
		t.Fatalf("unexpected post sizes (-want +got):\n%s", diff)
	}
	if got := posts[2].ItemIDs; got[0] != "item-09" || got[1] != "item-10" {
		t.Fatalf("last post holds wrong items: %v", got)
	}
}

func TestPaginateDoesNotAliasInput(t *testing.T) {
	p, _ := New(2)
	items := makeItems(2)
	posts := p.Paginate(items)
	items[0].Image.Path = "mutated.png"
	if posts[0].Images[0].Path == "mutated.png" {
		t.Fatalf("post shares storage with input items")
	}
}

func TestPaginateHugePageSize(t *testing.T) {
	p, err := New(math.MaxInt)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	posts := p.Paginate(makeItems(2))
	if len(posts) != 1 || posts[0].Size() != 2 {
		t.Fatalf("expected one post of 2 images, got %+v", posts)
	}
	if diff := cmp.Diff([]string{"item-01", "item-02"}, posts[0].ItemIDs); diff != "" {
		t.Fatalf("item ids mismatch (-want +got):\n%s", diff)
	}
}
