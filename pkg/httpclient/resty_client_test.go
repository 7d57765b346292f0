package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRestyClientGetSendsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("fields"); got != "id,username" {
			t.Errorf("fields = %q", got)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"1"}`))
	}))
	defer srv.Close()

	client := NewRestyClient(2 * time.Second)
	resp, err := client.Get(context.Background(), srv.URL, map[string]string{"fields": "id,username"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusOK || string(resp.Body()) != `{"id":"1"}` {
		t.Fatalf("unexpected response %d %s", resp.StatusCode(), resp.Body())
	}
}

func TestRestyClientPostFormDoesNotRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("creation_id") != "c1" {
			t.Errorf("creation_id = %q", r.PostForm.Get("creation_id"))
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewRestyClient(2 * time.Second)
	resp, err := client.PostForm(context.Background(), srv.URL, map[string]string{"creation_id": "c1"})
	if err != nil {
		t.Fatalf("PostForm: %v", err)
	}
	if resp.StatusCode() != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", resp.StatusCode())
	}
	if calls != 1 {
		t.Fatalf("expected exactly one request, got %d", calls)
	}
}

func TestRestyClientPostFileUploadsMultipart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "01.png")
	if err := os.WriteFile(path, []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if r.FormValue("published") != "false" {
			t.Errorf("published = %q", r.FormValue("published"))
		}
		file, _, err := r.FormFile("source")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "png-bytes" {
			t.Errorf("uploaded %q", data)
		}
		_, _ = w.Write([]byte(`{"id":"photo-1"}`))
	}))
	defer srv.Close()

	client := NewRestyClient(2 * time.Second)
	resp, err := client.PostFile(context.Background(), srv.URL, map[string]string{"published": "false"}, "source", path)
	if err != nil {
		t.Fatalf("PostFile: %v", err)
	}
	if string(resp.Body()) != `{"id":"photo-1"}` {
		t.Fatalf("unexpected body %s", resp.Body())
	}
}

func TestRestyClientPacingHonorsContext(t *testing.T) {
	client := NewRestyClient(time.Second, WithMinInterval(time.Hour))
	// First token is free; the second would wait an hour.
	if err := client.wait(context.Background()); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := client.wait(ctx); err == nil {
		t.Fatalf("expected pacing to give up on a short deadline")
	}
}
