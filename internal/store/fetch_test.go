package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestFetcherConditionalAndFallback(t *testing.T) {
	const etag = `"v1"`
	var status atomic.Int32
	status.Store(http.StatusOK)
	var conditional atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == etag {
			conditional.Add(1)
		}
		switch code := int(status.Load()); code {
		case http.StatusOK:
			if r.Header.Get("If-None-Match") == etag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
			w.Header().Set("ETag", etag)
			_, _ = w.Write([]byte(crlf(sampleICS)))
		default:
			w.WriteHeader(code)
		}
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	ctx := context.Background()
	url := srv.URL + "/private/token123/basic.ics"

	first, err := f.Fetch(ctx, url)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if string(first) != crlf(sampleICS) {
		t.Fatalf("unexpected body %q", first)
	}

	second, err := f.Fetch(ctx, url)
	if err != nil {
		t.Fatalf("conditional fetch: %v", err)
	}
	if string(second) != string(first) || conditional.Load() != 1 {
		t.Errorf("expected cached body on 304 (conditional requests: %d)", conditional.Load())
	}

	status.Store(http.StatusInternalServerError)
	third, err := f.Fetch(ctx, url)
	if err != nil {
		t.Fatalf("fetch with server error should fall back to cache: %v", err)
	}
	if string(third) != string(first) {
		t.Error("expected cached body on server error")
	}

	if _, err := NewFetcher(t.TempDir()).Fetch(ctx, url); err == nil {
		t.Error("expected error with server failing and no cache")
	}
}

func TestStoreRemoteFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(crlf(sampleICS)))
	}))
	defer srv.Close()

	s := New("", []string{srv.URL + "/team.ics"}, t.TempDir())
	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if events, _ := s.Snapshot(); len(events) != 2 {
		t.Errorf("expected 2 events from feed, got %d", len(events))
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{in: "https://calendar.example.com/private/abc/basic.ics", want: "https://calendar.example.com/...(redacted)"},
		{in: "http://host", want: "http://host/...(redacted)"},
		{in: "not a url", want: "ics://...(redacted)"},
	}
	for _, tt := range tests {
		if got := redactURL(tt.in); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsRemote(t *testing.T) {
	if !isRemote("https://example.com/a.ics") || !isRemote("http://example.com/a.ics") {
		t.Error("http(s) URLs should be remote")
	}
	if isRemote("./team.ics") || isRemote("/abs/https.ics") {
		t.Error("paths should not be remote")
	}
}
