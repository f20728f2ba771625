package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestShortenerClient_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		var req shortenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.URL != "http://files.local/api/files/f1/versions/v1" {
			t.Errorf("url = %q", req.URL)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(shortenResponse{Slug: "xyz789"})
	}))
	defer srv.Close()

	c := NewShortenerClient(srv.URL)
	slug, err := c.Shorten(context.Background(), "http://files.local/api/files/f1/versions/v1")
	if err != nil {
		t.Fatalf("Shorten error: %v", err)
	}
	if slug != "xyz789" {
		t.Fatalf("slug = %q, want xyz789", slug)
	}
}

func TestShortenerClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewShortenerClient(srv.URL)
	if _, err := c.Shorten(context.Background(), "http://x"); err == nil {
		t.Fatalf("expected error on 502")
	}
}

func TestShortenerClient_EmptySlug(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewShortenerClient(srv.URL)
	if _, err := c.Shorten(context.Background(), "http://x"); err == nil {
		t.Fatalf("expected error on empty slug")
	}
}

func TestShortenerClient_Unreachable(t *testing.T) {
	c := NewShortenerClient("http://127.0.0.1:1")
	if _, err := c.Shorten(context.Background(), "http://x"); err == nil {
		t.Fatalf("expected connection error")
	}
}
