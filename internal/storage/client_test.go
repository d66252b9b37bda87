package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/services"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/testsupport"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithStorage(srv.URL, "secret-token"))
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, srv
}

func TestUploadPutsObjectWithToken(t *testing.T) {
	body := []byte("epub bytes")
	var gotPath, gotAuth, gotType string
	var gotBody []byte

	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))

	address, err := client.Upload(context.Background(), "objects/abc.epub", "application/epub+zip", body)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if address != srv.URL+"/objects/abc.epub" {
		t.Fatalf("address = %q", address)
	}
	if gotPath != "/objects/abc.epub" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotType != "application/epub+zip" {
		t.Errorf("content type = %q", gotType)
	}
	if !bytes.Equal(gotBody, body) {
		t.Error("uploaded body differs")
	}
}

func TestUploadRejectedByHost(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))

	_, err := client.Upload(context.Background(), "objects/abc.epub", "", []byte("x"))
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("err = %v, want fetch error", err)
	}
	var upstream *services.UpstreamError
	if !errors.As(err, &upstream) || upstream.StatusCode != http.StatusForbidden {
		t.Fatalf("err = %v, want wrapped 403", err)
	}
}

func TestDeleteTreatsNotFoundAsSuccess(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	if err := client.Delete(context.Background(), srv.URL+"/objects/gone.epub"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestDeleteEmptyAddressIsNoop(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty address")
	}))

	if err := client.Delete(context.Background(), "  "); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Storage.BaseURL = ""

	_, err := NewClient(cfg)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestNewObjectKey(t *testing.T) {
	key := NewObjectKey("My Book.EPUB")
	if !strings.HasPrefix(key, "objects/") || !strings.HasSuffix(key, ".epub") {
		t.Fatalf("key = %q", key)
	}
	if key == NewObjectKey("My Book.EPUB") {
		t.Fatal("keys must be unique per call")
	}
}
