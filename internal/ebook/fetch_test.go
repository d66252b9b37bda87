package ebook

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/services"
)

func TestFetcherReturnsArchiveBytes(t *testing.T) {
	body := []byte("PK\x03\x04 pretend archive")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	fetcher := NewFetcher(srv.Client(), 0)
	data, err := fetcher.Fetch(context.Background(), srv.URL+"/books/1.epub")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !bytes.Equal(data, body) {
		t.Fatal("fetched bytes differ from served bytes")
	}
}

func TestFetcherCarriesUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	fetcher := NewFetcher(srv.Client(), 0)
	_, err := fetcher.Fetch(context.Background(), srv.URL+"/books/1.epub")
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("err = %v, want fetch error", err)
	}

	var upstream *services.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("err = %v, want wrapped upstream error", err)
	}
	if upstream.StatusCode != http.StatusNotFound {
		t.Fatalf("upstream status = %d, want 404", upstream.StatusCode)
	}
	if got := services.HTTPStatus(err); got != http.StatusNotFound {
		t.Fatalf("HTTPStatus = %d, want upstream 404 carried through", got)
	}
}

func TestFetcherMapsServerFailureToBadGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	fetcher := NewFetcher(srv.Client(), 0)
	_, err := fetcher.Fetch(context.Background(), srv.URL+"/books/1.epub")
	if got := services.HTTPStatus(err); got != http.StatusBadGateway {
		t.Fatalf("HTTPStatus = %d, want 502 for upstream server failure", got)
	}
}

func TestFetcherRejectsOversizeArchive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("a"), 64))
	}))
	defer srv.Close()

	fetcher := NewFetcher(srv.Client(), 16)
	_, err := fetcher.Fetch(context.Background(), srv.URL+"/books/1.epub")
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("err = %v, want fetch error for oversize archive", err)
	}
}

func TestFetcherRejectsEmptyAddress(t *testing.T) {
	fetcher := NewFetcher(nil, 0)
	_, err := fetcher.Fetch(context.Background(), "   ")
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("err = %v, want fetch error", err)
	}
}
