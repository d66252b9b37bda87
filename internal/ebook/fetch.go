package ebook

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/services"
)

// HTTPDoer describes the HTTP client used by the archive fetcher.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher retrieves ebook archives from their remote addresses.
type Fetcher struct {
	client   HTTPDoer
	maxBytes int64
}

// NewFetcher constructs a fetcher. The remote addresses it receives are
// previously stored, trusted values, never raw user input. maxBytes bounds
// the archive size; zero means no limit.
func NewFetcher(client HTTPDoer, maxBytes int64) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{client: client, maxBytes: maxBytes}
}

// Fetch retrieves the full archive bytes at remoteAddress. A non-2xx response
// or transport failure is reported as a fetch error; upstream client-class
// statuses are preserved for the API layer.
func (f *Fetcher) Fetch(ctx context.Context, remoteAddress string) ([]byte, error) {
	remoteAddress = strings.TrimSpace(remoteAddress)
	if remoteAddress == "" {
		return nil, services.Wrap(services.ErrFetch, "ebook", "fetch", "remote address is empty", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteAddress, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "ebook", "fetch", "build request", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "ebook", "fetch", "request archive", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		upstream := &services.UpstreamError{StatusCode: resp.StatusCode, URL: remoteAddress}
		return nil, services.Wrap(services.ErrFetch, "ebook", "fetch", "archive request rejected", upstream)
	}

	reader := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "ebook", "fetch", "read archive body", err)
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return nil, services.Wrap(services.ErrFetch, "ebook", "fetch",
			fmt.Sprintf("archive exceeds %d byte limit", f.maxBytes), nil)
	}
	return data, nil
}
