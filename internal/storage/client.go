// Package storage talks to the remote object host that holds uploaded media
// files. The host speaks plain HTTP: PUT stores an object, GET retrieves it,
// DELETE removes it. Authentication is a bearer token header.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/config"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/services"
)

// maxErrorBody bounds how much of an error response body is read for context.
const maxErrorBody = 4 * 1024

// Client is an object storage client bound to one base URL and token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a client from configuration. Returns a configuration error
// when no base URL is set, so callers can treat storage as optional.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg == nil || strings.TrimSpace(cfg.Storage.BaseURL) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "storage", "client", "storage.base_url is not set", nil)
	}
	timeout := time.Duration(cfg.Storage.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.Storage.BaseURL), "/"),
		token:      strings.TrimSpace(cfg.Storage.Token),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// NewObjectKey generates a unique object key preserving the original file
// extension, e.g. "objects/3f2a....epub".
func NewObjectKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return "objects/" + uuid.NewString() + ext
}

// Upload stores data under key and returns the object's absolute address.
func (c *Client) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	address, err := c.objectURL(key)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, address, bytes.NewReader(data))
	if err != nil {
		return "", services.Wrap(services.ErrFetch, "storage", "upload", "build request", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrFetch, "storage", "upload", "put object", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.statusError("upload", address, resp)
	}
	return address, nil
}

// Delete removes the object at address. A 404 from the host counts as
// success: the object is gone either way.
func (c *Client) Delete(ctx context.Context, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, address, nil)
	if err != nil {
		return services.Wrap(services.ErrFetch, "storage", "delete", "build request", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrFetch, "storage", "delete", "delete object", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError("delete", address, resp)
	}
	return nil
}

func (c *Client) objectURL(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", services.Wrap(services.ErrValidation, "storage", "url", "object key is required", nil)
	}
	parsed, err := url.Parse(c.baseURL + "/" + key)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "storage", "url", "invalid object key "+key, err)
	}
	return parsed.String(), nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) statusError(operation, address string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	upstream := &services.UpstreamError{StatusCode: resp.StatusCode, URL: address}
	message := fmt.Sprintf("object host rejected request: %s", strings.TrimSpace(string(body)))
	return services.Wrap(services.ErrFetch, "storage", operation, message, upstream)
}
