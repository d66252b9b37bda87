package ebook

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/config"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/library"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/logging"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/services"
)

// Resource is the outcome of resolving one internal path for one ebook.
type Resource struct {
	Resolution  Resolution
	Data        []byte
	ContentType string
}

// Service runs the per-request pipeline: record lookup, archive fetch,
// indexing, and path resolution.
type Service struct {
	store   *library.Store
	fetcher *Fetcher
	cache   *archiveCache
	logger  *slog.Logger
}

// NewService wires the resource pipeline from configuration. The store and
// logger are injected; the fetcher and cache are owned by the service.
func NewService(cfg *config.Config, store *library.Store, logger *slog.Logger) *Service {
	fetchTimeout := 30 * time.Second
	var maxBytes int64
	var cache *archiveCache
	if cfg != nil {
		if cfg.Ebooks.FetchTimeout > 0 {
			fetchTimeout = time.Duration(cfg.Ebooks.FetchTimeout) * time.Second
		}
		maxBytes = int64(cfg.Ebooks.MaxArchiveMiB) * 1024 * 1024
		if cfg.Ebooks.CacheEnabled {
			cache = newArchiveCache(
				time.Duration(cfg.Ebooks.CacheTTLSeconds)*time.Second,
				cfg.Ebooks.CacheMaxArchives,
			)
		}
	}

	return &Service{
		store:   store,
		fetcher: NewFetcher(&http.Client{Timeout: fetchTimeout}, maxBytes),
		cache:   cache,
		logger:  logging.NewComponentLogger(logger, "ebook-library"),
	}
}

// WithFetcher overrides the archive fetcher. Used by tests.
func (s *Service) WithFetcher(fetcher *Fetcher) *Service {
	if fetcher != nil {
		s.fetcher = fetcher
	}
	return s
}

// Resource resolves one internal path for the given ebook ID. The record
// lookup happens before any fetch so unknown ebooks fail fast.
func (s *Service) Resource(ctx context.Context, ebookID int64, requested string) (*Resource, error) {
	record, err := s.store.GetEbookByID(ctx, ebookID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, services.Wrap(services.ErrNotFound, "ebook", "lookup", fmt.Sprintf("no ebook with id %d", ebookID), nil)
	}

	index, err := s.index(ctx, record)
	if err != nil {
		return nil, err
	}

	data, resolution, err := Resolve(requested, index)
	if err != nil {
		return nil, err
	}

	switch resolution {
	case ResolutionFound:
		return &Resource{
			Resolution:  ResolutionFound,
			Data:        data,
			ContentType: ContentTypeFor(requested),
		}, nil
	case ResolutionOptionalMissing:
		s.logger.Debug("serving optional-missing stub",
			logging.Int64(logging.FieldEbookID, ebookID),
			logging.String(logging.FieldPath, requested))
		return &Resource{Resolution: ResolutionOptionalMissing}, nil
	default:
		return &Resource{Resolution: ResolutionNotFound}, nil
	}
}

// TableOfContents extracts the navigation entries of the given ebook.
func (s *Service) TableOfContents(ctx context.Context, ebookID int64) ([]TOCEntry, error) {
	record, err := s.store.GetEbookByID(ctx, ebookID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, services.Wrap(services.ErrNotFound, "ebook", "lookup", fmt.Sprintf("no ebook with id %d", ebookID), nil)
	}

	index, err := s.index(ctx, record)
	if err != nil {
		return nil, err
	}
	return TableOfContents(index)
}

// Invalidate drops any cached archive for the ebook. Call after updating or
// deleting the record so stale archives are never served.
func (s *Service) Invalidate(ebookID int64) {
	s.cache.invalidate(ebookID)
}

func (s *Service) index(ctx context.Context, record *library.Ebook) (*Index, error) {
	if index, ok := s.cache.get(record.ID); ok {
		return index, nil
	}

	data, err := s.fetcher.Fetch(ctx, record.RemoteAddress)
	if err != nil {
		return nil, err
	}
	index, err := NewIndex(data)
	if err != nil {
		return nil, err
	}
	s.cache.put(record.ID, index)
	return index, nil
}
