package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/library"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/logging"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/services"
)

// Service ingests staged directories into the library.
type Service struct {
	store  *library.Store
	logger *slog.Logger
}

func NewService(store *library.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logging.NewComponentLogger(logger, "ingest"),
	}
}

// IngestComic scans dir and inserts one chapter per file, ordered naturally by
// filename. Files without a parsable number are assigned the next number after
// the largest parsed one, preserving scan order.
func (s *Service) IngestComic(ctx context.Context, comicID int64, dir string) ([]*library.Chapter, error) {
	comic, err := s.store.GetComicByID(ctx, comicID)
	if err != nil {
		return nil, err
	}
	if comic == nil {
		return nil, services.Wrap(services.ErrNotFound, "ingest", "comic", fmt.Sprintf("no comic with id %d", comicID), nil)
	}

	items, err := scanDirectory(dir)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, services.Wrap(services.ErrValidation, "ingest", "comic", "directory contains no files", nil)
	}

	chapters := make([]library.Chapter, 0, len(items))
	next := nextNumber(items)
	for _, it := range items {
		number := it.Number
		if number < 0 {
			number = next
			next++
		}
		chapters = append(chapters, library.Chapter{
			Number:        number,
			Title:         it.Name,
			RemoteAddress: it.Path,
		})
	}

	if err := s.store.AddChapters(ctx, comicID, chapters); err != nil {
		return nil, err
	}
	s.logger.Info("ingested chapters",
		logging.Int64("comic_id", comicID),
		logging.Int64("count", int64(len(chapters))))
	return s.store.ListChapters(ctx, comicID)
}

// IngestShow scans dir and inserts one episode per file. Season and episode
// numbers come from SxxEyy markers or "Season N" directories; files without
// either are numbered sequentially within season 1.
func (s *Service) IngestShow(ctx context.Context, showID int64, dir string) ([]*library.Episode, error) {
	show, err := s.store.GetShowByID(ctx, showID)
	if err != nil {
		return nil, err
	}
	if show == nil {
		return nil, services.Wrap(services.ErrNotFound, "ingest", "show", fmt.Sprintf("no show with id %d", showID), nil)
	}

	items, err := scanDirectory(dir)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, services.Wrap(services.ErrValidation, "ingest", "show", "directory contains no files", nil)
	}

	episodes := make([]library.Episode, 0, len(items))
	next := int(nextNumber(items))
	for _, it := range items {
		season := it.Season
		if season == 0 {
			season = 1
		}
		number := int(it.Number)
		if it.Number < 0 {
			number = next
			next++
		}
		episodes = append(episodes, library.Episode{
			Season:        season,
			Number:        number,
			Title:         it.Name,
			RemoteAddress: it.Path,
		})
	}

	if err := s.store.AddEpisodes(ctx, showID, episodes); err != nil {
		return nil, err
	}
	s.logger.Info("ingested episodes",
		logging.Int64("show_id", showID),
		logging.Int64("count", int64(len(episodes))))
	return s.store.ListEpisodes(ctx, showID)
}

// nextNumber returns the first integer above every parsed number, used to
// slot unnumbered files after the numbered ones.
func nextNumber(items []item) float64 {
	max := 0.0
	for _, it := range items {
		if it.Number > max {
			max = it.Number
		}
	}
	return float64(int(max) + 1)
}
