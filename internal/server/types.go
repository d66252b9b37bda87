package server

import (
	"time"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/ebook"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/library"
)

type pageResponse[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type movieJSON struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Year          int    `json:"year,omitempty"`
	RemoteAddress string `json:"remote_address,omitempty"`
	CoverAddress  string `json:"cover_address,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type showJSON struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Year         int    `json:"year,omitempty"`
	CoverAddress string `json:"cover_address,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type episodeJSON struct {
	ID            int64  `json:"id"`
	Season        int    `json:"season"`
	Number        int    `json:"number"`
	Title         string `json:"title"`
	RemoteAddress string `json:"remote_address,omitempty"`
}

type comicJSON struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Author       string `json:"author,omitempty"`
	CoverAddress string `json:"cover_address,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type chapterJSON struct {
	ID            int64   `json:"id"`
	Number        float64 `json:"number"`
	Title         string  `json:"title"`
	RemoteAddress string  `json:"remote_address,omitempty"`
	PageCount     int     `json:"page_count,omitempty"`
}

type ebookJSON struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author,omitempty"`
	RemoteAddress string `json:"remote_address"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type tocEntryJSON struct {
	Title string `json:"title"`
	Href  string `json:"href"`
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toMovieJSON(m *library.Movie) movieJSON {
	return movieJSON{
		ID:            m.ID,
		Title:         m.Title,
		Year:          m.Year,
		RemoteAddress: m.RemoteAddress,
		CoverAddress:  m.CoverAddress,
		CreatedAt:     stamp(m.CreatedAt),
		UpdatedAt:     stamp(m.UpdatedAt),
	}
}

func toShowJSON(s *library.Show) showJSON {
	return showJSON{
		ID:           s.ID,
		Title:        s.Title,
		Year:         s.Year,
		CoverAddress: s.CoverAddress,
		CreatedAt:    stamp(s.CreatedAt),
		UpdatedAt:    stamp(s.UpdatedAt),
	}
}

func toEpisodeJSON(e *library.Episode) episodeJSON {
	return episodeJSON{
		ID:            e.ID,
		Season:        e.Season,
		Number:        e.Number,
		Title:         e.Title,
		RemoteAddress: e.RemoteAddress,
	}
}

func toComicJSON(c *library.Comic) comicJSON {
	return comicJSON{
		ID:           c.ID,
		Title:        c.Title,
		Author:       c.Author,
		CoverAddress: c.CoverAddress,
		CreatedAt:    stamp(c.CreatedAt),
		UpdatedAt:    stamp(c.UpdatedAt),
	}
}

func toChapterJSON(c *library.Chapter) chapterJSON {
	return chapterJSON{
		ID:            c.ID,
		Number:        c.Number,
		Title:         c.Title,
		RemoteAddress: c.RemoteAddress,
		PageCount:     c.PageCount,
	}
}

func toEbookJSON(e *library.Ebook) ebookJSON {
	return ebookJSON{
		ID:            e.ID,
		Title:         e.Title,
		Author:        e.Author,
		RemoteAddress: e.RemoteAddress,
		CreatedAt:     stamp(e.CreatedAt),
		UpdatedAt:     stamp(e.UpdatedAt),
	}
}

func toTOCJSON(entries []ebook.TOCEntry) []tocEntryJSON {
	out := make([]tocEntryJSON, 0, len(entries))
	for _, entry := range entries {
		out = append(out, tocEntryJSON{Title: entry.Title, Href: entry.Href})
	}
	return out
}

func mapPage[S, T any](items []S, total, limit, offset int, convert func(S) T) pageResponse[T] {
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, convert(item))
	}
	return pageResponse[T]{Items: out, Total: total, Limit: limit, Offset: offset}
}
