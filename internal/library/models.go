package library

import "time"

// Movie is a single film entry in the catalog.
type Movie struct {
	ID            int64
	Title         string
	Year          int
	RemoteAddress string
	CoverAddress  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Show is a TV series; its playable units are Episodes.
type Show struct {
	ID           int64
	Title        string
	Year         int
	CoverAddress string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Episode belongs to a Show, ordered by (season, number).
type Episode struct {
	ID            int64
	ShowID        int64
	Season        int
	Number        int
	Title         string
	RemoteAddress string
	CreatedAt     time.Time
}

// Comic is a comic or manga series; its readable units are Chapters.
type Comic struct {
	ID           int64
	Title        string
	Author       string
	CoverAddress string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Chapter belongs to a Comic. Number is fractional because scanlation
// releases use numbers like 10.5 for extras.
type Chapter struct {
	ID            int64
	ComicID       int64
	Number        float64
	Title         string
	RemoteAddress string
	PageCount     int
	CreatedAt     time.Time
}

// Ebook is a packaged EPUB stored at RemoteAddress. The resource server
// reads RemoteAddress on every request; everything else is display metadata.
type Ebook struct {
	ID            int64
	Title         string
	Author        string
	RemoteAddress string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ListOptions controls pagination and filtering for list queries.
type ListOptions struct {
	Limit  int
	Offset int
	// Query filters on title, case-insensitive substring match.
	Query string
}

func (o ListOptions) clamp(defaultLimit, maxLimit int) ListOptions {
	if o.Limit <= 0 {
		o.Limit = defaultLimit
	}
	if maxLimit > 0 && o.Limit > maxLimit {
		o.Limit = maxLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
