package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const showColumns = "id, title, year, cover_address, created_at, updated_at"

const episodeColumns = "id, show_id, season, number, title, remote_address, created_at"

// AddShow inserts a new show record.
func (s *Store) AddShow(ctx context.Context, show Show) (*Show, error) {
	title := strings.TrimSpace(show.Title)
	if title == "" {
		return nil, errors.New("show title is required")
	}

	stamp := nowStamp()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO shows (title, year, cover_address, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		title,
		show.Year,
		strings.TrimSpace(show.CoverAddress),
		stamp,
		stamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert show: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetShowByID(ctx, id)
}

// GetShowByID fetches a show by identifier. Returns nil when absent.
func (s *Store) GetShowByID(ctx context.Context, id int64) (*Show, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE id = ?`, id)
	show, err := scanShow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get show: %w", err)
	}
	return show, nil
}

// DeleteShow removes a show and, via foreign keys, its episodes.
func (s *Store) DeleteShow(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM shows WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete show: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListShows returns a page of shows ordered by title, plus the unpaged total.
func (s *Store) ListShows(ctx context.Context, opts ListOptions) ([]*Show, int, error) {
	opts = opts.clamp(s.pageSizeDefault, s.pageSizeMax)

	where := ""
	args := []any{}
	if strings.TrimSpace(opts.Query) != "" {
		where = ` WHERE title LIKE ? ESCAPE '\'`
		args = append(args, likePattern(opts.Query))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM shows`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count shows: %w", err)
	}

	args = append(args, opts.Limit, opts.Offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+showColumns+` FROM shows`+where+` ORDER BY title COLLATE NOCASE, id LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list shows: %w", err)
	}
	defer rows.Close()

	var shows []*Show
	for rows.Next() {
		show, err := scanShow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan show: %w", err)
		}
		shows = append(shows, show)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate shows: %w", err)
	}
	return shows, total, nil
}

// AddEpisodes inserts episodes for a show in one transaction, preserving the
// slice order. Used by directory ingestion.
func (s *Store) AddEpisodes(ctx context.Context, showID int64, episodes []Episode) error {
	if len(episodes) == 0 {
		return nil
	}
	show, err := s.GetShowByID(ctx, showID)
	if err != nil {
		return err
	}
	if show == nil {
		return fmt.Errorf("show %d does not exist", showID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin episodes tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stamp := nowStamp()
	for _, ep := range episodes {
		if strings.TrimSpace(ep.Title) == "" {
			return fmt.Errorf("episode %d/%d has no title", ep.Season, ep.Number)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO episodes (show_id, season, number, title, remote_address, created_at)
             VALUES (?, ?, ?, ?, ?, ?)`,
			showID, ep.Season, ep.Number, strings.TrimSpace(ep.Title), strings.TrimSpace(ep.RemoteAddress), stamp,
		); err != nil {
			return fmt.Errorf("insert episode s%02de%02d: %w", ep.Season, ep.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit episodes: %w", err)
	}
	return nil
}

// ListEpisodes returns all episodes for a show ordered by season then number.
func (s *Store) ListEpisodes(ctx context.Context, showID int64) ([]*Episode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+episodeColumns+` FROM episodes WHERE show_id = ? ORDER BY season, number, id`,
		showID,
	)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*Episode
	for rows.Next() {
		var (
			ep        Episode
			createdAt string
		)
		if err := rows.Scan(&ep.ID, &ep.ShowID, &ep.Season, &ep.Number, &ep.Title, &ep.RemoteAddress, &createdAt); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		ep.CreatedAt = parseStamp(createdAt)
		episodes = append(episodes, &ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}
	return episodes, nil
}

func scanShow(row rowScanner) (*Show, error) {
	var (
		show      Show
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&show.ID, &show.Title, &show.Year, &show.CoverAddress, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	show.CreatedAt = parseStamp(createdAt)
	show.UpdatedAt = parseStamp(updatedAt)
	return &show, nil
}
