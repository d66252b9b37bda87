package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const comicColumns = "id, title, author, cover_address, created_at, updated_at"

const chapterColumns = "id, comic_id, number, title, remote_address, page_count, created_at"

// AddComic inserts a new comic record.
func (s *Store) AddComic(ctx context.Context, comic Comic) (*Comic, error) {
	title := strings.TrimSpace(comic.Title)
	if title == "" {
		return nil, errors.New("comic title is required")
	}

	stamp := nowStamp()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO comics (title, author, cover_address, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		title,
		strings.TrimSpace(comic.Author),
		strings.TrimSpace(comic.CoverAddress),
		stamp,
		stamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert comic: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetComicByID(ctx, id)
}

// GetComicByID fetches a comic by identifier. Returns nil when absent.
func (s *Store) GetComicByID(ctx context.Context, id int64) (*Comic, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+comicColumns+` FROM comics WHERE id = ?`, id)
	comic, err := scanComic(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get comic: %w", err)
	}
	return comic, nil
}

// SetComicCover updates a comic's cover address. Reports whether the comic
// exists.
func (s *Store) SetComicCover(ctx context.Context, id int64, coverAddress string) (bool, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE comics SET cover_address = ?, updated_at = ? WHERE id = ?`,
		strings.TrimSpace(coverAddress), nowStamp(), id,
	)
	if err != nil {
		return false, fmt.Errorf("set comic cover: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteComic removes a comic and, via foreign keys, its chapters.
func (s *Store) DeleteComic(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM comics WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete comic: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListComics returns a page of comics ordered by title, plus the unpaged total.
func (s *Store) ListComics(ctx context.Context, opts ListOptions) ([]*Comic, int, error) {
	opts = opts.clamp(s.pageSizeDefault, s.pageSizeMax)

	where := ""
	args := []any{}
	if strings.TrimSpace(opts.Query) != "" {
		where = ` WHERE title LIKE ? ESCAPE '\'`
		args = append(args, likePattern(opts.Query))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM comics`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count comics: %w", err)
	}

	args = append(args, opts.Limit, opts.Offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+comicColumns+` FROM comics`+where+` ORDER BY title COLLATE NOCASE, id LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list comics: %w", err)
	}
	defer rows.Close()

	var comics []*Comic
	for rows.Next() {
		comic, err := scanComic(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan comic: %w", err)
		}
		comics = append(comics, comic)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate comics: %w", err)
	}
	return comics, total, nil
}

// AddChapters inserts chapters for a comic in one transaction, preserving the
// slice order. Used by directory ingestion.
func (s *Store) AddChapters(ctx context.Context, comicID int64, chapters []Chapter) error {
	if len(chapters) == 0 {
		return nil
	}
	comic, err := s.GetComicByID(ctx, comicID)
	if err != nil {
		return err
	}
	if comic == nil {
		return fmt.Errorf("comic %d does not exist", comicID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chapters tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stamp := nowStamp()
	for _, ch := range chapters {
		if strings.TrimSpace(ch.Title) == "" {
			return fmt.Errorf("chapter %g has no title", ch.Number)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chapters (comic_id, number, title, remote_address, page_count, created_at)
             VALUES (?, ?, ?, ?, ?, ?)`,
			comicID, ch.Number, strings.TrimSpace(ch.Title), strings.TrimSpace(ch.RemoteAddress), ch.PageCount, stamp,
		); err != nil {
			return fmt.Errorf("insert chapter %g: %w", ch.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chapters: %w", err)
	}
	return nil
}

// ListChapters returns all chapters for a comic ordered by chapter number.
func (s *Store) ListChapters(ctx context.Context, comicID int64) ([]*Chapter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chapterColumns+` FROM chapters WHERE comic_id = ? ORDER BY number, id`,
		comicID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()

	var chapters []*Chapter
	for rows.Next() {
		var (
			ch        Chapter
			createdAt string
		)
		if err := rows.Scan(&ch.ID, &ch.ComicID, &ch.Number, &ch.Title, &ch.RemoteAddress, &ch.PageCount, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		ch.CreatedAt = parseStamp(createdAt)
		chapters = append(chapters, &ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chapters: %w", err)
	}
	return chapters, nil
}

func scanComic(row rowScanner) (*Comic, error) {
	var (
		comic     Comic
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&comic.ID, &comic.Title, &comic.Author, &comic.CoverAddress, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	comic.CreatedAt = parseStamp(createdAt)
	comic.UpdatedAt = parseStamp(updatedAt)
	return &comic, nil
}
