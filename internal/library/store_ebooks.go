package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const ebookColumns = "id, title, author, remote_address, created_at, updated_at"

// AddEbook inserts a new ebook record and returns it with the assigned ID.
func (s *Store) AddEbook(ctx context.Context, title, author, remoteAddress string) (*Ebook, error) {
	title = strings.TrimSpace(title)
	remoteAddress = strings.TrimSpace(remoteAddress)
	if title == "" {
		return nil, errors.New("ebook title is required")
	}
	if remoteAddress == "" {
		return nil, errors.New("ebook remote address is required")
	}

	stamp := nowStamp()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO ebooks (title, author, remote_address, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		title,
		strings.TrimSpace(author),
		remoteAddress,
		stamp,
		stamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert ebook: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetEbookByID(ctx, id)
}

// GetEbookByID fetches an ebook by identifier. Returns nil when absent.
func (s *Store) GetEbookByID(ctx context.Context, id int64) (*Ebook, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+ebookColumns+` FROM ebooks WHERE id = ?`, id)
	ebook, err := scanEbook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ebook: %w", err)
	}
	return ebook, nil
}

// UpdateEbook rewrites the mutable fields of an ebook record.
func (s *Store) UpdateEbook(ctx context.Context, ebook *Ebook) error {
	if ebook == nil || ebook.ID == 0 {
		return errors.New("ebook with assigned ID required")
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE ebooks SET title = ?, author = ?, remote_address = ?, updated_at = ? WHERE id = ?`,
		strings.TrimSpace(ebook.Title),
		strings.TrimSpace(ebook.Author),
		strings.TrimSpace(ebook.RemoteAddress),
		nowStamp(),
		ebook.ID,
	)
	if err != nil {
		return fmt.Errorf("update ebook: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteEbook removes an ebook record. Reports whether a row was deleted.
func (s *Store) DeleteEbook(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM ebooks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete ebook: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListEbooks returns a page of ebooks ordered by title, plus the unpaged total.
func (s *Store) ListEbooks(ctx context.Context, opts ListOptions) ([]*Ebook, int, error) {
	opts = opts.clamp(s.pageSizeDefault, s.pageSizeMax)

	where := ""
	args := []any{}
	if strings.TrimSpace(opts.Query) != "" {
		where = ` WHERE title LIKE ? ESCAPE '\'`
		args = append(args, likePattern(opts.Query))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM ebooks`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ebooks: %w", err)
	}

	args = append(args, opts.Limit, opts.Offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ebookColumns+` FROM ebooks`+where+` ORDER BY title COLLATE NOCASE, id LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list ebooks: %w", err)
	}
	defer rows.Close()

	var ebooks []*Ebook
	for rows.Next() {
		ebook, err := scanEbook(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan ebook: %w", err)
		}
		ebooks = append(ebooks, ebook)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate ebooks: %w", err)
	}
	return ebooks, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEbook(row rowScanner) (*Ebook, error) {
	var (
		ebook     Ebook
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&ebook.ID, &ebook.Title, &ebook.Author, &ebook.RemoteAddress, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	ebook.CreatedAt = parseStamp(createdAt)
	ebook.UpdatedAt = parseStamp(updatedAt)
	return &ebook, nil
}
