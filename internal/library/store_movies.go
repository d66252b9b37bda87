package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const movieColumns = "id, title, year, remote_address, cover_address, created_at, updated_at"

// AddMovie inserts a new movie record.
func (s *Store) AddMovie(ctx context.Context, movie Movie) (*Movie, error) {
	title := strings.TrimSpace(movie.Title)
	if title == "" {
		return nil, errors.New("movie title is required")
	}

	stamp := nowStamp()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO movies (title, year, remote_address, cover_address, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		title,
		movie.Year,
		strings.TrimSpace(movie.RemoteAddress),
		strings.TrimSpace(movie.CoverAddress),
		stamp,
		stamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert movie: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetMovieByID(ctx, id)
}

// GetMovieByID fetches a movie by identifier. Returns nil when absent.
func (s *Store) GetMovieByID(ctx context.Context, id int64) (*Movie, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, id)
	movie, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get movie: %w", err)
	}
	return movie, nil
}

// SetMovieCover updates a movie's cover address. Reports whether the movie
// exists.
func (s *Store) SetMovieCover(ctx context.Context, id int64, coverAddress string) (bool, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE movies SET cover_address = ?, updated_at = ? WHERE id = ?`,
		strings.TrimSpace(coverAddress), nowStamp(), id,
	)
	if err != nil {
		return false, fmt.Errorf("set movie cover: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteMovie removes a movie record. Reports whether a row was deleted.
func (s *Store) DeleteMovie(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete movie: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListMovies returns a page of movies ordered by title, plus the unpaged total.
func (s *Store) ListMovies(ctx context.Context, opts ListOptions) ([]*Movie, int, error) {
	opts = opts.clamp(s.pageSizeDefault, s.pageSizeMax)

	where := ""
	args := []any{}
	if strings.TrimSpace(opts.Query) != "" {
		where = ` WHERE title LIKE ? ESCAPE '\'`
		args = append(args, likePattern(opts.Query))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM movies`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movies: %w", err)
	}

	args = append(args, opts.Limit, opts.Offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+movieColumns+` FROM movies`+where+` ORDER BY title COLLATE NOCASE, id LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	var movies []*Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate movies: %w", err)
	}
	return movies, total, nil
}

func scanMovie(row rowScanner) (*Movie, error) {
	var (
		movie     Movie
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&movie.ID, &movie.Title, &movie.Year, &movie.RemoteAddress, &movie.CoverAddress, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	movie.CreatedAt = parseStamp(createdAt)
	movie.UpdatedAt = parseStamp(updatedAt)
	return &movie, nil
}
