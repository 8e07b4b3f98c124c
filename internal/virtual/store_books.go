package virtual

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bindery/internal/library"
	"bindery/internal/services"
)

const bookColumns = "id, path, title, media_type, omnibus_type, file_size, file_modified_at, created_at, updated_at"

// UpsertBook inserts a book keyed by path or refreshes an existing row. IDs
// are minted on first sight and stable across rescans.
func (s *Store) UpsertBook(ctx context.Context, book *library.Book) (*library.Book, error) {
	if book == nil || book.Path == "" {
		return nil, errors.New("book path is required")
	}

	existing, err := s.GetBookByPath(ctx, book.Path)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	if existing == nil {
		id := book.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err := s.db.ExecContext(
			ctx,
			`INSERT INTO books (id, path, title, media_type, omnibus_type, file_size, file_modified_at, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id,
			book.Path,
			book.Title,
			defaultString(book.MediaType, library.MediaTypeEPUB),
			defaultString(book.OmnibusType, "none"),
			book.FileSize,
			nullableTime(book.FileModifiedAt),
			timestamp,
			timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("insert book: %w", err)
		}
		return s.GetBook(ctx, id)
	}

	_, err = s.db.ExecContext(
		ctx,
		`UPDATE books SET title = ?, media_type = ?, file_size = ?, file_modified_at = ?, updated_at = ? WHERE id = ?`,
		book.Title,
		defaultString(book.MediaType, library.MediaTypeEPUB),
		book.FileSize,
		nullableTime(book.FileModifiedAt),
		timestamp,
		existing.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	return s.GetBook(ctx, existing.ID)
}

// GetBook fetches a book by identifier.
func (s *Store) GetBook(ctx context.Context, id string) (*library.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "get book", id, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// GetBookByPath fetches a book by its backing file path.
func (s *Store) GetBookByPath(ctx context.Context, path string) (*library.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE path = ?`, path)
	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "get book by path", path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get book by path: %w", err)
	}
	return book, nil
}

// ListBooks returns all known books ordered by path.
func (s *Store) ListBooks(ctx context.Context) ([]*library.Book, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []*library.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// SetBookOmnibusType records the classification decision on the book row.
func (s *Store) SetBookOmnibusType(ctx context.Context, id, omnibusType string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE books SET omnibus_type = ?, updated_at = ? WHERE id = ?`,
		omnibusType,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set omnibus type: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "store", "set omnibus type", id, nil)
	}
	return nil
}

// DeleteBook removes a book; virtual books cascade in the same statement via
// the foreign key.
func (s *Store) DeleteBook(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete book: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func scanBook(scanner interface{ Scan(dest ...any) error }) (*library.Book, error) {
	var (
		id          string
		path        string
		title       string
		mediaType   string
		omnibusType string
		fileSize    int64
		modifiedRaw sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(&id, &path, &title, &mediaType, &omnibusType, &fileSize, &modifiedRaw, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	book := &library.Book{
		ID:          id,
		Path:        path,
		Title:       title,
		MediaType:   mediaType,
		OmnibusType: omnibusType,
		FileSize:    fileSize,
	}
	if modifiedRaw.Valid {
		if t, err := parseTimeString(modifiedRaw.String); err == nil {
			book.FileModifiedAt = t
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		book.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		book.UpdatedAt = updated
	}
	return book, nil
}
