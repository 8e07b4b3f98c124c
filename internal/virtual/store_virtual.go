package virtual

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bindery/internal/library"
	"bindery/internal/services"
)

const virtualBookColumns = `id, omnibus_id, title, sort_title, number, number_sort, anchor, media_type,
    meta_title, meta_title_lock, meta_summary, meta_summary_lock,
    meta_authors, meta_authors_lock, meta_tags, meta_tags_lock,
    meta_isbn, meta_isbn_lock, meta_release_date, meta_release_date_lock,
    source_file_size, source_modified_at, created_at, updated_at`

// ReplaceForOmnibus atomically replaces the full virtual book set for one
// omnibus: all existing rows are deleted and the new set inserted inside a
// single transaction. Readers never observe a partially replaced set. Returns
// the persisted set in number order.
func (s *Store) ReplaceForOmnibus(ctx context.Context, omnibusID string, set []*VirtualBook) ([]*VirtualBook, error) {
	if omnibusID == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "replace", "omnibus id is required", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "replace", "begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM virtual_books WHERE omnibus_id = ?`, omnibusID); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "replace", "delete existing set", err)
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	for _, vb := range set {
		if vb.ID == "" {
			vb.ID = uuid.NewString()
		}
		vb.OmnibusID = omnibusID
		vb.CreatedAt = now
		vb.UpdatedAt = now

		authorsJSON, err := json.Marshal(emptyIfNil(vb.Metadata.Authors))
		if err != nil {
			return nil, services.Wrap(services.ErrPersistence, "store", "replace", "marshal authors", err)
		}
		tagsJSON, err := json.Marshal(emptyIfNil(vb.Metadata.Tags))
		if err != nil {
			return nil, services.Wrap(services.ErrPersistence, "store", "replace", "marshal tags", err)
		}

		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO virtual_books (
                id, omnibus_id, title, sort_title, number, number_sort, anchor, media_type,
                meta_title, meta_title_lock, meta_summary, meta_summary_lock,
                meta_authors, meta_authors_lock, meta_tags, meta_tags_lock,
                meta_isbn, meta_isbn_lock, meta_release_date, meta_release_date_lock,
                source_file_size, source_modified_at, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			vb.ID,
			omnibusID,
			vb.Title,
			vb.SortTitle,
			vb.Number,
			vb.NumberSort,
			vb.Anchor,
			nullableString(vb.MediaType),
			vb.Metadata.Title,
			boolToInt(vb.Metadata.TitleLock),
			vb.Metadata.Summary,
			boolToInt(vb.Metadata.SummaryLock),
			string(authorsJSON),
			boolToInt(vb.Metadata.AuthorsLock),
			string(tagsJSON),
			boolToInt(vb.Metadata.TagsLock),
			vb.Metadata.ISBN,
			boolToInt(vb.Metadata.ISBNLock),
			vb.Metadata.ReleaseDate,
			boolToInt(vb.Metadata.ReleaseDateLock),
			vb.SourceFileSize,
			nullableTime(vb.SourceModifiedAt),
			timestamp,
			timestamp,
		)
		if err != nil {
			return nil, services.Wrap(services.ErrPersistence, "store", "replace", fmt.Sprintf("insert position %s", vb.Number), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "replace", "commit", err)
	}

	return s.VirtualBooksForOmnibus(ctx, omnibusID)
}

// GetVirtualBook fetches a virtual book by identifier.
func (s *Store) GetVirtualBook(ctx context.Context, id string) (*VirtualBook, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+virtualBookColumns+` FROM virtual_books WHERE id = ?`, id)
	vb, err := scanVirtualBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "get virtual book", id, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get virtual book: %w", err)
	}
	return vb, nil
}

// VirtualBooksForOmnibus returns the complete set for one omnibus ordered by
// (number_sort, sort_title).
func (s *Store) VirtualBooksForOmnibus(ctx context.Context, omnibusID string) ([]*VirtualBook, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+virtualBookColumns+` FROM virtual_books WHERE omnibus_id = ? ORDER BY number_sort, sort_title`,
		omnibusID,
	)
	if err != nil {
		return nil, fmt.Errorf("query virtual books: %w", err)
	}
	defer rows.Close()
	return collectVirtualBooks(rows)
}

// ListByOmnibus returns one page of an omnibus's virtual books ordered by
// (number_sort, sort_title) ascending. Pages are 1-based.
func (s *Store) ListByOmnibus(ctx context.Context, omnibusID string, page, size int) (Page, error) {
	page, size = normalizePage(page, size)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM virtual_books WHERE omnibus_id = ?`, omnibusID).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("count virtual books: %w", err)
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+virtualBookColumns+` FROM virtual_books WHERE omnibus_id = ?
         ORDER BY number_sort, sort_title LIMIT ? OFFSET ?`,
		omnibusID, size, (page-1)*size,
	)
	if err != nil {
		return Page{}, fmt.Errorf("list by omnibus: %w", err)
	}
	defer rows.Close()

	items, err := collectVirtualBooks(rows)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: items, Number: page, Size: size, TotalItems: total}, nil
}

// ListAll returns one page across all omnibuses ordered by creation time
// descending.
func (s *Store) ListAll(ctx context.Context, page, size int) (Page, error) {
	page, size = normalizePage(page, size)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM virtual_books`).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("count virtual books: %w", err)
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+virtualBookColumns+` FROM virtual_books
         ORDER BY created_at DESC, number_sort LIMIT ? OFFSET ?`,
		size, (page-1)*size,
	)
	if err != nil {
		return Page{}, fmt.Errorf("list all: %w", err)
	}
	defer rows.Close()

	items, err := collectVirtualBooks(rows)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: items, Number: page, Size: size, TotalItems: total}, nil
}

// DeleteByOmnibus removes all virtual books for one omnibus. Used when the
// owning book is deleted or reclassified as not an omnibus.
func (s *Store) DeleteByOmnibus(ctx context.Context, omnibusID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM virtual_books WHERE omnibus_id = ?`, omnibusID)
	if err != nil {
		return 0, fmt.Errorf("delete by omnibus: %w", err)
	}
	return res.RowsAffected()
}

// ResolveOmnibus returns the book owning a virtual book. Fails with NotFound
// when either side of the relation no longer exists (race with deletion).
func (s *Store) ResolveOmnibus(ctx context.Context, virtualBookID string) (*library.Book, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+prefixColumns("b", bookColumns)+`
         FROM virtual_books vb JOIN books b ON b.id = vb.omnibus_id
         WHERE vb.id = ?`,
		virtualBookID,
	)
	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "resolve omnibus", virtualBookID, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve omnibus: %w", err)
	}
	return book, nil
}

// IsOmnibus reports whether a book currently has virtual books, i.e. whether
// the serving layer should resolve requests against the virtual set.
func (s *Store) IsOmnibus(ctx context.Context, bookID string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM virtual_books WHERE omnibus_id = ?)`,
		bookID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("is omnibus: %w", err)
	}
	return exists == 1, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}
	return page, size
}

func prefixColumns(prefix, columns string) string {
	out := ""
	for i, col := range splitColumns(columns) {
		if i > 0 {
			out += ", "
		}
		out += prefix + "." + col
	}
	return out
}

func splitColumns(columns string) []string {
	var out []string
	field := ""
	for _, r := range columns {
		switch r {
		case ',':
			out = append(out, trimField(field))
			field = ""
		default:
			field += string(r)
		}
	}
	if f := trimField(field); f != "" {
		out = append(out, f)
	}
	return out
}

func trimField(field string) string {
	start := 0
	for start < len(field) && (field[start] == ' ' || field[start] == '\n' || field[start] == '\t') {
		start++
	}
	end := len(field)
	for end > start && (field[end-1] == ' ' || field[end-1] == '\n' || field[end-1] == '\t') {
		end--
	}
	return field[start:end]
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func collectVirtualBooks(rows *sql.Rows) ([]*VirtualBook, error) {
	var items []*VirtualBook
	for rows.Next() {
		vb, err := scanVirtualBook(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, vb)
	}
	return items, rows.Err()
}

func scanVirtualBook(scanner interface{ Scan(dest ...any) error }) (*VirtualBook, error) {
	var (
		id              string
		omnibusID       string
		title           string
		sortTitle       string
		number          string
		numberSort      float64
		anchor          string
		mediaType       sql.NullString
		metaTitle       string
		metaTitleLock   int
		metaSummary     string
		metaSummaryLock int
		metaAuthors     string
		metaAuthorsLock int
		metaTags        string
		metaTagsLock    int
		metaISBN        string
		metaISBNLock    int
		metaRelease     string
		metaReleaseLock int
		sourceFileSize  int64
		sourceModRaw    sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id, &omnibusID, &title, &sortTitle, &number, &numberSort, &anchor, &mediaType,
		&metaTitle, &metaTitleLock, &metaSummary, &metaSummaryLock,
		&metaAuthors, &metaAuthorsLock, &metaTags, &metaTagsLock,
		&metaISBN, &metaISBNLock, &metaRelease, &metaReleaseLock,
		&sourceFileSize, &sourceModRaw, &createdRaw, &updatedRaw,
	); err != nil {
		return nil, err
	}

	vb := &VirtualBook{
		ID:         id,
		OmnibusID:  omnibusID,
		Title:      title,
		SortTitle:  sortTitle,
		Number:     number,
		NumberSort: numberSort,
		Anchor:     anchor,
		MediaType:  mediaType.String,
		Metadata: Metadata{
			Title:           metaTitle,
			TitleLock:       metaTitleLock != 0,
			Summary:         metaSummary,
			SummaryLock:     metaSummaryLock != 0,
			AuthorsLock:     metaAuthorsLock != 0,
			TagsLock:        metaTagsLock != 0,
			ISBN:            metaISBN,
			ISBNLock:        metaISBNLock != 0,
			ReleaseDate:     metaRelease,
			ReleaseDateLock: metaReleaseLock != 0,
		},
		SourceFileSize: sourceFileSize,
	}

	if err := json.Unmarshal([]byte(metaAuthors), &vb.Metadata.Authors); err != nil {
		return nil, fmt.Errorf("decode authors: %w", err)
	}
	if err := json.Unmarshal([]byte(metaTags), &vb.Metadata.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}

	if sourceModRaw.Valid {
		if t, err := parseTimeString(sourceModRaw.String); err == nil {
			vb.SourceModifiedAt = t
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		vb.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		vb.UpdatedAt = updated
	}
	return vb, nil
}
