package scanner

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bindery/internal/library"
	"bindery/internal/logging"
	"bindery/internal/services"
	"bindery/internal/textutil"
	"bindery/internal/virtual"
)

// Op distinguishes the two scan outcomes for a book.
type Op string

const (
	// OpUpsert marks a book present on disk that needs (re)processing.
	OpUpsert Op = "upsert"
	// OpRemove marks a tracked book whose backing file vanished.
	OpRemove Op = "remove"
)

// Event is one unit of work produced by a library scan.
type Event struct {
	Op   Op
	Book *library.Book
}

// Scanner walks the library directory, reconciles it against the store, and
// emits events for the processing pool.
type Scanner struct {
	store  *virtual.Store
	logger *slog.Logger
}

func New(store *virtual.Store, logger *slog.Logger) *Scanner {
	return &Scanner{
		store:  store,
		logger: logging.NewComponentLogger(logger, "scanner"),
	}
}

// Scan walks root for EPUB files, upserts each into the store, and returns one
// upsert event per file found plus one remove event per tracked book whose
// file no longer exists. Unreadable directory entries are logged and skipped.
func (s *Scanner) Scan(ctx context.Context, root string) ([]Event, error) {
	if root == "" {
		return nil, services.Wrap(services.ErrConfiguration, "scanner", "scan", "library directory is not set", nil)
	}

	var events []Event
	seen := make(map[string]bool)

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if walkErr != nil {
			s.logger.WarnContext(ctx, "skipping unreadable entry",
				logging.String(logging.FieldBookPath, path),
				logging.Error(walkErr))
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(path), ".epub") {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			s.logger.WarnContext(ctx, "skipping unstatable file",
				logging.String(logging.FieldBookPath, path),
				logging.Error(err))
			return nil
		}

		book, err := s.store.UpsertBook(ctx, &library.Book{
			Path:           path,
			Title:          textutil.DeriveTitle(path),
			MediaType:      library.MediaTypeEPUB,
			FileSize:       info.Size(),
			FileModifiedAt: info.ModTime(),
		})
		if err != nil {
			return err
		}

		seen[book.ID] = true
		events = append(events, Event{Op: OpUpsert, Book: book})
		return nil
	})
	if err != nil {
		return nil, err
	}

	tracked, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	for _, book := range tracked {
		if seen[book.ID] {
			continue
		}
		// The walk may cover only part of the library (scan of a subtree).
		// A book is removed only when its file is confirmed gone; anything
		// still on disk, or unverifiable, stays tracked.
		if _, statErr := os.Stat(book.Path); !errors.Is(statErr, fs.ErrNotExist) {
			continue
		}
		events = append(events, Event{Op: OpRemove, Book: book})
	}

	s.logger.InfoContext(ctx, "scan complete",
		logging.Int("event_count", len(events)),
		logging.String("root", root))
	return events, nil
}
