package contentcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"bindery/internal/config"
	"bindery/internal/epub"
	"bindery/internal/library"
	"bindery/internal/logging"
	"bindery/internal/services"
	"bindery/internal/virtual"
)

const indexFileName = "content_index.json"

// touchPersistInterval bounds how often a cache hit rewrites the index just to
// record a fresher access time. Hits inside the window update only in memory.
const touchPersistInterval = time.Minute

// entry describes one cached payload. The source fingerprint is captured at
// extraction time; a mismatch against the book's current fingerprint
// invalidates the entry on read.
type entry struct {
	OmnibusID        string    `json:"omnibus_id"`
	Anchor           string    `json:"anchor"`
	File             string    `json:"file"`
	Size             int64     `json:"size"`
	SourceFileSize   int64     `json:"source_file_size"`
	SourceModifiedAt time.Time `json:"source_modified_at"`
	CreatedAt        time.Time `json:"created_at"`
	LastAccessedAt   time.Time `json:"last_accessed_at"`
}

// fingerprint reconstructs the source fingerprint captured at extraction time.
func (e *entry) fingerprint() library.Fingerprint {
	return library.Fingerprint{Size: e.SourceFileSize, ModifiedAt: e.SourceModifiedAt}
}

// flight is one in-progress extraction. Concurrent callers for the same key
// wait on done and share the result.
type flight struct {
	done chan struct{}
	data []byte
	err  error
}

// extractFunc produces the content payload for one work. Replaceable in tests.
type extractFunc func(book *library.Book, anchor, nextAnchor string) ([]byte, error)

// Stats reports cache occupancy.
type Stats struct {
	Entries   int
	TotalSize int64
}

// Cache stores extracted work content on disk, keyed by (omnibus, anchor).
// Extraction is single-flight per key. Safe for concurrent use.
type Cache struct {
	dir     string
	enabled bool
	store   *virtual.Store
	logger  *slog.Logger
	extract extractFunc

	mu      sync.Mutex
	entries map[string]*entry
	flights map[string]*flight
	readers map[string]int
}

// New builds the cache and loads any persisted index. A corrupt or missing
// index starts empty.
func New(cfg *config.Config, store *virtual.Store, logger *slog.Logger) (*Cache, error) {
	c := &Cache{
		dir:     cfg.Paths.CacheDir,
		enabled: cfg.ContentCache.Enabled,
		store:   store,
		logger:  logging.NewComponentLogger(logger, "contentcache"),
		extract: extractContent,
		entries: make(map[string]*entry),
		flights: make(map[string]*flight),
		readers: make(map[string]int),
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	c.loadIndex()
	return c, nil
}

// Resolve returns the extracted content for one virtual book, serving from the
// cache when the entry's source fingerprint still matches the owning book.
func (c *Cache) Resolve(ctx context.Context, virtualBookID string) ([]byte, error) {
	vb, err := c.store.GetVirtualBook(ctx, virtualBookID)
	if err != nil {
		return nil, err
	}
	book, err := c.store.ResolveOmnibus(ctx, virtualBookID)
	if err != nil {
		return nil, err
	}

	nextAnchor, err := c.nextAnchor(ctx, book.ID, vb)
	if err != nil {
		return nil, err
	}

	if !c.enabled {
		return c.extractChecked(book, vb.Anchor, nextAnchor)
	}

	key := cacheKey(book.ID, vb.Anchor)
	fingerprint := book.Fingerprint()

	for {
		c.mu.Lock()

		if e, ok := c.entries[key]; ok {
			if e.fingerprint().Matches(fingerprint) {
				now := time.Now().UTC()
				persistTouch := now.Sub(e.LastAccessedAt) >= touchPersistInterval
				e.LastAccessedAt = now
				c.readers[key]++
				path := filepath.Join(c.dir, e.File)
				c.mu.Unlock()

				data, readErr := os.ReadFile(path)

				c.mu.Lock()
				c.readers[key]--
				if c.readers[key] <= 0 {
					delete(c.readers, key)
				}
				if readErr == nil {
					if persistTouch {
						c.persistIndexLocked()
					}
					c.mu.Unlock()
					return data, nil
				}
				// Payload file vanished under us; drop the entry and re-extract.
				delete(c.entries, key)
				c.mu.Unlock()
				continue
			}
			// Source changed since extraction.
			c.removeEntryLocked(key)
		}

		if f, ok := c.flights[key]; ok {
			c.mu.Unlock()
			select {
			case <-f.done:
				return f.data, f.err
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		f := &flight{done: make(chan struct{})}
		c.flights[key] = f
		c.mu.Unlock()

		f.data, f.err = c.extractAndStore(key, book, vb.Anchor, nextAnchor, fingerprint)
		close(f.done)

		c.mu.Lock()
		delete(c.flights, key)
		c.mu.Unlock()
		return f.data, f.err
	}
}

// InvalidateOmnibus drops every cached entry belonging to one book.
func (c *Cache) InvalidateOmnibus(omnibusID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, e := range c.entries {
		if e.OmnibusID == omnibusID {
			c.removeEntryLocked(key)
			removed++
		}
	}
	if removed > 0 {
		c.persistIndexLocked()
	}
}

// Stats returns current entry count and payload byte total.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	var s Stats
	for _, e := range c.entries {
		s.Entries++
		s.TotalSize += e.Size
	}
	return s
}

// nextAnchor finds the anchor of the work following vb in set order. Empty
// when vb is the last work, which extraction reads to the end of the spine.
func (c *Cache) nextAnchor(ctx context.Context, omnibusID string, vb *virtual.VirtualBook) (string, error) {
	set, err := c.store.VirtualBooksForOmnibus(ctx, omnibusID)
	if err != nil {
		return "", err
	}
	for i, candidate := range set {
		if candidate.ID == vb.ID {
			if i+1 < len(set) {
				return set[i+1].Anchor, nil
			}
			return "", nil
		}
	}
	return "", nil
}

func (c *Cache) extractAndStore(key string, book *library.Book, anchor, nextAnchor string, fingerprint library.Fingerprint) ([]byte, error) {
	data, err := c.extractChecked(book, anchor, nextAnchor)
	if err != nil {
		return nil, err
	}

	fileName := hashKey(key) + ".html"
	if err := writeFileAtomic(filepath.Join(c.dir, fileName), data); err != nil {
		// Content is still good; serve it uncached.
		c.logger.Warn("cache write failed, serving uncached",
			logging.String(logging.FieldCacheKey, key),
			logging.Error(err))
		return data, nil
	}

	now := time.Now().UTC()
	c.mu.Lock()
	c.entries[key] = &entry{
		OmnibusID:        book.ID,
		Anchor:           anchor,
		File:             fileName,
		Size:             int64(len(data)),
		SourceFileSize:   fingerprint.Size,
		SourceModifiedAt: fingerprint.ModifiedAt,
		CreatedAt:        now,
		LastAccessedAt:   now,
	}
	c.persistIndexLocked()
	c.mu.Unlock()
	return data, nil
}

// extractChecked distinguishes a vanished source file from a parse failure:
// the former is transient and must never be cached.
func (c *Cache) extractChecked(book *library.Book, anchor, nextAnchor string) ([]byte, error) {
	if _, err := os.Stat(book.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrSourceUnavailable, "contentcache", "extract", book.Path, nil)
		}
		return nil, services.Wrap(services.ErrSourceUnavailable, "contentcache", "extract", book.Path, err)
	}
	data, err := c.extract(book, anchor, nextAnchor)
	if err != nil {
		return nil, services.Wrap(services.ErrExtraction, "contentcache", "extract", book.Path, err)
	}
	return data, nil
}

// extractContent concatenates the spine documents from the work's anchor
// document up to, but not including, the next work's anchor document.
func extractContent(book *library.Book, anchor, nextAnchor string) ([]byte, error) {
	reader, err := epub.Open(book.Path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	fromPath, _ := epub.SplitAnchor(anchor)
	toPath, _ := epub.SplitAnchor(nextAnchor)
	return reader.ReadSpineRange(fromPath, toPath)
}

// removeEntryLocked deletes an entry and its payload file. Caller holds c.mu.
func (c *Cache) removeEntryLocked(key string) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	delete(c.entries, key)
	if err := os.Remove(filepath.Join(c.dir, e.File)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		c.logger.Warn("remove cached payload",
			logging.String(logging.FieldCacheKey, key),
			logging.Error(err))
	}
}

// loadIndex reads the persisted index and drops entries whose payload files
// are gone.
func (c *Cache) loadIndex() {
	data, err := os.ReadFile(filepath.Join(c.dir, indexFileName))
	if err != nil {
		return
	}
	var entries map[string]*entry
	if err := json.Unmarshal(data, &entries); err != nil {
		c.logger.Warn("cache index unreadable, starting empty", logging.Error(err))
		return
	}
	for key, e := range entries {
		if _, err := os.Stat(filepath.Join(c.dir, e.File)); err == nil {
			c.entries[key] = e
		}
	}
}

// persistIndexLocked writes the index atomically. Caller holds c.mu.
func (c *Cache) persistIndexLocked() {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return
	}
	if err := writeFileAtomic(filepath.Join(c.dir, indexFileName), data); err != nil {
		c.logger.Warn("persist cache index", logging.Error(err))
	}
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func cacheKey(omnibusID, anchor string) string {
	return omnibusID + "\x00" + anchor
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
