package process

import (
	"context"
	"fmt"
	"log/slog"

	"bindery/internal/config"
	"bindery/internal/epub"
	"bindery/internal/library"
	"bindery/internal/logging"
	"bindery/internal/omnibus"
	"bindery/internal/services"
	"bindery/internal/textutil"
	"bindery/internal/virtual"
)

// CacheInvalidator drops cached content for an omnibus after its virtual book
// set changes. Wired to the content cache; nil disables invalidation.
type CacheInvalidator interface {
	InvalidateOmnibus(omnibusID string)
}

// Result summarizes one processing pass over a book.
type Result struct {
	Book         *library.Book
	Type         omnibus.Type
	VirtualBooks []*virtual.VirtualBook
	// Skipped is set when the book is an omnibus but no usable work boundaries
	// were found, leaving any previously generated set untouched.
	Skipped    bool
	SkipReason string
}

// Processor runs the full detect-extract-synthesize pipeline for one book at a
// time. Safe for concurrent use; passes over the same book are serialized.
type Processor struct {
	cfg        *config.Config
	store      *virtual.Store
	classifier *omnibus.Classifier
	cache      CacheInvalidator
	locks      *keyedLocks
	logger     *slog.Logger
}

// NewProcessor builds a processor with the classifier extensions from
// configuration. cache may be nil.
func NewProcessor(cfg *config.Config, store *virtual.Store, cache CacheInvalidator, logger *slog.Logger) (*Processor, error) {
	classifier, err := omnibus.NewClassifier(cfg.Omnibus.Publishers, cfg.Omnibus.TitleKeywords)
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}
	return &Processor{
		cfg:        cfg,
		store:      store,
		classifier: classifier,
		cache:      cache,
		locks:      newKeyedLocks(),
		logger:     logging.NewComponentLogger(logger, "processor"),
	}, nil
}

// Process classifies one book and regenerates its virtual book set. Extraction
// problems (unreadable archive, missing navigation, too few works) are
// recovered locally: the book keeps whatever set it had and no error is
// returned. Only persistence failures propagate.
func (p *Processor) Process(ctx context.Context, book *library.Book) (*Result, error) {
	if book == nil || book.ID == "" {
		return nil, fmt.Errorf("book with id is required")
	}

	p.locks.Lock(book.ID)
	defer p.locks.Unlock(book.ID)

	ctx = services.WithBookID(ctx, book.ID)
	logger := logging.WithContext(ctx, p.logger)

	result := &Result{Book: book, Type: omnibus.TypeNone}

	reader, err := epub.Open(book.Path)
	if err != nil {
		// Unreadable archives classify as not an omnibus rather than failing
		// the scan.
		logger.WarnContext(ctx, "archive unreadable, classifying as none",
			logging.String(logging.FieldBookPath, book.Path),
			logging.Error(services.Wrap(services.ErrClassification, "processor", "open archive", book.Path, err)))
		return result, p.demote(ctx, book)
	}
	defer reader.Close()

	meta := reader.Metadata()
	result.Type = p.classifier.Classify(meta)

	if err := p.store.SetBookOmnibusType(ctx, book.ID, string(result.Type)); err != nil {
		return nil, err
	}

	if !result.Type.IsOmnibus() {
		if _, err := p.store.DeleteByOmnibus(ctx, book.ID); err != nil {
			return nil, err
		}
		p.invalidate(book.ID)
		return result, nil
	}

	points, err := reader.NavPoints()
	if err != nil {
		logger.WarnContext(ctx, "navigation unreadable, keeping existing set",
			logging.String(logging.FieldOmnibusType, string(result.Type)),
			logging.Error(err))
		result.Skipped = true
		result.SkipReason = "navigation unreadable"
		return result, nil
	}

	works := omnibus.ExtractWorks(points, p.cfg.Omnibus.MinWorks)
	if works == nil {
		logger.WarnContext(ctx, "too few works extracted, keeping existing set",
			logging.String(logging.FieldOmnibusType, string(result.Type)),
			logging.Int(logging.FieldWorkCount, 0))
		result.Skipped = true
		result.SkipReason = "too few works"
		return result, nil
	}

	omnibus.AttachDescriptions(reader, works, p.cfg.Omnibus.DescriptionLimit)

	prior, err := p.store.VirtualBooksForOmnibus(ctx, book.ID)
	if err != nil {
		return nil, err
	}
	priorByNumber := make(map[string]*virtual.VirtualBook, len(prior))
	for _, vb := range prior {
		priorByNumber[vb.Number] = vb
	}

	opts := omnibus.SynthesizeOptions{
		OmnibusTitle:   meta.Title,
		InheritAuthors: p.cfg.Omnibus.InheritAuthors,
		Authors:        meta.Creators,
	}
	if opts.OmnibusTitle == "" {
		opts.OmnibusTitle = book.Title
	}

	set := make([]*virtual.VirtualBook, 0, len(works))
	for _, work := range works {
		md := omnibus.Synthesize(work, opts)
		number, numberSort := omnibus.NumberForPosition(work.Position)

		vb := &virtual.VirtualBook{
			Number:           number,
			NumberSort:       numberSort,
			Anchor:           work.Anchor,
			MediaType:        book.MediaType,
			SourceFileSize:   book.FileSize,
			SourceModifiedAt: book.FileModifiedAt,
		}
		// Same position across regenerations means the same logical work: keep
		// its identity and any user-locked fields.
		if existing, ok := priorByNumber[number]; ok {
			vb.ID = existing.ID
			virtual.MergeLockedFields(&md, &existing.Metadata)
		}
		vb.Metadata = md
		vb.Title = md.Title
		vb.SortTitle = textutil.SortTitle(md.Title)
		set = append(set, vb)
	}

	persisted, err := p.store.ReplaceForOmnibus(ctx, book.ID, set)
	if err != nil {
		return nil, err
	}
	p.invalidate(book.ID)

	result.VirtualBooks = persisted
	logger.InfoContext(ctx, "virtual book set regenerated",
		logging.String(logging.FieldOmnibusType, string(result.Type)),
		logging.Int(logging.FieldWorkCount, len(persisted)))
	return result, nil
}

// Remove deletes a book that vanished from the library, cascading its virtual
// books and dropping cached content.
func (p *Processor) Remove(ctx context.Context, bookID string) error {
	p.locks.Lock(bookID)
	defer p.locks.Unlock(bookID)

	ctx = services.WithBookID(ctx, bookID)

	deleted, err := p.store.DeleteBook(ctx, bookID)
	if err != nil {
		return err
	}
	if deleted {
		p.invalidate(bookID)
		logging.WithContext(ctx, p.logger).InfoContext(ctx, "book removed")
	}
	return nil
}

// demote marks an unreadable book as not an omnibus and clears any stale set.
func (p *Processor) demote(ctx context.Context, book *library.Book) error {
	if err := p.store.SetBookOmnibusType(ctx, book.ID, string(omnibus.TypeNone)); err != nil {
		return err
	}
	if _, err := p.store.DeleteByOmnibus(ctx, book.ID); err != nil {
		return err
	}
	p.invalidate(book.ID)
	return nil
}

func (p *Processor) invalidate(omnibusID string) {
	if p.cache != nil {
		p.cache.InvalidateOmnibus(omnibusID)
	}
}
