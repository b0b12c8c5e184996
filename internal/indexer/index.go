// Package indexer builds and serves a two-sided term-frequency index over a
// corpus: a forward file holding one record per document (term -> count) and
// an inverted file holding one record per term (document -> count). Both
// files are flat concatenations of codec records; in-memory offset tables
// give O(1) random access to any record.
package indexer

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/codec"
	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/tfindex/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/tfindex/pkg/metrics"
)

const (
	forwardSuffix  = "_index"
	invertedSuffix = "_inverted"
)

// Options configures an Index. Logger, Progress and Metrics are optional.
type Options struct {
	Name       string
	DataDir    string
	CorpusPath string
	// Resident keeps every forward record decoded in memory. The inverted
	// pass and document lookups then never touch the forward file.
	Resident bool
	// Workers > 1 runs term extraction concurrently in the forward pass; the
	// Extractor must then be safe for concurrent use.
	Workers   int
	BatchSize int
	// ReadCacheSize bounds an LRU of decoded records used when not resident.
	// Zero disables it.
	ReadCacheSize int
	Logger        *slog.Logger
	Progress      Progress
	Metrics       *metrics.Metrics
}

// OptionsFromConfig maps the index and corpus config sections to Options.
func OptionsFromConfig(ic config.IndexConfig, cc config.CorpusConfig) Options {
	return Options{
		Name:          ic.Name,
		DataDir:       ic.DataDir,
		CorpusPath:    cc.Path,
		Resident:      ic.Resident,
		Workers:       ic.Workers,
		BatchSize:     ic.BatchSize,
		ReadCacheSize: ic.ReadCacheSize,
	}
}

// Index owns the offset tables and the readers over the two flat files.
// Lookups are safe for concurrent use once a build has completed; Build
// itself must not run concurrently with another Build on the same name.
type Index struct {
	opts      Options
	source    corpus.Source
	extractor tokenizer.Extractor
	logger    *slog.Logger
	progress  Progress
	metrics   *metrics.Metrics

	mu       sync.RWMutex
	tables   *index.Tables
	cache    map[string]index.TermFreqs
	forward  *segment.Reader
	inverted *segment.Reader
	records  *lru.Cache[string, index.TermFreqs]
}

// New creates an empty index bound to a document source and a term
// extractor. source may be nil for an index that will only be opened from
// persisted tables.
func New(opts Options, source corpus.Source, extractor tokenizer.Extractor) (*Index, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("%w: index name is empty", apperrors.ErrInvalidInput)
	}
	if extractor == nil {
		return nil, fmt.Errorf("%w: extractor is nil", apperrors.ErrInvalidInput)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 256
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	progress := opts.Progress
	if progress == nil {
		progress = NopProgress{}
	}
	return &Index{
		opts:      opts,
		source:    source,
		extractor: extractor,
		logger:    log.With("component", "indexer", "index", opts.Name),
		progress:  progress,
		metrics:   opts.Metrics,
	}, nil
}

// Open reattaches an index built earlier, given its persisted tables. The
// flat files must be the ones those tables were built with.
func Open(opts Options, tables *index.Tables, extractor tokenizer.Extractor) (*Index, error) {
	if tables == nil {
		return nil, fmt.Errorf("%w: tables are nil", apperrors.ErrInvalidInput)
	}
	if err := tables.Check(); err != nil {
		return nil, fmt.Errorf("checking tables: %w", err)
	}
	if opts.Name == "" {
		opts.Name = tables.Name
	}
	if opts.Name != tables.Name {
		return nil, fmt.Errorf("%w: tables belong to index %q, not %q", apperrors.ErrInvalidInput, tables.Name, opts.Name)
	}
	ix, err := New(opts, nil, extractor)
	if err != nil {
		return nil, err
	}
	fwd, err := segment.Open(ix.ForwardPath())
	if err != nil {
		return nil, fmt.Errorf("opening forward index: %w", err)
	}
	inv, err := segment.Open(ix.InvertedPath())
	if err != nil {
		fwd.Close()
		return nil, fmt.Errorf("opening inverted index: %w", err)
	}
	var cache map[string]index.TermFreqs
	if opts.Resident {
		cache, err = loadResident(fwd, tables)
		if err != nil {
			fwd.Close()
			inv.Close()
			return nil, err
		}
	}
	ix.install(tables, cache, fwd, inv)
	ix.logger.Info("index opened",
		"documents", len(tables.DocOrder),
		"terms", len(tables.Vocabulary),
		"resident", opts.Resident,
	)
	return ix, nil
}

func loadResident(fwd *segment.Reader, tables *index.Tables) (map[string]index.TermFreqs, error) {
	cache := make(map[string]index.TermFreqs, len(tables.DocOrder))
	for _, id := range tables.DocOrder {
		tf, err := decodeAt(fwd, tables.DocOffsets[id])
		if err != nil {
			return nil, fmt.Errorf("loading document %q: %w", id, err)
		}
		cache[id] = tf
	}
	return cache, nil
}

// install swaps in a new generation of tables and readers, closing the
// previous readers.
func (ix *Index) install(tables *index.Tables, cache map[string]index.TermFreqs, fwd, inv *segment.Reader) {
	var records *lru.Cache[string, index.TermFreqs]
	if ix.opts.ReadCacheSize > 0 {
		records, _ = lru.New[string, index.TermFreqs](ix.opts.ReadCacheSize)
	}
	ix.mu.Lock()
	oldFwd, oldInv := ix.forward, ix.inverted
	ix.tables = tables
	ix.cache = cache
	ix.forward = fwd
	ix.inverted = inv
	ix.records = records
	ix.mu.Unlock()

	for _, r := range []*segment.Reader{oldFwd, oldInv} {
		if r == nil {
			continue
		}
		if err := r.Close(); err != nil {
			ix.logger.Error("closing previous index file", "error", err)
		}
	}
	if ix.metrics != nil {
		ix.metrics.VocabularySize.Set(float64(len(tables.Vocabulary)))
	}
}

func (ix *Index) Name() string { return ix.opts.Name }

func (ix *Index) ForwardPath() string {
	return filepath.Join(ix.opts.DataDir, ix.opts.Name+forwardSuffix)
}

func (ix *Index) InvertedPath() string {
	return filepath.Join(ix.opts.DataDir, ix.opts.Name+invertedSuffix)
}

// Extractor is the term extractor the index was built with. Queries must be
// run through the same extractor to land in the same term space.
func (ix *Index) Extractor() tokenizer.Extractor { return ix.extractor }

// Built reports whether tables are installed.
func (ix *Index) Built() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.tables != nil
}

// TermsForDocument returns the forward record of a document. An id that was
// never indexed is an error.
func (ix *Index) TermsForDocument(id string) (index.TermFreqs, error) {
	start := time.Now()
	tf, err := ix.termsForDocument(id)
	ix.observe("document", start, len(tf), err)
	return tf, err
}

func (ix *Index) termsForDocument(id string) (index.TermFreqs, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.tables == nil {
		return nil, apperrors.ErrIndexNotBuilt
	}
	rec, ok := ix.tables.DocOffsets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrDocumentNotFound, id)
	}
	if tf, ok := ix.cache[id]; ok {
		return tf.Clone(), nil
	}
	return ix.readRecord(ix.forward, "d\x00"+id, rec)
}

// DocsForTerm returns the inverted record of a term. A term that never
// occurred in the corpus yields an empty map and no error.
func (ix *Index) DocsForTerm(term string) (index.TermFreqs, error) {
	start := time.Now()
	tf, err := ix.docsForTerm(term)
	ix.observe("term", start, len(tf), err)
	return tf, err
}

func (ix *Index) docsForTerm(term string) (index.TermFreqs, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.tables == nil {
		return nil, apperrors.ErrIndexNotBuilt
	}
	rec, ok := ix.tables.StemOffsets[term]
	if !ok {
		return index.TermFreqs{}, nil
	}
	return ix.readRecord(ix.inverted, "t\x00"+term, rec)
}

// SourceText returns the raw text of a document from the original corpus
// file.
func (ix *Index) SourceText(id string) ([]byte, error) {
	start := time.Now()
	ix.mu.RLock()
	var (
		loc   index.Locator
		ok    bool
		built = ix.tables != nil
	)
	if built {
		loc, ok = ix.tables.DocLocators[id]
	}
	ix.mu.RUnlock()

	var (
		text []byte
		err  error
	)
	switch {
	case !built:
		err = apperrors.ErrIndexNotBuilt
	case !ok:
		err = fmt.Errorf("%w: %q", apperrors.ErrDocumentNotFound, id)
	default:
		text, err = corpus.ReadText(loc)
	}
	ix.observe("text", start, len(text), err)
	return text, err
}

func (ix *Index) readRecord(r *segment.Reader, key string, rec index.OffsetRecord) (index.TermFreqs, error) {
	if ix.records != nil {
		if tf, ok := ix.records.Get(key); ok {
			return tf.Clone(), nil
		}
	}
	tf, err := decodeAt(r, rec)
	if err != nil {
		return nil, err
	}
	if ix.metrics != nil {
		ix.metrics.RecordBytesRead.Add(float64(rec.Length + 1))
	}
	if ix.records != nil {
		ix.records.Add(key, tf)
		return tf.Clone(), nil
	}
	return tf, nil
}

func decodeAt(r *segment.Reader, rec index.OffsetRecord) (index.TermFreqs, error) {
	b, err := r.Read(rec)
	if err != nil {
		return nil, err
	}
	tf, err := codec.Decode(b)
	if err != nil {
		var de *codec.DecodeError
		if errors.As(err, &de) {
			de.Record = rec
		}
		return nil, err
	}
	return tf, nil
}

func (ix *Index) observe(kind string, start time.Time, n int, err error) {
	if ix.metrics == nil {
		return
	}
	result := "hit"
	switch {
	case errors.Is(err, apperrors.ErrDocumentNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	case n == 0:
		result = "empty"
	}
	ix.metrics.LookupsTotal.WithLabelValues(kind, result).Inc()
	ix.metrics.LookupLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// Vocabulary returns every indexed term in ascending order.
func (ix *Index) Vocabulary() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.tables == nil {
		return nil
	}
	return slices.Clone(ix.tables.Vocabulary)
}

// Documents returns document ids in the order they were indexed.
func (ix *Index) Documents() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.tables == nil {
		return nil
	}
	return slices.Clone(ix.tables.DocOrder)
}

func (ix *Index) DocCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.tables == nil {
		return 0
	}
	return len(ix.tables.DocOrder)
}

// DocLength is the total term count of a document, 0 if unknown.
func (ix *Index) DocLength(id string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.tables == nil {
		return 0
	}
	return ix.tables.DocLengths[id]
}

func (ix *Index) AvgDocLength() float64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.tables == nil || len(ix.tables.DocOrder) == 0 {
		return 0
	}
	total := 0
	for _, n := range ix.tables.DocLengths {
		total += n
	}
	return float64(total) / float64(len(ix.tables.DocOrder))
}

// Generation identifies the installed build. It is the zero time before the
// first build.
func (ix *Index) Generation() time.Time {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.tables == nil {
		return time.Time{}
	}
	return ix.tables.BuiltAt
}

// Tables returns the installed tables for persistence. The result is shared
// and must not be modified.
func (ix *Index) Tables() *index.Tables {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.tables
}

func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	var firstErr error
	for _, r := range []*segment.Reader{ix.forward, ix.inverted} {
		if r == nil {
			continue
		}
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	ix.forward, ix.inverted = nil, nil
	ix.tables = nil
	ix.cache = nil
	return firstErr
}
