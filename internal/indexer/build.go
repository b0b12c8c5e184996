package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/codec"
	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/segment"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfindex/pkg/errors"
)

const (
	PhaseForward  = "forward"
	PhaseInverted = "inverted"
)

// BuildSummary describes a completed build. It is also the payload of the
// build-complete event.
type BuildSummary struct {
	Name          string        `json:"name"`
	Documents     int           `json:"documents"`
	Terms         int           `json:"terms"`
	ForwardBytes  int64         `json:"forward_bytes"`
	InvertedBytes int64         `json:"inverted_bytes"`
	Duration      time.Duration `json:"duration"`
	BuiltAt       time.Time     `json:"built_at"`
}

// buildState is the working set of one build. Nothing in it is visible to
// readers until the build is published.
type buildState struct {
	tables *index.Tables
	vocab  map[string]struct{}
	cache  map[string]index.TermFreqs
}

// Build runs the forward pass then the inverted pass, writing both files to
// pending temporaries. They replace the published files, and the new tables
// replace the old ones, only after both passes succeed. On failure the
// previously published index is left as it was.
func (ix *Index) Build(ctx context.Context) (*BuildSummary, error) {
	if ix.source == nil {
		return nil, fmt.Errorf("%w: index %q has no document source", apperrors.ErrInvalidInput, ix.opts.Name)
	}
	lock, err := acquireBuildLock(ix.opts.DataDir, ix.opts.Name)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			ix.logger.Error("releasing build lock", "error", err)
		}
	}()

	summary, err := ix.build(ctx)
	if ix.metrics != nil {
		status := "success"
		if err != nil {
			status = "failure"
		}
		ix.metrics.BuildsTotal.WithLabelValues(status).Inc()
	}
	if err != nil {
		ix.logger.Error("index build failed", "error", err)
		return nil, err
	}
	return summary, nil
}

func (ix *Index) build(ctx context.Context) (*BuildSummary, error) {
	start := time.Now()
	ix.logger.Info("index build starting",
		"corpus", ix.opts.CorpusPath,
		"resident", ix.opts.Resident,
		"workers", ix.opts.Workers,
	)

	fw, err := segment.Create(ix.ForwardPath())
	if err != nil {
		return nil, fmt.Errorf("creating forward index: %w", err)
	}
	defer fw.Abort()
	iw, err := segment.Create(ix.InvertedPath())
	if err != nil {
		return nil, fmt.Errorf("creating inverted index: %w", err)
	}
	defer iw.Abort()

	st := &buildState{
		tables: index.NewTables(ix.opts.Name),
		vocab:  make(map[string]struct{}),
	}
	if ix.opts.Resident {
		st.cache = make(map[string]index.TermFreqs)
	}

	phaseStart := time.Now()
	if err := ix.forwardPass(ctx, fw, st); err != nil {
		return nil, fmt.Errorf("forward pass: %w", err)
	}
	ix.observePhase(PhaseForward, phaseStart)

	phaseStart = time.Now()
	if err := ix.invertedPass(ctx, fw, iw, st); err != nil {
		return nil, fmt.Errorf("inverted pass: %w", err)
	}
	ix.observePhase(PhaseInverted, phaseStart)

	if err := st.tables.Check(); err != nil {
		return nil, fmt.Errorf("checking built tables: %w", err)
	}
	if err := iw.Commit(); err != nil {
		return nil, err
	}
	if err := fw.Commit(); err != nil {
		return nil, err
	}
	fwd, err := segment.Open(ix.ForwardPath())
	if err != nil {
		return nil, fmt.Errorf("reopening forward index: %w", err)
	}
	inv, err := segment.Open(ix.InvertedPath())
	if err != nil {
		fwd.Close()
		return nil, fmt.Errorf("reopening inverted index: %w", err)
	}
	st.tables.BuiltAt = time.Now().UTC()
	ix.install(st.tables, st.cache, fwd, inv)

	summary := &BuildSummary{
		Name:          ix.opts.Name,
		Documents:     len(st.tables.DocOrder),
		Terms:         len(st.tables.Vocabulary),
		ForwardBytes:  fw.Size(),
		InvertedBytes: iw.Size(),
		Duration:      time.Since(start),
		BuiltAt:       st.tables.BuiltAt,
	}
	ix.logger.Info("index build complete",
		"documents", summary.Documents,
		"terms", summary.Terms,
		"forward_bytes", summary.ForwardBytes,
		"inverted_bytes", summary.InvertedBytes,
		"duration", summary.Duration,
	)
	return summary, nil
}

// forwardPass scans the corpus once, appending one record per document.
// Documents are pulled in batches so extraction can run on several workers
// while records are still written in source order.
func (ix *Index) forwardPass(ctx context.Context, fw *segment.Writer, st *buildState) error {
	if err := ix.source.Reset(ix.opts.CorpusPath); err != nil {
		return fmt.Errorf("resetting document source: %w", err)
	}
	total, err := ix.source.Count()
	if err != nil {
		ix.logger.Warn("counting documents failed, progress total unknown", "error", err)
		total = 0
	}
	ix.progress.Start(PhaseForward, total)

	batch := make([]corpus.Document, 0, ix.opts.BatchSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, err := ix.source.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading document %d: %w", len(st.tables.DocOrder)+len(batch)+1, err)
		}
		batch = append(batch, doc)
		if len(batch) == ix.opts.BatchSize {
			if err := ix.writeBatch(ctx, fw, st, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := ix.writeBatch(ctx, fw, st, batch); err != nil {
		return err
	}

	st.tables.Vocabulary = make([]string, 0, len(st.vocab))
	for term := range st.vocab {
		st.tables.Vocabulary = append(st.tables.Vocabulary, term)
	}
	slices.Sort(st.tables.Vocabulary)
	ix.progress.Done(PhaseForward, len(st.tables.DocOrder))
	return nil
}

func (ix *Index) writeBatch(ctx context.Context, fw *segment.Writer, st *buildState, batch []corpus.Document) error {
	if len(batch) == 0 {
		return nil
	}
	tfs := make([]index.TermFreqs, len(batch))
	if ix.opts.Workers > 1 && len(batch) > 1 {
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(ix.opts.Workers)
		for i, doc := range batch {
			g.Go(func() error {
				tfs[i] = ix.extractor.Extract(doc.Text())
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	} else {
		for i, doc := range batch {
			tfs[i] = ix.extractor.Extract(doc.Text())
		}
	}
	for i, doc := range batch {
		if err := ix.addDocument(fw, st, doc, tfs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (ix *Index) addDocument(fw *segment.Writer, st *buildState, doc corpus.Document, tf index.TermFreqs) error {
	id := doc.ID()
	if !codec.ValidTerm(id) {
		return fmt.Errorf("%w: document id %q", apperrors.ErrInvalidTerm, id)
	}
	if _, dup := st.tables.DocOffsets[id]; dup {
		return fmt.Errorf("%w: %q", apperrors.ErrDuplicateDocument, id)
	}
	if tf == nil {
		tf = index.TermFreqs{}
	}
	for term, count := range tf {
		if !codec.ValidTerm(term) {
			return fmt.Errorf("%w: term %q in document %q", apperrors.ErrInvalidTerm, term, id)
		}
		if count < 0 {
			return fmt.Errorf("%w: negative count %d for term %q in document %q", apperrors.ErrInvalidInput, count, term, id)
		}
	}

	rec, err := fw.Append(codec.Encode(tf))
	if err != nil {
		return fmt.Errorf("writing document %q: %w", id, err)
	}
	st.tables.DocOffsets[id] = rec
	st.tables.DocLocators[id] = doc.Locator()
	st.tables.DocLengths[id] = tf.Total()
	st.tables.DocOrder = append(st.tables.DocOrder, id)
	for term := range tf {
		st.vocab[term] = struct{}{}
	}
	if st.cache != nil {
		st.cache[id] = tf
	}

	if ix.metrics != nil {
		ix.metrics.DocsIndexedTotal.Inc()
	}
	ix.progress.Step(PhaseForward, len(st.tables.DocOrder))
	ix.logger.Debug("document indexed",
		"doc_id", id,
		"terms", len(tf),
		"offset", rec.Offset,
		"length", rec.Length,
	)
	return nil
}

// invertedPass makes a single pass over the documents in forward order,
// accumulating (document, count) pairs per term, then writes one record per
// term in ascending term order.
func (ix *Index) invertedPass(ctx context.Context, fw, iw *segment.Writer, st *buildState) error {
	var fr *segment.Reader
	if st.cache == nil {
		r, err := fw.Reader()
		if err != nil {
			return err
		}
		fr = r
	}

	ix.progress.Start(PhaseInverted, len(st.tables.DocOrder))
	acc := index.NewAccumulator()
	acc.Seed(st.tables.Vocabulary)
	for i, id := range st.tables.DocOrder {
		if err := ctx.Err(); err != nil {
			return err
		}
		tf, ok := st.cache[id]
		if !ok {
			var err error
			tf, err = decodeAt(fr, st.tables.DocOffsets[id])
			if err != nil {
				return fmt.Errorf("reading forward record of %q: %w", id, err)
			}
		}
		acc.AddDocument(id, tf)
		ix.progress.Step(PhaseInverted, i+1)
	}

	for _, entry := range acc.Snapshot() {
		rec, err := iw.Append(codec.Encode(entry.Postings.Freqs()))
		if err != nil {
			return fmt.Errorf("writing term %q: %w", entry.Term, err)
		}
		st.tables.StemOffsets[entry.Term] = rec
	}
	ix.progress.Done(PhaseInverted, acc.Terms())
	return nil
}

func (ix *Index) observePhase(phase string, start time.Time) {
	if ix.metrics != nil {
		ix.metrics.BuildDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
	}
}
