package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tomharren/docvault/internal/core"
	"github.com/tomharren/docvault/internal/models"
)

// TextExtractor is what the coordinator needs from the extraction adapter.
type TextExtractor interface {
	Extract(ctx context.Context, path string) Extraction
}

// CoordinatorConfig holds the per-run knobs. The historical fast, OCR,
// limited and continuous run modes are all expressed through these fields.
type CoordinatorConfig struct {
	Workers       int // documents in flight per batch
	MaxDocs       int // per-run cap, 0 = unbounded
	MentionCap    int // max mentions stored per document
	MaxContentLen int // stored document text cap, in bytes
}

// Coordinator drives a whole ingestion run: scan, filter already-ingested,
// extract, gate, persist. Each document fails or succeeds on its own; only
// startup problems stop a run.
type Coordinator struct {
	store     core.Storage
	embedder  *BatchEmbedder
	extractor TextExtractor
	chunker   *Chunker
	mentions  *MentionExtractor
	gate      *Classifier
	scanner   *Scanner
	cfg       CoordinatorConfig

	stats *Stats

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewCoordinator(
	store core.Storage,
	embedder *BatchEmbedder,
	extractor TextExtractor,
	chunker *Chunker,
	mentions *MentionExtractor,
	gate *Classifier,
	scanner *Scanner,
	cfg CoordinatorConfig,
) *Coordinator {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if cfg.MentionCap <= 0 {
		cfg.MentionCap = 50
	}
	if cfg.MaxContentLen <= 0 {
		cfg.MaxContentLen = 100000
	}
	return &Coordinator{
		store:     store,
		embedder:  embedder,
		extractor: extractor,
		chunker:   chunker,
		mentions:  mentions,
		gate:      gate,
		scanner:   scanner,
		cfg:       cfg,
	}
}

// Run executes one full pass over the corpus and returns the run's stats.
// Documents already in storage are never reprocessed, so repeated runs are
// idempotent at filename granularity. Cancelling the context stops new
// batches from launching; in-flight documents finish or unwind cleanly.
func (c *Coordinator) Run(ctx context.Context) (*Stats, error) {
	c.stats = NewStats()

	seen, err := c.store.ListFilenames(ctx)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	c.mu.Lock()
	c.seen = seen
	c.mu.Unlock()

	folders, err := c.scanner.SourceFolders()
	if err != nil {
		return nil, err
	}
	if len(folders) == 0 {
		slog.Warn("no source folders found under corpus root")
		return c.stats, nil
	}

	var work []string
	for _, folder := range folders {
		pdfs := c.scanner.FindPDFs(folder)
		slog.Info("folder scanned", "folder", filepath.Base(folder), "pdfs", len(pdfs))
		for _, path := range pdfs {
			if c.alreadySeen(filepath.Base(path)) {
				c.stats.Skipped.Add(1)
				continue
			}
			work = append(work, path)
		}
	}
	if c.cfg.MaxDocs > 0 && len(work) > c.cfg.MaxDocs {
		work = work[:c.cfg.MaxDocs]
	}

	total := len(work)
	slog.Info("ingestion starting",
		"candidates", total,
		"already_ingested", len(seen),
		"workers", c.cfg.Workers)

	for start := 0; start < total; start += c.cfg.Workers {
		if ctx.Err() != nil {
			break
		}
		end := start + c.cfg.Workers
		if end > total {
			end = total
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, path := range work[start:end] {
			g.Go(func() error {
				c.processOne(gctx, path)
				// Per-document failures are counted, never propagated; a bad
				// file must not cancel its batch.
				return nil
			})
		}
		_ = g.Wait()

		slog.Info(c.stats.Progress(end, total))
	}

	return c.stats, ctx.Err()
}

// processOne runs the full per-document pipeline. All failures are local:
// counted, logged with the filename, and left behind.
func (c *Coordinator) processOne(ctx context.Context, path string) {
	filename := filepath.Base(path)

	defer func() {
		if r := recover(); r != nil {
			c.stats.Errors.Add(1)
			slog.Error("panic while processing document", "filename", filename, "panic", r)
		}
	}()

	// The same basename can occur in more than one source folder; only the
	// first occurrence in a run is processed.
	if c.alreadySeen(filename) {
		c.stats.Skipped.Add(1)
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		c.stats.Errors.Add(1)
		slog.Error("stat failed", "filename", filename, "error", err)
		return
	}

	ext := c.extractor.Extract(ctx, path)
	switch ext.Outcome {
	case OutcomeNeedsOCR:
		c.stats.NeedsOCR.Add(1)
		return
	case OutcomeUnreadable:
		c.stats.Unreadable.Add(1)
		return
	case OutcomeError:
		c.stats.Errors.Add(1)
		slog.Error("extraction failed", "filename", filename, "error", ext.Err)
		return
	}

	// Final gate: the adapter's verdict and ours must agree even if the
	// thresholds were tightened between runs.
	if !c.gate.IsReadable(ext.Text) {
		c.stats.Unreadable.Add(1)
		return
	}

	// Re-check right before insert to narrow the race window against a
	// concurrently running ingestion process. The duplicate-key error on
	// CreateDocument is the backstop for whatever window remains.
	if exists, err := c.store.DocumentExists(ctx, filename); err == nil && exists {
		c.markSeen(filename)
		c.stats.Skipped.Add(1)
		return
	}

	content := ext.Text
	if len(content) > c.cfg.MaxContentLen {
		// Back the cut up to a rune boundary; a partial UTF-8 sequence at
		// the tail would make Postgres reject the insert.
		cut := c.cfg.MaxContentLen
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}

	doc := &models.Document{
		ID:         uuid.NewString(),
		Filename:   filename,
		Title:      strings.TrimSuffix(filename, filepath.Ext(filename)),
		Content:    content,
		PageCount:  ext.PageCount,
		FileSize:   info.Size(),
		SourcePath: path,
	}
	if err := c.store.CreateDocument(ctx, doc); err != nil {
		if errors.Is(err, core.ErrDuplicateDocument) {
			c.markSeen(filename)
			c.stats.Skipped.Add(1)
			return
		}
		c.stats.Errors.Add(1)
		slog.Error("create document failed", "filename", filename, "error", err)
		return
	}
	c.markSeen(filename)

	pieces := c.chunker.Split(ext.Text)
	if len(pieces) > 0 {
		vecs := c.embedder.EmbedAll(ctx, pieces)

		rows := make([]models.DocumentChunk, len(pieces))
		for i := range pieces {
			rows[i] = models.DocumentChunk{
				ID:         fmt.Sprintf("chunk_%s_%d", doc.ID, i),
				DocumentID: doc.ID,
				ChunkIndex: i,
				Content:    pieces[i],
				PageNumber: 1,
				Embedding:  vecs[i],
			}
			if len(vecs[i]) > 0 {
				c.stats.Embeddings.Add(1)
			}
		}
		if err := c.store.InsertDocumentChunks(ctx, rows); err != nil {
			c.stats.Errors.Add(1)
			slog.Error("insert chunks failed", "filename", filename, "error", err)
			return
		}
		c.stats.Chunks.Add(int64(len(rows)))
	}

	found := c.mentions.Find(ext.Text)
	if len(found) > c.cfg.MentionCap {
		found = found[:c.cfg.MentionCap]
	}
	if len(found) > 0 {
		rows := make([]models.Mention, len(found))
		for i, m := range found {
			rows[i] = models.Mention{
				ID:             uuid.NewString(),
				DocumentID:     doc.ID,
				Name:           m.Name,
				NormalizedName: m.NormalizedName,
				Context:        m.Context,
			}
		}
		if err := c.store.InsertMentions(ctx, rows); err != nil {
			c.stats.Errors.Add(1)
			slog.Error("insert mentions failed", "filename", filename, "error", err)
			return
		}
		c.stats.Mentions.Add(int64(len(rows)))
	}

	if ext.Outcome == OutcomeOCR {
		c.stats.OCRUsed.Add(1)
	}
	c.stats.Processed.Add(1)
	slog.Info("document ingested",
		"filename", filename,
		"chars", len(ext.Text),
		"chunks", len(pieces),
		"via", ext.Outcome.String())
}

func (c *Coordinator) alreadySeen(filename string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.seen[filename]
	return ok
}

func (c *Coordinator) markSeen(filename string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen[filename] = struct{}{}
}
