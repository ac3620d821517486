package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomharren/docvault/internal/config"
	"github.com/tomharren/docvault/internal/core"
	db "github.com/tomharren/docvault/internal/core/database"
	"github.com/tomharren/docvault/internal/core/ingest"
	"github.com/tomharren/docvault/internal/core/llm"
)

func main() {
	var (
		noOCR     = flag.Bool("no-ocr", false, "skip the OCR fallback; image-only PDFs are left for a later OCR-enabled run")
		workers   = flag.Int("workers", 0, "documents in flight per batch (0 = 3 with OCR, 10 without)")
		limit     = flag.Int("limit", 0, "max documents to ingest this run (0 = unbounded)")
		dpi       = flag.Int("dpi", 0, "rasterization DPI for OCR (0 = OCR_DPI or 300)")
		loop      = flag.Duration("loop", 0, "rescan interval for continuous ingestion (0 = single pass)")
		statsOnly = flag.Bool("stats", false, "print corpus statistics and exit")
	)
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg := config.LoadConfig()
	if *noOCR {
		cfg.OCREnabled = false
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *limit > 0 {
		cfg.MaxDocs = *limit
	}
	if *dpi > 0 {
		cfg.OCRDPI = *dpi
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// First SIGINT/SIGTERM stops launching new batches; a second one kills
	// the process the usual way.
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		<-c
		slog.Info("shutdown requested, finishing in-flight documents")
		cancel()
		signal.Stop(c)
	}()

	store, err := db.NewStorageClient(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer store.Close()

	if *statsOnly {
		printStats(ctx, store)
		return
	}

	if err := validateStartup(cfg); err != nil {
		log.Fatalf("startup check failed: %v", err)
	}

	embedProvider, err := llm.NewGeminiEmbedder(ctx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		log.Fatalf("embedding provider: %v", err)
	}
	defer embedProvider.Close()

	names := ingest.DefaultNotableNames
	if cfg.NamesFile != "" {
		names, err = ingest.LoadNames(cfg.NamesFile)
		if err != nil {
			log.Fatalf("names catalog: %v", err)
		}
	}

	gate := ingest.NewClassifier(ingest.ClassifierConfig{
		MinTextLength: cfg.MinTextLength,
		MinWordRatio:  cfg.MinWordRatio,
		MinAlphaRatio: cfg.MinAlphaRatio,
	})
	extractor := ingest.NewExtractor(ingest.ExtractorConfig{
		OCREnabled: cfg.OCREnabled,
		DPI:        cfg.OCRDPI,
		Language:   cfg.OCRLanguage,
		Timeout:    time.Duration(cfg.OCRTimeoutSecs) * time.Second,
		TempDir:    cfg.TempDir,
	}, gate)
	if cfg.OCREnabled {
		if err := extractor.EnsureTempDir(); err != nil {
			log.Fatalf("temp dir: %v", err)
		}
	}

	coordinator := ingest.NewCoordinator(
		store,
		ingest.NewBatchEmbedder(embedProvider, cfg.EmbedBatchSize),
		extractor,
		ingest.NewChunker(ingest.ChunkerConfig{
			ChunkSize:     cfg.ChunkSize,
			ChunkOverlap:  cfg.ChunkOverlap,
			MinChunkChars: cfg.MinChunkChars,
		}),
		ingest.NewMentionExtractor(names),
		gate,
		ingest.NewScanner(cfg.CorpusRoot),
		ingest.CoordinatorConfig{
			Workers:       cfg.EffectiveWorkers(),
			MaxDocs:       cfg.MaxDocs,
			MentionCap:    cfg.MentionCap,
			MaxContentLen: cfg.MaxContentLen,
		},
	)

	for {
		stats, err := coordinator.Run(ctx)
		if err != nil && ctx.Err() == nil {
			log.Fatalf("ingestion run: %v", err)
		}
		if stats != nil {
			slog.Info("run complete", "summary", stats.Summary())
		}

		if *loop <= 0 || ctx.Err() != nil {
			break
		}
		slog.Info("waiting before rescan", "interval", loop.String())
		select {
		case <-time.After(*loop):
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
}

// validateStartup fails fast on configuration problems that would make any
// processing pointless: missing credentials, unreadable corpus root, or
// missing external binaries.
func validateStartup(cfg *config.Config) error {
	if cfg.AIAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY not set")
	}
	if _, err := os.ReadDir(cfg.CorpusRoot); err != nil {
		return fmt.Errorf("corpus root not readable: %w", err)
	}
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return fmt.Errorf("pdftotext not found on PATH (install poppler-utils)")
	}
	if cfg.OCREnabled {
		if _, err := exec.LookPath("pdftoppm"); err != nil {
			return fmt.Errorf("pdftoppm not found on PATH (install poppler-utils)")
		}
		if _, err := exec.LookPath("tesseract"); err != nil {
			return fmt.Errorf("tesseract not found on PATH")
		}
	}
	return nil
}

func printStats(ctx context.Context, store core.Storage) {
	stats, err := store.CorpusStats(ctx)
	if err != nil {
		log.Fatalf("corpus stats: %v", err)
	}
	fmt.Printf("documents:  %d\n", stats.Documents)
	fmt.Printf("chunks:     %d\n", stats.Chunks)
	fmt.Printf("embeddings: %d\n", stats.Embeddings)
	fmt.Printf("mentions:   %d\n", stats.Mentions)
}
