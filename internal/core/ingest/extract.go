package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"code.sajari.com/docconv"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Outcome classifies what extraction did with a document.
type Outcome int

const (
	// OutcomeDirect means structural PDF text extraction passed the gate.
	OutcomeDirect Outcome = iota
	// OutcomeOCR means the OCR fallback produced readable text.
	OutcomeOCR
	// OutcomeNeedsOCR means direct extraction failed the gate and OCR was
	// disabled or could not run; a later OCR-enabled run should handle it.
	OutcomeNeedsOCR
	// OutcomeUnreadable means OCR ran but its output failed the gate.
	OutcomeUnreadable
	// OutcomeError means the file itself could not be read.
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDirect:
		return "direct"
	case OutcomeOCR:
		return "ocr"
	case OutcomeNeedsOCR:
		return "needs-ocr"
	case OutcomeUnreadable:
		return "unreadable"
	default:
		return "error"
	}
}

// Extraction is the result of the extract-or-OCR pipeline for one file.
type Extraction struct {
	Text      string
	PageCount int
	Outcome   Outcome
	Err       error
}

// ExtractorConfig tunes the extraction adapter.
type ExtractorConfig struct {
	OCREnabled bool
	DPI        int
	Language   string
	Timeout    time.Duration
	TempDir    string
}

// Extractor turns a PDF file into text: structural extraction first, then
// a rasterize-and-OCR fallback for image-only scans. Both external tools
// (pdftoppm, tesseract) run under a bounded timeout.
type Extractor struct {
	cfg        ExtractorConfig
	classifier *Classifier
	retry      retryPolicy
}

func NewExtractor(cfg ExtractorConfig, classifier *Classifier) *Extractor {
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.TempDir == "" {
		cfg.TempDir = filepath.Join(os.TempDir(), "docvault-ocr")
	}
	return &Extractor{
		cfg:        cfg,
		classifier: classifier,
		// External tools get a single attempt; only the embedding layer
		// retries.
		retry: retryPolicy{attempts: 1},
	}
}

// EnsureTempDir creates the rasterization scratch directory.
func (e *Extractor) EnsureTempDir() error {
	return os.MkdirAll(e.cfg.TempDir, 0o755)
}

// Extract runs the full adapter for one file. Extraction never aborts a
// run: every failure mode maps to an Outcome the coordinator counts and
// moves past.
func (e *Extractor) Extract(ctx context.Context, path string) Extraction {
	if _, err := os.Stat(path); err != nil {
		return Extraction{Outcome: OutcomeError, Err: err}
	}

	pages := pageCount(path)

	text := e.directText(path)
	if e.classifier.IsReadable(text) {
		return Extraction{Text: text, PageCount: pages, Outcome: OutcomeDirect}
	}

	if !e.cfg.OCREnabled {
		return Extraction{PageCount: pages, Outcome: OutcomeNeedsOCR}
	}

	prefix := tempPrefix(filepath.Base(path))
	defer e.cleanupTemp(prefix)

	imagePath, err := e.rasterize(ctx, path, prefix)
	if err != nil {
		return Extraction{PageCount: pages, Outcome: OutcomeNeedsOCR, Err: err}
	}

	ocrText, err := e.recognize(ctx, imagePath)
	if err != nil || !e.classifier.IsReadable(ocrText) {
		return Extraction{PageCount: pages, Outcome: OutcomeUnreadable, Err: err}
	}

	return Extraction{Text: ocrText, PageCount: pages, Outcome: OutcomeOCR}
}

// directText attempts structural text extraction. Corrupt, encrypted or
// unsupported files yield empty text rather than an error; the readability
// gate routes those to OCR.
func (e *Extractor) directText(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	res, err := docconv.Convert(f, "application/pdf", false)
	if err != nil || res == nil {
		return ""
	}
	return res.Body
}

// pageCount is best effort; 0 means unknown.
func pageCount(path string) int {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0
	}
	return n
}

// rasterize converts page 1 of the PDF to a PNG at the configured DPI.
func (e *Extractor) rasterize(ctx context.Context, pdfPath, prefix string) (string, error) {
	outBase := filepath.Join(e.cfg.TempDir, prefix)

	err := e.retry.do(ctx, func(ctx context.Context) error {
		runCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()

		cmd := exec.CommandContext(runCtx, "pdftoppm",
			"-png", "-f", "1", "-l", "1", "-r", strconv.Itoa(e.cfg.DPI),
			pdfPath, outBase)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("pdftoppm: %w: %s", err, firstLine(out))
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	// pdftoppm picks the page suffix based on total page count.
	for _, candidate := range []string{outBase + "-1.png", outBase + "-01.png", outBase + "-001.png", outBase + ".png"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", errors.New("pdftoppm produced no page image")
}

// recognize runs OCR over the rasterized page.
func (e *Extractor) recognize(ctx context.Context, imagePath string) (string, error) {
	var text string
	err := e.retry.do(ctx, func(ctx context.Context) error {
		runCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()

		cmd := exec.CommandContext(runCtx, "tesseract", imagePath, "stdout", "-l", e.cfg.Language)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("tesseract: %w: %s", err, firstLine(stderr.Bytes()))
		}
		text = stdout.String()
		return nil
	})
	return text, err
}

// cleanupTemp removes every temp file belonging to this document's prefix.
// Prefixes are namespaced per source filename, so concurrent workers only
// ever delete their own files.
func (e *Extractor) cleanupTemp(prefix string) {
	entries, err := os.ReadDir(e.cfg.TempDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), prefix) {
			_ = os.Remove(filepath.Join(e.cfg.TempDir, entry.Name()))
		}
	}
}

// tempPrefix sanitizes a filename into a temp-file namespace: alphanumerics
// survive, everything else becomes '_', capped at 50 characters.
func tempPrefix(filename string) string {
	b := []byte(filename)
	for i, c := range b {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			continue
		}
		b[i] = '_'
	}
	if len(b) > 50 {
		b = b[:50]
	}
	return string(b)
}

func firstLine(out []byte) string {
	out = bytes.TrimSpace(out)
	if i := bytes.IndexByte(out, '\n'); i >= 0 {
		out = out[:i]
	}
	return string(out)
}
