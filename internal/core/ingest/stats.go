package ingest

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Stats aggregates one run's counters. Workers update it concurrently, so
// every field is atomic.
type Stats struct {
	Processed  atomic.Int64 // documents persisted
	Skipped    atomic.Int64 // already in storage
	NeedsOCR   atomic.Int64 // left for an OCR-enabled run
	OCRUsed    atomic.Int64 // persisted via the OCR fallback
	Unreadable atomic.Int64 // failed the readability gate everywhere
	Errors     atomic.Int64 // unexpected per-document failures
	Chunks     atomic.Int64
	Embeddings atomic.Int64
	Mentions   atomic.Int64

	start time.Time
}

func NewStats() *Stats {
	return &Stats{start: time.Now()}
}

func (s *Stats) Elapsed() time.Duration {
	return time.Since(s.start)
}

// Progress renders a one-line progress report with throughput and ETA.
func (s *Stats) Progress(done, total int) string {
	elapsed := s.Elapsed().Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(done) / elapsed
	}
	eta := "?"
	if rate > 0 {
		remaining := float64(total-done) / rate
		eta = formatDuration(time.Duration(remaining * float64(time.Second)))
	}
	return fmt.Sprintf("[%d/%d] %d saved | %d need OCR | %d unreadable | %d errors | %.1f/sec | ETA %s",
		done, total,
		s.Processed.Load(), s.NeedsOCR.Load(), s.Unreadable.Load(), s.Errors.Load(),
		rate, eta)
}

// Summary renders the end-of-run report.
func (s *Stats) Summary() string {
	return fmt.Sprintf(
		"processed=%d skipped=%d needs_ocr=%d ocr_used=%d unreadable=%d errors=%d chunks=%d embeddings=%d mentions=%d elapsed=%s",
		s.Processed.Load(), s.Skipped.Load(), s.NeedsOCR.Load(), s.OCRUsed.Load(),
		s.Unreadable.Load(), s.Errors.Load(),
		s.Chunks.Load(), s.Embeddings.Load(), s.Mentions.Load(),
		formatDuration(s.Elapsed()))
}

func formatDuration(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 0 {
		secs = 0
	}
	hrs := secs / 3600
	mins := (secs % 3600) / 60
	if hrs > 0 {
		return fmt.Sprintf("%dh %dm", hrs, mins)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm %ds", mins, secs%60)
	}
	return fmt.Sprintf("%ds", secs)
}
