package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomharren/docvault/internal/core"
)

// BatchEmbedder pushes chunk texts through an EmbeddingProvider in
// fixed-size batches. A batch that fails once is retried after a pause; a
// batch that fails twice degrades to empty vectors so the document's chunks
// are still persisted as keyword-searchable text.
type BatchEmbedder struct {
	provider  core.EmbeddingProvider
	batchSize int
	retry     retryPolicy
	limiter   *rate.Limiter
}

func NewBatchEmbedder(provider core.EmbeddingProvider, batchSize int) *BatchEmbedder {
	if batchSize <= 0 {
		batchSize = 20
	}
	return &BatchEmbedder{
		provider:  provider,
		batchSize: batchSize,
		retry:     retryPolicy{attempts: 2, delay: time.Second},
		// Paces batches to stay under the provider's rate limits.
		limiter: rate.NewLimiter(rate.Every(50*time.Millisecond), 1),
	}
}

// EmbedAll returns exactly one vector per input text, in order. A nil
// vector marks a text whose batch failed; EmbedAll itself never fails.
func (b *BatchEmbedder) EmbedAll(ctx context.Context, texts []string) [][]float32 {
	out := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += b.batchSize {
		end := start + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		if err := b.limiter.Wait(ctx); err != nil {
			// Cancelled mid-document: mark the rest unembedded.
			for len(out) < len(texts) {
				out = append(out, nil)
			}
			return out
		}

		var vecs [][]float32
		err := b.retry.do(ctx, func(ctx context.Context) error {
			v, err := b.provider.EmbedTexts(ctx, batch)
			if err != nil {
				return err
			}
			if len(v) != len(batch) {
				return fmt.Errorf("embed size mismatch: got %d want %d", len(v), len(batch))
			}
			vecs = v
			return nil
		})
		if err != nil {
			slog.Warn("embedding batch failed, persisting chunks without vectors",
				"batch_size", len(batch), "error", err)
			vecs = make([][]float32, len(batch))
		}
		out = append(out, vecs...)
	}
	return out
}
