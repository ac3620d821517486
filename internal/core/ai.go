package core

import "context"

// EmbeddingProvider produces one embedding vector per input text, in order.
// Implementations are expected to make a single upstream call per invocation;
// batching, retries and pacing are the caller's concern.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
