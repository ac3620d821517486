package models

import (
	"time"
)

// Document represents one successfully ingested source file. A document is
// created once, after its text passes the readability gate, and is never
// mutated afterwards. Filename is unique across the corpus and doubles as
// the resumability checkpoint key.
type Document struct {
	ID         string    `db:"id"`
	Filename   string    `db:"filename"`
	Title      string    `db:"title"`
	Content    string    `db:"content"`
	PageCount  int       `db:"page_count"`
	FileSize   int64     `db:"file_size"`
	SourcePath string    `db:"source_path"`
	CreatedAt  time.Time `db:"created_at"`
}

// DocumentChunk represents one token-budgeted slice of a document's text.
// Embedding is nil when the embedding call failed for its batch; the chunk
// is still persisted so keyword search can reach the text.
type DocumentChunk struct {
	ID         string    `db:"id"`
	DocumentID string    `db:"document_id"`
	ChunkIndex int       `db:"chunk_index"`
	Content    string    `db:"content"`
	PageNumber int       `db:"page_number"`
	Embedding  []float32 `db:"embedding"`
	CreatedAt  time.Time `db:"created_at"`
}

// Mention represents a single occurrence of a notable name inside a
// document, with the surrounding text window. Repeated occurrences of the
// same name produce separate rows; counts are aggregated at query time.
type Mention struct {
	ID             string    `db:"id"`
	DocumentID     string    `db:"document_id"`
	Name           string    `db:"name"`
	NormalizedName string    `db:"normalized_name"`
	Context        string    `db:"context"`
	PageNumber     *int      `db:"page_number"`
	CreatedAt      time.Time `db:"created_at"`
}

// CorpusStats are aggregate counts over the stored corpus.
type CorpusStats struct {
	Documents  int64
	Chunks     int64
	Embeddings int64
	Mentions   int64
}
