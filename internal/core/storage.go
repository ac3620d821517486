package core

import (
	"context"
	"errors"

	"github.com/tomharren/docvault/internal/models"
)

// ErrDuplicateDocument reports a unique-filename conflict on document
// creation. When two ingestion processes race on the same file, the loser
// treats this as already-processed rather than a failure.
var ErrDuplicateDocument = errors.New("document already exists")

// Storage defines all persistence operations the ingestion pipeline needs.
// It abstracts Postgres/pgvector so the coordinator never depends on a
// specific database.
type Storage interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	DocumentExists(ctx context.Context, filename string) (bool, error)
	ListFilenames(ctx context.Context) (map[string]struct{}, error)

	InsertDocumentChunks(ctx context.Context, chunks []models.DocumentChunk) error
	InsertMentions(ctx context.Context, mentions []models.Mention) error

	CorpusStats(ctx context.Context) (*models.CorpusStats, error)

	Close() error
}
