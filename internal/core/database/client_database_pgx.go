package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tomharren/docvault/internal/config"
	"github.com/tomharren/docvault/internal/core"
	"github.com/tomharren/docvault/internal/models"
)

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

type StorageClient struct {
	db *sql.DB
}

func NewStorageClient(ctx context.Context, cfg *config.Config) (core.Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Pool sized for a handful of concurrent ingestion workers.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &StorageClient{db: db}, nil
}

func (c *StorageClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// CreateDocument inserts one document row. A filename conflict is reported
// as core.ErrDuplicateDocument so callers can treat it as already-processed.
func (c *StorageClient) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	const q = `
		INSERT INTO documents
			(id, filename, title, content, page_count, file_size, source_path, created_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		doc.ID, doc.Filename, doc.Title, doc.Content, doc.PageCount, doc.FileSize, doc.SourcePath, nullableTime(doc.CreatedAt))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%s: %w", doc.Filename, core.ErrDuplicateDocument)
		}
		return err
	}
	return nil
}

func (c *StorageClient) DocumentExists(ctx context.Context, filename string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM documents WHERE filename = $1)`
	var exists bool
	if err := c.db.QueryRowContext(ctx, q, filename).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListFilenames returns every ingested filename. This set is the
// resumability checkpoint loaded once per run.
func (c *StorageClient) ListFilenames(ctx context.Context) (map[string]struct{}, error) {
	const q = `SELECT filename FROM documents`
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = struct{}{}
	}
	return out, rows.Err()
}

// InsertDocumentChunks inserts chunks in a single transaction. A chunk with
// no embedding is stored with a NULL vector, not dropped.
func (c *StorageClient) InsertDocumentChunks(ctx context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO chunks
			(id, document_id, chunk_index, content, page_number, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		var vec any
		if len(ch.Embedding) > 0 {
			vec = pgvector.NewVector(ch.Embedding)
		}
		if _, err := stmt.ExecContext(ctx,
			ch.ID, ch.DocumentID, ch.ChunkIndex, ch.Content, ch.PageNumber, vec,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// InsertMentions inserts mention rows in a single transaction.
func (c *StorageClient) InsertMentions(ctx context.Context, mentions []models.Mention) error {
	if len(mentions) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO mentions
			(id, document_id, name, normalized_name, context, page_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range mentions {
		m := &mentions[i]
		if _, err := stmt.ExecContext(ctx,
			m.ID, m.DocumentID, m.Name, m.NormalizedName, m.Context, m.PageNumber,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// CorpusStats aggregates document, chunk, embedding and mention counts.
func (c *StorageClient) CorpusStats(ctx context.Context) (*models.CorpusStats, error) {
	const q = `
		SELECT
			(SELECT count(*) FROM documents),
			(SELECT count(*) FROM chunks),
			(SELECT count(*) FROM chunks WHERE embedding IS NOT NULL),
			(SELECT count(*) FROM mentions)
	`
	var s models.CorpusStats
	if err := c.db.QueryRowContext(ctx, q).Scan(&s.Documents, &s.Chunks, &s.Embeddings, &s.Mentions); err != nil {
		return nil, err
	}
	return &s, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
