package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/NicoPedraza/vidqa/internal/domain"
)

// Open creates and verifies a database connection.
func Open(databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS transcript_chunks (
	video_id        TEXT        NOT NULL,
	chunk_index     INT         NOT NULL,
	chunk_text      TEXT        NOT NULL,
	start_seconds   FLOAT8      NOT NULL,
	end_seconds     FLOAT8      NOT NULL,
	chunk_embedding VECTOR(1536) NOT NULL,
	PRIMARY KEY (video_id, chunk_index)
);
`

// Migrate creates the transcript schema if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrating transcript schema: %w", err)
	}
	return nil
}

// TranscriptStore implements domain.TranscriptStore on postgres with pgvector.
// Chunks are embedded on write; search embeds the query and ranks by cosine
// distance.
type TranscriptStore struct {
	db       *sql.DB
	embedder domain.Embedder
}

func NewTranscriptStore(db *sql.DB, embedder domain.Embedder) *TranscriptStore {
	return &TranscriptStore{db: db, embedder: embedder}
}

func (s *TranscriptStore) StoreSegments(ctx context.Context, videoID domain.VideoID, segments []domain.TranscriptSegment) error {
	chunks := domain.ChunkSegments(videoID, segments, domain.DefaultChunkChars)

	// Embed outside the transaction so a slow provider doesn't hold locks.
	vectors := make([]pgvector.Vector, len(chunks))
	for i, chunk := range chunks {
		embedding, err := s.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("embedding chunk %d: %w", chunk.Index, err)
		}
		vectors[i] = pgvector.NewVector(embedding)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Re-loading the same video replaces its previous transcript.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transcript_chunks WHERE video_id = $1`, string(videoID),
	); err != nil {
		return fmt.Errorf("clearing previous chunks: %w", err)
	}

	const insertSQL = `
		INSERT INTO transcript_chunks
			(video_id, chunk_index, chunk_text, start_seconds, end_seconds, chunk_embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i, chunk := range chunks {
		if _, err := tx.ExecContext(ctx, insertSQL,
			string(chunk.VideoID), chunk.Index, chunk.Text, chunk.Start, chunk.End, vectors[i],
		); err != nil {
			return fmt.Errorf("inserting chunk %d: %w", chunk.Index, err)
		}
	}

	return tx.Commit()
}

func (s *TranscriptStore) Search(ctx context.Context, videoID domain.VideoID, query string, limit int) ([]domain.ChunkMatch, error) {
	if limit <= 0 {
		limit = 5
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	vector := pgvector.NewVector(embedding)

	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_index, chunk_text, start_seconds, end_seconds,
		       1 - (chunk_embedding <=> $1) AS similarity
		FROM transcript_chunks
		WHERE video_id = $2
		ORDER BY chunk_embedding <=> $1
		LIMIT $3
	`, vector, string(videoID), limit)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var matches []domain.ChunkMatch
	for rows.Next() {
		match := domain.ChunkMatch{Chunk: domain.TranscriptChunk{VideoID: videoID}}
		if err := rows.Scan(
			&match.Chunk.Index,
			&match.Chunk.Text,
			&match.Chunk.Start,
			&match.Chunk.End,
			&match.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		matches = append(matches, match)
	}

	return matches, rows.Err()
}

func (s *TranscriptStore) DeleteVideo(ctx context.Context, videoID domain.VideoID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM transcript_chunks WHERE video_id = $1`, string(videoID),
	); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}
