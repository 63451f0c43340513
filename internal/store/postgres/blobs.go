package postgres

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Blobs stores images as rows keyed by a generated id. Entity records hold
// the id, never the bytes.
type Blobs struct {
	db *pgxpool.Pool
}

func (s *Blobs) Upload(ctx context.Context, name string, data []byte) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate blob ID: %w", err)
	}

	const stmt = `INSERT INTO blobs (blob_id, name, data) VALUES ($1, $2, $3);`

	if _, err := s.db.Exec(ctx, stmt, id.String(), name, data); err != nil {
		return "", fmt.Errorf("upload blob: %w", err)
	}

	return id.String(), nil
}

func (s *Blobs) Download(ctx context.Context, blobID string) ([]byte, error) {
	const stmt = `SELECT data FROM blobs WHERE blob_id = $1;`

	var data []byte
	err := s.db.QueryRow(ctx, stmt, blobID).Scan(&data)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("blob", blobID)
	}
	if err != nil {
		return nil, fmt.Errorf("download blob: %w", err)
	}

	return data, nil
}

func (s *Blobs) Delete(ctx context.Context, blobID string) error {
	const stmt = `DELETE FROM blobs WHERE blob_id = $1;`

	if _, err := s.db.Exec(ctx, stmt, blobID); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}

	return nil
}
