package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ledgerlens/internal/domain"
	"ledgerlens/internal/port"
)

type tokenRepo struct {
	db *sqlx.DB
}

// NewTokenRepo creates a new PostgreSQL-backed TokenStore.
func NewTokenRepo(db *sqlx.DB) port.TokenStore {
	return &tokenRepo{db: db}
}

func (r *tokenRepo) Create(ctx context.Context, token *domain.ProcessingToken) error {
	now := time.Now().UTC()
	token.CreatedAt = now
	token.UpdatedAt = now

	query := `INSERT INTO receipt_tokens (
		id, owner_id, status, mode,
		media_bucket, media_key, media_content_type,
		attempt, progress_stage, progress_percent,
		result, error_kind, error_message,
		expires_at, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7,
		$8, $9, $10,
		$11, $12, $13,
		$14, $15, $16
	)`

	_, err := r.db.ExecContext(ctx, query,
		token.ID, token.OwnerID, token.Status, token.Mode,
		token.MediaBucket, token.MediaKey, token.MediaContentType,
		token.Attempt, token.ProgressStage, token.ProgressPercent,
		token.Result, token.ErrorKind, token.ErrorMessage,
		token.ExpiresAt, token.CreatedAt, token.UpdatedAt)
	if err != nil {
		return fmt.Errorf("tokenRepo.Create: %w", err)
	}
	return nil
}

func (r *tokenRepo) GetByID(ctx context.Context, ownerID, tokenID uuid.UUID) (*domain.ProcessingToken, error) {
	var token domain.ProcessingToken
	err := r.db.GetContext(ctx, &token,
		"SELECT * FROM receipt_tokens WHERE id = $1 AND owner_id = $2", tokenID, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("tokenRepo.GetByID: %w", err)
	}
	return &token, nil
}

// UpdateActive writes the token's mutable fields, but only while the stored
// row is still pending or running. The status guard is what makes terminal
// records immutable: a slow worker finishing after expiry hits zero rows
// here and its result is discarded.
func (r *tokenRepo) UpdateActive(ctx context.Context, token *domain.ProcessingToken) error {
	token.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx,
		`UPDATE receipt_tokens SET
			status = $1, attempt = $2,
			progress_stage = $3, progress_percent = $4,
			result = $5, error_kind = $6, error_message = $7,
			updated_at = $8
		WHERE id = $9 AND status IN ('pending', 'running')`,
		token.Status, token.Attempt,
		token.ProgressStage, token.ProgressPercent,
		token.Result, token.ErrorKind, token.ErrorMessage,
		token.UpdatedAt, token.ID)
	if err != nil {
		return fmt.Errorf("tokenRepo.UpdateActive: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("tokenRepo.UpdateActive rows: %w", err)
	}
	if rows == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists,
			"SELECT EXISTS (SELECT 1 FROM receipt_tokens WHERE id = $1)", token.ID); err != nil {
			return fmt.Errorf("tokenRepo.UpdateActive exists: %w", err)
		}
		if !exists {
			return domain.ErrTokenNotFound
		}
		return domain.ErrTokenTerminal
	}
	return nil
}

func (r *tokenRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE receipt_tokens SET
			status = 'expired',
			error_kind = $1, error_message = 'processing did not finish before the token expired',
			updated_at = $2
		WHERE status IN ('pending', 'running') AND expires_at <= $3`,
		domain.ErrorKindExpired, now.UTC(), now.UTC())
	if err != nil {
		return 0, fmt.Errorf("tokenRepo.ExpireOverdue: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("tokenRepo.ExpireOverdue rows: %w", err)
	}
	return rows, nil
}

func (r *tokenRepo) ListCompletedByOwner(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]domain.ProcessingToken, error) {
	var tokens []domain.ProcessingToken
	err := r.db.SelectContext(ctx, &tokens,
		`SELECT * FROM receipt_tokens
		 WHERE owner_id = $1 AND status = 'completed'
		   AND created_at >= $2 AND created_at < $3
		 ORDER BY created_at ASC`,
		ownerID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("tokenRepo.ListCompletedByOwner: %w", err)
	}
	return tokens, nil
}
