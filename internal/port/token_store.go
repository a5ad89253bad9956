package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ledgerlens/internal/domain"
)

// TokenStore is the durable store for processing tokens. Each token document
// is an independently-owned unit: the orchestrator is the only writer for a
// token's lifetime, and terminal records are immutable (UpdateActive refuses
// to touch them).
type TokenStore interface {
	Create(ctx context.Context, token *domain.ProcessingToken) error
	GetByID(ctx context.Context, ownerID, tokenID uuid.UUID) (*domain.ProcessingToken, error)
	// UpdateActive persists the token's current fields only while the stored
	// row is still pending or running. Returns domain.ErrTokenTerminal when
	// the row has already reached a terminal state.
	UpdateActive(ctx context.Context, token *domain.ProcessingToken) error
	// ExpireOverdue flips every non-terminal token whose expires_at has
	// passed to expired, returning the number of tokens transitioned.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
	ListCompletedByOwner(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]domain.ProcessingToken, error)
}
