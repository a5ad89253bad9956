package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProcessingToken is the durable record of one submitted media analysis.
// It is created once at submission, mutated only by the orchestrator along
// the token state machine, and immutable once terminal.
type ProcessingToken struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	OwnerID          uuid.UUID       `db:"owner_id" json:"owner_id"`
	Status           TokenStatus     `db:"status" json:"status"`
	Mode             MediaMode       `db:"mode" json:"mode"`
	MediaBucket      string          `db:"media_bucket" json:"-"`
	MediaKey         string          `db:"media_key" json:"-"`
	MediaContentType string          `db:"media_content_type" json:"-"`
	Attempt          int             `db:"attempt" json:"attempt"`
	ProgressStage    string          `db:"progress_stage" json:"-"`
	ProgressPercent  int             `db:"progress_percent" json:"-"`
	Result           json.RawMessage `db:"result" json:"result,omitempty"`
	ErrorKind        ErrorKind       `db:"error_kind" json:"-"`
	ErrorMessage     string          `db:"error_message" json:"-"`
	ExpiresAt        time.Time       `db:"expires_at" json:"expires_at"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// Progress is the advisory stage/percentage pair exposed to polling clients.
type Progress struct {
	Stage      string `json:"stage"`
	Percentage int    `json:"percentage"`
}

// TokenError is the structured failure exposed to polling clients.
type TokenError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Progress returns the token's advisory progress.
func (t *ProcessingToken) Progress() Progress {
	return Progress{Stage: t.ProgressStage, Percentage: t.ProgressPercent}
}

// Error returns the structured error for a failed or expired token, or nil.
func (t *ProcessingToken) Error() *TokenError {
	if t.ErrorKind == "" {
		return nil
	}
	return &TokenError{Kind: t.ErrorKind, Message: t.ErrorMessage}
}
