// Package domain contains the ingestion job record and its status
// state machine.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the lifecycle state of one upload (ingestion job).
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// transitions is the full legality table of the forward-only state
// machine. Self-transitions are handled separately as idempotent no-ops.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {},
	StatusFailed:     {},
}

// IsValidStatus reports whether s is a known upload status.
func IsValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether from → to is legal. Re-applying the
// current status is always allowed (idempotent no-op).
func CanTransition(from, to Status) bool {
	next, ok := transitions[from]
	if !ok || !IsValidStatus(to) {
		return false
	}
	if from == to {
		return true
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Upload represents one ingested file/session for a tenant.
type Upload struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	ClientID  snowflake.ID `gorm:"not null;index"`
	Provider  string       `gorm:"type:text;not null"`
	FileName  string       `gorm:"type:text"`
	Status    Status       `gorm:"type:text;not null"`
	Error     string       `gorm:"type:text"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Upload) TableName() string { return "uploads" }

type TransitionRequest struct {
	UploadID snowflake.ID
	ToStatus Status
	// Error is persisted alongside a FAILED transition.
	Error string
}

type Service interface {
	Create(ctx context.Context, clientID snowflake.ID, provider, fileName string) (*Upload, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Upload, error)
	Transition(ctx context.Context, req TransitionRequest) (*Upload, error)
}

var (
	ErrNotFound        = errors.New("upload_not_found")
	ErrInvalidStatus   = errors.New("invalid_upload_status")
	ErrInvalidProvider = errors.New("invalid_provider")
	ErrStatusConflict  = errors.New("upload_status_conflict")
	ErrClientMismatch  = errors.New("upload_client_mismatch")
)

// NewStatusConflict wraps ErrStatusConflict with the attempted and
// current status so callers can surface both.
func NewStatusConflict(current, attempted Status) error {
	return fmt.Errorf("%w: cannot transition %s to %s", ErrStatusConflict, current, attempted)
}
