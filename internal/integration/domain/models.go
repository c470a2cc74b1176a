// Package domain contains the per-tenant external storage polling
// configuration consumed by the poll worker.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ClientS3Integration is one tenant's bucket polling configuration.
// LastPolledAt and LastError are written only by the poll worker: one
// write per tick per integration, whatever the outcome.
type ClientS3Integration struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	ClientID     snowflake.ID `gorm:"not null;index"`
	Provider     string       `gorm:"type:text;not null;check:provider <> ''"`
	Bucket       string       `gorm:"type:text;not null;check:bucket <> ''"`
	Prefix       string       `gorm:"type:text"`
	Region       string       `gorm:"type:text"`
	Enabled      bool         `gorm:"not null;default:true;index"`
	LastPolledAt *time.Time
	LastError    *string   `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ClientS3Integration) TableName() string { return "client_s3_integrations" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, integration *ClientS3Integration) error
	ListEnabled(ctx context.Context, db *gorm.DB) ([]ClientS3Integration, error)

	// RecordPollSuccess stamps LastPolledAt and clears LastError.
	RecordPollSuccess(ctx context.Context, db *gorm.DB, id snowflake.ID, polledAt time.Time) error

	// RecordPollFailure stores the failure message. LastPolledAt is left
	// untouched so the next tick re-reads from the same watermark.
	RecordPollFailure(ctx context.Context, db *gorm.DB, id snowflake.ID, message string, at time.Time) error
}
