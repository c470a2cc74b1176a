// Package domain contains the per-tenant column mapping records that tie
// provider export headers to canonical billing fields.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/costplane/costplane/internal/canonical"
	"gorm.io/gorm"
)

var (
	ErrInvalidProvider = errors.New("invalid provider")
	ErrInvalidClient   = errors.New("invalid client id")
)

// ColumnMapping is one confirmed (tenant, provider, canonical field) →
// source column association. The natural key is (client_id, provider,
// field); re-mapping a field overwrites the previous source column.
type ColumnMapping struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	ClientID     snowflake.ID `gorm:"not null;uniqueIndex:ux_column_mappings_natural,priority:1"`
	Provider     string       `gorm:"type:text;not null;check:provider <> '';uniqueIndex:ux_column_mappings_natural,priority:2"`
	Field        string       `gorm:"type:text;not null;check:field <> '';uniqueIndex:ux_column_mappings_natural,priority:3"`
	SourceColumn string       `gorm:"type:text;not null"`
	AutoMapped   bool         `gorm:"not null;default:false"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ColumnMapping) TableName() string { return "column_mappings" }

// DetectedColumn records one normalized raw header observed in a
// tenant's export. Kept so the mapping UI can offer every header the
// tenant has ever shipped, not just the current file's.
type DetectedColumn struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	ClientID   snowflake.ID `gorm:"not null;uniqueIndex:ux_detected_columns_natural,priority:1"`
	Provider   string       `gorm:"type:text;not null;check:provider <> '';uniqueIndex:ux_detected_columns_natural,priority:2"`
	ColumnName string       `gorm:"type:text;not null;check:column_name <> '';uniqueIndex:ux_detected_columns_natural,priority:3"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (DetectedColumn) TableName() string { return "detected_columns" }

// MappingSuggestion is one scored header→field proposal kept for
// auditability. Suggestions are append-only provenance, never a source
// of truth; confirmed mappings live in column_mappings.
type MappingSuggestion struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	ClientID     snowflake.ID `gorm:"not null;index"`
	UploadID     snowflake.ID `gorm:"not null;index"`
	Provider     string       `gorm:"type:text;not null"`
	SourceColumn string       `gorm:"type:text;not null"`
	Field        string       `gorm:"type:text;not null"`
	Score        float64      `gorm:"not null"`
	Reason       string       `gorm:"type:text"`
	AutoMapped   bool         `gorm:"not null;default:false"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (MappingSuggestion) TableName() string { return "mapping_suggestions" }

// Suggestion is the in-memory proposal produced by the suggester before
// persistence.
type Suggestion struct {
	SourceColumn string
	Field        canonical.Field
	Score        float64
	Reason       string
	AutoMapped   bool
}

type Repository interface {
	UpsertMappings(ctx context.Context, db *gorm.DB, rows []ColumnMapping) error
	ListMappings(ctx context.Context, db *gorm.DB, clientID snowflake.ID, provider string) ([]ColumnMapping, error)
	UpsertDetectedColumns(ctx context.Context, db *gorm.DB, rows []DetectedColumn) error
	InsertSuggestions(ctx context.Context, db *gorm.DB, rows []MappingSuggestion) error
}

type Service interface {
	// LoadMapping returns the tenant's stored canonical-field → source
	// column mapping for one provider. Empty map when nothing is stored.
	LoadMapping(ctx context.Context, provider string, clientID snowflake.ID) (map[canonical.Field]string, error)

	// LoadResolvedMapping filters the stored mapping down to fields whose
	// source column actually appears among the folded headers.
	LoadResolvedMapping(ctx context.Context, provider string, headers []string, clientID snowflake.ID) (map[canonical.Field]string, error)

	// StoreDetectedColumns persists the folded, deduplicated header set
	// seen for a tenant+provider. An empty header list writes nothing.
	StoreDetectedColumns(ctx context.Context, provider string, headers []string, clientID snowflake.ID) error

	// StoreAutoSuggestions persists every suggestion for auditability and
	// confirms a mapping row for each suggestion flagged AutoMapped.
	StoreAutoSuggestions(ctx context.Context, provider string, uploadID snowflake.ID, suggestions []Suggestion, clientID snowflake.ID) error
}
