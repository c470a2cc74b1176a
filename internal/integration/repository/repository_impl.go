package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	integrationdomain "github.com/costplane/costplane/internal/integration/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() integrationdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, integration *integrationdomain.ClientS3Integration) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO client_s3_integrations (
			id, client_id, provider, bucket, prefix, region, enabled,
			last_polled_at, last_error, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		integration.ID,
		integration.ClientID,
		integration.Provider,
		integration.Bucket,
		integration.Prefix,
		integration.Region,
		integration.Enabled,
		integration.LastPolledAt,
		integration.LastError,
		integration.CreatedAt,
		integration.UpdatedAt,
	).Error
}

func (r *repo) ListEnabled(ctx context.Context, db *gorm.DB) ([]integrationdomain.ClientS3Integration, error) {
	var integrations []integrationdomain.ClientS3Integration
	err := db.WithContext(ctx).Raw(
		`SELECT id, client_id, provider, bucket, prefix, region, enabled,
		        last_polled_at, last_error, created_at, updated_at
		 FROM client_s3_integrations
		 WHERE enabled
		 ORDER BY id`,
	).Scan(&integrations).Error
	if err != nil {
		return nil, err
	}
	return integrations, nil
}

func (r *repo) RecordPollSuccess(ctx context.Context, db *gorm.DB, id snowflake.ID, polledAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE client_s3_integrations
		 SET last_polled_at = ?, last_error = NULL, updated_at = ?
		 WHERE id = ?`,
		polledAt,
		polledAt,
		id,
	).Error
}

func (r *repo) RecordPollFailure(ctx context.Context, db *gorm.DB, id snowflake.ID, message string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE client_s3_integrations
		 SET last_error = ?, updated_at = ?
		 WHERE id = ?`,
		message,
		at,
		id,
	).Error
}
