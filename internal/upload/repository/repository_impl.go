package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	uploaddomain "github.com/costplane/costplane/internal/upload/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() uploaddomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, upload *uploaddomain.Upload) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO uploads (id, client_id, provider, file_name, status, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		upload.ID,
		upload.ClientID,
		upload.Provider,
		upload.FileName,
		upload.Status,
		upload.Error,
		upload.CreatedAt,
		upload.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*uploaddomain.Upload, error) {
	var upload uploaddomain.Upload
	err := db.WithContext(ctx).Raw(
		`SELECT id, client_id, provider, file_name, status, error, created_at, updated_at
		 FROM uploads WHERE id = ?`,
		id,
	).Scan(&upload).Error
	if err != nil {
		return nil, err
	}
	if upload.ID == 0 {
		return nil, nil
	}
	return &upload, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to uploaddomain.Status, errMsg string) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE uploads SET status = ?, error = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to,
		errMsg,
		time.Now().UTC(),
		id,
		from,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
