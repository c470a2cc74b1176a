package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, upload *Upload) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Upload, error)
	// UpdateStatus flips status only when the persisted row still holds
	// from, and reports whether a row was updated.
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to Status, errMsg string) (bool, error)
}
