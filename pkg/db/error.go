package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	// PostgreSQL (error code 23505)
	if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
		return true
	}

	// MySQL (error code 1062)
	if strings.Contains(err.Error(), "Error 1062") {
		return true
	}

	// SQLite (error code 2067)
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return true
	}

	return false
}

// IsConstraintErr reports whether err is any integrity-constraint
// violation (NOT NULL, CHECK, FK, unique).
func IsConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	if IsDuplicateKeyErr(err) {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{
		"violates not-null constraint",
		"violates foreign key constraint",
		"violates check constraint",
		"NOT NULL constraint failed",
		"FOREIGN KEY constraint failed",
		"CHECK constraint failed",
		"cannot be null",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
