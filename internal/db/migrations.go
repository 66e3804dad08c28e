package db

import (
	"errors"

	"gorm.io/gorm"
)

func MigrateUp(db *gorm.DB) error {
	if db == nil {
		return errors.New("db is required")
	}
	if err := db.AutoMigrate(
		&LogLine{},
		&ExecutionResult{},
	); err != nil {
		return err
	}
	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_log_lines_task_created_at ON log_lines(task_id, created_at DESC);`,
	} {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
