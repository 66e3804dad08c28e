package logstore

import (
	"errors"
	"strings"
	"time"

	dbmodel "taskdeck/client/internal/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Line struct {
	TaskID    string
	Content   string
	Stream    string
	CreatedAt time.Time
}

type Execution struct {
	TaskID     string
	Success    bool
	FinishedAt time.Time
}

type Store struct {
	db *gorm.DB
}

// NewStore uses the shared global DB. Caller must not close the db.
func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &Store{db: db}, nil
}

func (s *Store) AppendLine(taskID, content, stream string) error {
	if s == nil || s.db == nil {
		return errors.New("log store is not initialized")
	}
	id := strings.TrimSpace(taskID)
	if id == "" {
		return errors.New("task id is required")
	}
	st := strings.TrimSpace(stream)
	if st == "" {
		st = "stdout"
	}
	row := dbmodel.LogLine{
		TaskID:    id,
		Content:   content,
		Stream:    st,
		CreatedAt: time.Now().UTC().Unix(),
	}
	return s.db.Create(&row).Error
}

// Lines returns the newest lines for a task, oldest first.
func (s *Store) Lines(taskID string, limit int) ([]Line, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("log store is not initialized")
	}
	id := strings.TrimSpace(taskID)
	if id == "" {
		return nil, errors.New("task id is required")
	}
	if limit <= 0 {
		limit = 200
	}
	rows := make([]dbmodel.LogLine, 0, limit)
	if err := s.db.Where("task_id = ?", id).Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	lines := make([]Line, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		lines = append(lines, Line{
			TaskID:    row.TaskID,
			Content:   row.Content,
			Stream:    row.Stream,
			CreatedAt: time.Unix(row.CreatedAt, 0).UTC(),
		})
	}
	return lines, nil
}

// RecordExecution keeps one row per task with the latest outcome.
func (s *Store) RecordExecution(taskID string, success bool) error {
	if s == nil || s.db == nil {
		return errors.New("log store is not initialized")
	}
	id := strings.TrimSpace(taskID)
	if id == "" {
		return errors.New("task id is required")
	}
	now := time.Now().UTC().Unix()
	row := dbmodel.ExecutionResult{
		TaskID:     id,
		Success:    success,
		FinishedAt: now,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "task_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"success":     success,
			"finished_at": now,
		}),
	}).Create(&row).Error
}

func (s *Store) LastExecution(taskID string) (*Execution, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("log store is not initialized")
	}
	id := strings.TrimSpace(taskID)
	if id == "" {
		return nil, errors.New("task id is required")
	}
	var row dbmodel.ExecutionResult
	err := s.db.Where("task_id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Execution{
		TaskID:     row.TaskID,
		Success:    row.Success,
		FinishedAt: time.Unix(row.FinishedAt, 0).UTC(),
	}, nil
}

// ClearTask drops all persisted history for a task, typically after deletion.
func (s *Store) ClearTask(taskID string) error {
	if s == nil || s.db == nil {
		return errors.New("log store is not initialized")
	}
	id := strings.TrimSpace(taskID)
	if id == "" {
		return errors.New("task id is required")
	}
	if err := s.db.Where("task_id = ?", id).Delete(&dbmodel.LogLine{}).Error; err != nil {
		return err
	}
	return s.db.Where("task_id = ?", id).Delete(&dbmodel.ExecutionResult{}).Error
}

// Close is a no-op; DB is process-wide and must not be closed by the store.
func (s *Store) Close() error {
	return nil
}
