package db

type LogLine struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement"`
	TaskID    string `gorm:"column:task_id;not null"`
	Content   string `gorm:"column:content;not null;default:''"`
	Stream    string `gorm:"column:stream;not null;default:'stdout'"`
	CreatedAt int64  `gorm:"column:created_at;not null;default:0"`
}

func (LogLine) TableName() string { return "log_lines" }

type ExecutionResult struct {
	ID         int64  `gorm:"column:id;primaryKey;autoIncrement"`
	TaskID     string `gorm:"column:task_id;not null;uniqueIndex:uidx_execution_results_task"`
	Success    bool   `gorm:"column:success;not null;default:false"`
	FinishedAt int64  `gorm:"column:finished_at;not null;default:0"`
}

func (ExecutionResult) TableName() string { return "execution_results" }
