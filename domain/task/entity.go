// Package task provides the domain entity and repository for tasks.
package task

import "time"

// Status is the closed set of task states.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
)

// IsValid reports whether s is one of the defined statuses.
func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Task represents a to-do item.
type Task struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description *string   `gorm:"size:1000" json:"description"`
	Status      Status    `gorm:"size:20;not null;default:Pending;check:chk_tasks_status,status IN ('Pending','Completed')" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the table name for the Task model.
func (Task) TableName() string {
	return "tasks"
}
