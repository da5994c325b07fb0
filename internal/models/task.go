package models

import (
	"time"

	"freelanceflow/internal/utils"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// Task is a unit of work within a project. Tasks are organisational only;
// billing state lives on time logs.
type Task struct {
	Base        `bson:",inline"`
	ProjectID   utils.SixID `bson:"project_id" json:"project_id"`
	Title       string      `bson:"title" json:"title"`
	Description string      `bson:"description,omitempty" json:"description,omitempty"`
	Status      TaskStatus  `bson:"status" json:"status"`
	DueDate     *time.Time  `bson:"due_date,omitempty" json:"due_date,omitempty"`
	CreatedAt   time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `bson:"updated_at" json:"updated_at"`
}
