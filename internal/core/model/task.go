package model

import (
	"time"

	"taskbill/internal/core/util"
)

type TaskStatus string

const (
	TaskOpen       TaskStatus = "open"
	TaskInProgress TaskStatus = "in-progress"
	TaskDone       TaskStatus = "done"
	TaskInvoiced   TaskStatus = "invoiced"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskOpen, TaskInProgress, TaskDone, TaskInvoiced:
		return true
	}
	return false
}

// Task belongs to one project; its organization is the project's.
type Task struct {
	ID          string     `json:"id" db:"id"`
	ProjectID   string     `json:"projectId" db:"project_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description,omitempty" db:"description"`
	AssigneeID  string     `json:"assigneeId,omitempty" db:"assignee_id"`
	Status      TaskStatus `json:"status" db:"status"`
	Hours       float64    `json:"hours" db:"hours"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

func NewTask(projectID, title string) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:        util.GenerateID(),
		ProjectID: projectID,
		Title:     title,
		Status:    TaskOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
