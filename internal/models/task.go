package models

import (
	"time"
)

// TaskStatus represents the status of a task
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// TaskPriority represents the priority of a task
type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

// KYCAction is the reviewer's outcome recorded on a completed verification task.
type KYCAction string

const (
	ActionApprove KYCAction = "approve"
	ActionReject  KYCAction = "reject"
)

// Valid reports whether a is approve or reject.
func (a KYCAction) Valid() bool {
	return a == ActionApprove || a == ActionReject
}

// Task represents a unit of assigned review work
type Task struct {
	ID              uint         `json:"id" gorm:"primaryKey"`
	Title           string       `json:"title" gorm:"not null"`
	Description     string       `json:"description"`
	Status          TaskStatus   `json:"status" gorm:"not null;default:'pending';index"`
	Priority        TaskPriority `json:"priority" gorm:"default:'medium'"`
	AssignedTo      uint         `json:"assignedTo" gorm:"column:assigned_to;index"`
	SubjectUserID   uint         `json:"subjectUserId,omitempty" gorm:"column:subject_user_id;index"`
	KYCAction       KYCAction    `json:"kycAction,omitempty" gorm:"column:kyc_action"`
	RejectionReason string       `json:"rejectionReason,omitempty" gorm:"column:rejection_reason"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
	DueDate         *time.Time   `json:"dueDate" gorm:"column:due_date"`
	CompletedAt     *time.Time   `json:"completedAt" gorm:"column:completed_at"`
}

// TableName specifies the table name for Task Model
func (Task) TableName() string {
	return "tasks"
}

// Completed reports whether the task reached its terminal state.
func (t Task) Completed() bool {
	return t.Status == StatusCompleted
}

// TaskStatusUpdate is the body of PATCH/PUT /api/tasks/:id.
type TaskStatusUpdate struct {
	Status          TaskStatus `json:"status" binding:"required"`
	KYCAction       KYCAction  `json:"kycAction,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
}
