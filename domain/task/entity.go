package task

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Priority indicates how urgent a task is.
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// Stage is the work-progress state of a task, independent of approval.
type Stage string

const (
	StageNotStarted Stage = "Not Started"
	StageStarted    Stage = "Started"
	StageReview     Stage = "Send For Review"
	StageDone       Stage = "Done"
)

// ApprovalStatus tracks the manager-approval state of a task.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// PendingAction is a proposed change awaiting manager approval.
// Empty means no action is pending.
type PendingAction string

const (
	PendingNone     PendingAction = ""
	PendingReassign PendingAction = "reassign"
	PendingDelete   PendingAction = "delete"
)

// Attachment is a file reference carried on a task. Only the
// name/url/size triple crosses into the core; storage is external.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// ActivityEntry is one immutable audit record on a task.
type ActivityEntry struct {
	Action    string    `json:"action"`
	User      string    `json:"user"`
	Comment   string    `json:"comment,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	OldValue  string    `json:"old_value,omitempty"`
	NewValue  string    `json:"new_value,omitempty"`
}

// ActivityLog is an append-only ordered sequence of entries, oldest first.
// Stored as a JSON column.
type ActivityLog []ActivityEntry

func (l ActivityLog) Value() (driver.Value, error) {
	if l == nil {
		l = ActivityLog{}
	}
	return json.Marshal(l)
}

func (l *ActivityLog) Scan(value any) error {
	return scanJSON(value, l)
}

// Attachments is the ordered attachment list, stored as a JSON column.
type Attachments []Attachment

func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		a = Attachments{}
	}
	return json.Marshal(a)
}

func (a *Attachments) Scan(value any) error {
	return scanJSON(value, a)
}

func scanJSON(value, dest any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported column type %T", value)
	}
}

// Task is the core domain entity.
type Task struct {
	ID               string         `gorm:"primarykey;size:36" json:"id"`
	TaskNumber       int            `gorm:"uniqueIndex;not null" json:"task_number"`
	Title            string         `gorm:"size:200;not null" json:"title"`
	Brief            string         `gorm:"size:2000" json:"brief"`
	Priority         Priority       `gorm:"size:20;default:'Medium'" json:"priority"`
	AssignedToName   string         `gorm:"size:100" json:"assigned_to_name"`
	AssignedToEmail  string         `gorm:"size:200;index" json:"assigned_to_email"`
	CreatedByName    string         `gorm:"size:100" json:"created_by_name"`
	CreatedByEmail   string         `gorm:"size:200;index;not null" json:"created_by_email"`
	StartDate        *time.Time     `json:"start_date,omitempty"`
	DueDate          *time.Time     `json:"due_date,omitempty"`
	CompletionDate   *time.Time     `json:"completion_date,omitempty"`
	Stage            Stage          `gorm:"size:30;default:'Not Started'" json:"stage"`
	ApprovalStatus   ApprovalStatus `gorm:"size:20;default:'pending'" json:"approval_status"`
	ApprovalRequired bool           `json:"approval_required"`
	PendingAction    PendingAction  `gorm:"size:20" json:"pending_action"`
	PendingValue     string         `gorm:"size:200" json:"pending_value"`
	Attachments      Attachments    `gorm:"type:json" json:"attachments"`
	Activity         ActivityLog    `gorm:"type:json" json:"activity"`
	Version          int            `gorm:"not null;default:0" json:"version"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// TableName returns the table name for the Task model.
func (Task) TableName() string {
	return "tasks"
}

// Done reports whether the task has a completion date.
func (t *Task) Done() bool {
	return t.CompletionDate != nil
}

// Clone returns a deep copy safe to mutate independently.
func (t *Task) Clone() *Task {
	c := *t
	c.Activity = append(ActivityLog{}, t.Activity...)
	c.Attachments = append(Attachments{}, t.Attachments...)
	return &c
}

func (t *Task) appendActivity(e ActivityEntry) {
	t.Activity = append(t.Activity, e)
}
