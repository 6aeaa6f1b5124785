package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// NoticeIssuedEvent is emitted for every stakeholder notification a
// task transition produces. The notification module consumes it to
// persist the in-app record and send the best-effort email; failures
// there never roll back the task mutation that produced the notice.
type NoticeIssuedEvent struct {
	Recipient    string    `json:"recipient"`
	TaskID       string    `json:"task_id,omitempty"`
	Title        string    `json:"title,omitempty"`
	Message      string    `json:"message,omitempty"`
	EmailSubject string    `json:"email_subject,omitempty"`
	EmailBody    string    `json:"email_body,omitempty"`
	IssuedAt     time.Time `json:"issued_at"`
}

// NoticeIssuedV1 is the typed event definition for notice fan-out.
// Subject: events.task.v1.notice-issued
var NoticeIssuedV1 = helper.EventDefinition[NoticeIssuedEvent](
	"task", "NoticeIssued", "v1",
)

// TaskDeletedEvent is emitted when a task is removed from the store,
// either directly by a manager or via an approved delete request.
type TaskDeletedEvent struct {
	TaskID     string    `json:"task_id"`
	TaskNumber int       `json:"task_number"`
	Title      string    `json:"title"`
	DeletedBy  string    `json:"deleted_by"`
	DeletedAt  time.Time `json:"deleted_at"`
}

// TaskDeletedV1 is the typed event definition for task deletion.
// Subject: events.task.v1.task-deleted
var TaskDeletedV1 = helper.EventDefinition[TaskDeletedEvent](
	"task", "TaskDeleted", "v1",
)
