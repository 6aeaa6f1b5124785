package task

import (
	"fmt"
	"time"
)

// Updates is the caller-facing mutation payload. Which fields are set
// determines the requested change; see ParseChange for precedence.
type Updates struct {
	AssignedToEmail *string      `json:"assigned_to_email,omitempty"`
	DeleteTask      bool         `json:"delete_task,omitempty"`
	MarkComplete    bool         `json:"mark_complete,omitempty"`
	Stage           *Stage       `json:"stage,omitempty"`
	Title           *string      `json:"title,omitempty"`
	Brief           *string      `json:"brief,omitempty"`
	Priority        *Priority    `json:"priority,omitempty"`
	StartDate       *time.Time   `json:"start_date,omitempty"`
	DueDate         *time.Time   `json:"due_date,omitempty"`
	Attachments     []Attachment `json:"attachments,omitempty"`
}

// Change is the requested mutation, one variant per transition family.
// The explicit union keeps dispatch exhaustive: an update payload always
// parses to exactly one variant, never to a silent fallthrough.
type Change interface {
	isChange()
	fmt.Stringer
}

// Reassign proposes a new assignee, identified by email. Assignment
// comparisons are email-based; the display name is derived from the
// employee directory.
type Reassign struct {
	AssigneeEmail string
}

// Delete requests removal of the task.
type Delete struct{}

// Complete marks the task done.
type Complete struct{}

// SetStage moves the task to a new work stage.
type SetStage struct {
	Stage Stage
}

// Edit covers plain field edits: title, brief, priority, dates and
// appended attachments.
type Edit struct {
	Title       *string
	Brief       *string
	Priority    *Priority
	StartDate   *time.Time
	DueDate     *time.Time
	Attachments []Attachment
}

func (Reassign) isChange() {}
func (Delete) isChange()   {}
func (Complete) isChange() {}
func (SetStage) isChange() {}
func (Edit) isChange()     {}

func (c Reassign) String() string { return "reassign to " + c.AssigneeEmail }
func (Delete) String() string     { return "delete" }
func (Complete) String() string   { return "complete" }
func (c SetStage) String() string { return "stage " + string(c.Stage) }
func (Edit) String() string       { return "edit" }

// ParseChange maps an update payload onto a single Change variant.
// Precedence follows the update dispatch order: reassign (when the
// proposed assignee differs from the current one), delete, complete,
// stage, then generic edits.
func ParseChange(current *Task, u Updates) (Change, error) {
	if u.AssignedToEmail != nil && *u.AssignedToEmail != current.AssignedToEmail {
		if *u.AssignedToEmail == "" {
			return nil, fmt.Errorf("%w: empty assignee", ErrInvalidRequest)
		}
		return Reassign{AssigneeEmail: *u.AssignedToEmail}, nil
	}
	if u.DeleteTask {
		return Delete{}, nil
	}
	if u.MarkComplete {
		return Complete{}, nil
	}
	if u.Stage != nil {
		s := *u.Stage
		// tolerate the alternate capitalisation used by older clients
		if s == "Send for Review" {
			s = StageReview
		}
		switch s {
		case StageNotStarted, StageStarted, StageReview, StageDone:
			return SetStage{Stage: s}, nil
		default:
			return nil, fmt.Errorf("%w: unknown stage %q", ErrInvalidRequest, s)
		}
	}
	e := Edit{
		Title:       u.Title,
		Brief:       u.Brief,
		Priority:    u.Priority,
		StartDate:   u.StartDate,
		DueDate:     u.DueDate,
		Attachments: u.Attachments,
	}
	return e, nil
}
