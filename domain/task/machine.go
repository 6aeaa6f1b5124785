package task

import (
	"fmt"
	"strings"
	"time"
)

// Actor is the resolved identity of the requester.
type Actor struct {
	Email   string
	Name    string
	Manager bool
}

// DisplayName falls back to the email when the directory has no name.
func (a Actor) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Email
}

// EmployeeRef is the minimal directory record the machine needs.
type EmployeeRef struct {
	Name  string
	Email string
}

// Env carries everything a transition needs besides the task itself.
// The machine stays pure: all lookups happen before it runs.
type Env struct {
	Now   time.Time
	Actor Actor

	// Managers receives every stakeholder notice addressed to "the
	// manager". The fan-out policy is resolved by the caller; the
	// machine just addresses each of them.
	Managers []EmployeeRef

	// ProposedAssignee is the directory record for the assignee named
	// in a Reassign change or in PendingValue during approval. Nil when
	// no such employee exists.
	ProposedAssignee *EmployeeRef
}

// Notice is one stakeholder notification produced by a transition.
// Title empty means no in-app record; EmailSubject empty means no email.
type Notice struct {
	Recipient    string
	TaskID       string
	Title        string
	Message      string
	EmailSubject string
	EmailBody    string
}

// Outcome is the result of a transition: the new task state (nil when
// the task was removed), whether the change is parked behind approval,
// and the notices to dispatch. Activity entries are already appended to
// Task; callers never assemble activity themselves.
type Outcome struct {
	Task    *Task
	Deleted bool
	Pending bool
	Notices []Notice
}

// New builds a freshly created task in its initial state: stage
// Not Started, approval pending, with the Created activity entry.
func New(id string, number int, title, brief string, priority Priority, env Env) *Task {
	if priority == "" {
		priority = PriorityMedium
	}
	t := &Task{
		ID:               id,
		TaskNumber:       number,
		Title:            title,
		Brief:            brief,
		Priority:         priority,
		CreatedByName:    env.Actor.Name,
		CreatedByEmail:   env.Actor.Email,
		Stage:            StageNotStarted,
		ApprovalStatus:   ApprovalPending,
		ApprovalRequired: true,
		Attachments:      Attachments{},
		Activity:         ActivityLog{},
	}
	t.appendActivity(ActivityEntry{
		Action:    "Created",
		User:      env.Actor.Email,
		Comment:   "Task created",
		Timestamp: env.Now,
	})
	return t
}

// CreationNotices computes the fan-out for a newly created task: every
// manager gets an approval request, the creator a confirmation email.
// The assignee is deliberately not notified until a manager approves.
func CreationNotices(t *Task, env Env) []Notice {
	var notices []Notice
	for _, mgr := range env.Managers {
		notices = append(notices, Notice{
			Recipient:    mgr.Email,
			TaskID:       t.ID,
			Title:        "New task awaiting approval",
			Message:      fmt.Sprintf("%s created %q", env.Actor.DisplayName(), t.Title),
			EmailSubject: "Task Approval Needed: " + t.Title,
			EmailBody:    fmt.Sprintf("%s created a new task %q. Please review and approve.", env.Actor.DisplayName(), t.Title),
		})
	}
	notices = append(notices, Notice{
		Recipient:    t.CreatedByEmail,
		TaskID:       t.ID,
		EmailSubject: "Task created: " + t.Title,
		EmailBody:    fmt.Sprintf("You created task %q. It will be visible to the assignee after manager approval.", t.Title),
	})
	return notices
}

// Apply runs one requested change against the task and returns the
// outcome. The input task is not mutated.
func Apply(t *Task, change Change, env Env) (*Outcome, error) {
	switch c := change.(type) {
	case Reassign:
		return applyReassign(t, c, env)
	case Delete:
		return applyDelete(t, env)
	case Complete:
		return applyComplete(t, env)
	case SetStage:
		return applyStage(t, c, env)
	case Edit:
		return applyEdit(t, c, env)
	default:
		return nil, fmt.Errorf("%w: unsupported change %T", ErrInvalidRequest, change)
	}
}

func applyReassign(t *Task, c Reassign, env Env) (*Outcome, error) {
	next := t.Clone()

	if env.Actor.Manager {
		// Managers reassign directly, no approval step.
		ref := env.ProposedAssignee
		if ref == nil {
			return nil, fmt.Errorf("%w: no employee with email %s", ErrNotFound, c.AssigneeEmail)
		}
		old := next.AssignedToName
		next.AssignedToName = ref.Name
		next.AssignedToEmail = ref.Email
		next.appendActivity(ActivityEntry{
			Action:    "Assignee Changed",
			User:      env.Actor.Email,
			Comment:   "Assigned to " + ref.Name,
			Timestamp: env.Now,
			OldValue:  old,
			NewValue:  ref.Name,
		})
		out := &Outcome{Task: next}
		out.Notices = append(out.Notices, Notice{
			Recipient:    ref.Email,
			TaskID:       t.ID,
			Title:        "You were assigned a task",
			Message:      fmt.Sprintf("You were assigned %q", t.Title),
			EmailSubject: "Assigned: " + t.Title,
			EmailBody:    fmt.Sprintf("You have been assigned task %q.", t.Title),
		})
		if t.CreatedByEmail != env.Actor.Email {
			out.Notices = append(out.Notices, Notice{
				Recipient: t.CreatedByEmail,
				TaskID:    t.ID,
				Title:     "Task reassigned",
				Message:   fmt.Sprintf("Task %q was reassigned to %s", t.Title, ref.Name),
			})
		}
		return out, nil
	}

	// Non-manager: park the request behind manager approval. Only one
	// pending request may be outstanding per task.
	if t.ApprovalStatus == ApprovalPending && t.PendingAction != PendingNone {
		return nil, fmt.Errorf("%w: %s already pending", ErrInvalidState, t.PendingAction)
	}

	proposedName := c.AssigneeEmail
	if env.ProposedAssignee != nil {
		proposedName = env.ProposedAssignee.Name
	}

	next.PendingAction = PendingReassign
	next.PendingValue = c.AssigneeEmail
	next.ApprovalStatus = ApprovalPending
	next.appendActivity(ActivityEntry{
		Action:    "Reassign Requested",
		User:      env.Actor.Email,
		Comment:   "Requested assign to " + proposedName,
		Timestamp: env.Now,
	})

	out := &Outcome{Task: next, Pending: true}
	for _, mgr := range env.Managers {
		out.Notices = append(out.Notices, Notice{
			Recipient:    mgr.Email,
			TaskID:       t.ID,
			Title:        "Reassign requested",
			Message:      fmt.Sprintf("%s requested to assign %q to %s", env.Actor.DisplayName(), t.Title, proposedName),
			EmailSubject: "Reassign Request: " + t.Title,
			EmailBody:    fmt.Sprintf("%s requested reassign of %q to %s.", env.Actor.DisplayName(), t.Title, proposedName),
		})
	}
	return out, nil
}

func applyDelete(t *Task, env Env) (*Outcome, error) {
	if env.Actor.Manager {
		// Managers delete immediately.
		return &Outcome{Deleted: true}, nil
	}

	if t.ApprovalStatus == ApprovalPending && t.PendingAction != PendingNone {
		return nil, fmt.Errorf("%w: %s already pending", ErrInvalidState, t.PendingAction)
	}

	next := t.Clone()
	next.PendingAction = PendingDelete
	next.PendingValue = ""
	next.ApprovalStatus = ApprovalPending
	next.appendActivity(ActivityEntry{
		Action:    "Delete Requested",
		User:      env.Actor.Email,
		Comment:   "Requested deletion",
		Timestamp: env.Now,
	})

	out := &Outcome{Task: next, Pending: true}
	for _, mgr := range env.Managers {
		out.Notices = append(out.Notices, Notice{
			Recipient:    mgr.Email,
			TaskID:       t.ID,
			Title:        "Delete request",
			Message:      fmt.Sprintf("%s requested deletion of %q", env.Actor.DisplayName(), t.Title),
			EmailSubject: "Delete Request: " + t.Title,
			EmailBody:    fmt.Sprintf("%s requested deletion of %q.", env.Actor.DisplayName(), t.Title),
		})
	}
	return out, nil
}

func applyComplete(t *Task, env Env) (*Outcome, error) {
	if !env.Actor.Manager && env.Actor.Email != t.CreatedByEmail {
		return nil, fmt.Errorf("%w: only creator or manager can mark complete", ErrForbidden)
	}

	next := t.Clone()
	now := env.Now
	next.CompletionDate = &now
	next.Stage = StageDone
	next.appendActivity(ActivityEntry{
		Action:    "Task Completed",
		User:      env.Actor.Email,
		Comment:   "Marked completed manually",
		Timestamp: env.Now,
	})

	out := &Outcome{Task: next}
	msg := fmt.Sprintf("%q was marked complete", t.Title)
	if t.AssignedToEmail != "" {
		out.Notices = append(out.Notices, Notice{
			Recipient:    t.AssignedToEmail,
			TaskID:       t.ID,
			Title:        "Task marked complete",
			Message:      msg,
			EmailSubject: "Task completed: " + t.Title,
			EmailBody:    fmt.Sprintf("The task %q has been marked completed by %s.", t.Title, env.Actor.DisplayName()),
		})
	}
	out.Notices = append(out.Notices, Notice{
		Recipient:    t.CreatedByEmail,
		TaskID:       t.ID,
		Title:        "Task marked complete",
		Message:      msg,
		EmailSubject: "Task completed: " + t.Title,
		EmailBody:    fmt.Sprintf("Your task %q was marked completed by %s.", t.Title, env.Actor.DisplayName()),
	})
	for _, mgr := range env.Managers {
		out.Notices = append(out.Notices, Notice{
			Recipient:    mgr.Email,
			TaskID:       t.ID,
			Title:        "Task completed",
			Message:      fmt.Sprintf("%q was completed", t.Title),
			EmailSubject: "Task completed: " + t.Title,
			EmailBody:    fmt.Sprintf("The task %q was marked completed by %s.", t.Title, env.Actor.DisplayName()),
		})
	}
	return out, nil
}

func applyStage(t *Task, c SetStage, env Env) (*Outcome, error) {
	assignee := t.AssignedToEmail != "" && env.Actor.Email == t.AssignedToEmail
	if !assignee && !env.Actor.Manager {
		return nil, fmt.Errorf("%w: only assigned employee or manager can change stage", ErrForbidden)
	}

	next := t.Clone()
	next.Stage = c.Stage
	out := &Outcome{Task: next}

	if c.Stage == StageReview {
		next.appendActivity(ActivityEntry{
			Action:    "Sent For Review",
			User:      env.Actor.Email,
			Comment:   "Task sent for review",
			Timestamp: env.Now,
		})
		out.Notices = append(out.Notices, Notice{
			Recipient: t.CreatedByEmail,
			TaskID:    t.ID,
			Title:     "Task sent for review",
			Message:   fmt.Sprintf("%s sent %q for review", env.Actor.DisplayName(), t.Title),
		})
		for _, mgr := range env.Managers {
			out.Notices = append(out.Notices, Notice{
				Recipient: mgr.Email,
				TaskID:    t.ID,
				Title:     "Review Requested",
				Message:   fmt.Sprintf("%s sent %q for review", env.Actor.DisplayName(), t.Title),
			})
		}
		if t.AssignedToEmail != "" && t.AssignedToEmail != env.Actor.Email {
			out.Notices = append(out.Notices, Notice{
				Recipient: t.AssignedToEmail,
				TaskID:    t.ID,
				Title:     "Task sent for review",
				Message:   fmt.Sprintf("%q was sent for review", t.Title),
			})
		}
		return out, nil
	}

	next.appendActivity(ActivityEntry{
		Action:    "Stage Changed",
		User:      env.Actor.Email,
		Comment:   "Stage -> " + string(c.Stage),
		Timestamp: env.Now,
		OldValue:  string(t.Stage),
		NewValue:  string(c.Stage),
	})
	out.Notices = append(out.Notices, Notice{
		Recipient: t.CreatedByEmail,
		TaskID:    t.ID,
		Title:     "Task status changed",
		Message:   fmt.Sprintf("%s changed status of %q to %s", env.Actor.DisplayName(), t.Title, c.Stage),
	})
	if t.AssignedToEmail != "" && t.AssignedToEmail != env.Actor.Email {
		out.Notices = append(out.Notices, Notice{
			Recipient: t.AssignedToEmail,
			TaskID:    t.ID,
			Title:     "Task status changed",
			Message:   fmt.Sprintf("Status of %q changed to %s", t.Title, c.Stage),
		})
	}
	for _, mgr := range env.Managers {
		out.Notices = append(out.Notices, Notice{
			Recipient: mgr.Email,
			TaskID:    t.ID,
			Title:     "Task status changed",
			Message:   fmt.Sprintf("%s changed status of %q to %s", env.Actor.DisplayName(), t.Title, c.Stage),
		})
	}
	return out, nil
}

func applyEdit(t *Task, c Edit, env Env) (*Outcome, error) {
	if !env.Actor.Manager && env.Actor.Email != t.CreatedByEmail {
		return nil, fmt.Errorf("%w: only creator or manager can edit task fields", ErrForbidden)
	}

	next := t.Clone()
	var parts []string

	if len(c.Attachments) > 0 {
		next.Attachments = append(next.Attachments, c.Attachments...)
		names := make([]string, len(c.Attachments))
		for i, f := range c.Attachments {
			names[i] = f.Name
		}
		next.appendActivity(ActivityEntry{
			Action:    "Files Added",
			User:      env.Actor.Email,
			Comment:   fmt.Sprintf("%d file(s) uploaded", len(c.Attachments)),
			Timestamp: env.Now,
			NewValue:  strings.Join(names, ", "),
		})
		parts = append(parts, fmt.Sprintf("%d file(s) added", len(c.Attachments)))
	}
	if c.Title != nil && *c.Title != t.Title {
		if *c.Title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", ErrInvalidRequest)
		}
		next.appendActivity(ActivityEntry{
			Action:    "Title Changed",
			User:      env.Actor.Email,
			Comment:   "Title -> " + *c.Title,
			Timestamp: env.Now,
			OldValue:  t.Title,
			NewValue:  *c.Title,
		})
		next.Title = *c.Title
		parts = append(parts, fmt.Sprintf("Title updated to %q", *c.Title))
	}
	if c.Brief != nil && *c.Brief != t.Brief {
		next.appendActivity(ActivityEntry{
			Action:    "Brief Changed",
			User:      env.Actor.Email,
			Comment:   "Brief updated",
			Timestamp: env.Now,
		})
		next.Brief = *c.Brief
		parts = append(parts, "Brief updated")
	}
	if c.Priority != nil && *c.Priority != t.Priority {
		next.appendActivity(ActivityEntry{
			Action:    "Priority Changed",
			User:      env.Actor.Email,
			Comment:   "Priority -> " + string(*c.Priority),
			Timestamp: env.Now,
			OldValue:  string(t.Priority),
			NewValue:  string(*c.Priority),
		})
		next.Priority = *c.Priority
	}
	if c.StartDate != nil && !equalTimePtr(c.StartDate, t.StartDate) {
		next.appendActivity(ActivityEntry{
			Action:    "Start Date Changed",
			User:      env.Actor.Email,
			Comment:   "Start date updated",
			Timestamp: env.Now,
			OldValue:  dateValue(t.StartDate),
			NewValue:  dateValue(c.StartDate),
		})
		next.StartDate = c.StartDate
	}
	if c.DueDate != nil && !equalTimePtr(c.DueDate, t.DueDate) {
		next.appendActivity(ActivityEntry{
			Action:    "Due Date Changed",
			User:      env.Actor.Email,
			Comment:   "Due date updated",
			Timestamp: env.Now,
			OldValue:  dateValue(t.DueDate),
			NewValue:  dateValue(c.DueDate),
		})
		next.DueDate = c.DueDate
	}

	out := &Outcome{Task: next}
	if len(parts) == 0 {
		return out, nil
	}

	msg := strings.Join(parts, " • ")
	if next.AssignedToEmail != "" {
		out.Notices = append(out.Notices, Notice{
			Recipient: next.AssignedToEmail,
			TaskID:    t.ID,
			Title:     "Task updated",
			Message:   msg,
		})
	}
	if t.CreatedByEmail != env.Actor.Email {
		out.Notices = append(out.Notices, Notice{
			Recipient: t.CreatedByEmail,
			TaskID:    t.ID,
			Title:     "Task updated",
			Message:   msg,
		})
	}
	for _, mgr := range env.Managers {
		out.Notices = append(out.Notices, Notice{
			Recipient: mgr.Email,
			TaskID:    t.ID,
			Title:     "Task updated",
			Message:   msg,
		})
	}
	return out, nil
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func dateValue(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// Resolve applies a manager's approve/reject decision to whatever is
// pending on the task: a reassign, a delete, or the original creation
// approval.
func Resolve(t *Task, approve bool, env Env) (*Outcome, error) {
	if !env.Actor.Manager {
		return nil, fmt.Errorf("%w: only a manager can resolve approvals", ErrForbidden)
	}
	if t.ApprovalStatus != ApprovalPending {
		return nil, ErrInvalidState
	}

	if !approve {
		next := t.Clone()
		next.ApprovalStatus = ApprovalRejected
		next.PendingAction = PendingNone
		next.PendingValue = ""
		next.appendActivity(ActivityEntry{
			Action:    "Rejected",
			User:      env.Actor.Email,
			Comment:   "Rejected by manager",
			Timestamp: env.Now,
		})
		return &Outcome{
			Task: next,
			Notices: []Notice{{
				Recipient:    t.CreatedByEmail,
				TaskID:       t.ID,
				Title:        "Task action rejected",
				Message:      fmt.Sprintf("%q action rejected by manager", t.Title),
				EmailSubject: "Task rejected: " + t.Title,
				EmailBody:    fmt.Sprintf("Your task %q action was rejected by manager.", t.Title),
			}},
		}, nil
	}

	switch t.PendingAction {
	case PendingReassign:
		next := t.Clone()
		ref := env.ProposedAssignee
		if ref == nil {
			// Assignee left the directory between request and approval.
			// Keep the proposed email so the assignment is not lost.
			ref = &EmployeeRef{Email: t.PendingValue}
		}
		next.AssignedToName = ref.Name
		next.AssignedToEmail = ref.Email
		next.ApprovalStatus = ApprovalApproved
		next.ApprovalRequired = false
		next.PendingAction = PendingNone
		next.PendingValue = ""
		display := ref.Name
		if display == "" {
			display = ref.Email
		}
		next.appendActivity(ActivityEntry{
			Action:    "Reassign Approved",
			User:      env.Actor.Email,
			Comment:   "Assigned to " + display,
			Timestamp: env.Now,
		})
		out := &Outcome{Task: next}
		out.Notices = append(out.Notices, Notice{
			Recipient:    ref.Email,
			TaskID:       t.ID,
			Title:        "You were assigned a task",
			Message:      fmt.Sprintf("You were assigned %q", t.Title),
			EmailSubject: "Assigned: " + t.Title,
			EmailBody:    fmt.Sprintf("You have been assigned task %q (approved by manager).", t.Title),
		})
		out.Notices = append(out.Notices, Notice{
			Recipient:    t.CreatedByEmail,
			TaskID:       t.ID,
			Title:        "Task reassigned",
			Message:      fmt.Sprintf("Task %q was reassigned to %s", t.Title, display),
			EmailSubject: "Task reassigned: " + t.Title,
			EmailBody:    fmt.Sprintf("Your task was reassigned to %s.", display),
		})
		return out, nil

	case PendingDelete:
		return &Outcome{
			Deleted: true,
			Notices: []Notice{{
				Recipient:    t.CreatedByEmail,
				TaskID:       t.ID,
				Title:        "Task deleted",
				Message:      fmt.Sprintf("%q was deleted by manager", t.Title),
				EmailSubject: "Task deleted: " + t.Title,
				EmailBody:    fmt.Sprintf("Your task %q was deleted by manager.", t.Title),
			}},
		}, nil

	default:
		// Creation approval: the task becomes visible to its assignee.
		next := t.Clone()
		next.ApprovalStatus = ApprovalApproved
		next.ApprovalRequired = false
		next.PendingAction = PendingNone
		next.PendingValue = ""
		next.appendActivity(ActivityEntry{
			Action:    "Approved",
			User:      env.Actor.Email,
			Comment:   "Task approved",
			Timestamp: env.Now,
		})
		out := &Outcome{Task: next}
		if t.AssignedToEmail != "" {
			out.Notices = append(out.Notices, Notice{
				Recipient:    t.AssignedToEmail,
				TaskID:       t.ID,
				Title:        "Task approved",
				Message:      fmt.Sprintf("%q has been approved by manager.", t.Title),
				EmailSubject: "Task assigned: " + t.Title,
				EmailBody:    fmt.Sprintf("You have been assigned the task %q (approved by manager).", t.Title),
			})
		}
		out.Notices = append(out.Notices, Notice{
			Recipient:    t.CreatedByEmail,
			TaskID:       t.ID,
			Title:        "Task approved",
			Message:      fmt.Sprintf("%q approved by manager", t.Title),
			EmailSubject: "Task approved: " + t.Title,
			EmailBody:    fmt.Sprintf("Your task %q has been approved by manager.", t.Title),
		})
		return out, nil
	}
}
