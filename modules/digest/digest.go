package digest

import (
	"fmt"
	"strings"
	"time"

	domain "github.com/example/team-tasks/domain/task"
)

// Summary is one employee's daily digest, computed over the current
// task set.
type Summary struct {
	Overdue            []*domain.Task
	DueToday           []*domain.Task
	CompletedYesterday []*domain.Task
	PendingApprovals   []*domain.Task
}

// Empty reports whether there is nothing to tell this employee.
func (s Summary) Empty() bool {
	return len(s.Overdue) == 0 && len(s.DueToday) == 0 &&
		len(s.CompletedYesterday) == 0 && len(s.PendingApprovals) == 0
}

// dateOf truncates to a calendar date string for day comparisons.
func dateOf(t time.Time) string {
	return t.Format("2006-01-02")
}

// summarize computes one employee's digest. Assigned tasks feed the
// overdue, due-today and completed-yesterday buckets; created tasks
// awaiting approval feed the pending bucket.
func summarize(tasks []*domain.Task, email string, now time.Time) Summary {
	today := dateOf(now)
	yesterday := dateOf(now.AddDate(0, 0, -1))

	var s Summary
	for _, t := range tasks {
		if t.AssignedToEmail == email {
			if t.DueDate != nil && dateOf(*t.DueDate) < today && !t.Done() {
				s.Overdue = append(s.Overdue, t)
			}
			if t.DueDate != nil && dateOf(*t.DueDate) == today {
				s.DueToday = append(s.DueToday, t)
			}
			if t.CompletionDate != nil && dateOf(*t.CompletionDate) == yesterday {
				s.CompletedYesterday = append(s.CompletedYesterday, t)
			}
		}
		if t.CreatedByEmail == email && t.ApprovalStatus == domain.ApprovalPending {
			s.PendingApprovals = append(s.PendingApprovals, t)
		}
	}
	return s
}

// message is the short in-app notification body.
func (s Summary) message() string {
	return fmt.Sprintf("Overdue: %d, Due Today: %d, Completed Yesterday: %d, Pending Approvals: %d",
		len(s.Overdue), len(s.DueToday), len(s.CompletedYesterday), len(s.PendingApprovals))
}

// emailBody renders the plain-text email digest.
func (s Summary) emailBody(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s, here is your task summary:\n", name)

	section := func(title string, tasks []*domain.Task) {
		fmt.Fprintf(&b, "\n%s (%d)\n", title, len(tasks))
		for _, t := range tasks {
			if t.DueDate != nil {
				fmt.Fprintf(&b, "  - %s (Due: %s)\n", t.Title, dateOf(*t.DueDate))
			} else {
				fmt.Fprintf(&b, "  - %s\n", t.Title)
			}
		}
	}
	section("Overdue Tasks", s.Overdue)
	section("Due Today", s.DueToday)
	section("Completed Yesterday", s.CompletedYesterday)
	section("Pending Approvals", s.PendingApprovals)
	return b.String()
}
