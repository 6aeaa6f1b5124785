package task

// Visible reports whether a single task is exposed to the viewer.
// Managers see everything. Other employees always see tasks they
// created, and tasks assigned to them only once a manager has approved
// the assignment.
func Visible(t *Task, viewerEmail string, manager bool) bool {
	if manager {
		return true
	}
	if t.CreatedByEmail == viewerEmail {
		return true
	}
	if t.AssignedToEmail != "" && t.AssignedToEmail == viewerEmail {
		return t.ApprovalStatus == ApprovalApproved
	}
	return false
}

// FilterVisible returns the subset of tasks the viewer may see,
// preserving order.
func FilterVisible(tasks []*Task, viewerEmail string, manager bool) []*Task {
	visible := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		if Visible(t, viewerEmail, manager) {
			visible = append(visible, t)
		}
	}
	return visible
}
