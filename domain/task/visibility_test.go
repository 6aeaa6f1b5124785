package task

import "testing"

func TestVisible(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		viewer  string
		manager bool
		want    bool
	}{
		{
			name:    "manager sees everything",
			task:    Task{CreatedByEmail: "alice@example.com", ApprovalStatus: ApprovalPending},
			viewer:  "dana@example.com",
			manager: true,
			want:    true,
		},
		{
			name:   "creator always sees own task",
			task:   Task{CreatedByEmail: "alice@example.com", ApprovalStatus: ApprovalPending},
			viewer: "alice@example.com",
			want:   true,
		},
		{
			name: "assignee blind until approved",
			task: Task{
				CreatedByEmail:  "alice@example.com",
				AssignedToEmail: "bob@example.com",
				ApprovalStatus:  ApprovalPending,
			},
			viewer: "bob@example.com",
			want:   false,
		},
		{
			name: "assignee sees approved task",
			task: Task{
				CreatedByEmail:  "alice@example.com",
				AssignedToEmail: "bob@example.com",
				ApprovalStatus:  ApprovalApproved,
			},
			viewer: "bob@example.com",
			want:   true,
		},
		{
			name: "rejected task hidden from assignee",
			task: Task{
				CreatedByEmail:  "alice@example.com",
				AssignedToEmail: "bob@example.com",
				ApprovalStatus:  ApprovalRejected,
			},
			viewer: "bob@example.com",
			want:   false,
		},
		{
			name:   "unrelated employee sees nothing",
			task:   Task{CreatedByEmail: "alice@example.com", ApprovalStatus: ApprovalApproved},
			viewer: "charlie@example.com",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Visible(&tt.task, tt.viewer, tt.manager); got != tt.want {
				t.Errorf("Visible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterVisible(t *testing.T) {
	tasks := []*Task{
		{ID: "t1", CreatedByEmail: "alice@example.com", ApprovalStatus: ApprovalPending},
		{ID: "t2", CreatedByEmail: "dana@example.com", AssignedToEmail: "alice@example.com", ApprovalStatus: ApprovalApproved},
		{ID: "t3", CreatedByEmail: "dana@example.com", AssignedToEmail: "alice@example.com", ApprovalStatus: ApprovalPending},
		{ID: "t4", CreatedByEmail: "bob@example.com", ApprovalStatus: ApprovalApproved},
	}

	t.Run("employee view", func(t *testing.T) {
		got := FilterVisible(tasks, "alice@example.com", false)
		if len(got) != 2 {
			t.Fatalf("expected 2 visible tasks, got %d", len(got))
		}
		if got[0].ID != "t1" || got[1].ID != "t2" {
			t.Errorf("expected [t1 t2] preserving order, got [%s %s]", got[0].ID, got[1].ID)
		}
	})

	t.Run("manager view", func(t *testing.T) {
		got := FilterVisible(tasks, "dana@example.com", true)
		if len(got) != len(tasks) {
			t.Errorf("expected all %d tasks, got %d", len(tasks), len(got))
		}
	})
}
