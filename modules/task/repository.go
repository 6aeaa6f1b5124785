package task

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/example/team-tasks/domain/task"
	"gorm.io/gorm"
)

// Retry bounds for the two write races the store has to absorb:
// duplicate task numbers under concurrent creation, and lost updates
// under concurrent mutation of one task.
const (
	maxCreateAttempts = 5
)

// Repository provides access to task storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create assigns the next task_number and inserts the task. The number
// is computed as max+1 inside a transaction; the unique index on
// task_number catches concurrent creations and the insert is retried
// with a fresh number.
func (r *Repository) Create(t *domain.Task) error {
	var lastErr error
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		err := r.db.Transaction(func(tx *gorm.DB) error {
			var max sql.NullInt64
			if err := tx.Model(&domain.Task{}).Select("MAX(task_number)").Scan(&max).Error; err != nil {
				return err
			}
			t.TaskNumber = int(max.Int64) + 1
			return tx.Create(t).Error
		})
		if err == nil {
			return nil
		}
		if isDuplicateKey(err) {
			lastErr = err
			continue
		}
		return fmt.Errorf("failed to create task: %w", err)
	}
	return fmt.Errorf("failed to assign task number after %d attempts: %w", maxCreateAttempts, lastErr)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// FindByID retrieves a task by ID.
func (r *Repository) FindByID(id string) (*domain.Task, error) {
	var t domain.Task
	if err := r.db.First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &t, nil
}

// FindAll retrieves all tasks, newest first.
func (r *Repository) FindAll() ([]*domain.Task, error) {
	var tasks []*domain.Task
	if err := r.db.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Update writes the task conditionally on the version it was read at.
// Returns domain.ErrConflict when a concurrent writer got there first,
// so the caller can reload, recompute the transition and retry. On
// success the task's Version is advanced in place.
func (r *Repository) Update(t *domain.Task) error {
	expected := t.Version
	next := t.Clone()
	next.Version = expected + 1
	next.UpdatedAt = time.Now()

	result := r.db.Model(&domain.Task{}).
		Where("id = ? AND version = ?", t.ID, expected).
		Select("*").Omit("id", "created_at").
		Updates(next)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.RowsAffected == 0 {
		var n int64
		if err := r.db.Model(&domain.Task{}).Where("id = ?", t.ID).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to check task existence: %w", err)
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	t.Version = next.Version
	t.UpdatedAt = next.UpdatedAt
	return nil
}

// Delete removes a task by ID.
func (r *Repository) Delete(id string) error {
	result := r.db.Delete(&domain.Task{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
