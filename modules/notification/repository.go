package notification

import (
	"fmt"

	"gorm.io/gorm"
)

// listLimit caps how many notifications a recipient query returns.
const listLimit = 100

// Repository provides access to notification storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new notification repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert saves a new notification.
func (r *Repository) Insert(n *Notification) error {
	if err := r.db.Create(n).Error; err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// ListByRecipient returns the recipient's notifications, newest first,
// capped at listLimit.
func (r *Repository) ListByRecipient(email string) ([]*Notification, error) {
	var notifications []*Notification
	err := r.db.Where("recipient_email = ?", email).
		Order("created_at DESC").
		Limit(listLimit).
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkAllRead flips every unread notification for the recipient to
// read and returns how many were updated.
func (r *Repository) MarkAllRead(email string) (int64, error) {
	result := r.db.Model(&Notification{}).
		Where("recipient_email = ? AND read = ?", email, false).
		Update("read", true)
	if err := result.Error; err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.RowsAffected, nil
}
