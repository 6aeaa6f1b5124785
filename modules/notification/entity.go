package notification

import "time"

// Notification is one durable in-app notification record.
type Notification struct {
	ID             string    `gorm:"primarykey;size:36" json:"id"`
	RecipientEmail string    `gorm:"size:200;index;not null" json:"recipient_email"`
	Title          string    `gorm:"size:200;not null" json:"title"`
	Message        string    `gorm:"size:1000" json:"message"`
	TaskID         string    `gorm:"size:36;index" json:"task_id,omitempty"`
	Read           bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName returns the table name for the Notification model.
func (Notification) TableName() string {
	return "notifications"
}
