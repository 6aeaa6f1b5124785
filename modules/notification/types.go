package notification

import "context"

// ListRequest fetches a recipient's notifications.
type ListRequest struct {
	UserEmail string `json:"user_email"`
}

// ListResponse is the recipient's notifications, newest first.
type ListResponse struct {
	Notifications []*Notification `json:"notifications"`
}

// MarkReadRequest marks all of a recipient's notifications read.
type MarkReadRequest struct {
	UserEmail string `json:"user_email"`
}

// MarkReadResponse reports how many notifications were flipped.
type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}

// NotificationPort is the interface other modules use to query
// in-app notifications.
type NotificationPort interface {
	List(ctx context.Context, userEmail string) ([]*Notification, error)
	MarkAllRead(ctx context.Context, userEmail string) (int64, error)
}
