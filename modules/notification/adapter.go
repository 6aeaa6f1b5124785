package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// notificationAdapter wraps ServiceContainer for type-safe
// cross-module communication with the notification store.
type notificationAdapter struct {
	container mono.ServiceContainer
}

// NewNotificationAdapter creates a new adapter for notification
// services.
func NewNotificationAdapter(container mono.ServiceContainer) NotificationPort {
	if container == nil {
		panic("notification adapter requires non-nil ServiceContainer")
	}
	return &notificationAdapter{container: container}
}

// List returns the recipient's notifications via the list service.
func (a *notificationAdapter) List(ctx context.Context, userEmail string) ([]*Notification, error) {
	req := ListRequest{UserEmail: userEmail}
	var resp ListResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "list", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("list service call failed: %w", err)
	}
	return resp.Notifications, nil
}

// MarkAllRead flips all unread notifications via the mark-read service.
func (a *notificationAdapter) MarkAllRead(ctx context.Context, userEmail string) (int64, error) {
	req := MarkReadRequest{UserEmail: userEmail}
	var resp MarkReadResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "mark-read", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return 0, fmt.Errorf("mark-read service call failed: %w", err)
	}
	return resp.Updated, nil
}
