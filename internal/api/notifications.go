package api

import (
	"context"
	"fmt"

	"github.com/kickstart/client/internal/models"
)

// Notifications fetches one page of the notification listing. Pages are
// 1-based; zero or negative values fetch the first page.
func (c *Client) Notifications(ctx context.Context, page int) (models.NotificationPage, error) {
	if page <= 0 {
		page = 1
	}
	var result models.NotificationPage
	if err := c.get(ctx, fmt.Sprintf("%s?page=%d", pathNotifications, page), &result); err != nil {
		return models.NotificationPage{}, err
	}
	return result, nil
}

// UnreadNotificationCount fetches the server-side unread counter.
func (c *Client) UnreadNotificationCount(ctx context.Context) (int, error) {
	var count int
	if err := c.get(ctx, pathNotificationsUnread, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// MarkNotificationRead flags a single notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.patch(ctx, pathNotifications+"/"+id, nil, nil)
}

// MarkAllNotificationsRead flags every notification as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.post(ctx, pathNotificationsReadAll, nil, nil)
}

// DeleteNotification removes a notification server-side.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.delete(ctx, pathNotifications+"/"+id)
}
