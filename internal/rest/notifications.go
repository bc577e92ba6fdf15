package rest

import (
	"context"
	"fmt"

	"github.com/nvhoang/shopfeed/internal/model"
)

// UserNotifications fetches the user's stored notification history,
// newest first in server order. This is the one-shot snapshot issued at
// session start; live delivery does not depend on it succeeding.
func (c *Client) UserNotifications(
	ctx context.Context,
	userID string,
) ([]model.Notification, error) {
	var list []model.Notification
	err := c.Get(ctx, "/notification/user/"+userID, &list)
	if err != nil {
		return nil, fmt.Errorf("fetching notifications for user %s: %w", userID, err)
	}
	return list, nil
}

// SendUserNotification delivers a notification to one user through the
// backend, which stores it and pushes it on the user's personal
// channel. Returns the stored entry with its server-assigned id.
func (c *Client) SendUserNotification(
	ctx context.Context,
	userID string,
	n model.Notification,
) (model.Notification, error) {
	var created model.Notification
	err := c.Post(ctx, "/notification/user/"+userID, n, &created)
	if err != nil {
		return model.Notification{}, fmt.Errorf("sending notification to user %s: %w", userID, err)
	}
	return created, nil
}

// SendGlobalNotification broadcasts a notification to every connected
// client through the backend's global channel.
func (c *Client) SendGlobalNotification(
	ctx context.Context,
	n model.Notification,
) (model.Notification, error) {
	var created model.Notification
	err := c.Post(ctx, "/notification/all", n, &created)
	if err != nil {
		return model.Notification{}, fmt.Errorf("sending global notification: %w", err)
	}
	return created, nil
}
