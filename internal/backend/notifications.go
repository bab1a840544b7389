package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"nova-client/internal/models"
)

func (a *API) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	var page models.Page[models.Notification]
	if err := a.r.Do(ctx, http.MethodGet, "/notifications/", nil, &page); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return page.Results, nil
}

func (a *API) UnreadCount(ctx context.Context) (int, error) {
	var resp models.UnreadCount
	if err := a.r.Do(ctx, http.MethodGet, "/notifications/unread-count/", nil, &resp); err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return resp.Count, nil
}

func (a *API) MarkNotificationRead(ctx context.Context, id string) error {
	if err := a.r.Do(ctx, http.MethodPost, "/notifications/"+url.PathEscape(id)+"/read/", nil, nil); err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	return nil
}

func (a *API) MarkAllNotificationsRead(ctx context.Context) error {
	if err := a.r.Do(ctx, http.MethodPost, "/notifications/read-all/", nil, nil); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}
