// Package notifications keeps the unread badge and the notification list.
// Every operation is best-effort: failures are logged and swallowed.
package notifications

import (
	"context"
	"sync"
	"time"

	"nova-client/internal/common/logger"
	"nova-client/internal/models"
)

// API is the slice of the backend the store needs.
type API interface {
	ListNotifications(ctx context.Context) ([]models.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

type Store struct {
	api API
	log logger.Logger
	now func() time.Time

	mu            sync.RWMutex
	unreadCount   int
	notifications []models.Notification
}

func NewStore(api API, log logger.Logger) *Store {
	return &Store{
		api: api,
		log: log.WithFields(map[string]interface{}{"component": "notifications"}),
		now: time.Now,
	}
}

func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unreadCount
}

// Notifications returns a copy of the local list.
func (s *Store) Notifications() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

func (s *Store) FetchUnreadCount(ctx context.Context) {
	count, err := s.api.UnreadCount(ctx)
	if err != nil {
		s.log.Debug("unread count fetch failed", map[string]interface{}{"error": err})
		return
	}
	s.mu.Lock()
	s.unreadCount = count
	s.mu.Unlock()
}

// FetchNotifications replaces the local list and recounts unread entries.
// Whatever the server returns wins over earlier optimistic changes.
func (s *Store) FetchNotifications(ctx context.Context) {
	list, err := s.api.ListNotifications(ctx)
	if err != nil {
		s.log.Debug("notification fetch failed", map[string]interface{}{"error": err})
		return
	}
	unread := 0
	for _, n := range list {
		if !n.IsRead {
			unread++
		}
	}
	s.mu.Lock()
	s.notifications = list
	s.unreadCount = unread
	s.mu.Unlock()
}

// MarkAsRead flips the notification locally, then tells the server. The
// badge is decremented unless the entry is known to be read already.
func (s *Store) MarkAsRead(ctx context.Context, id string) {
	now := s.now()
	s.mu.Lock()
	alreadyRead := false
	for i := range s.notifications {
		n := &s.notifications[i]
		if n.ID != id {
			continue
		}
		alreadyRead = n.IsRead
		if !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
		}
		break
	}
	if !alreadyRead && s.unreadCount > 0 {
		s.unreadCount--
	}
	s.mu.Unlock()

	if err := s.api.MarkNotificationRead(ctx, id); err != nil {
		s.log.Debug("mark read failed", map[string]interface{}{"notificationId": id, "error": err})
	}
}

// MarkAllAsRead zeroes the badge locally, then tells the server.
func (s *Store) MarkAllAsRead(ctx context.Context) {
	now := s.now()
	s.mu.Lock()
	for i := range s.notifications {
		n := &s.notifications[i]
		if !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
		}
	}
	s.unreadCount = 0
	s.mu.Unlock()

	if err := s.api.MarkAllNotificationsRead(ctx); err != nil {
		s.log.Debug("mark all read failed", map[string]interface{}{"error": err})
	}
}
