// internal/models/notification.go
package models

import "time"

type Notification struct {
	ID        string                 `json:"id"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Channel   string                 `json:"channel"`
	Category  string                 `json:"category"`
	IsRead    bool                   `json:"is_read"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	ActionURL string                 `json:"action_url,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type UnreadCount struct {
	Count int `json:"count"`
}
