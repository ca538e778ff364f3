package models

import "time"

// Learner holds the notification settings of a learner. Declared conditions
// live on the adaptive profile.
type Learner struct {
	ID                   string    `json:"id" db:"id"`
	TelegramChatID       int64     `json:"telegram_chat_id" db:"telegram_chat_id"`
	NotificationHour     int       `json:"notification_hour" db:"notification_hour"` // 0-23
	NotificationsEnabled bool      `json:"notifications_enabled" db:"notifications_enabled"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}
