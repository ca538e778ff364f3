package bot

import "time"

// Config holds the bot settings.
type Config struct {
	Token string
	// Reminder hour assigned to a learner on /start
	DefaultNotificationHour int
	// Long-poll timeout for getUpdates
	UpdateTimeout time.Duration
	// Max concepts listed by /due
	DueListLimit int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultNotificationHour: 9,
		UpdateTimeout:           60 * time.Second,
		DueListLimit:            10,
	}
}
