package notification

import "time"

type Notification struct {
	ID        int64
	UserID    string
	Title     string
	Body      string
	Read      bool
	CreatedAt time.Time
}
