package domain

import "time"

// Module is a named unit of learning content composed of ordered pages.
// Progress is the requesting user's completion percent as reported by the
// learning API (0 when no progress record exists).
type Module struct {
	ID          int64
	Title       string
	Description string
	Category    string
	Progress    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
