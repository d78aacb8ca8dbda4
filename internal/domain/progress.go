package domain

import "time"

// Progress is a per-user-per-module completion record owned by the learning
// API. Percent 100 denotes completion; intermediate values are written only
// if the API already holds them (the client itself reports 0/100 steps).
type Progress struct {
	ID             int64
	UserID         int64
	ModuleID       int64
	Percent        int
	LastPageViewed int
	UpdatedAt      time.Time
}
