package domain

// User is the profile record resolved from the learning API. IsAdmin gates
// the admin route tree; write enforcement stays server-side.
type User struct {
	ID           int64
	Email        string
	FirstName    string
	LastName     string
	IsAdmin      bool
	SavedModules []int64
}

// UserUpdate carries the changed profile fields for a profile edit.
// NewPassword requires CurrentPassword; empty strings mean "unchanged".
type UserUpdate struct {
	Email           string
	FirstName       string
	LastName        string
	CurrentPassword string
	NewPassword     string
}

// Registration is the payload for account creation.
type Registration struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}
