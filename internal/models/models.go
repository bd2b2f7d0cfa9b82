package models

import "time"

type Account struct {
	ID          int64
	LoginID     string
	DisplayName string
	PassHash    []byte
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type RecoveryToken struct {
	ID        int64
	AccountID int64
	Token     string
	Used      bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the token's window has closed at the given moment.
func (t *RecoveryToken) IsExpired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// IsConsumable reports whether the token can still be exchanged for a
// password reset: never used and not expired.
func (t *RecoveryToken) IsConsumable(now time.Time) bool {
	return !t.Used && !t.IsExpired(now)
}

type Message struct {
	Email   string `json:"to"`
	Link    string `json:"link"`
	Purpose string `json:"purpose"`
}
