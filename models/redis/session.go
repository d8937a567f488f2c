package redis

import "time"

// Session is the volatile server-side record behind a bearer token. Exactly
// one active company binding per session; 0 means none selected and game
// endpoints must answer with the redirect-to-selection error.
type Session struct {
	ID              string    `json:"id"` // matches the jwt "sid" claim
	Email           string    `json:"email"`
	Username        string    `json:"username"`
	ActiveCompanyID uint      `json:"active_company_id"`
	CreatedAt       time.Time `json:"created_at"`
}
