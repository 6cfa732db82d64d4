// Package users holds the user profile model shared by the storefront session
// and the admin back-office.
package users

import "time"

type User struct {
	ID         int        `json:"id"`                   // Unique identifier for the user
	Email      string     `json:"email"`                // User's email address
	Username   string     `json:"username"`             // Unique username
	FullName   string     `json:"full_name,omitempty"`  // Display name
	IsAdmin    bool       `json:"is_admin,omitempty"`   // Admin flag, set only on back-office accounts
	IsActive   bool       `json:"is_active"`            // Active, can the user log in
	IsVerified bool       `json:"is_verified"`          // Verified, has the user verified who they are
	CreatedAt  *time.Time `json:"created_at,omitempty"` // Date and time when the user registered
	UpdatedAt  *time.Time `json:"updated_at,omitempty"` // Last profile change
}

// Registration is the payload for creating a new storefront account.
type Registration struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}
