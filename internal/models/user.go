package models

import "time"

// User is a trainer account. ID is the trainer identifier that owns clients
// and attendance; AuthID is the subject carried in access tokens.
type User struct {
	ID           string     `db:"id" json:"id"`
	AuthID       string     `db:"auth_id" json:"auth_id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	DisplayName  string     `db:"display_name" json:"display_name"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
