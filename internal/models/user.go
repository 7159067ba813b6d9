package models

import "time"

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        *string   `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Newsletter   bool      `json:"newsletter"`
	CreatedAt    time.Time `json:"created_at"`
}
