package models

import "time"

// Session — строка серверной сессии. Кука несёт подписанный токен с тем же sid;
// строка нужна, чтобы logout действительно гасил сессию на сервере.
type Session struct {
	SID       string    `json:"sid"`
	UserID    int       `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
