package models

import "time"

type Anime struct {
	ID        int       `json:"id"`
	UserID    int       `json:"-"`
	Title     string    `json:"title"`
	Rating    int       `json:"rating"`
	Episodes  *int      `json:"episodes,omitempty"`
	Genre     *string   `json:"genre,omitempty"`
	ImagePath *string   `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UpdateAnimeRequest — частичное обновление: nil означает «поле не трогаем».
type UpdateAnimeRequest struct {
	Title     *string `json:"title,omitempty"`
	Rating    *int    `json:"rating,omitempty"`
	Episodes  *int    `json:"episodes,omitempty"`
	Genre     *string `json:"genre,omitempty"`
	ImagePath *string `json:"-"`
}
