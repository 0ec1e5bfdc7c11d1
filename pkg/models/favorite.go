package models

import "time"

type Favorite struct {
	UserID    string    `json:"user_id"`
	MangaID   string    `json:"manga_id"`
	Title     string    `json:"title,omitempty"`
	Author    string    `json:"author,omitempty"`
	CoverURL  string    `json:"cover_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
