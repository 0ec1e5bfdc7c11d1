package models

type Manga struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author,omitempty"`
	Description   string `json:"description,omitempty"`
	CoverURL      string `json:"cover_url,omitempty"`
	CoverThumbURL string `json:"cover_thumb_url,omitempty"`
}
