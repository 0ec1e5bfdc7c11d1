package models

import "time"

const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

type Ranking struct {
	ID          string    `json:"id"`
	OwnerUID    string    `json:"owner_uid"`
	OwnerHandle string    `json:"owner_handle,omitempty"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	ShortID     string    `json:"shortid"`
	Visibility  string    `json:"visibility"`
	ItemsCount  int       `json:"items_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RankingItem is one manga's membership in a ranking. The item id equals
// the referenced manga id, so a manga appears at most once per ranking.
// Position is the 1-based dense rank within the ranking.
type RankingItem struct {
	MangaID   string    `json:"manga_id"`
	RankingID string    `json:"ranking_id,omitempty"`
	Position  int       `json:"position"`
	Title     string    `json:"title,omitempty"`
	Author    string    `json:"author,omitempty"`
	CoverURL  string    `json:"cover_url,omitempty"`
	AddedAt   time.Time `json:"added_at"`
}
