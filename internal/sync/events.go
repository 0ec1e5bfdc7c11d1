package sync

import (
	"time"

	"mangarank/pkg/models"
)

const (
	RankingSnapshotType = "ranking.snapshot"
	RankingUpdateType   = "ranking.update"
	RankingDeleteType   = "ranking.delete"
	FavoriteUpdateType  = "favorite.update"
	FavoriteDeleteType  = "favorite.delete"
)

// SnapshotEvent carries the full ordered item list of one ranking. It
// is the subscription payload: a subscriber receives one on connect and
// one after every mutation touching that ranking's items.
type SnapshotEvent struct {
	Type      string               `json:"type"` // ranking.snapshot
	RankingID string               `json:"ranking_id"`
	Items     []models.RankingItem `json:"items"`
	At        time.Time            `json:"at"`
}

type RankingEvent struct {
	Type      string    `json:"type"` // ranking.update or ranking.delete
	RankingID string    `json:"ranking_id"`
	OwnerUID  string    `json:"owner_uid"`
	At        time.Time `json:"at"`
}

type FavoriteEvent struct {
	Type    string    `json:"type"` // favorite.update or favorite.delete
	UserID  string    `json:"user_id"`
	MangaID string    `json:"manga_id"`
	At      time.Time `json:"at"`
}

// RankingTopic names the hub topic carrying one ranking's snapshots.
func RankingTopic(rankingID string) string {
	return "ranking:" + rankingID
}
