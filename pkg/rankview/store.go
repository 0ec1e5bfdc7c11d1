// Package rankview implements the client-side state machine behind the
// ranking management view: a live ordered projection of one ranking's
// items that stays stable under optimistic local reorders while the
// remote store confirms them asynchronously.
package rankview

import (
	"context"

	"mangarank/pkg/models"
)

// SnapshotFunc receives the full current item list of a ranking,
// ordered by position ascending, on every remote change.
type SnapshotFunc func(items []models.RankingItem)

// Store is the document-store collaborator the view depends on. All
// writes are atomic: either every document touched by the call is
// updated, or none are, and partial states are never observable by a
// subsequent snapshot.
type Store interface {
	// Subscribe starts a live subscription on one ranking's item
	// collection. deliver is called with the full ordered result set on
	// every change (including once for the initial state); fail is
	// called on subscription errors. stop tears the subscription down.
	Subscribe(rankingID string, deliver SnapshotFunc, fail func(error)) (stop func(), err error)

	// SaveOrder writes position = index+1 for every id in orderedIDs in
	// one all-or-nothing transaction.
	SaveOrder(ctx context.Context, rankingID string, orderedIDs []string) error

	// DeleteItem removes one membership and decrements the ranking's
	// item count in one all-or-nothing transaction.
	DeleteItem(ctx context.Context, rankingID, mangaID string) error

	// GetManga point-reads catalog display data for one manga.
	GetManga(ctx context.Context, mangaID string) (*models.Manga, error)
}
