package rankview

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"mangarank/pkg/models"
)

var (
	ErrRankingIDRequired = errors.New("ranking id required")
	ErrUnknownItem       = errors.New("item not in view")
	ErrBadTargetIndex    = errors.New("target index out of range")
)

const mangaFetchTimeout = 5 * time.Second

// Options tune a View. Both callbacks are optional and are invoked
// without the view's lock held.
type Options struct {
	// OnChange fires after a snapshot has been ingested, so a caller can
	// re-render.
	OnChange func()
	// OnError receives surfaced errors: failed writes and subscription
	// failures. They are also retained for LastError.
	OnError func(error)
}

// pendingReorder is the AwaitingConfirmation state: a locally applied
// order whose matching snapshot has not arrived yet.
type pendingReorder struct {
	expected []string
}

// View owns the two local projections of one ranking's items: itemsByID
// (data source of truth) and orderIDs (UI order source of truth,
// deliberately decoupled from the remote-delivered order). A View is
// created when the management screen opens and discarded on close; the
// projections rebuild from the first snapshot on the next open.
type View struct {
	store     Store
	rankingID string
	opts      Options

	mu        sync.Mutex
	itemsByID map[string]models.RankingItem
	orderIDs  []string
	pending   *pendingReorder
	mangas    map[string]*models.Manga
	lastErr   error
	stop      func()
	closed    bool
}

// Open subscribes to the ranking's item collection and returns a live
// view. Close must be called when the screen goes away.
func Open(store Store, rankingID string, opts Options) (*View, error) {
	if rankingID == "" {
		return nil, ErrRankingIDRequired
	}

	v := &View{
		store:     store,
		rankingID: rankingID,
		opts:      opts,
		itemsByID: make(map[string]models.RankingItem),
		mangas:    make(map[string]*models.Manga),
	}

	stop, err := store.Subscribe(rankingID, v.handleSnapshot, v.handleSubscribeError)
	if err != nil {
		return nil, fmt.Errorf("subscribe ranking %s: %w", rankingID, err)
	}
	v.stop = stop
	return v, nil
}

func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	stop := v.stop
	v.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// Move applies "move element id to absolute index target" optimistically
// and issues the matching remote write. Moving an element onto its own
// index is a no-op and performs no remote call. On write failure the
// optimistic order is kept (not rolled back); the error is surfaced and
// the awaiting state cleared so the next snapshot wins.
func (v *View) Move(ctx context.Context, id string, target int) error {
	v.mu.Lock()

	from := indexOf(v.orderIDs, id)
	if from == -1 {
		v.mu.Unlock()
		return fmt.Errorf("move %q: %w", id, ErrUnknownItem)
	}
	if target < 0 || target >= len(v.orderIDs) {
		v.mu.Unlock()
		return fmt.Errorf("move %q to %d: %w", id, target, ErrBadTargetIndex)
	}
	if from == target {
		v.mu.Unlock()
		return nil
	}

	next := MoveID(v.orderIDs, from, target)
	v.orderIDs = next
	expected := make([]string, len(next))
	copy(expected, next)
	v.pending = &pendingReorder{expected: expected}
	v.mu.Unlock()

	if err := v.store.SaveOrder(ctx, v.rankingID, expected); err != nil {
		v.mu.Lock()
		v.pending = nil
		v.mu.Unlock()
		v.surface(fmt.Errorf("save order: %w", err))
		return err
	}
	return nil
}

// Remove deletes an item: both projections drop it immediately, any
// awaited reorder referencing it is abandoned, then the remote delete
// runs. A failed delete surfaces an error without reverting the local
// removal.
func (v *View) Remove(ctx context.Context, id string) error {
	if id == "" {
		return ErrUnknownItem
	}

	v.mu.Lock()
	delete(v.itemsByID, id)
	kept := v.orderIDs[:0:0]
	for _, cur := range v.orderIDs {
		if cur != id {
			kept = append(kept, cur)
		}
	}
	v.orderIDs = kept
	if v.pending != nil && indexOf(v.pending.expected, id) != -1 {
		v.pending = nil
	}
	v.mu.Unlock()

	if err := v.store.DeleteItem(ctx, v.rankingID, id); err != nil {
		v.surface(fmt.Errorf("delete item: %w", err))
		return err
	}
	return nil
}

// handleSnapshot ingests one remote delivery: upserts item data, then
// arbitrates the order. The snapshot's order is never adopted blindly;
// while a reorder is awaited only an exact match is accepted, and in the
// idle state the local order is merged non-destructively so an in-flight
// UI never jumps.
func (v *View) handleSnapshot(items []models.RankingItem) {
	snapshotIDs := make([]string, len(items))
	for i, it := range items {
		snapshotIDs[i] = it.MangaID
	}

	v.mu.Lock()
	for _, it := range items {
		v.itemsByID[it.MangaID] = it
	}
	inSnap := make(map[string]struct{}, len(snapshotIDs))
	for _, id := range snapshotIDs {
		inSnap[id] = struct{}{}
	}
	for id := range v.itemsByID {
		if _, ok := inSnap[id]; !ok {
			delete(v.itemsByID, id)
		}
	}

	switch {
	case len(v.orderIDs) == 0:
		// first snapshot: adopt verbatim
		v.orderIDs = snapshotIDs

	case v.pending != nil:
		if OrdersEqual(snapshotIDs, v.pending.expected) {
			// confirmed by the store
			v.orderIDs = snapshotIDs
			v.pending = nil
		}
		// otherwise: stale or foreign order, keep waiting

	default:
		// idle merge: keep local order for surviving ids, append new
		// ones, drop vanished ones
		kept := make([]string, 0, len(v.orderIDs))
		seen := make(map[string]struct{}, len(v.orderIDs))
		for _, id := range v.orderIDs {
			if _, ok := inSnap[id]; ok {
				kept = append(kept, id)
				seen[id] = struct{}{}
			}
		}
		for _, id := range snapshotIDs {
			if _, ok := seen[id]; !ok {
				kept = append(kept, id)
			}
		}
		v.orderIDs = kept
	}

	missing := make([]string, 0)
	for _, id := range snapshotIDs {
		if _, ok := v.mangas[id]; !ok {
			missing = append(missing, id)
		}
	}
	v.mu.Unlock()

	v.fetchMangas(missing)

	if v.opts.OnChange != nil {
		v.opts.OnChange()
	}
}

// fetchMangas lazily resolves catalog display data for ids the view has
// not seen before. Lookup failures are logged, never surfaced: a row
// without catalog data still renders from its denormalized fields.
func (v *View) fetchMangas(ids []string) {
	for _, id := range ids {
		ctx, cancel := context.WithTimeout(context.Background(), mangaFetchTimeout)
		m, err := v.store.GetManga(ctx, id)
		cancel()
		if err != nil {
			log.Printf("[rankview] fetch manga %s: %v", id, err)
			continue
		}
		// absent docs are cached as nil so they are not re-fetched on
		// every snapshot
		v.mu.Lock()
		v.mangas[id] = m
		v.mu.Unlock()
	}
}

func (v *View) handleSubscribeError(err error) {
	v.surface(fmt.Errorf("subscription: %w", err))
}

func (v *View) surface(err error) {
	v.mu.Lock()
	v.lastErr = err
	v.mu.Unlock()
	if v.opts.OnError != nil {
		v.opts.OnError(err)
	}
}

// Order returns a copy of the current UI order.
func (v *View) Order() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, len(v.orderIDs))
	copy(out, v.orderIDs)
	return out
}

// Items returns the rows to render, in UI order. An id whose data has
// not arrived yet is skipped rather than treated as an error.
func (v *View) Items() []models.RankingItem {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.RankingItem, 0, len(v.orderIDs))
	for _, id := range v.orderIDs {
		if it, ok := v.itemsByID[id]; ok {
			out = append(out, it)
		}
	}
	return out
}

func (v *View) Item(id string) (models.RankingItem, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	it, ok := v.itemsByID[id]
	return it, ok
}

// Manga returns cached catalog data for an item, or nil when the lazy
// fetch has not completed.
func (v *View) Manga(id string) *models.Manga {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mangas[id]
}

// Awaiting reports whether a reorder confirmation is outstanding.
func (v *View) Awaiting() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pending != nil
}

// LastError returns the most recent surfaced error, if any. It is a
// passive banner, not a blocked state: the view stays interactive.
func (v *View) LastError() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

// DismissError clears the surfaced error.
func (v *View) DismissError() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastErr = nil
}
