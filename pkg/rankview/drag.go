package rankview

import (
	"context"
	"sync"

	"mangarank/pkg/models"
)

// Controller converts pointer-drag gestures into a single absolute move
// against a View. It is gesture-library agnostic: whatever recognizes
// the drag calls OnDragStart when the handle is grabbed, then exactly
// one of OnDragEnd or OnDragCancel. While a drag is active the
// underlying row should be hidden (IsActive) and the stand-in overlay
// rendered from ActiveItem.
type Controller struct {
	view *View

	mu       sync.Mutex
	activeID string
}

func NewController(view *View) *Controller {
	return &Controller{view: view}
}

func (c *Controller) OnDragStart(id string) {
	c.mu.Lock()
	c.activeID = id
	c.mu.Unlock()
}

// OnDragEnd drops the active row on targetIndex. Releasing outside any
// drop target (targetIndex < 0), or without an active drag, does
// nothing.
func (c *Controller) OnDragEnd(ctx context.Context, id string, targetIndex int) error {
	c.mu.Lock()
	active := c.activeID
	c.activeID = ""
	c.mu.Unlock()

	if active == "" || active != id || targetIndex < 0 {
		return nil
	}
	return c.view.Move(ctx, id, targetIndex)
}

func (c *Controller) OnDragCancel() {
	c.mu.Lock()
	c.activeID = ""
	c.mu.Unlock()
}

func (c *Controller) IsActive(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID != "" && c.activeID == id
}

// ActiveItem returns the row the overlay clone should display.
func (c *Controller) ActiveItem() (models.RankingItem, bool) {
	c.mu.Lock()
	id := c.activeID
	c.mu.Unlock()
	if id == "" {
		return models.RankingItem{}, false
	}
	return c.view.Item(id)
}
