package ranking

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"mangarank/internal/auth"
	"mangarank/internal/catalog"
	"mangarank/internal/sync"
	"mangarank/pkg/models"
)

// Notifier pings out-of-band listeners about ranking changes; the UDP
// notify server implements it.
type Notifier interface {
	BroadcastRankingChange(rankingID, ownerUID string)
}

type Handler struct {
	Repo    *Repo
	Catalog *catalog.Repo
	Hub     *sync.Hub
	Notify  Notifier
}

func NewHandler(repo *Repo, catalogRepo *catalog.Repo, hub *sync.Hub) *Handler {
	return &Handler{Repo: repo, Catalog: catalogRepo, Hub: hub}
}

// RegisterPublic mounts share-URL resolution and read access. The group
// should carry optional auth so owners can read their private rankings.
func (h *Handler) RegisterPublic(rg *gin.RouterGroup) {
	rg.GET("/resolve", h.resolve)
	rg.GET("/:id", h.get)
	rg.GET("/:id/items", h.listItems)
}

// RegisterProtected mounts owner operations.
func (h *Handler) RegisterProtected(rg *gin.RouterGroup) {
	rg.POST("/rankings", h.create)
	rg.GET("/rankings", h.listMine)
	rg.DELETE("/rankings/:id", h.remove)
	rg.POST("/rankings/:id/items", h.addItems)
	rg.DELETE("/rankings/:id/items/:manga_id", h.removeItem)
	rg.PUT("/rankings/:id/order", h.reorder)
}

type createReq struct {
	Title      string `json:"title"`
	Visibility string `json:"visibility"`
}

func (h *Handler) create(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}

	rk, err := h.Repo.Create(c.Request.Context(), claims.UserID, claims.Handle, req.Title, req.Visibility)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}

	if h.Hub != nil {
		go h.Hub.BroadcastJSON(sync.RankingEvent{
			Type:      sync.RankingUpdateType,
			RankingID: rk.ID,
			OwnerUID:  rk.OwnerUID,
			At:        time.Now().UTC(),
		})
	}

	c.JSON(http.StatusCreated, rk)
}

func (h *Handler) listMine(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	list, err := h.Repo.ListByOwner(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list, "total": len(list)})
}

// CanRead reports whether the request may see the ranking: public ones
// always, private ones only for their owner.
func (h *Handler) CanRead(c *gin.Context, rankingID string) bool {
	rk, err := h.Repo.GetByID(c.Request.Context(), rankingID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return false
	}
	if rk == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return false
	}
	if rk.Visibility == models.VisibilityPublic {
		return true
	}
	claims := auth.MustGetClaims(c)
	if claims == nil || claims.UserID != rk.OwnerUID {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return false
	}
	return true
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	rk, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if rk == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if rk.Visibility != models.VisibilityPublic {
		claims := auth.MustGetClaims(c)
		if claims == nil || claims.UserID != rk.OwnerUID {
			// hide existence of private rankings
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
	}

	items, err := h.Repo.Items(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list items failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ranking": rk, "items": items})
}

func (h *Handler) listItems(c *gin.Context) {
	id := c.Param("id")
	if !h.CanRead(c, id) {
		return
	}
	items, err := h.Repo.Items(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list items failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

// resolve maps a share URL to a ranking id: either ?handle=&slug= or
// ?short= (which accepts the full "slug-shortid" tail and keeps the
// last dash segment).
func (h *Handler) resolve(c *gin.Context) {
	handle := strings.TrimSpace(c.Query("handle"))
	slug := strings.TrimSpace(c.Query("slug"))
	short := strings.TrimSpace(c.Query("short"))
	if short == "" {
		short = strings.TrimSpace(c.Query("shortid"))
	}

	var err error
	switch {
	case handle != "" && slug != "":
		rk, e := h.Repo.ResolveHandleSlug(c.Request.Context(), handle, slug)
		if e == nil && rk != nil {
			c.JSON(http.StatusOK, rk)
			return
		}
		err = e
	case short != "":
		if i := strings.LastIndexByte(short, '-'); i >= 0 {
			short = short[i+1:]
		}
		rk, e := h.Repo.ResolveShortID(c.Request.Context(), short)
		if e == nil && rk != nil {
			c.JSON(http.StatusOK, rk)
			return
		}
		err = e
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "handle+slug or short required"})
		return
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resolve failed"})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

func (h *Handler) remove(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id := c.Param("id")

	ok, err := h.Repo.Delete(c.Request.Context(), id, claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if h.Hub != nil {
		go h.Hub.BroadcastJSON(sync.RankingEvent{
			Type:      sync.RankingDeleteType,
			RankingID: id,
			OwnerUID:  claims.UserID,
			At:        time.Now().UTC(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type addItemsReq struct {
	Items []struct {
		MangaID string `json:"manga_id"`
	} `json:"items"`
}

func (h *Handler) addItems(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	rk := h.mustOwn(c, claims)
	if rk == nil {
		return
	}

	var req addItemsReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items required"})
		return
	}

	inputs := make([]ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		mangaID := strings.TrimSpace(it.MangaID)
		if mangaID == "" {
			continue
		}
		in := ItemInput{MangaID: mangaID}
		// cache display fields from the catalog at write time
		if m, err := h.Catalog.GetByID(c.Request.Context(), mangaID); err == nil && m != nil {
			in.Title = m.Title
			in.Author = m.Author
			in.CoverURL = m.CoverThumbURL
			if in.CoverURL == "" {
				in.CoverURL = m.CoverURL
			}
		}
		inputs = append(inputs, in)
	}
	if len(inputs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items required"})
		return
	}

	total, err := h.Repo.AddItems(c.Request.Context(), rk.ID, inputs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "add failed"})
		return
	}

	h.publishSnapshot(rk.ID, rk.OwnerUID)
	c.JSON(http.StatusOK, gin.H{"items_count": total})
}

func (h *Handler) removeItem(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	rk := h.mustOwn(c, claims)
	if rk == nil {
		return
	}

	mangaID := strings.TrimSpace(c.Param("manga_id"))
	if mangaID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "manga_id required"})
		return
	}

	ok, err := h.Repo.DeleteItem(c.Request.Context(), rk.ID, mangaID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	h.publishSnapshot(rk.ID, rk.OwnerUID)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type reorderReq struct {
	OrderedIDs []string `json:"ordered_ids"`
}

func (h *Handler) reorder(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	rk := h.mustOwn(c, claims)
	if rk == nil {
		return
	}

	var req reorderReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.OrderedIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ordered_ids required"})
		return
	}

	if err := h.Repo.Reorder(c.Request.Context(), rk.ID, req.OrderedIDs); err != nil {
		switch {
		case errors.Is(err, ErrItemNotFound):
			c.JSON(http.StatusConflict, gin.H{"error": "order references a missing item"})
		case errors.Is(err, ErrOrderIncomplete):
			c.JSON(http.StatusConflict, gin.H{"error": "order must list every item exactly once"})
		case errors.Is(err, ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order"})
		case errors.Is(err, ErrRankingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reorder failed"})
		}
		return
	}

	h.publishSnapshot(rk.ID, rk.OwnerUID)
	c.JSON(http.StatusOK, gin.H{"message": "reordered"})
}

// mustOwn loads the ranking and enforces ownership; replies and returns
// nil on any failure.
func (h *Handler) mustOwn(c *gin.Context, claims *auth.Claims) *models.Ranking {
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	id := c.Param("id")
	rk, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return nil
	}
	if rk == nil || rk.OwnerUID != claims.UserID {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil
	}
	return rk
}

// publishSnapshot pushes the ranking's full ordered item list to its
// subscribers in the background.
func (h *Handler) publishSnapshot(rankingID, ownerUID string) {
	if h.Notify != nil {
		go h.Notify.BroadcastRankingChange(rankingID, ownerUID)
	}
	if h.Hub == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		items, err := h.Repo.Items(ctx, rankingID)
		if err != nil {
			return
		}
		h.Hub.Publish(sync.RankingTopic(rankingID), sync.SnapshotEvent{
			Type:      sync.RankingSnapshotType,
			RankingID: rankingID,
			Items:     items,
			At:        time.Now().UTC(),
		})
	}()
}
