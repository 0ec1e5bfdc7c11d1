package catalog

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"mangarank/internal/blob"
	"mangarank/pkg/models"
)

type Handler struct {
	Repo   *Repo
	Covers *blob.Resolver
}

func NewHandler(repo *Repo, covers *blob.Resolver) *Handler {
	return &Handler{Repo: repo, Covers: covers}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)           // GET /manga?q=...
	rg.GET("/:id", h.getByID)    // GET /manga/:id
	rg.POST("/batch", h.byIDs)   // POST /manga/batch {"ids": [...]}
}

func (h *Handler) list(c *gin.Context) {
	q := ListQuery{
		Q:      c.Query("q"),
		Limit:  parseInt(c.Query("limit"), 20),
		Offset: parseInt(c.Query("offset"), 0),
	}

	total, err := h.Repo.Count(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}

	items, err := h.Repo.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	h.resolveCovers(items)

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  q.Limit,
		"offset": q.Offset,
		"items":  items,
	})
}

func (h *Handler) getByID(c *gin.Context) {
	id := c.Param("id")
	m, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if h.Covers != nil {
		m.CoverURL = h.Covers.Resolve(m.CoverURL)
		m.CoverThumbURL = h.Covers.Resolve(m.CoverThumbURL)
	}
	c.JSON(http.StatusOK, m)
}

type byIDsReq struct {
	IDs []string `json:"ids"`
}

// byIDs returns a batch in request order; unknown ids are skipped so
// the client can render whatever resolved.
func (h *Handler) byIDs(c *gin.Context) {
	var req byIDsReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids required"})
		return
	}
	if len(req.IDs) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many ids"})
		return
	}

	items, err := h.Repo.GetByIDs(c.Request.Context(), req.IDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "batch failed"})
		return
	}
	h.resolveCovers(items)

	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (h *Handler) resolveCovers(items []models.Manga) {
	if h.Covers == nil {
		return
	}
	for i := range items {
		items[i].CoverURL = h.Covers.Resolve(items[i].CoverURL)
		items[i].CoverThumbURL = h.Covers.Resolve(items[i].CoverThumbURL)
	}
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
