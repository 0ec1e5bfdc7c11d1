package favorites

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"mangarank/internal/auth"
	"mangarank/internal/catalog"
	"mangarank/internal/sync"
	"mangarank/pkg/models"
)

type Handler struct {
	Repo    *Repo
	Catalog *catalog.Repo
	Hub     *sync.Hub
}

func NewHandler(repo *Repo, catalogRepo *catalog.Repo, hub *sync.Hub) *Handler {
	return &Handler{Repo: repo, Catalog: catalogRepo, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/favorites", h.list)
	rg.PUT("/favorites/:manga_id", h.put)
	rg.DELETE("/favorites/:manga_id", h.remove)
	rg.GET("/favorites/:manga_id", h.getOne)
}

func (h *Handler) put(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	mangaID := strings.TrimSpace(c.Param("manga_id"))
	if mangaID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "manga_id required"})
		return
	}

	fav := models.Favorite{UserID: claims.UserID, MangaID: mangaID}
	// cache display fields from the catalog at write time
	if m, err := h.Catalog.GetByID(c.Request.Context(), mangaID); err == nil && m != nil {
		fav.Title = m.Title
		fav.Author = m.Author
		fav.CoverURL = m.CoverThumbURL
		if fav.CoverURL == "" {
			fav.CoverURL = m.CoverURL
		}
	}

	if err := h.Repo.Put(c.Request.Context(), fav); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	saved, err := h.Repo.Get(c.Request.Context(), claims.UserID, mangaID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch saved failed"})
		return
	}
	if saved == nil {
		saved = &fav
		saved.CreatedAt = time.Now().UTC()
	}

	if h.Hub != nil {
		ev := sync.FavoriteEvent{
			Type:    sync.FavoriteUpdateType,
			UserID:  claims.UserID,
			MangaID: mangaID,
			At:      time.Now().UTC(),
		}
		go h.Hub.BroadcastJSON(ev)
	}

	c.JSON(http.StatusOK, saved)
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := parseInt(c.Query("limit"), 50)
	offset := parseInt(c.Query("offset"), 0)

	items, total, err := h.Repo.List(c.Request.Context(), claims.UserID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"items":  items,
	})
}

func (h *Handler) remove(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	mangaID := strings.TrimSpace(c.Param("manga_id"))
	if mangaID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "manga_id required"})
		return
	}

	ok, err := h.Repo.Remove(c.Request.Context(), claims.UserID, mangaID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if h.Hub != nil {
		ev := sync.FavoriteEvent{
			Type:    sync.FavoriteDeleteType,
			UserID:  claims.UserID,
			MangaID: mangaID,
			At:      time.Now().UTC(),
		}
		go h.Hub.BroadcastJSON(ev)
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) getOne(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	mangaID := strings.TrimSpace(c.Param("manga_id"))
	if mangaID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "manga_id required"})
		return
	}

	f, err := h.Repo.Get(c.Request.Context(), claims.UserID, mangaID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if f == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, f)
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
