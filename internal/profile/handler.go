package profile

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mangarank/internal/auth"
	"mangarank/internal/blob"
	"mangarank/pkg/models"
)

type Handler struct {
	Repo   *Repo
	Photos *blob.Resolver
}

func NewHandler(repo *Repo, photos *blob.Resolver) *Handler {
	return &Handler{Repo: repo, Photos: photos}
}

// RegisterProtected mounts the owner's profile routes.
func (h *Handler) RegisterProtected(rg *gin.RouterGroup) {
	rg.GET("/profile", h.getMine)
	rg.PUT("/profile", h.update)
}

// RegisterPublic mounts handle lookups for share pages.
func (h *Handler) RegisterPublic(rg *gin.RouterGroup) {
	rg.GET("/:handle", h.getByHandle)
}

func (h *Handler) getMine(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	p, err := h.Repo.GetByUID(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.resolvePhoto(p)
	c.JSON(http.StatusOK, p)
}

type updateReq struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	PhotoURL    *string `json:"photo_url"`
}

func (h *Handler) update(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.DisplayName == nil && req.Bio == nil && req.PhotoURL == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}
	if req.DisplayName != nil && len(*req.DisplayName) > 80 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "display_name too long"})
		return
	}
	if req.Bio != nil && len(*req.Bio) > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bio too long"})
		return
	}

	p, err := h.Repo.Update(c.Request.Context(), claims.UserID, Patch{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.resolvePhoto(p)
	c.JSON(http.StatusOK, p)
}

func (h *Handler) getByHandle(c *gin.Context) {
	handle := strings.TrimSpace(c.Param("handle"))
	if handle == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "handle required"})
		return
	}

	p, err := h.Repo.GetByHandle(c.Request.Context(), handle)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.resolvePhoto(p)
	c.JSON(http.StatusOK, p)
}

func (h *Handler) resolvePhoto(p *models.Profile) {
	if h.Photos != nil {
		p.PhotoURL = h.Photos.Resolve(p.PhotoURL)
	}
}
