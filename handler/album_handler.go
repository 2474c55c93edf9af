package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/annazecevic/album-service/domain"
	"github.com/annazecevic/album-service/dto"
	"github.com/annazecevic/album-service/logger"
	"github.com/annazecevic/album-service/service"
	"github.com/gin-gonic/gin"
)

type AlbumHandler struct {
	svc  service.AlbumService
	mode StatusMode
}

func NewAlbumHandler(svc service.AlbumService, mode StatusMode) *AlbumHandler {
	if mode == "" {
		mode = StatusStrict
	}
	return &AlbumHandler{svc: svc, mode: mode}
}

func (h *AlbumHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.Health)

	g := r.Group("/albums")
	g.GET("", h.ListAlbums)
	g.GET("/:id", h.GetAlbum)
	g.POST("", h.CreateAlbum)
	g.PUT("/:id", h.UpdateAlbum)
	g.DELETE("/:id", h.DeleteAlbum)
}

// GET /albums
func (h *AlbumHandler) ListAlbums(c *gin.Context) {
	albums, err := h.svc.ListAlbums(c.Request.Context())
	if err != nil {
		h.fail(c, opList, err)
		return
	}
	c.JSON(http.StatusOK, dto.AlbumListResponse{Albums: albums})
}

// GET /albums/:id
func (h *AlbumHandler) GetAlbum(c *gin.Context) {
	album, err := h.svc.GetAlbum(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, opGet, err)
		return
	}
	c.JSON(http.StatusOK, dto.AlbumResponse{Album: album})
}

// POST /albums
func (h *AlbumHandler) CreateAlbum(c *gin.Context) {
	fields, err := h.decode(c)
	if err != nil {
		h.fail(c, opCreate, err)
		return
	}

	album, err := h.svc.CreateAlbum(c.Request.Context(), fields)
	if err != nil {
		h.fail(c, opCreate, err)
		return
	}
	c.Header("Location", "/albums/"+album.ID)
	c.JSON(http.StatusCreated, dto.AlbumCreatedResponse{
		Message: "Album created successfully",
		Album:   album,
	})
}

// PUT /albums/:id
func (h *AlbumHandler) UpdateAlbum(c *gin.Context) {
	id := c.Param("id")
	fields, err := h.decode(c)
	if err != nil {
		// An unknown album is reported as such whatever the body holds.
		if _, lookupErr := h.svc.GetAlbum(c.Request.Context(), id); lookupErr != nil {
			err = lookupErr
		}
		h.fail(c, opUpdate, err)
		return
	}

	if err := h.svc.UpdateAlbum(c.Request.Context(), id, fields); err != nil {
		h.fail(c, opUpdate, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Album updated successfully"})
}

// DELETE /albums/:id
func (h *AlbumHandler) DeleteAlbum(c *gin.Context) {
	if err := h.svc.DeleteAlbum(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, opRemove, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Album deleted successfully"})
}

// GET /health
func (h *AlbumHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.svc.Healthy(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// decode reads the album body. Failures come back as invalid service errors.
func (h *AlbumHandler) decode(c *gin.Context) (domain.AlbumFields, error) {
	var req dto.AlbumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn(logger.EventValidationFailure, "Invalid album request body", logger.Fields(
			"path", c.Request.URL.Path,
			"error", err.Error(),
		))
		return domain.AlbumFields{}, &service.Error{Kind: service.KindInvalid, Detail: "request body must be a JSON album", Err: err}
	}
	fields, err := req.Fields()
	if err != nil {
		logger.Warn(logger.EventValidationFailure, "Incomplete album request", logger.Fields(
			"path", c.Request.URL.Path,
			"error", err.Error(),
		))
		return domain.AlbumFields{}, service.NewInvalid(err)
	}
	return fields, nil
}
