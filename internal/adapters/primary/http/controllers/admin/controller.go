package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/telewall/miniapp-backend/internal/domain"
)

type Catalog interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.StoreItem, error)
	Upsert(ctx context.Context, item *domain.StoreItem) error
}

type Controller struct {
	Catalog Catalog
	Auth    gin.HandlerFunc
	Log     *slog.Logger
}

func New(
	catalog Catalog,
	auth gin.HandlerFunc,
	log *slog.Logger,
) *Controller {
	return &Controller{
		Catalog: catalog,
		Auth:    auth,
		Log:     log,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	admin := router.Group("/admin", c.Auth)
	{
		admin.POST("/items", c.upsertItem)
		admin.GET("/items/:id", c.getItem)
	}
}

// UpsertItemRequest запрос на создание/обновление товара
type UpsertItemRequest struct {
	ID          string         `json:"id"` // пусто - новый товар
	Name        string         `json:"name" binding:"required"`
	Description string         `json:"description"`
	PriceUnits  int64          `json:"price_units" binding:"required"`
	Category    string         `json:"category"`
	ImageURL    string         `json:"image_url"` // http(s) URL или s3://ключ
	Metadata    domain.JSONMap `json:"metadata"`
	Active      *bool          `json:"active"` // по умолчанию true
}

func (c *Controller) upsertItem(ctx *gin.Context) {
	var req UpsertItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.Log.Warn("failed to bind upsert item request", "error", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	item := &domain.StoreItem{
		Name:        req.Name,
		Description: req.Description,
		PriceUnits:  req.PriceUnits,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		Metadata:    req.Metadata,
		Active:      req.Active == nil || *req.Active,
	}
	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		item.ID = id
	}

	if err := c.Catalog.Upsert(ctx.Request.Context(), item); err != nil {
		if errors.Is(err, domain.ErrInvalidItem) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.Log.Error("failed to upsert item", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"item": item})
}

func (c *Controller) getItem(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}

	item, err := c.Catalog.Get(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		c.Log.Error("failed to get item", "error", err, "store_item_id", id)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"item": item})
}
