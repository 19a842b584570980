package miniapp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/telewall/miniapp-backend/internal/adapters/primary/http/middlewares"
	"github.com/telewall/miniapp-backend/internal/domain"
	"github.com/telewall/miniapp-backend/internal/usecases/payment"
)

type Catalog interface {
	ListActive(ctx context.Context, category string) ([]domain.StoreItem, error)
}

type Purchases interface {
	CreateTransaction(ctx context.Context, buyerProfileID, itemID uuid.UUID) (*payment.CreatedTransaction, error)
	GetTransaction(ctx context.Context, buyerProfileID, transactionID uuid.UUID) (*domain.PaymentTransaction, error)
}

type Inventory interface {
	ListForBuyer(ctx context.Context, buyerProfileID uuid.UUID) ([]domain.GrantedEntitlement, error)
}

// Controller API мини-приложения (/api/v1), все маршруты за TelegramAuth
type Controller struct {
	Catalog   Catalog
	Purchases Purchases
	Inventory Inventory
	Auth      gin.HandlerFunc
	Log       *slog.Logger
}

func New(
	catalog Catalog,
	purchases Purchases,
	inventory Inventory,
	auth gin.HandlerFunc,
	log *slog.Logger,
) *Controller {
	return &Controller{
		Catalog:   catalog,
		Purchases: purchases,
		Inventory: inventory,
		Auth:      auth,
		Log:       log,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1", c.Auth)
	{
		v1.GET("/me", c.me)
		v1.GET("/store/items", c.listItems)
		v1.POST("/store/purchases", c.createPurchase)
		v1.GET("/store/purchases/:id", c.getPurchase)
		v1.GET("/inventory", c.inventory)
	}
}

type CreatePurchaseRequest struct {
	ItemID string `json:"item_id" binding:"required"`
}

func (c *Controller) me(ctx *gin.Context) {
	profile, ok := c.profile(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"profile": profile})
}

func (c *Controller) listItems(ctx *gin.Context) {
	items, err := c.Catalog.ListActive(ctx.Request.Context(), ctx.Query("category"))
	if err != nil {
		c.Log.Error("failed to list store items", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"items": items})
}

func (c *Controller) createPurchase(ctx *gin.Context) {
	profile, ok := c.profile(ctx)
	if !ok {
		return
	}

	var req CreatePurchaseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid item_id"})
		return
	}

	created, err := c.Purchases.CreateTransaction(ctx.Request.Context(), profile.ID, itemID)
	switch {
	case err == nil:
		ctx.JSON(http.StatusCreated, created)
	case errors.Is(err, domain.ErrItemNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
	case errors.Is(err, domain.ErrGatewayUnavailable), errors.Is(err, domain.ErrGatewayRejected):
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway error", "message": err.Error()})
	default:
		c.Log.Error("failed to create purchase",
			"error", err,
			"profile_id", profile.ID,
			"store_item_id", itemID,
		)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func (c *Controller) getPurchase(ctx *gin.Context) {
	profile, ok := c.profile(ctx)
	if !ok {
		return
	}

	transactionID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
		return
	}

	tx, err := c.Purchases.GetTransaction(ctx.Request.Context(), profile.ID, transactionID)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
			return
		}
		c.Log.Error("failed to get purchase", "error", err, "transaction_id", transactionID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"transaction": tx})
}

func (c *Controller) inventory(ctx *gin.Context) {
	profile, ok := c.profile(ctx)
	if !ok {
		return
	}

	entitlements, err := c.Inventory.ListForBuyer(ctx.Request.Context(), profile.ID)
	if err != nil {
		c.Log.Error("failed to list inventory", "error", err, "profile_id", profile.ID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if entitlements == nil {
		entitlements = []domain.GrantedEntitlement{}
	}

	ctx.JSON(http.StatusOK, gin.H{"entitlements": entitlements})
}

func (c *Controller) profile(ctx *gin.Context) (*domain.Profile, bool) {
	profile, ok := middlewares.CurrentProfile(ctx)
	if !ok {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	return profile, true
}
