package telegram

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/telewall/miniapp-backend/internal/domain"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// UpdateHandler обработчик апдейтов (services/telegram)
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update *domain.Update) (bool, error)
}

type Controller struct {
	TgService UpdateHandler
	Secret    string
	Log       *slog.Logger
}

func New(tgService UpdateHandler, secret string, log *slog.Logger) *Controller {
	return &Controller{
		TgService: tgService,
		Secret:    secret,
		Log:       log,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	router.POST("/webhook", c.handleWebhook)
}

func (c *Controller) handleWebhook(ctx *gin.Context) {
	secretToken := ctx.GetHeader(secretTokenHeader)
	if c.Secret == "" || subtle.ConstantTimeCompare([]byte(secretToken), []byte(c.Secret)) != 1 {
		c.Log.Warn("webhook request with invalid secret token", "client_ip", ctx.ClientIP())
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var update domain.Update
	if err := ctx.ShouldBindJSON(&update); err != nil {
		c.Log.Error("failed to bind webhook request", "error", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	c.Log.Debug("received webhook update", "update_id", update.UpdateID)

	handled, err := c.TgService.HandleUpdate(ctx.Request.Context(), &update)
	if err != nil {
		c.Log.Error("failed to handle update",
			"error", err,
			"update_id", update.UpdateID,
		)
		// Telegram повторит доставку
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process update"})
		return
	}

	if !handled {
		ctx.JSON(http.StatusAccepted, gin.H{"ok": true, "handled": false})
		return
	}

	// Telegram ожидает 200 OK в ответ
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}
