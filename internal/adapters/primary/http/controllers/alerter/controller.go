package alerter

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/telewall/miniapp-backend/internal/ports/service"
)

// Controller ручной алерт от оператора или внешнего мониторинга
type Controller struct {
	AlerterService service.IAlerterService
	Auth           gin.HandlerFunc
	Log            *slog.Logger
}

func New(alerterService service.IAlerterService, auth gin.HandlerFunc, log *slog.Logger) *Controller {
	return &Controller{
		AlerterService: alerterService,
		Auth:           auth,
		Log:            log,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	router.POST("/admin/alerts", c.Auth, c.handleAlert)
}

type AlertRequest struct {
	Message string `json:"message" binding:"required"`
	Source  string `json:"source"`
}

func (c *Controller) handleAlert(ctx *gin.Context) {
	var req AlertRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	message := req.Message
	if req.Source != "" {
		message = fmt.Sprintf("🔔 *Source:* %s\n\n%s", req.Source, req.Message)
	}

	if err := c.AlerterService.SendAlert(ctx.Request.Context(), message); err != nil {
		c.Log.Warn("failed to send manual alert",
			"error", err,
			"source", req.Source,
		)
		// 200: алерт уже записан в лог, повтор со стороны отправителя не нужен
		ctx.JSON(http.StatusOK, gin.H{"ok": false, "error": "failed to deliver alert"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}
