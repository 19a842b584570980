package middlewares

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/telewall/miniapp-backend/internal/domain"
	"github.com/telewall/miniapp-backend/internal/pkg/metrics"
	"github.com/telewall/miniapp-backend/internal/ports/service"
)

const (
	authScheme = "tma"
	profileKey = "telewall.profile"
)

// ProfileResolver находит или создаёт профиль по проверенной identity
type ProfileResolver interface {
	GetOrCreate(ctx context.Context, identity *domain.VerifiedIdentity) (*domain.Profile, error)
}

// TelegramAuth проверяет заголовок "Authorization: tma <initData>" и кладёт профиль в контекст.
// Любой отказ отдаётся одинаковым 401, причина остаётся в логах и метриках.
func TelegramAuth(verifier service.IIdentityVerifier, profiles ProfileResolver, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := initDataFromHeader(c.GetHeader("Authorization"))
		if !ok {
			metrics.AuthRejected("missing_credentials")
			log.Debug("request without mini app credentials", "path", c.Request.URL.Path)
			abortUnauthorized(c)
			return
		}

		identity, err := verifier.Verify(raw)
		if err != nil {
			reason := domain.RejectionReasonOf(err)
			metrics.AuthRejected(string(reason))
			log.Warn("init data rejected",
				"reason", reason,
				"error", err,
				"path", c.Request.URL.Path,
			)
			abortUnauthorized(c)
			return
		}

		profile, err := profiles.GetOrCreate(c.Request.Context(), identity)
		if err != nil {
			log.Error("failed to resolve profile",
				"error", err,
				"external_id", identity.ExternalID,
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(profileKey, profile)
		c.Next()
	}
}

// CurrentProfile профиль, положенный TelegramAuth
func CurrentProfile(c *gin.Context) (*domain.Profile, bool) {
	value, ok := c.Get(profileKey)
	if !ok {
		return nil, false
	}
	profile, ok := value.(*domain.Profile)
	return profile, ok && profile != nil
}

func initDataFromHeader(header string) (string, bool) {
	scheme, value, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, authScheme) {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}
