package kafka

import (
	"context"

	"github.com/telewall/miniapp-backend/internal/domain"
)

// IEventPublisher публикация доменных событий
type IEventPublisher interface {
	PublishEntitlementGranted(ctx context.Context, event domain.EntitlementGrantedEvent) error
	Close() error
}
