package telegram

import (
	"log/slog"
	"time"

	"github.com/telewall/miniapp-backend/internal/ports/cache"
	"github.com/telewall/miniapp-backend/internal/ports/service"
)

// Сколько помним обработанные update_id (Telegram повторяет доставку не дольше суток)
const updateDedupeTTL = 24 * time.Hour

type Service struct {
	PaymentService service.IPaymentService
	Messenger      service.IMessenger
	Dedupe         cache.Cache // может быть nil
	Log            *slog.Logger
}

func New(
	paymentService service.IPaymentService,
	messenger service.IMessenger,
	dedupe cache.Cache,
	log *slog.Logger,
) *Service {
	return &Service{
		PaymentService: paymentService,
		Messenger:      messenger,
		Dedupe:         dedupe,
		Log:            log,
	}
}
