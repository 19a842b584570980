package telegram

import (
	"context"
	"fmt"
	"strconv"

	"github.com/telewall/miniapp-backend/internal/domain"
)

// HandleUpdate Основной метод для обработки всех типов обновлений.
// handled=false - тип апдейта не поддерживается и был проигнорирован.
func (s *Service) HandleUpdate(ctx context.Context, update *domain.Update) (bool, error) {
	if update == nil {
		return false, fmt.Errorf("update is nil")
	}

	if s.seen(ctx, update.UpdateID) {
		s.Log.Info("duplicate update skipped", "update_id", update.UpdateID)
		return true, nil
	}

	var (
		handled bool
		err     error
	)
	switch {
	case update.PreCheckoutQuery != nil:
		handled, err = true, s.HandlePreCheckoutQuery(ctx, update.PreCheckoutQuery, update.UpdateID)
	case update.Message != nil && update.Message.SuccessfulPayment != nil:
		handled, err = true, s.HandleSuccessfulPayment(ctx, update.Message, update.UpdateID)
	default:
		s.Log.Debug("ignoring unsupported update", "update_id", update.UpdateID)
		return false, nil
	}
	if err != nil {
		return handled, err
	}

	s.remember(ctx, update.UpdateID)
	return handled, nil
}

func dedupeKey(updateID int64) string {
	return "tg:update:" + strconv.FormatInt(updateID, 10)
}

// seen ошибки кэша не блокируют обработку: идемпотентность держится на условном переходе
func (s *Service) seen(ctx context.Context, updateID int64) bool {
	if s.Dedupe == nil {
		return false
	}
	exists, err := s.Dedupe.Exists(ctx, dedupeKey(updateID))
	if err != nil {
		s.Log.Warn("failed to check update dedupe cache", "error", err, "update_id", updateID)
		return false
	}
	return exists
}

func (s *Service) remember(ctx context.Context, updateID int64) {
	if s.Dedupe == nil {
		return
	}
	if err := s.Dedupe.Set(ctx, dedupeKey(updateID), "1", updateDedupeTTL); err != nil {
		s.Log.Warn("failed to store update in dedupe cache", "error", err, "update_id", updateID)
	}
}
