package service

import (
	"context"
)

// IAlerterService сообщения оператору. Ошибку доставки вызывающий только логирует.
type IAlerterService interface {
	SendAlert(ctx context.Context, message string) error
}
