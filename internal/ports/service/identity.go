package service

import (
	"github.com/telewall/miniapp-backend/internal/domain"
)

// IIdentityVerifier проверка подписанного initData мини-приложения
type IIdentityVerifier interface {
	Verify(raw string) (*domain.VerifiedIdentity, error)
}
