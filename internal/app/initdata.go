package app

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/telewall/miniapp-backend/internal/services/identity"
)

// InitDataUser поля user, которые кладутся в подписанный initData
type InitDataUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// SignInitData собирает initData так же, как его отдаёт Telegram клиенту
func SignInitData(botToken string, user InitDataUser, authDate int64) (string, error) {
	rawUser, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("failed to marshal user: %w", err)
	}

	fields := []identity.Field{
		{Key: identity.IdentityField, Value: string(rawUser)},
		{Key: identity.IssuedAtField, Value: strconv.FormatInt(authDate, 10)},
	}
	fields = append(fields, identity.Field{
		Key:   identity.SignatureField,
		Value: identity.NewVerifier(botToken).Sign(fields),
	})

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = url.QueryEscape(f.Key) + "=" + url.QueryEscape(f.Value)
	}
	return strings.Join(parts, "&"), nil
}
