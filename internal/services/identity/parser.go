package identity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/telewall/miniapp-backend/internal/domain"
)

// Имена полей initData на стороне Telegram
const (
	SignatureField = "hash"
	IdentityField  = "user"
	IssuedAtField  = "auth_date"
)

// Field одно поле initData (ключ и уже декодированное значение)
type Field struct {
	Key   string
	Value string
}

// SignaturePayload разобранный initData: поля в исходном порядке и отделённая подпись.
// Живёт только в рамках одной проверки.
type SignaturePayload struct {
	Fields    []Field
	Signature string
}

// Get возвращает значение поля и признак его наличия
func (p *SignaturePayload) Get(key string) (string, bool) {
	for _, f := range p.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// ParsePayload разбирает строку вида key=value&key=value.
// Для повторяющихся ключей берётся первое значение.
func ParsePayload(raw string) (*SignaturePayload, error) {
	if raw == "" {
		return nil, domain.NewAuthError(domain.ErrMalformedPayload, fmt.Errorf("empty payload"))
	}

	payload := &SignaturePayload{}
	seen := make(map[string]struct{})
	signatureSeen := false

	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}

		rawKey, rawValue, _ := strings.Cut(part, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, domain.NewAuthError(domain.ErrMalformedPayload, fmt.Errorf("decode key: %w", err))
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, domain.NewAuthError(domain.ErrMalformedPayload, fmt.Errorf("decode value of %q: %w", key, err))
		}

		if key == SignatureField {
			if !signatureSeen {
				payload.Signature = value
				signatureSeen = true
			}
			continue
		}

		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		payload.Fields = append(payload.Fields, Field{Key: key, Value: value})
	}

	if payload.Signature == "" {
		return nil, domain.NewAuthError(domain.ErrMalformedPayload, fmt.Errorf("%s is missing or empty", SignatureField))
	}

	return payload, nil
}

// DecodeIdentity декодирует вложенный JSON пользователя.
// Значение может прийти уже декодированным либо ещё раз percent-encoded;
// на втором слое '+' остаётся плюсом.
func DecodeIdentity(value string) (map[string]any, error) {
	candidate := strings.TrimSpace(value)
	if !strings.HasPrefix(candidate, "{") {
		unescaped, err := url.PathUnescape(candidate)
		if err != nil {
			return nil, domain.NewAuthError(domain.ErrMalformedIdentity, err)
		}
		candidate = unescaped
	}

	decoder := json.NewDecoder(bytes.NewReader([]byte(candidate)))
	decoder.UseNumber()

	var obj map[string]any
	if err := decoder.Decode(&obj); err != nil {
		return nil, domain.NewAuthError(domain.ErrMalformedIdentity, err)
	}
	if obj == nil {
		return nil, domain.NewAuthError(domain.ErrMalformedIdentity, fmt.Errorf("identity is not an object"))
	}

	return obj, nil
}
