package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/telewall/miniapp-backend/internal/domain"
)

// webAppDataKey константа разделения доменов, известная Telegram и нам
const webAppDataKey = "WebAppData"

type Config struct {
	MaxAge time.Duration `envconfig:"MAX_AGE" default:"0s"` // 0 - возраст auth_date не проверяется
}

// Verifier проверяет подпись initData мини-приложения.
// Хранит только производный ключ и не меняется после создания.
type Verifier struct {
	secretKey []byte
	maxAge    time.Duration
	now       func() time.Time
}

// Option настройка верификатора
type Option func(*Verifier)

// WithMaxAge включает проверку свежести auth_date
func WithMaxAge(maxAge time.Duration) Option {
	return func(v *Verifier) {
		v.maxAge = maxAge
	}
}

// WithClock подменяет часы (для тестов)
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		v.now = now
	}
}

func NewVerifier(botToken string, opts ...Option) *Verifier {
	v := &Verifier{
		secretKey: deriveSecretKey(botToken),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify разбирает и проверяет initData с указанным токеном бота
func Verify(raw string, botToken string) (*domain.VerifiedIdentity, error) {
	return NewVerifier(botToken).Verify(raw)
}

// Verify разбирает и проверяет строку initData
func (v *Verifier) Verify(raw string) (*domain.VerifiedIdentity, error) {
	payload, err := ParsePayload(raw)
	if err != nil {
		return nil, err
	}
	return v.VerifyPayload(payload)
}

// VerifyPayload проверяет подпись уже разобранного payload и строит identity
func (v *Verifier) VerifyPayload(payload *SignaturePayload) (*domain.VerifiedIdentity, error) {
	// сравниваем строки целиком: hex в другом регистре тоже несовпадение
	expected := v.Sign(payload.Fields)
	if !hmac.Equal([]byte(expected), []byte(payload.Signature)) {
		return nil, domain.NewAuthError(domain.ErrSignatureMismatch, nil)
	}

	identity, err := buildIdentity(payload)
	if err != nil {
		return nil, err
	}

	if v.maxAge > 0 {
		issued := time.Unix(identity.IssuedAt, 0)
		if identity.IssuedAt == 0 || v.now().Sub(issued) > v.maxAge {
			return nil, domain.NewAuthError(domain.ErrExpiredPayload, fmt.Errorf("issued at %s", issued.UTC().Format(time.RFC3339)))
		}
	}

	return identity, nil
}

// Sign вычисляет hex-подпись набора полей (поле hash в наборе игнорируется)
func (v *Verifier) Sign(fields []Field) string {
	return hex.EncodeToString(v.mac(fields))
}

// CheckString каноническая строка: поля без подписи, отсортированы по ключу, через \n
func CheckString(fields []Field) string {
	sorted := make([]Field, 0, len(fields))
	for _, f := range fields {
		if f.Key == SignatureField {
			continue
		}
		sorted = append(sorted, f)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Key < sorted[j].Key
	})

	lines := make([]string, len(sorted))
	for i, f := range sorted {
		lines[i] = f.Key + "=" + f.Value
	}
	return strings.Join(lines, "\n")
}

func (v *Verifier) mac(fields []Field) []byte {
	h := hmac.New(sha256.New, v.secretKey)
	h.Write([]byte(CheckString(fields)))
	return h.Sum(nil)
}

func deriveSecretKey(botToken string) []byte {
	h := hmac.New(sha256.New, []byte(webAppDataKey))
	h.Write([]byte(botToken))
	return h.Sum(nil)
}

// buildIdentity вызывается только после успешной проверки подписи
func buildIdentity(payload *SignaturePayload) (*domain.VerifiedIdentity, error) {
	rawIdentity, ok := payload.Get(IdentityField)
	if !ok || rawIdentity == "" {
		return nil, domain.NewAuthError(domain.ErrMissingIdentity, nil)
	}

	obj, err := DecodeIdentity(rawIdentity)
	if err != nil {
		return nil, err
	}

	externalID := stringValue(obj["id"])
	if externalID == "" {
		return nil, domain.NewAuthError(domain.ErrMissingSubjectID, nil)
	}

	identity := &domain.VerifiedIdentity{
		ExternalID:  externalID,
		DisplayName: displayName(obj),
		Username:    optionalString(obj, "username"),
		PhotoURL:    optionalString(obj, "photo_url"),
	}

	// auth_date верхнего уровня приоритетнее значения внутри user
	if rawIssued, ok := payload.Get(IssuedAtField); ok && rawIssued != "" {
		issued, err := strconv.ParseInt(rawIssued, 10, 64)
		if err != nil {
			return nil, domain.NewAuthError(domain.ErrMalformedPayload, fmt.Errorf("auth_date: %w", err))
		}
		identity.IssuedAt = issued
	} else if inner := stringValue(obj[IssuedAtField]); inner != "" {
		issued, err := strconv.ParseInt(inner, 10, 64)
		if err != nil {
			return nil, domain.NewAuthError(domain.ErrMalformedIdentity, fmt.Errorf("auth_date: %w", err))
		}
		identity.IssuedAt = issued
	}

	return identity, nil
}

func displayName(obj map[string]any) string {
	name := strings.TrimSpace(strings.Join([]string{
		stringValue(obj["first_name"]),
		stringValue(obj["last_name"]),
	}, " "))
	if name != "" {
		return name
	}
	return stringValue(obj["username"])
}

// optionalString различает отсутствие ключа, null и значение
func optionalString(obj map[string]any, key string) domain.Optional[string] {
	raw, ok := obj[key]
	if !ok {
		return domain.Absent[string]()
	}
	if raw == nil {
		return domain.Null[string]()
	}
	return domain.Some(stringValue(raw))
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
