package domain

import "errors"

// BusinessError ошибка бизнес-логики, которая уже залогирована в UseCase
type BusinessError struct {
	Err error
}

func (e *BusinessError) Error() string {
	return e.Err.Error()
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func WrapBusinessError(err error) error {
	if err == nil {
		return nil
	}
	return &BusinessError{Err: err}
}

func IsBusinessError(err error) bool {
	var businessErr *BusinessError
	return errors.As(err, &businessErr)
}

// Ошибки проверки initData. Наружу все они отдаются как ErrUnauthorized.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrMalformedPayload  = errors.New("malformed payload")
	ErrMalformedIdentity = errors.New("malformed identity")
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrMissingIdentity   = errors.New("missing identity")
	ErrMissingSubjectID  = errors.New("missing subject id")
	ErrExpiredPayload    = errors.New("expired payload")
)

// Ошибки жизненного цикла платежа
var (
	ErrItemNotFound        = errors.New("store item not found")
	ErrInvalidItem         = errors.New("invalid store item")
	ErrPayloadCollision    = errors.New("invoice payload collision")
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
	ErrGatewayRejected     = errors.New("payment gateway rejected request")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidTransition   = errors.New("invalid transaction transition")
	ErrEntitlementExists   = errors.New("entitlement already granted")
	ErrProfileNotFound     = errors.New("profile not found")
)

// RejectionReason машинная причина отказа в аутентификации (для логов и метрик)
type RejectionReason string

const (
	RejectionMalformedPayload  RejectionReason = "malformed_payload"
	RejectionMalformedIdentity RejectionReason = "malformed_identity"
	RejectionSignatureMismatch RejectionReason = "signature_mismatch"
	RejectionMissingIdentity   RejectionReason = "missing_identity"
	RejectionMissingSubjectID  RejectionReason = "missing_subject_id"
	RejectionExpiredPayload    RejectionReason = "expired_payload"
	RejectionUnknown           RejectionReason = "unknown"
)

var rejectionKinds = map[error]RejectionReason{
	ErrMalformedPayload:  RejectionMalformedPayload,
	ErrMalformedIdentity: RejectionMalformedIdentity,
	ErrSignatureMismatch: RejectionSignatureMismatch,
	ErrMissingIdentity:   RejectionMissingIdentity,
	ErrMissingSubjectID:  RejectionMissingSubjectID,
	ErrExpiredPayload:    RejectionExpiredPayload,
}

// AuthError отказ в проверке подписи. Kind - одна из sentinel ошибок выше,
// Cause - техническая деталь (ошибка декодирования и т.п.), может быть nil.
type AuthError struct {
	Kind  error
	Cause error
}

func NewAuthError(kind, cause error) error {
	return &AuthError{Kind: kind, Cause: cause}
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return e.Kind.Error() + ": " + e.Cause.Error()
	}
	return e.Kind.Error()
}

func (e *AuthError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// Is позволяет проверять любой отказ через errors.Is(err, ErrUnauthorized)
func (e *AuthError) Is(target error) bool {
	return target == ErrUnauthorized
}

// Reason возвращает причину отказа
func (e *AuthError) Reason() RejectionReason {
	if reason, ok := rejectionKinds[e.Kind]; ok {
		return reason
	}
	return RejectionUnknown
}

// RejectionReasonOf извлекает причину отказа из произвольной ошибки
func RejectionReasonOf(err error) RejectionReason {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Reason()
	}
	return RejectionUnknown
}
