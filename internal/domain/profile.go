package domain

import (
	"time"

	"github.com/google/uuid"
)

// VerifiedIdentity пользователь, чья подпись initData проверена.
// Создаётся только верификатором, никогда напрямую из входных данных.
type VerifiedIdentity struct {
	ExternalID  string           `json:"external_id"`
	DisplayName string           `json:"display_name"`
	Username    Optional[string] `json:"-"`
	PhotoURL    Optional[string] `json:"-"`
	IssuedAt    int64            `json:"issued_at"`
}

// Profile профиль пользователя мини-приложения
type Profile struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ExternalID  string    `json:"external_id" db:"external_id"` // Telegram user id
	Username    *string   `json:"username,omitempty" db:"username"`
	DisplayName string    `json:"display_name" db:"display_name"`
	PhotoURL    *string   `json:"photo_url,omitempty" db:"photo_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ProfilePatch частичное обновление профиля
type ProfilePatch struct {
	Username    Optional[string]
	DisplayName Optional[string]
	PhotoURL    Optional[string]
}

// IsEmpty нет ни одного изменения
func (p ProfilePatch) IsEmpty() bool {
	return !p.Username.IsSet() && !p.DisplayName.IsSet() && !p.PhotoURL.IsSet()
}

// PatchFromIdentity строит патч профиля по проверенной identity
func PatchFromIdentity(identity *VerifiedIdentity) ProfilePatch {
	patch := ProfilePatch{
		Username: identity.Username,
		PhotoURL: identity.PhotoURL,
	}
	if identity.DisplayName != "" {
		patch.DisplayName = Some(identity.DisplayName)
	}
	return patch
}

// ApplyPatch применяет патч к профилю, возвращает true если что-то изменилось
func (p *Profile) ApplyPatch(patch ProfilePatch) bool {
	changed := false

	if patch.Username.IsSet() {
		next := patch.Username.Apply(p.Username)
		if !equalStringPtr(p.Username, next) {
			p.Username = next
			changed = true
		}
	}

	if name, ok := patch.DisplayName.Get(); ok && name != p.DisplayName {
		p.DisplayName = name
		changed = true
	}

	if patch.PhotoURL.IsSet() {
		next := patch.PhotoURL.Apply(p.PhotoURL)
		if !equalStringPtr(p.PhotoURL, next) {
			p.PhotoURL = next
			changed = true
		}
	}

	return changed
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
