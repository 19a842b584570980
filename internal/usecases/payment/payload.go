package payment

import (
	"strings"

	"github.com/google/uuid"
)

// payloadPrefix помечает invoice, выставленные этим сервисом
const payloadPrefix = "tw_"

// NewInvoicePayload tw_ + 32 hex символа случайного UUIDv4 (122 бита энтропии)
func NewInvoicePayload() string {
	return payloadPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
