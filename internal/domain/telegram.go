package domain

// дока - https://core.telegram.org/bots/api

// Update - входящее обновление от Telegram Bot API
type Update struct {
	UpdateID         int64                    `json:"update_id"`
	Message          *Message                 `json:"message,omitempty"`
	PreCheckoutQuery *TelegramPreCheckoutQuery `json:"pre_checkout_query,omitempty"`
}

// Message - сообщение от Telegram Bot API
type Message struct {
	MessageID         int64                      `json:"message_id"`
	From              *TelegramUser              `json:"from,omitempty"` // отправитель (Telegram User)
	Chat              *Chat                      `json:"chat"`           // чат
	Date              int64                      `json:"date"`           // Unix timestamp
	Text              *string                    `json:"text,omitempty"`
	SuccessfulPayment *TelegramSuccessfulPayment `json:"successful_payment,omitempty"`
}

// TelegramUser - пользователь Telegram (не domain.Profile)
type TelegramUser struct {
	ID           int64   `json:"id"`
	IsBot        bool    `json:"is_bot"`
	FirstName    string  `json:"first_name"`
	LastName     *string `json:"last_name,omitempty"`
	Username     *string `json:"username,omitempty"`
	LanguageCode *string `json:"language_code,omitempty"`
}

// Chat - чат в Telegram
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"` // "private", "group", "supergroup", "channel"
}

// TelegramPreCheckoutQuery - https://core.telegram.org/bots/api#precheckoutquery
type TelegramPreCheckoutQuery struct {
	ID             string        `json:"id"`
	From           *TelegramUser `json:"from,omitempty"`
	Currency       string        `json:"currency"`
	TotalAmount    int64         `json:"total_amount"`
	InvoicePayload string        `json:"invoice_payload"`
}

// TelegramSuccessfulPayment - https://core.telegram.org/bots/api#successfulpayment
type TelegramSuccessfulPayment struct {
	Currency                string `json:"currency"`
	TotalAmount             int64  `json:"total_amount"`
	InvoicePayload          string `json:"invoice_payload"`
	TelegramPaymentChargeID string `json:"telegram_payment_charge_id"`
	ProviderPaymentChargeID string `json:"provider_payment_charge_id"`
}
