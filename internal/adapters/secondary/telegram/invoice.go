package telegram

import (
	"context"
)

// LabeledPrice представляет цену в invoice
type LabeledPrice struct {
	Label  string `json:"label"`  // название позиции
	Amount int64  `json:"amount"` // для Stars - количество звёзд
}

// CreateInvoiceLinkRequest запрос на создание ссылки на invoice (Telegram Stars)
// Документация: https://core.telegram.org/bots/api#createinvoicelink
type CreateInvoiceLinkRequest struct {
	Title         string         `json:"title"`                    // 1-32 символа
	Description   string         `json:"description"`              // 1-255 символов
	Payload       string         `json:"payload"`                  // уникальный payload для идентификации платежа
	ProviderToken string         `json:"provider_token,omitempty"` // для Stars пустой
	Currency      string         `json:"currency"`                 // "XTR" для Stars
	Prices        []LabeledPrice `json:"prices"`                   // для Stars ровно одна позиция
	PhotoURL      *string        `json:"photo_url,omitempty"`
}

// CreateInvoiceLink создаёт ссылку, которую мини-приложение открывает через openInvoice
func (c *Client) CreateInvoiceLink(ctx context.Context, req CreateInvoiceLinkRequest) (string, error) {
	var link string
	if err := c.call(ctx, "createInvoiceLink", req, &link); err != nil {
		return "", err
	}

	c.log.Debug("invoice link created", "payload", req.Payload)
	return link, nil
}

// AnswerPreCheckoutQueryRequest запрос на ответ pre_checkout_query
type AnswerPreCheckoutQueryRequest struct {
	PreCheckoutQueryID string  `json:"pre_checkout_query_id"`
	OK                 bool    `json:"ok"`                      // true - подтвердить, false - отклонить
	ErrorMessage       *string `json:"error_message,omitempty"` // сообщение об ошибке (если ok=false)
}

// AnswerPreCheckoutQuery отвечает на pre_checkout_query (подтверждает или отклоняет платёж)
// Документация: https://core.telegram.org/bots/api#answerprecheckoutquery
func (c *Client) AnswerPreCheckoutQuery(ctx context.Context, queryID string, ok bool, errorMessage *string) error {
	req := AnswerPreCheckoutQueryRequest{
		PreCheckoutQueryID: queryID,
		OK:                 ok,
		ErrorMessage:       errorMessage,
	}
	if err := c.call(ctx, "answerPreCheckoutQuery", req, nil); err != nil {
		return err
	}

	c.log.Debug("pre_checkout_query answered successfully",
		"query_id", queryID,
		"ok", ok,
	)
	return nil
}
