package telegram

import (
	"context"
)

// SetWebhookRequest https://core.telegram.org/bots/api#setwebhook
type SetWebhookRequest struct {
	URL            string   `json:"url"`
	SecretToken    string   `json:"secret_token,omitempty"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

// AllowedUpdates обновления, которые обрабатывает сервис
var AllowedUpdates = []string{"message", "pre_checkout_query"}

// SetWebhook регистрирует URL вебхука
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	req := SetWebhookRequest{
		URL:            url,
		SecretToken:    secret,
		AllowedUpdates: AllowedUpdates,
	}
	if err := c.call(ctx, "setWebhook", req, nil); err != nil {
		return err
	}
	c.log.Info("webhook registered", "url", url)
	return nil
}

// DeleteWebhook удаляет webhook (нужно вызывать перед запуском polling)
func (c *Client) DeleteWebhook(ctx context.Context, dropPending bool) error {
	req := struct {
		DropPendingUpdates bool `json:"drop_pending_updates"`
	}{DropPendingUpdates: dropPending}

	if err := c.call(ctx, "deleteWebhook", req, nil); err != nil {
		return err
	}
	c.log.Info("webhook deleted successfully")
	return nil
}
