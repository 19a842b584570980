package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/telewall/miniapp-backend/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithConfig(&Config{
		BotToken:       "42:TOKEN",
		APIBaseURL:     srv.URL,
		RequestTimeout: 2 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestClient_CreateInvoiceLink(t *testing.T) {
	var got CreateInvoiceLinkRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bot42:TOKEN/createInvoiceLink", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, `{"ok":true,"result":"https://t.me/$abc"}`)
	})

	link, err := c.CreateInvoiceLink(context.Background(), CreateInvoiceLinkRequest{
		Title:    "Sword",
		Payload:  "tw_1",
		Currency: domain.CurrencyStars,
		Prices:   []LabeledPrice{{Label: "Sword", Amount: 50}},
	})
	require.NoError(t, err)
	require.Equal(t, "https://t.me/$abc", link)
	require.Equal(t, "tw_1", got.Payload)
	require.Equal(t, int64(50), got.Prices[0].Amount)
}

func TestClient_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, `{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":3}}`)
	})

	err := c.AnswerPreCheckoutQuery(context.Background(), "q", true, nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, 429, apiErr.ErrorCode)
	require.Equal(t, 3, apiErr.RetryAfter)
	require.True(t, apiErr.Temporary())
}

func TestClient_NonJSONBodyClassifiedByStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})

	err := c.SendMessage(context.Background(), 1, "hi")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.True(t, apiErr.Temporary())
}

func TestClient_RejectedIsNotTemporary(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	})

	err := c.SendMessage(context.Background(), 1, "hi")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.False(t, apiErr.Temporary())
}

func TestClient_SetWebhook(t *testing.T) {
	var got SetWebhookRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bot42:TOKEN/setWebhook", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, `{"ok":true,"result":true}`)
	})

	require.NoError(t, c.SetWebhook(context.Background(), "https://example.com/webhook", "s3cr3t"))
	require.Equal(t, "s3cr3t", got.SecretToken)
	require.Equal(t, AllowedUpdates, got.AllowedUpdates)
}

func TestPoller_DeliversUpdatesAndAdvancesOffset(t *testing.T) {
	var calls atomic.Int32
	offsets := make(chan int64, 4)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req getUpdatesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		offsets <- req.Offset

		if calls.Add(1) == 1 {
			writeJSON(w, http.StatusOK, `{"ok":true,"result":[
				{"update_id":10,"pre_checkout_query":{"id":"q1","currency":"XTR","total_amount":5,"invoice_payload":"tw_1"}},
				{"update_id":11,"message":{"message_id":1,"chat":{"id":7,"type":"private"},"date":1,
					"successful_payment":{"currency":"XTR","total_amount":5,"invoice_payload":"tw_1","telegram_payment_charge_id":"ch"}}}
			]}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"ok":true,"result":[]}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received []*domain.Update
	handler := func(_ context.Context, u *domain.Update) error {
		received = append(received, u)
		if len(received) == 2 {
			cancel()
		}
		return nil
	}

	p := NewPoller(c, &Config{PollingTimeout: 1}, handler, slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := p.Start(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Len(t, received, 2)
	require.Equal(t, "q1", received[0].PreCheckoutQuery.ID)
	require.Equal(t, "ch", received[1].Message.SuccessfulPayment.TelegramPaymentChargeID)
	require.Equal(t, int64(0), <-offsets)
	require.Equal(t, int64(12), p.lastUpdateID)
}
