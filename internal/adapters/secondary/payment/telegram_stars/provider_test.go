package telegram_stars

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/telewall/miniapp-backend/internal/adapters/secondary/telegram"
	"github.com/telewall/miniapp-backend/internal/domain"
	paymentPort "github.com/telewall/miniapp-backend/internal/ports/payment"
)

type fakeBotAPI struct {
	errs    []error
	calls   int
	lastReq telegram.CreateInvoiceLinkRequest
}

func (f *fakeBotAPI) next() error {
	f.calls++
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeBotAPI) CreateInvoiceLink(_ context.Context, req telegram.CreateInvoiceLinkRequest) (string, error) {
	f.lastReq = req
	if err := f.next(); err != nil {
		return "", err
	}
	return "https://t.me/$invoice", nil
}

func (f *fakeBotAPI) AnswerPreCheckoutQuery(context.Context, string, bool, *string) error {
	return f.next()
}

func newProvider(api BotAPI) *Provider {
	return NewProvider(api, slog.New(slog.NewTextHandler(io.Discard, nil))).WithRetry(3, time.Millisecond)
}

func TestProvider_CreateInvoiceLink(t *testing.T) {
	api := &fakeBotAPI{}
	link, err := newProvider(api).CreateInvoiceLink(context.Background(), paymentPort.CreateInvoiceRequest{
		Title:    "Sword",
		Payload:  "tw_1",
		Currency: domain.CurrencyStars,
		Amount:   50,
	})
	require.NoError(t, err)
	require.Equal(t, "https://t.me/$invoice", link)
	require.Equal(t, []telegram.LabeledPrice{{Label: "Sword", Amount: 50}}, api.lastReq.Prices)
	require.Empty(t, api.lastReq.ProviderToken)
}

func TestProvider_RetriesTransient(t *testing.T) {
	api := &fakeBotAPI{errs: []error{
		&telegram.APIError{ErrorCode: 429},
		errors.New("connection reset"),
	}}

	_, err := newProvider(api).CreateInvoiceLink(context.Background(), paymentPort.CreateInvoiceRequest{Amount: 1})
	require.NoError(t, err)
	require.Equal(t, 3, api.calls)
}

func TestProvider_TransientExhausted(t *testing.T) {
	api := &fakeBotAPI{errs: []error{
		&telegram.APIError{StatusCode: 502},
		&telegram.APIError{StatusCode: 502},
		&telegram.APIError{StatusCode: 502},
	}}

	_, err := newProvider(api).CreateInvoiceLink(context.Background(), paymentPort.CreateInvoiceRequest{Amount: 1})
	require.ErrorIs(t, err, domain.ErrGatewayUnavailable)
	require.Equal(t, 3, api.calls)
}

func TestProvider_RejectedIsNotRetried(t *testing.T) {
	api := &fakeBotAPI{errs: []error{
		&telegram.APIError{ErrorCode: 400, Description: "Bad Request: CURRENCY_INVALID"},
	}}

	err := newProvider(api).AnswerPreCheckout(context.Background(), "q1", true, nil)
	require.ErrorIs(t, err, domain.ErrGatewayRejected)
	require.Equal(t, 1, api.calls)

	var apiErr *telegram.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 400, apiErr.ErrorCode)
}

func TestIsTransient(t *testing.T) {
	require.False(t, IsTransient(nil))
	require.False(t, IsTransient(context.Canceled))
	require.True(t, IsTransient(context.DeadlineExceeded))
	require.True(t, IsTransient(&telegram.APIError{ErrorCode: 500}))
	require.False(t, IsTransient(&telegram.APIError{ErrorCode: 403}))
}
