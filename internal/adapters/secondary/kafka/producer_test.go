package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/telewall/miniapp-backend/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProducer_PublishEntitlementGranted(t *testing.T) {
	mock := mocks.NewSyncProducer(t, NewSaramaConfig(&Config{}))
	event := domain.EntitlementGrantedEvent{
		EntitlementID:  uuid.New(),
		TransactionID:  uuid.New(),
		BuyerProfileID: uuid.New(),
		StoreItemID:    uuid.New(),
		ItemName:       "Sword",
		AmountUnits:    50,
		Currency:       domain.CurrencyStars,
		ChargeID:       "ch_1",
		GrantedAt:      time.Unix(1_700_000_000, 0).UTC(),
	}

	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got domain.EntitlementGrantedEvent
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.TransactionID != event.TransactionID || got.ItemName != "Sword" {
			return errors.New("unexpected payload")
		}
		return nil
	})

	p := NewProducerWith(mock, "entitlements", discardLogger())
	require.NoError(t, p.PublishEntitlementGranted(context.Background(), event))
	require.NoError(t, p.Close())
}

func TestProducer_SendError(t *testing.T) {
	mock := mocks.NewSyncProducer(t, NewSaramaConfig(&Config{}))
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewProducerWith(mock, "entitlements", discardLogger())
	err := p.PublishEntitlementGranted(context.Background(), domain.EntitlementGrantedEvent{TransactionID: uuid.New()})
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}

func TestConfig_GetBrokers(t *testing.T) {
	cfg := Config{Brokers: "a:9092, b:9092"}
	require.True(t, cfg.Enabled())
	require.Equal(t, []string{"a:9092", "b:9092"}, cfg.GetBrokers())

	require.False(t, (&Config{}).Enabled())
}
