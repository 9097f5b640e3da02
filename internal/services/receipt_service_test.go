package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/orgpay/payroll/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptService(t *testing.T) {
	ctx := context.Background()
	payment := models.Payment{
		ID:           "pay-1",
		Recipient:    "0xr1",
		TokenAddress: "0xusd",
		Amount:       10000,
		Timestamp:    time.Unix(1700000000, 0),
	}

	t.Run("generate without redis still yields a QR", func(t *testing.T) {
		service := NewReceiptService(nil)

		receipt, qrImage, err := service.GenerateReceipt(ctx, "org-1", payment)
		require.NoError(t, err)
		assert.NotEmpty(t, receipt)
		assert.NotEmpty(t, qrImage)

		// The receipt token is the base64 payload itself.
		decoded, err := base64.URLEncoding.DecodeString(receipt)
		require.NoError(t, err)
		var payload map[string]any
		require.NoError(t, json.Unmarshal(decoded, &payload))
		assert.Equal(t, "pay-1", payload["paymentId"])
		assert.Equal(t, float64(10000), payload["amount"])

		_, err = base64.StdEncoding.DecodeString(qrImage)
		assert.NoError(t, err)
	})

	t.Run("generate stores payload in redis", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		service := NewReceiptService(client)
		mock.Regexp().ExpectSet(`receipt:.*`, `.*`, 30*24*time.Hour).SetVal("OK")

		receipt, _, err := service.GenerateReceipt(ctx, "org-1", payment)
		require.NoError(t, err)
		assert.NotEmpty(t, receipt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("verify round trip", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		service := NewReceiptService(client)

		payload, _ := json.Marshal(map[string]any{"paymentId": "pay-1", "amount": 10000})
		mock.ExpectGet("receipt:sometoken").SetVal(string(payload))

		result, err := service.VerifyReceipt(ctx, "sometoken")
		require.NoError(t, err)
		assert.Equal(t, "pay-1", result["paymentId"])
	})

	t.Run("expired receipt", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		service := NewReceiptService(client)
		mock.ExpectGet("receipt:gone").RedisNil()

		_, err := service.VerifyReceipt(ctx, "gone")
		assert.ErrorContains(t, err, "invalid or expired receipt")
	})

	t.Run("verify without redis unavailable", func(t *testing.T) {
		service := NewReceiptService(nil)
		_, err := service.VerifyReceipt(ctx, "x")
		assert.Error(t, err)
	})
}
