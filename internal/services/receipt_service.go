package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/orgpay/payroll/internal/models"
	"github.com/skip2/go-qrcode"
)

// ReceiptService issues signed QR receipts for recorded payments. The
// receipt payload lives in redis so a scanned code can be verified once.
type ReceiptService struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewReceiptService(redisClient *redis.Client) *ReceiptService {
	return &ReceiptService{
		redis: redisClient,
		ttl:   30 * 24 * time.Hour,
	}
}

// GenerateReceipt encodes a payment into a QR receipt. Returns the receipt
// token and a base64 PNG of the QR image.
func (s *ReceiptService) GenerateReceipt(ctx context.Context, orgID string, payment models.Payment) (string, string, error) {
	receiptData := map[string]any{
		"organizationId": orgID,
		"paymentId":      payment.ID,
		"recipient":      payment.Recipient,
		"tokenAddress":   payment.TokenAddress,
		"amount":         payment.Amount,
		"date":           payment.Timestamp.Unix(),
		"nonce":          s.generateNonce(),
	}

	jsonData, err := json.Marshal(receiptData)
	if err != nil {
		return "", "", err
	}

	receipt := base64.URLEncoding.EncodeToString(jsonData)

	if s.redis != nil {
		key := fmt.Sprintf("receipt:%s", receipt)
		if err := s.redis.Set(ctx, key, jsonData, s.ttl).Err(); err != nil {
			return "", "", err
		}
	}

	qr, err := qrcode.New(receipt, qrcode.Medium)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", "", err
	}

	qrImage := base64.StdEncoding.EncodeToString(buf.Bytes())

	return receipt, qrImage, nil
}

// VerifyReceipt resolves a scanned receipt back to its payment payload.
func (s *ReceiptService) VerifyReceipt(ctx context.Context, receipt string) (map[string]any, error) {
	if s.redis == nil {
		return nil, fmt.Errorf("receipt verification unavailable")
	}
	key := fmt.Sprintf("receipt:%s", receipt)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("invalid or expired receipt")
	}
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *ReceiptService) generateNonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
