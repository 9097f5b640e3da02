package audit

import (
	"context"

	"github.com/orgpay/payroll/internal/models"
	"go.uber.org/zap"
)

// LogSink writes every ledger event to the structured log.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log.Named("audit")}
}

func (s *LogSink) Emit(_ context.Context, e models.Event) {
	fields := []zap.Field{
		zap.String("type", e.Type),
		zap.Time("timestamp", e.Timestamp),
	}
	if e.Organization != "" {
		fields = append(fields, zap.String("organization", e.Organization))
	}
	if e.Recipient != "" {
		fields = append(fields, zap.String("recipient", e.Recipient))
	}
	if e.TokenAddress != "" {
		fields = append(fields, zap.String("token", e.TokenAddress))
	}
	if e.Amount != 0 {
		fields = append(fields, zap.Int64("amount", e.Amount))
	}
	if e.Count != 0 {
		fields = append(fields, zap.Int("count", e.Count))
	}
	for k, v := range e.Details {
		fields = append(fields, zap.String(k, v))
	}
	s.log.Info("ledger event", fields...)
}

// MultiSink fans out to every configured sink in order.
type MultiSink []models.EventSink

func (m MultiSink) Emit(ctx context.Context, e models.Event) {
	for _, s := range m {
		s.Emit(ctx, e)
	}
}
