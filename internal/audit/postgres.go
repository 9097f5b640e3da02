package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/orgpay/payroll/internal/models"
	"go.uber.org/zap"
)

// Archive persists ledger events to Postgres as an append-only mirror of the
// in-memory audit trail. The archive is an observer: ledger state never reads
// back from it, so a write failure is logged and does not abort the emitting
// operation.
type Archive struct {
	db  *sql.DB
	log *zap.Logger
}

func NewArchive(db *sql.DB, log *zap.Logger) *Archive {
	return &Archive{db: db, log: log.Named("archive")}
}

func (a *Archive) Emit(ctx context.Context, e models.Event) {
	details, _ := json.Marshal(e.Details)
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO ledger_events (event_type, organization_id, recipient, token_address, amount, recipient_count, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.Type, e.Organization, e.Recipient, e.TokenAddress, e.Amount, e.Count, details, e.Timestamp)
	if err != nil {
		a.log.Error("failed to archive event", zap.String("type", e.Type), zap.Error(err))
	}
}

// ArchivedEvent is one row of the events table.
type ArchivedEvent struct {
	ID           int64             `json:"id"`
	Type         string            `json:"type"`
	Organization string            `json:"organization"`
	Recipient    string            `json:"recipient,omitempty"`
	TokenAddress string            `json:"token_address,omitempty"`
	Amount       int64             `json:"amount"`
	Count        int               `json:"count,omitempty"`
	Details      map[string]string `json:"details,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Events returns the most recent archived events for an organization, newest
// first.
func (a *Archive) Events(ctx context.Context, organizationID string, limit int) ([]ArchivedEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, event_type, organization_id, recipient, token_address, amount, recipient_count, details, created_at
		FROM ledger_events
		WHERE organization_id = $1
		ORDER BY id DESC
		LIMIT $2`,
		organizationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ArchivedEvent
	for rows.Next() {
		var e ArchivedEvent
		var details []byte
		if err := rows.Scan(&e.ID, &e.Type, &e.Organization, &e.Recipient, &e.TokenAddress, &e.Amount, &e.Count, &details, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			json.Unmarshal(details, &e.Details)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
