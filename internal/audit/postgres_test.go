package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/orgpay/payroll/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestArchive_Emit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	archive := NewArchive(db, zap.NewNop())
	ctx := context.Background()

	t.Run("inserts one row per event", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO ledger_events").
			WithArgs(models.EventTokenDisbursed, "org-1", "0xr1", "0xusd", int64(10000), 0, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		archive.Emit(ctx, models.Event{
			Type:         models.EventTokenDisbursed,
			Organization: "org-1",
			Recipient:    "0xr1",
			TokenAddress: "0xusd",
			Amount:       10000,
			Timestamp:    time.Now(),
		})

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("write failure does not panic", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO ledger_events").
			WillReturnError(errors.New("connection reset"))

		archive.Emit(ctx, models.Event{Type: models.EventOrganizationCreated, Organization: "org-1"})

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestArchive_Events(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	archive := NewArchive(db, zap.NewNop())
	ctx := context.Background()

	t.Run("returns newest first", func(t *testing.T) {
		now := time.Now()
		rows := sqlmock.NewRows([]string{"id", "event_type", "organization_id", "recipient", "token_address", "amount", "recipient_count", "details", "created_at"}).
			AddRow(2, models.EventTokenDisbursed, "org-1", "0xr1", "0xusd", 10000, 0, []byte(`{"name":"Jordan"}`), now).
			AddRow(1, models.EventRecipientCreated, "org-1", "0xr1", "", 1000, 0, []byte(nil), now)

		mock.ExpectQuery("SELECT id, event_type, organization_id").
			WithArgs("org-1", 50).
			WillReturnRows(rows)

		events, err := archive.Events(ctx, "org-1", 0) // 0 clamps to default 50
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, models.EventTokenDisbursed, events[0].Type)
		assert.Equal(t, "Jordan", events[0].Details["name"])
		assert.Nil(t, events[1].Details)
	})

	t.Run("limit above cap clamps to default", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, event_type, organization_id").
			WithArgs("org-1", 50).
			WillReturnRows(sqlmock.NewRows([]string{"id", "event_type", "organization_id", "recipient", "token_address", "amount", "recipient_count", "details", "created_at"}))

		_, err := archive.Events(ctx, "org-1", 10000)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMultiSink(t *testing.T) {
	var got []string
	a := sinkFunc(func(e models.Event) { got = append(got, "a:"+e.Type) })
	b := sinkFunc(func(e models.Event) { got = append(got, "b:"+e.Type) })

	MultiSink{a, b}.Emit(context.Background(), models.Event{Type: models.EventTokenAdded})
	assert.Equal(t, []string{"a:" + models.EventTokenAdded, "b:" + models.EventTokenAdded}, got)
}

type sinkFunc func(models.Event)

func (f sinkFunc) Emit(_ context.Context, e models.Event) { f(e) }
