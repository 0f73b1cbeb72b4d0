package sequence

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fieldops/internal/model"
)

func newMockAllocator(t *testing.T) (*CounterAllocator, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewCounterAllocator(mock), mock
}

func TestCounterAllocator_FirstOfDay(t *testing.T) {
	a, mock := newMockAllocator(t)

	mock.ExpectQuery(`INSERT INTO document_counters`).
		WithArgs("invoice", "20240315").
		WillReturnRows(pgxmock.NewRows([]string{"counter"}).AddRow(1))

	num, err := a.Next(context.Background(), model.KindInvoice, mar15)
	require.NoError(t, err)
	assert.Equal(t, "INV-20240315-0001", num)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCounterAllocator_Increments(t *testing.T) {
	a, mock := newMockAllocator(t)

	mock.ExpectQuery(`INSERT INTO document_counters`).
		WithArgs("quote", "20240315").
		WillReturnRows(pgxmock.NewRows([]string{"counter"}).AddRow(8))

	num, err := a.Next(context.Background(), model.KindQuote, mar15)
	require.NoError(t, err)
	assert.Equal(t, "Q-20240315-0008", num)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCounterAllocator_UTCDate(t *testing.T) {
	a, mock := newMockAllocator(t)

	est := time.FixedZone("EST", -5*3600)
	late := time.Date(2024, 3, 14, 23, 30, 0, 0, est)

	mock.ExpectQuery(`INSERT INTO document_counters`).
		WithArgs("work_order", "20240315").
		WillReturnRows(pgxmock.NewRows([]string{"counter"}).AddRow(1))

	num, err := a.Next(context.Background(), model.KindWorkOrder, late)
	require.NoError(t, err)
	assert.Equal(t, "WO-20240315-0001", num)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCounterAllocator_QueryError(t *testing.T) {
	a, mock := newMockAllocator(t)

	mock.ExpectQuery(`INSERT INTO document_counters`).
		WithArgs("invoice", "20240315").
		WillReturnError(assert.AnError)

	_, err := a.Next(context.Background(), model.KindInvoice, mar15)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allocate invoice counter")
	assert.NoError(t, mock.ExpectationsWereMet())
}
