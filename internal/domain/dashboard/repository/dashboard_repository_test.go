package repository

import (
	"context"
	"errors"
	ordermodel "food_delivery/internal/domain/order/model"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (DashboardRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDashboardRepository(sqlx.NewDb(db, "pgx")), mock
}

var (
	from = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to   = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
)

func TestSummary(t *testing.T) {
	repo, mock := newMock(t)
	storeID := "5a0c2c2e-6f4b-4f0e-9f6e-2b7f8d1d0001"

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders o")).
		WithArgs(from, to, storeID).
		WillReturnRows(sqlmock.NewRows([]string{"orders", "paid_orders", "cancelled", "revenue"}).
			AddRow(12, 9, 2, "405.00"))

	s, err := repo.Summary(context.Background(), Range{From: from, To: to, StoreID: storeID})
	require.NoError(t, err)
	assert.EqualValues(t, 12, s.Orders)
	assert.EqualValues(t, 9, s.PaidOrders)
	assert.EqualValues(t, 2, s.Cancelled)
	assert.True(t, s.Revenue.Equal(decimal.RequireFromString("405")))
	assert.True(t, s.AverageTicket.Equal(decimal.RequireFromString("45")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryPlatformWideUsesNullStore(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(from, to, nil).
		WillReturnRows(sqlmock.NewRows([]string{"orders", "paid_orders", "cancelled", "revenue"}).AddRow(0, 0, 0, "0"))

	s, err := repo.Summary(context.Background(), Range{From: from, To: to})
	require.NoError(t, err)
	assert.True(t, s.AverageTicket.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrdersByStatus(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("GROUP BY o.status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("delivered", 7).
			AddRow("cancelled", 2))

	list, err := repo.OrdersByStatus(context.Background(), Range{From: from, To: to})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ordermodel.StatusDelivered, list[0].Status)
	assert.Equal(t, "Entregue", list[0].Label)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopProducts(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("FROM order_items oi").
		WithArgs(from, to, nil, 5).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "name", "quantity", "revenue"}).
			AddRow("p1", "X-Burger", 14, "259.00"))

	list, err := repo.TopProducts(context.Background(), Range{From: from, To: to}, 5)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "X-Burger", list[0].Name)
	assert.EqualValues(t, 14, list[0].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDailySalesError(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("date_trunc").WillReturnError(errors.New("connection reset"))

	_, err := repo.DailySales(context.Background(), Range{From: from, To: to})
	assert.ErrorContains(t, err, "dashboard daily sales")
	assert.NoError(t, mock.ExpectationsWereMet())
}
