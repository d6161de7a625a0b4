// Package repository holds the reporting queries behind the admin and owner dashboards.
// They run on sqlx against the pgx driver; gorm is kept for the transactional paths.
package repository

import (
	"context"
	"fmt"
	ordermodel "food_delivery/internal/domain/order/model"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Range 左闭右开的时间区间；StoreID 为空表示全平台
type Range struct {
	From    time.Time
	To      time.Time
	StoreID string
}

type Summary struct {
	Orders        int64           `db:"orders" json:"orders"`
	PaidOrders    int64           `db:"paid_orders" json:"paidOrders"`
	Cancelled     int64           `db:"cancelled" json:"cancelled"`
	Revenue       decimal.Decimal `db:"revenue" json:"revenue"`
	AverageTicket decimal.Decimal `db:"-" json:"averageTicket"`
}

type StatusCount struct {
	Status ordermodel.Status `db:"status" json:"status"`
	Label  string            `db:"-" json:"label"`
	Count  int64             `db:"count" json:"count"`
}

type ProductSales struct {
	ProductID string          `db:"product_id" json:"productId"`
	Name      string          `db:"name" json:"name"`
	Quantity  int64           `db:"quantity" json:"quantity"`
	Revenue   decimal.Decimal `db:"revenue" json:"revenue"`
}

type DailySales struct {
	Day     time.Time       `db:"day" json:"day"`
	Orders  int64           `db:"orders" json:"orders"`
	Revenue decimal.Decimal `db:"revenue" json:"revenue"`
}

type DashboardRepository interface {
	Summary(ctx context.Context, r Range) (*Summary, error)
	OrdersByStatus(ctx context.Context, r Range) ([]StatusCount, error)
	TopProducts(ctx context.Context, r Range, limit int) ([]ProductSales, error)
	DailySales(ctx context.Context, r Range) ([]DailySales, error)
}

type dashboardRepository struct {
	db *sqlx.DB
}

func NewDashboardRepository(db *sqlx.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

// 计入营收的订单状态
var revenueStatuses = quoted(
	ordermodel.StatusPaid,
	ordermodel.StatusPreparing,
	ordermodel.StatusReady,
	ordermodel.StatusDelivering,
	ordermodel.StatusDelivered,
)

func quoted(statuses ...ordermodel.Status) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = "'" + string(s) + "'"
	}
	return strings.Join(parts, ",")
}

// $1 起始 $2 结束 $3 门店 (可为 NULL)
const rangeFilter = `o.created_at >= $1 AND o.created_at < $2 AND ($3::uuid IS NULL OR o.store_id = $3::uuid)`

var (
	summaryQuery = fmt.Sprintf(`
SELECT COUNT(*) AS orders,
       COUNT(*) FILTER (WHERE o.status IN (%[1]s)) AS paid_orders,
       COUNT(*) FILTER (WHERE o.status = '%[2]s') AS cancelled,
       COALESCE(SUM(o.total_amount) FILTER (WHERE o.status IN (%[1]s)), 0) AS revenue
FROM orders o
WHERE %[3]s`, revenueStatuses, ordermodel.StatusCancelled, rangeFilter)

	byStatusQuery = fmt.Sprintf(`
SELECT o.status AS status, COUNT(*) AS count
FROM orders o
WHERE %s
GROUP BY o.status
ORDER BY count DESC`, rangeFilter)

	topProductsQuery = fmt.Sprintf(`
SELECT oi.product_id AS product_id, oi.name AS name,
       SUM(oi.quantity) AS quantity, SUM(oi.subtotal) AS revenue
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
WHERE o.status IN (%s) AND %s
GROUP BY oi.product_id, oi.name
ORDER BY quantity DESC, revenue DESC
LIMIT $4`, revenueStatuses, rangeFilter)

	dailyQuery = fmt.Sprintf(`
SELECT date_trunc('day', o.created_at) AS day, COUNT(*) AS orders, COALESCE(SUM(o.total_amount), 0) AS revenue
FROM orders o
WHERE o.status IN (%s) AND %s
GROUP BY 1
ORDER BY 1`, revenueStatuses, rangeFilter)
)

func (r Range) args() []interface{} {
	var store interface{}
	if r.StoreID != "" {
		store = r.StoreID
	}
	return []interface{}{r.From, r.To, store}
}

func (d *dashboardRepository) Summary(ctx context.Context, r Range) (*Summary, error) {
	var s Summary
	if err := d.db.GetContext(ctx, &s, summaryQuery, r.args()...); err != nil {
		return nil, fmt.Errorf("dashboard summary: %w", err)
	}
	if s.PaidOrders > 0 {
		s.AverageTicket = s.Revenue.Div(decimal.NewFromInt(s.PaidOrders)).Round(2)
	}
	return &s, nil
}

func (d *dashboardRepository) OrdersByStatus(ctx context.Context, r Range) ([]StatusCount, error) {
	list := []StatusCount{}
	if err := d.db.SelectContext(ctx, &list, byStatusQuery, r.args()...); err != nil {
		return nil, fmt.Errorf("dashboard orders by status: %w", err)
	}
	for i := range list {
		list[i].Label = list[i].Status.Label()
	}
	return list, nil
}

func (d *dashboardRepository) TopProducts(ctx context.Context, r Range, limit int) ([]ProductSales, error) {
	list := []ProductSales{}
	args := append(r.args(), limit)
	if err := d.db.SelectContext(ctx, &list, topProductsQuery, args...); err != nil {
		return nil, fmt.Errorf("dashboard top products: %w", err)
	}
	return list, nil
}

func (d *dashboardRepository) DailySales(ctx context.Context, r Range) ([]DailySales, error) {
	list := []DailySales{}
	if err := d.db.SelectContext(ctx, &list, dailyQuery, r.args()...); err != nil {
		return nil, fmt.Errorf("dashboard daily sales: %w", err)
	}
	return list, nil
}
