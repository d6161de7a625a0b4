package repository

import (
	"context"
	couponrepo "food_delivery/internal/domain/coupon/repository"
	"food_delivery/internal/domain/order/model"

	"gorm.io/gorm"
)

// OrderFilter 列表筛选条件，空字段不参与过滤
type OrderFilter struct {
	UserID   string
	StoreID  string
	Statuses []model.Status
}

type OrderRepository interface {
	// Create 写入订单及明细；携带优惠券时在同一事务内核销
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	GetByCode(ctx context.Context, code string) (*model.Order, error)
	List(ctx context.Context, f OrderFilter, offset, limit int) ([]model.Order, int64, error)
	SetCancelReason(ctx context.Context, id, reason string) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		if order.UserCouponID != nil {
			return couponrepo.RedeemTx(tx, *order.UserCouponID, order.UserID, order.ID)
		}
		return nil
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByCode(ctx context.Context, code string) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).Preload("Items").Where("code = ?", code).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, f OrderFilter, offset, limit int) ([]model.Order, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.Order{})
	if f.UserID != "" {
		db = db.Where("user_id = ?", f.UserID)
	}
	if f.StoreID != "" {
		db = db.Where("store_id = ?", f.StoreID)
	}
	if len(f.Statuses) > 0 {
		db = db.Where("status IN ?", f.Statuses)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []model.Order
	err := db.Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error
	return orders, total, err
}

func (r *orderRepository) SetCancelReason(ctx context.Context, id, reason string) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).Update("cancel_reason", reason).Error
}
