package repository

import (
	"context"
	"errors"
	"food_delivery/internal/domain/coupon/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrCouponUnavailable = errors.New("coupon is not available")
)

type CouponRepository interface {
	Create(ctx context.Context, coupon *model.Coupon) error
	GetByID(ctx context.Context, id string) (*model.Coupon, error)
	List(ctx context.Context, activeAt *time.Time) ([]model.Coupon, error)
	// Persist 扣减库存并写入领取记录 (同一事务，重复领取记录被忽略)
	Persist(ctx context.Context, userID, couponID string) error
	GetUserCoupon(ctx context.Context, id string) (*model.UserCoupon, error)
	ListUserCoupons(ctx context.Context, userID string, status int) ([]model.UserCoupon, error)
}

type couponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Create(ctx context.Context, coupon *model.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

func (r *couponRepository) GetByID(ctx context.Context, id string) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) List(ctx context.Context, activeAt *time.Time) ([]model.Coupon, error) {
	db := r.db.WithContext(ctx)
	if activeAt != nil {
		db = db.Where("start_time <= ? AND end_time > ? AND stock > 0", *activeAt, *activeAt)
	}
	var coupons []model.Coupon
	err := db.Order("end_time ASC").Find(&coupons).Error
	return coupons, err
}

func (r *couponRepository) Persist(ctx context.Context, userID, couponID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		uc := &model.UserCoupon{UserID: userID, CouponID: couponID, Status: model.UserCouponUnused}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(uc)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// 重试任务，已落库
			return nil
		}
		return decreaseStock(tx, couponID)
	})
}

// decreaseStock 乐观锁扣减库存
func decreaseStock(tx *gorm.DB, couponID string) error {
	result := tx.Model(&model.Coupon{}).
		Where("id = ? AND stock > 0", couponID).
		UpdateColumn("stock", gorm.Expr("stock - 1"))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (r *couponRepository) GetUserCoupon(ctx context.Context, id string) (*model.UserCoupon, error) {
	var uc model.UserCoupon
	if err := r.db.WithContext(ctx).Preload("Coupon").Where("id = ?", id).First(&uc).Error; err != nil {
		return nil, err
	}
	return &uc, nil
}

func (r *couponRepository) ListUserCoupons(ctx context.Context, userID string, status int) ([]model.UserCoupon, error) {
	db := r.db.WithContext(ctx).Preload("Coupon").Where("user_id = ?", userID)
	if status > 0 {
		db = db.Where("status = ?", status)
	}
	var list []model.UserCoupon
	err := db.Order("created_at DESC").Find(&list).Error
	return list, err
}

// RedeemTx 在下单事务中核销 (unused -> used)
func RedeemTx(tx *gorm.DB, userCouponID, userID, orderID string) error {
	res := tx.Model(&model.UserCoupon{}).
		Where("id = ? AND user_id = ? AND status = ?", userCouponID, userID, model.UserCouponUnused).
		Updates(map[string]interface{}{
			"status":   model.UserCouponUsed,
			"order_id": orderID,
			"used_at":  time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCouponUnavailable
	}
	return nil
}

// ReleaseTx 订单取消时退回优惠券 (used -> unused)，只退回该订单核销的券
func ReleaseTx(tx *gorm.DB, userCouponID, orderID string) (bool, error) {
	res := tx.Model(&model.UserCoupon{}).
		Where("id = ? AND order_id = ? AND status = ?", userCouponID, orderID, model.UserCouponUsed).
		Updates(map[string]interface{}{
			"status":   model.UserCouponUnused,
			"order_id": nil,
			"used_at":  nil,
		})
	return res.RowsAffected > 0, res.Error
}
