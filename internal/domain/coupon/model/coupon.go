package model

import (
	baseModel "food_delivery/pkg/model"
	"time"

	"github.com/shopspring/decimal"
)

// 用户券状态
const (
	UserCouponUnused  = 1
	UserCouponUsed    = 2
	UserCouponExpired = 3
)

// Coupon 优惠券定义，StoreID 为空表示全平台可用
type Coupon struct {
	baseModel.BaseModel
	Name      string          `gorm:"type:varchar(100);not null" json:"name"`
	StoreID   *string         `gorm:"type:uuid;index" json:"storeId,omitempty"`
	Total     int             `gorm:"not null" json:"total"`
	Stock     int             `gorm:"not null" json:"stock"` // 剩余库存
	Amount    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	MinOrder  decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"minOrder"`
	StartTime time.Time       `gorm:"not null" json:"startTime"`
	EndTime   time.Time       `gorm:"not null" json:"endTime"`
}

func (Coupon) TableName() string { return "coupons" }

// Within 当前是否在有效期内
func (c *Coupon) Within(now time.Time) bool {
	return !now.Before(c.StartTime) && now.Before(c.EndTime)
}

// UserCoupon 用户领取的优惠券，(user_id, coupon_id) 唯一
type UserCoupon struct {
	baseModel.Timestamps
	UserID   string     `gorm:"type:uuid;not null;uniqueIndex:idx_user_coupon" json:"userId"`
	CouponID string     `gorm:"type:uuid;not null;uniqueIndex:idx_user_coupon" json:"couponId"`
	Coupon   *Coupon    `gorm:"foreignKey:CouponID" json:"coupon,omitempty"`
	Status   int        `gorm:"not null" json:"status"`
	OrderID  *string    `gorm:"type:uuid;index" json:"orderId,omitempty"`
	UsedAt   *time.Time `json:"usedAt,omitempty"`
}

func (UserCoupon) TableName() string { return "user_coupons" }
