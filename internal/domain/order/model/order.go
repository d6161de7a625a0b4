package model

import (
	basemodel "food_delivery/pkg/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order 订单，金额在下单时固化
type Order struct {
	basemodel.Timestamps
	Code            string          `gorm:"size:16;uniqueIndex;not null" json:"code"`
	UserID          string          `gorm:"type:uuid;index;not null" json:"userId"`
	StoreID         string          `gorm:"type:uuid;index;not null" json:"storeId"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Subtotal        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"subtotal"`
	DeliveryFee     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"deliveryFee"`
	DiscountAmount  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"discountAmount"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"totalAmount"`
	Status          Status          `gorm:"type:varchar(20);index;not null" json:"status"`
	StatusLabel     string          `gorm:"-" json:"statusLabel"`
	UserCouponID    *string         `gorm:"type:uuid" json:"userCouponId,omitempty"`
	DeliveryAddress string          `gorm:"size:255;not null" json:"deliveryAddress"`
	Notes           string          `gorm:"size:500" json:"notes,omitempty"`
	CancelReason    string          `gorm:"size:255" json:"cancelReason,omitempty"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) AfterFind(tx *gorm.DB) error {
	o.StatusLabel = o.Status.Label()
	return nil
}

func (o *Order) AfterCreate(tx *gorm.DB) error {
	o.StatusLabel = o.Status.Label()
	return nil
}

// OrderItem 订单明细，名称与单价为下单时快照
type OrderItem struct {
	basemodel.Timestamps
	OrderID   string          `gorm:"type:uuid;index;not null" json:"orderId"`
	ProductID string          `gorm:"type:uuid;not null" json:"productId"`
	Name      string          `gorm:"size:128;not null" json:"name"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unitPrice"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Subtotal  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"subtotal"`
	Notes     string          `gorm:"size:255" json:"notes,omitempty"`
}

func (OrderItem) TableName() string { return "order_items" }
