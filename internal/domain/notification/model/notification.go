package model

import (
	basemodel "food_delivery/pkg/model"
	"time"
)

// Notification 用户站内提醒
type Notification struct {
	basemodel.Timestamps
	UserID      string     `gorm:"type:uuid;index:idx_notifications_user_read;not null" json:"userId"`
	OrderID     *string    `gorm:"type:uuid;index" json:"orderId,omitempty"`
	Title       string     `gorm:"size:128;not null" json:"title"`
	Description string     `gorm:"size:500;not null" json:"description"`
	Read        bool       `gorm:"index:idx_notifications_user_read;not null" json:"read"`
	Viewed      bool       `gorm:"not null" json:"viewed"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
}

func (Notification) TableName() string { return "notifications" }
