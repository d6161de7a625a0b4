package model

import (
	basemodel "food_delivery/pkg/model"
	"time"
)

// 角色
const (
	RoleCustomer   = 1
	RoleStoreOwner = 2
	RoleAdmin      = 9
)

// 账号状态
const (
	StatusNormal  = 0
	StatusBanned  = 1
	StatusDeleted = 2
)

// User 用户模型，手机号 + 验证码登录
type User struct {
	basemodel.BaseModel
	Mobile      string     `gorm:"uniqueIndex;size:20;not null" json:"mobile"`
	Nickname    string     `gorm:"size:64" json:"nickname"`
	AvatarURL   string     `gorm:"size:512" json:"avatarUrl"`
	Email       string     `gorm:"size:128" json:"email,omitempty"`
	Role        int        `gorm:"not null;default:1" json:"role"`
	Status      int        `gorm:"not null;default:0" json:"status"`
	BannedUntil *time.Time `json:"bannedUntil,omitempty"`
}

func (User) TableName() string { return "users" }

// ValidRole 角色是否合法
func ValidRole(role int) bool {
	return role == RoleCustomer || role == RoleStoreOwner || role == RoleAdmin
}

// Actor 发起操作的登录用户
type Actor struct {
	UserID string
	Role   int
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanManage 是否可以管理 ownerID 名下的资源
func (a Actor) CanManage(ownerID string) bool {
	return a.IsAdmin() || (a.UserID != "" && a.UserID == ownerID)
}
