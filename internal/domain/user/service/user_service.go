package service

import (
	"context"
	"errors"
	"food_delivery/internal/domain/user/model"
	"food_delivery/internal/domain/user/repository"
	"food_delivery/internal/pkg/otp"
	"food_delivery/pkg/utils"
	"time"

	"gorm.io/gorm"
)

var (
	ErrInvalidCode  = errors.New("invalid verification code")
	ErrUserBanned   = errors.New("account is banned")
	ErrUserDeleted  = errors.New("account has been deleted")
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidRole  = errors.New("invalid role")
)

// LoginResult 登录结果
type LoginResult struct {
	Token    string      `json:"token"`
	ExpireAt time.Time   `json:"expireAt"`
	User     *model.User `json:"user"`
}

// ProfileInput 资料更新，nil 字段不修改
type ProfileInput struct {
	Nickname  *string `json:"nickname" binding:"omitempty,max=64"`
	AvatarURL *string `json:"avatarUrl" binding:"omitempty,url"`
	Email     *string `json:"email" binding:"omitempty,email"`
}

// UserService 用户服务接口
type UserService interface {
	SendOTP(ctx context.Context, mobile string) error
	LoginOrRegister(ctx context.Context, mobile, code string) (*LoginResult, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUsers(ctx context.Context, page, limit int) ([]model.User, int64, error)
	UpdateProfile(ctx context.Context, id string, in ProfileInput) (*model.User, error)
	SetRole(ctx context.Context, id string, role int) error
	Ban(ctx context.Context, id string, until *time.Time) error
	DeleteUser(ctx context.Context, id string) error
}

type userService struct {
	repo repository.UserRepository
	otp  otp.OTPService
}

func NewUserService(repo repository.UserRepository, otp otp.OTPService) UserService {
	return &userService{repo: repo, otp: otp}
}

func (s *userService) SendOTP(ctx context.Context, mobile string) error {
	_, err := s.otp.Send(ctx, mobile)
	return err
}

// LoginOrRegister 验证码登录，首次登录自动注册为顾客
func (s *userService) LoginOrRegister(ctx context.Context, mobile, code string) (*LoginResult, error) {
	if err := s.otp.Verify(ctx, mobile, code); err != nil {
		return nil, ErrInvalidCode
	}

	user, err := s.repo.GetByMobile(ctx, mobile)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user = &model.User{
			Mobile:   mobile,
			Nickname: "Cliente " + mobile[len(mobile)-4:],
			Role:     model.RoleCustomer,
			Status:   model.StatusNormal,
		}
		if err := s.repo.Create(ctx, user); err != nil {
			return nil, err
		}
	}

	switch user.Status {
	case model.StatusBanned:
		if user.BannedUntil == nil || time.Now().Before(*user.BannedUntil) {
			return nil, ErrUserBanned
		}
		// 封禁到期自动解封
		if err := s.repo.UpdateFields(ctx, user.ID, map[string]interface{}{
			"status":       model.StatusNormal,
			"banned_until": nil,
		}); err != nil {
			return nil, err
		}
		user.Status = model.StatusNormal
		user.BannedUntil = nil
	case model.StatusDeleted:
		return nil, ErrUserDeleted
	}

	token, expireAt, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpireAt: *expireAt, User: user}, nil
}

func (s *userService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *userService) GetUsers(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	p := utils.Pagination{Page: page, Limit: limit}
	offset, limit := p.GetPageOffset()
	return s.repo.GetList(ctx, offset, limit)
}

func (s *userService) UpdateProfile(ctx context.Context, id string, in ProfileInput) (*model.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Nickname != nil {
		user.Nickname = *in.Nickname
	}
	if in.AvatarURL != nil {
		user.AvatarURL = *in.AvatarURL
	}
	if in.Email != nil {
		user.Email = *in.Email
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetRole 管理员调整角色 (如开通商家)
func (s *userService) SetRole(ctx context.Context, id string, role int) error {
	if !model.ValidRole(role) {
		return ErrInvalidRole
	}
	return s.mapNotFound(s.repo.UpdateFields(ctx, id, map[string]interface{}{"role": role}))
}

// Ban until 为 nil 表示永久封禁
func (s *userService) Ban(ctx context.Context, id string, until *time.Time) error {
	return s.mapNotFound(s.repo.UpdateFields(ctx, id, map[string]interface{}{
		"status":       model.StatusBanned,
		"banned_until": until,
	}))
}

// DeleteUser 标记为已注销，而不是真正删除
func (s *userService) DeleteUser(ctx context.Context, id string) error {
	return s.mapNotFound(s.repo.UpdateFields(ctx, id, map[string]interface{}{"status": model.StatusDeleted}))
}

func (s *userService) mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
