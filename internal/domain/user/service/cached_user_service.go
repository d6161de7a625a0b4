package service

import (
	"context"
	"fmt"
	"food_delivery/internal/domain/user/model"
	"food_delivery/pkg/cache"
	"food_delivery/pkg/logger"
	"time"

	"go.uber.org/zap"
)

// 缓存键常量
const (
	UserCacheKeyPrefix = "user:"
	UserCacheTTL       = time.Hour * 2
)

// CachedUserService 带缓存的用户服务，只缓存单个用户资料
type CachedUserService struct {
	UserService
	cache cache.CacheService
}

func NewCachedUserService(inner UserService, c cache.CacheService) UserService {
	return &CachedUserService{UserService: inner, cache: c}
}

func userCacheKey(id string) string {
	return fmt.Sprintf("%s%s", UserCacheKeyPrefix, id)
}

func (s *CachedUserService) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, userCacheKey(id)); err != nil {
		logger.Log.Warn("failed to invalidate user cache", zap.String("user_id", id), zap.Error(err))
	}
}

// GetUser 获取单个用户（带缓存）
func (s *CachedUserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := s.cache.Get(ctx, userCacheKey(id), &user); err == nil {
		return &user, nil
	}

	u, err := s.UserService.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	// 缓存失败不影响业务逻辑
	if err := s.cache.Set(ctx, userCacheKey(id), u, UserCacheTTL); err != nil {
		logger.Log.Warn("failed to cache user", zap.String("user_id", id), zap.Error(err))
	}
	return u, nil
}

func (s *CachedUserService) UpdateProfile(ctx context.Context, id string, in ProfileInput) (*model.User, error) {
	u, err := s.UserService.UpdateProfile(ctx, id, in)
	if err == nil {
		s.invalidate(ctx, id)
	}
	return u, err
}

func (s *CachedUserService) SetRole(ctx context.Context, id string, role int) error {
	err := s.UserService.SetRole(ctx, id, role)
	if err == nil {
		s.invalidate(ctx, id)
	}
	return err
}

func (s *CachedUserService) Ban(ctx context.Context, id string, until *time.Time) error {
	err := s.UserService.Ban(ctx, id, until)
	if err == nil {
		s.invalidate(ctx, id)
	}
	return err
}

func (s *CachedUserService) DeleteUser(ctx context.Context, id string) error {
	err := s.UserService.DeleteUser(ctx, id)
	if err == nil {
		s.invalidate(ctx, id)
	}
	return err
}
