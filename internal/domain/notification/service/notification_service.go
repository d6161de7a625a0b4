package service

import (
	"context"
	"errors"
	"food_delivery/internal/domain/notification/model"
	"food_delivery/internal/domain/notification/repository"
	"food_delivery/pkg/utils"

	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationService interface {
	List(ctx context.Context, userID string, unreadOnly bool, p utils.Pagination) (utils.PageResult, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	MarkViewed(ctx context.Context, userID string) (int64, error)
	Notify(ctx context.Context, n *model.Notification) error
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool, p utils.Pagination) (utils.PageResult, error) {
	offset, limit := p.GetPageOffset()
	list, total, err := s.repo.List(ctx, userID, unreadOnly, offset, limit)
	if err != nil {
		return utils.PageResult{}, err
	}
	return utils.NewPageResult(list, total, p), nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id string) error {
	err := s.repo.MarkRead(ctx, userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotificationNotFound
	}
	return err
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *notificationService) MarkViewed(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkViewed(ctx, userID)
}

// Notify 直接写入一条通知 (状态流转之外的提醒)
func (s *notificationService) Notify(ctx context.Context, n *model.Notification) error {
	return s.repo.Create(ctx, n)
}
