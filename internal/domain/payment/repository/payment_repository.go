package repository

import (
	"context"
	"errors"
	"food_delivery/internal/domain/payment/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateEvent 同一渠道事件已经处理过
var ErrDuplicateEvent = errors.New("webhook event already recorded")

type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByID(ctx context.Context, id string) (*model.Payment, error)
	GetByProviderID(ctx context.Context, provider, providerID string) (*model.Payment, error)
	GetByChargeID(ctx context.Context, provider, chargeID string) (*model.Payment, error)
	// GetActiveByOrder 订单当前未失败的支付，没有时返回 gorm.ErrRecordNotFound
	GetActiveByOrder(ctx context.Context, orderID string) (*model.Payment, error)
	GetLatestByOrder(ctx context.Context, orderID string) (*model.Payment, error)
	// SaveGatewayData 写入网关返回的展示字段 (不修改状态)
	SaveGatewayData(ctx context.Context, id string, fields map[string]interface{}) error
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]model.Payment, error)

	// RecordEvent 写入回调事件；重复事件且已处理时返回 ErrDuplicateEvent
	RecordEvent(ctx context.Context, ev *model.WebhookEvent) error
	FinishEvent(ctx context.Context, id, status, errMsg string) error
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *model.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *paymentRepository) first(ctx context.Context, query string, args ...interface{}) (*model.Payment, error) {
	var p model.Payment
	if err := r.db.WithContext(ctx).Where(query, args...).Order("created_at DESC").First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *paymentRepository) GetByProviderID(ctx context.Context, provider, providerID string) (*model.Payment, error) {
	return r.first(ctx, "provider = ? AND provider_id = ?", provider, providerID)
}

func (r *paymentRepository) GetByChargeID(ctx context.Context, provider, chargeID string) (*model.Payment, error) {
	return r.first(ctx, "provider = ? AND charge_id = ?", provider, chargeID)
}

func (r *paymentRepository) GetActiveByOrder(ctx context.Context, orderID string) (*model.Payment, error) {
	return r.first(ctx, "order_id = ? AND status NOT IN ?", orderID, []model.Status{model.StatusDeclined, model.StatusCanceled})
}

func (r *paymentRepository) GetLatestByOrder(ctx context.Context, orderID string) (*model.Payment, error) {
	return r.first(ctx, "order_id = ?", orderID)
}

func (r *paymentRepository) SaveGatewayData(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.Payment{}).Where("id = ?", id).Updates(fields).Error
}

func (r *paymentRepository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]model.Payment, error) {
	var list []model.Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.StatusPending, olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *paymentRepository) RecordEvent(ctx context.Context, ev *model.WebhookEvent) error {
	db := r.db.WithContext(ctx)
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(ev)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var existing model.WebhookEvent
	if err := db.Where("provider = ? AND event_id = ?", ev.Provider, ev.EventID).First(&existing).Error; err != nil {
		return err
	}
	// 上次处理失败的事件允许重放
	if existing.Status == model.WebhookHandled || existing.Status == model.WebhookSkipped {
		*ev = existing
		return ErrDuplicateEvent
	}
	ev.ID = existing.ID
	return db.Model(&model.WebhookEvent{}).Where("id = ?", existing.ID).
		Updates(map[string]interface{}{"status": model.WebhookReceived, "payload": ev.Payload, "error": ""}).Error
}

func (r *paymentRepository) FinishEvent(ctx context.Context, id, status, errMsg string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.WebhookEvent{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "error": errMsg, "processed_at": now}).Error
}
