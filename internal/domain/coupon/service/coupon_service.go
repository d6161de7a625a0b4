package service

import (
	"context"
	"errors"
	"fmt"
	"food_delivery/internal/domain/coupon/model"
	"food_delivery/internal/domain/coupon/repository"
	"food_delivery/internal/pkg/worker"
	"food_delivery/pkg/logger"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrCouponNotFound   = errors.New("coupon not found")
	ErrOutOfStock       = errors.New("coupon out of stock")
	ErrAlreadyClaimed   = errors.New("you have already claimed this coupon")
	ErrCouponNotActive  = errors.New("coupon is not active")
	ErrCouponNotUsable  = errors.New("coupon cannot be used for this order")
	ErrInvalidCouponArg = errors.New("invalid coupon parameters")
)

// CreateInput 管理员创建优惠券
type CreateInput struct {
	Name      string          `json:"name" binding:"required,max=100"`
	StoreID   *string         `json:"storeId" binding:"omitempty,uuid"`
	Total     int             `json:"total" binding:"required,gt=0"`
	Amount    decimal.Decimal `json:"amount"`
	MinOrder  decimal.Decimal `json:"minOrder"`
	StartTime time.Time       `json:"startTime" binding:"required"`
	EndTime   time.Time       `json:"endTime" binding:"required"`
}

type CouponService interface {
	CreateCoupon(ctx context.Context, in CreateInput) (*model.Coupon, error)
	ListActive(ctx context.Context) ([]model.Coupon, error)
	ClaimCoupon(ctx context.Context, userID, couponID string) error
	SendCouponToUser(ctx context.Context, userID, couponID string) error
	ListMine(ctx context.Context, userID string, status int) ([]model.UserCoupon, error)
	// Quote 计算下单可抵扣金额，不修改券状态
	Quote(ctx context.Context, userID, userCouponID, storeID string, subtotal decimal.Decimal) (decimal.Decimal, error)
}

type couponService struct {
	repo       repository.CouponRepository
	rdb        *redis.Client
	soldOutMap sync.Map // 本地缓存：记录已售罄的 CouponID
	workers    *worker.WorkerPool
	now        func() time.Time
}

func NewCouponService(repo repository.CouponRepository, rdb *redis.Client, workers *worker.WorkerPool) CouponService {
	return &couponService{
		repo:    repo,
		rdb:     rdb,
		workers: workers,
		now:     time.Now,
	}
}

func stockKey(couponID string) string { return fmt.Sprintf("coupon:stock:%s", couponID) }
func usersKey(couponID string) string { return fmt.Sprintf("coupon:users:%s", couponID) }

func (s *couponService) CreateCoupon(ctx context.Context, in CreateInput) (*model.Coupon, error) {
	if !in.Amount.IsPositive() || in.MinOrder.IsNegative() || !in.EndTime.After(in.StartTime) {
		return nil, ErrInvalidCouponArg
	}
	coupon := &model.Coupon{
		Name:      in.Name,
		StoreID:   in.StoreID,
		Total:     in.Total,
		Stock:     in.Total,
		Amount:    in.Amount,
		MinOrder:  in.MinOrder,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, err
	}

	// 预热缓存：将库存写入 Redis，活动结束后过期
	ttl := time.Until(in.EndTime) + 24*time.Hour
	if err := s.rdb.Set(ctx, stockKey(coupon.ID), in.Total, ttl).Err(); err != nil {
		logger.Log.Warn("warm coupon stock failed", zap.String("coupon_id", coupon.ID), zap.Error(err))
	}
	return coupon, nil
}

func (s *couponService) ListActive(ctx context.Context) ([]model.Coupon, error) {
	now := s.now()
	return s.repo.List(ctx, &now)
}

// Lua 脚本：检查用户是否已领 + 检查库存 + 扣减库存 + 记录用户已领
var claimScript = redis.NewScript(`
	local user_key = KEYS[1]
	local stock_key = KEYS[2]
	local user_id = ARGV[1]

	if redis.call("SISMEMBER", user_key, user_id) == 1 then
		return -1
	end

	local stock = tonumber(redis.call("GET", stock_key))
	if stock == nil then
		return -3
	end
	if stock <= 0 then
		return -2
	end

	redis.call("DECR", stock_key)
	redis.call("SADD", user_key, user_id)
	return 1
`)

func (s *couponService) ClaimCoupon(ctx context.Context, userID, couponID string) error {
	// 本地缓存校验，售罄后无需网络 IO
	if _, ok := s.soldOutMap.Load(couponID); ok {
		return ErrOutOfStock
	}

	coupon, err := s.repo.GetByID(ctx, couponID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCouponNotFound
	}
	if err != nil {
		return err
	}
	if !coupon.Within(s.now()) {
		return ErrCouponNotActive
	}

	result, err := s.runClaim(ctx, userID, couponID)
	if err != nil {
		return err
	}
	if result == -3 {
		// 缓存丢失，按数据库库存重新预热后重试一次
		if coupon.Stock > 0 {
			if err := s.rdb.SetNX(ctx, stockKey(couponID), coupon.Stock, time.Until(coupon.EndTime)+24*time.Hour).Err(); err != nil {
				return fmt.Errorf("warm coupon stock: %w", err)
			}
			if result, err = s.runClaim(ctx, userID, couponID); err != nil {
				return err
			}
		}
	}
	switch result {
	case -1:
		return ErrAlreadyClaimed
	case -2, -3:
		s.soldOutMap.Store(couponID, true)
		return ErrOutOfStock
	}

	// Redis 扣减成功后，异步写入数据库
	s.persist(userID, couponID)
	return nil
}

func (s *couponService) runClaim(ctx context.Context, userID, couponID string) (int, error) {
	result, err := claimScript.Run(ctx, s.rdb, []string{usersKey(couponID), stockKey(couponID)}, userID).Int()
	if err != nil {
		return 0, fmt.Errorf("claim coupon: %w", err)
	}
	return result, nil
}

func (s *couponService) persist(userID, couponID string) {
	task := worker.Task{
		Name: "coupon.persist",
		Run: func(ctx context.Context) error {
			return s.repo.Persist(ctx, userID, couponID)
		},
	}
	if s.workers == nil {
		if err := task.Run(context.Background()); err != nil {
			logger.Log.Error("persist coupon claim failed",
				zap.String("user_id", userID), zap.String("coupon_id", couponID), zap.Error(err))
		}
		return
	}
	s.workers.AddTask(task)
}

// SendCouponToUser 管理员发券，同样受库存与每人一张限制
func (s *couponService) SendCouponToUser(ctx context.Context, userID, couponID string) error {
	return s.ClaimCoupon(ctx, userID, couponID)
}

func (s *couponService) ListMine(ctx context.Context, userID string, status int) ([]model.UserCoupon, error) {
	return s.repo.ListUserCoupons(ctx, userID, status)
}

func (s *couponService) Quote(ctx context.Context, userID, userCouponID, storeID string, subtotal decimal.Decimal) (decimal.Decimal, error) {
	uc, err := s.repo.GetUserCoupon(ctx, userCouponID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, ErrCouponNotFound
	}
	if err != nil {
		return decimal.Zero, err
	}
	if uc.UserID != userID {
		return decimal.Zero, ErrCouponNotFound
	}
	return Discount(uc, storeID, subtotal, s.now())
}

// Discount 校验用户券并返回抵扣金额，不超过小计
func Discount(uc *model.UserCoupon, storeID string, subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if uc.Status != model.UserCouponUnused || uc.Coupon == nil {
		return decimal.Zero, ErrCouponNotUsable
	}
	c := uc.Coupon
	if !c.Within(now) {
		return decimal.Zero, ErrCouponNotActive
	}
	if c.StoreID != nil && *c.StoreID != storeID {
		return decimal.Zero, ErrCouponNotUsable
	}
	if subtotal.LessThan(c.MinOrder) {
		return decimal.Zero, ErrCouponNotUsable
	}
	return decimal.Min(c.Amount, subtotal), nil
}
