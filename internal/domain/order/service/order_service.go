package service

import (
	"context"
	"errors"
	"fmt"
	ordermodel "food_delivery/internal/domain/order/model"
	"food_delivery/internal/domain/order/repository"
	"food_delivery/internal/domain/payment/reconciler"
	storemodel "food_delivery/internal/domain/store/model"
	usermodel "food_delivery/internal/domain/user/model"
	"food_delivery/internal/pkg/events"
	"food_delivery/internal/pkg/worker"
	"food_delivery/pkg/logger"
	"food_delivery/pkg/money"
	"food_delivery/pkg/utils"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrEmptyOrder         = errors.New("order has no items")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrStoreClosed        = errors.New("store is closed")
	ErrBelowMinimum       = errors.New("order below store minimum")
	ErrInvalidStatus      = errors.New("status cannot be set manually")
	ErrIllegalTransition  = errors.New("illegal order status transition")
)

// StoreCatalog 下单所需的门店能力
type StoreCatalog interface {
	GetStore(ctx context.Context, idOrSlug string) (*storemodel.Store, error)
	GetProductsByIDs(ctx context.Context, storeID string, ids []string) ([]storemodel.Product, error)
	Authorize(ctx context.Context, actor usermodel.Actor, storeID string) (*storemodel.Store, error)
}

// CouponQuoter 计算优惠券抵扣
type CouponQuoter interface {
	Quote(ctx context.Context, userID, userCouponID, storeID string, subtotal decimal.Decimal) (decimal.Decimal, error)
}

// Transitioner 订单状态唯一的修改入口
type Transitioner interface {
	ApplyOrder(ctx context.Context, orderID string, target ordermodel.Status, source string) (*reconciler.Result, error)
}

type ItemInput struct {
	ProductID string `json:"productId" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,gt=0,lte=99"`
	Notes     string `json:"notes" binding:"max=255"`
}

type PlaceInput struct {
	StoreID         string      `json:"storeId" binding:"required"`
	Items           []ItemInput `json:"items" binding:"required,min=1,dive"`
	UserCouponID    *string     `json:"userCouponId" binding:"omitempty,uuid"`
	DeliveryAddress string      `json:"deliveryAddress" binding:"required,max=255"`
	Notes           string      `json:"notes" binding:"max=500"`
}

type ListQuery struct {
	utils.Pagination
	// Status 逗号分隔的状态列表
	Status string `form:"status"`
}

// Statuses 解析 status 参数，忽略未知值
func (q ListQuery) Statuses() []ordermodel.Status {
	var out []ordermodel.Status
	for _, s := range strings.Split(q.Status, ",") {
		st := ordermodel.Status(strings.TrimSpace(s))
		if st.Valid() {
			out = append(out, st)
		}
	}
	return out
}

type OrderService interface {
	Place(ctx context.Context, userID string, in PlaceInput) (*ordermodel.Order, error)
	ListMine(ctx context.Context, userID string, q ListQuery) ([]ordermodel.Order, int64, error)
	Get(ctx context.Context, actor usermodel.Actor, id string) (*ordermodel.Order, error)
	ListStoreOrders(ctx context.Context, actor usermodel.Actor, storeID string, q ListQuery) ([]ordermodel.Order, int64, error)
	// UpdateKitchenStatus 商家推进出餐/配送进度
	UpdateKitchenStatus(ctx context.Context, actor usermodel.Actor, id string, target ordermodel.Status) (*ordermodel.Order, error)
}

type orderService struct {
	repo      repository.OrderRepository
	stores    StoreCatalog
	coupons   CouponQuoter
	authority Transitioner
	publisher events.Publisher
	workers   *worker.WorkerPool
}

func NewOrderService(repo repository.OrderRepository, stores StoreCatalog, coupons CouponQuoter, authority Transitioner, publisher events.Publisher, workers *worker.WorkerPool) OrderService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &orderService{
		repo:      repo,
		stores:    stores,
		coupons:   coupons,
		authority: authority,
		publisher: publisher,
		workers:   workers,
	}
}

// NewCode 8 位订单号，展示给顾客和门店
func NewCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *orderService) Place(ctx context.Context, userID string, in PlaceInput) (*ordermodel.Order, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	store, err := s.stores.GetStore(ctx, in.StoreID)
	if err != nil {
		return nil, err
	}
	if !store.IsOpen {
		return nil, ErrStoreClosed
	}

	// 相同商品合并数量
	quantities := make(map[string]int)
	notes := make(map[string]string)
	var ids []string
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: invalid quantity", ErrProductUnavailable)
		}
		if _, seen := quantities[it.ProductID]; !seen {
			ids = append(ids, it.ProductID)
		}
		quantities[it.ProductID] += it.Quantity
		if it.Notes != "" {
			notes[it.ProductID] = it.Notes
		}
	}

	products, err := s.stores.GetProductsByIDs(ctx, store.ID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]storemodel.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	order := &ordermodel.Order{
		Code:            NewCode(),
		UserID:          userID,
		StoreID:         store.ID,
		DeliveryFee:     store.DeliveryFee,
		Status:          ordermodel.StatusPending,
		DeliveryAddress: in.DeliveryAddress,
		Notes:           in.Notes,
	}
	subtotal := decimal.Zero
	for _, id := range ids {
		p, ok := byID[id]
		if !ok || !p.Available {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, id)
		}
		line := p.Price.Mul(decimal.NewFromInt(int64(quantities[id])))
		subtotal = subtotal.Add(line)
		order.Items = append(order.Items, ordermodel.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  quantities[id],
			Subtotal:  line,
			Notes:     notes[id],
		})
	}
	if subtotal.LessThan(store.MinimumOrder) {
		return nil, fmt.Errorf("%w: minimum is %s", ErrBelowMinimum, money.Format(store.MinimumOrder))
	}

	discount := decimal.Zero
	if in.UserCouponID != nil && *in.UserCouponID != "" {
		if discount, err = s.coupons.Quote(ctx, userID, *in.UserCouponID, store.ID, subtotal); err != nil {
			return nil, err
		}
		order.UserCouponID = in.UserCouponID
	}

	order.Subtotal = subtotal
	order.DiscountAmount = discount
	order.TotalAmount = money.Sum(subtotal, store.DeliveryFee).Sub(discount)
	if err := money.NonNegative(order.TotalAmount); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}
	logger.Log.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("code", order.Code),
		zap.String("store_id", store.ID),
		zap.String("total", order.TotalAmount.StringFixed(2)),
	)
	s.publishPlaced(order)
	return order, nil
}

func (s *orderService) publishPlaced(order *ordermodel.Order) {
	data := map[string]interface{}{
		"order_id":   order.ID,
		"order_code": order.Code,
		"user_id":    order.UserID,
		"store_id":   order.StoreID,
		"total":      order.TotalAmount.StringFixed(2),
	}
	task := worker.Task{
		Name: "publish." + events.OrderPlaced,
		Run: func(ctx context.Context) error {
			return s.publisher.Publish(ctx, events.OrderPlaced, data)
		},
	}
	if s.workers == nil {
		if err := task.Run(context.Background()); err != nil {
			logger.Log.Warn("publish order placed failed", zap.Error(err))
		}
		return
	}
	s.workers.AddTask(task)
}

func (s *orderService) ListMine(ctx context.Context, userID string, q ListQuery) ([]ordermodel.Order, int64, error) {
	offset, limit := q.GetPageOffset()
	return s.repo.List(ctx, repository.OrderFilter{UserID: userID, Statuses: q.Statuses()}, offset, limit)
}

func (s *orderService) Get(ctx context.Context, actor usermodel.Actor, id string) (*ordermodel.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID == actor.UserID || actor.IsAdmin() {
		return order, nil
	}
	if _, err := s.stores.Authorize(ctx, actor, order.StoreID); err != nil {
		// 不暴露他人订单是否存在
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) ListStoreOrders(ctx context.Context, actor usermodel.Actor, storeID string, q ListQuery) ([]ordermodel.Order, int64, error) {
	if _, err := s.stores.Authorize(ctx, actor, storeID); err != nil {
		return nil, 0, err
	}
	offset, limit := q.GetPageOffset()
	return s.repo.List(ctx, repository.OrderFilter{StoreID: storeID, Statuses: q.Statuses()}, offset, limit)
}

func (s *orderService) UpdateKitchenStatus(ctx context.Context, actor usermodel.Actor, id string, target ordermodel.Status) (*ordermodel.Order, error) {
	if !ordermodel.IsKitchenStatus(target) {
		return nil, ErrInvalidStatus
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.stores.Authorize(ctx, actor, order.StoreID); err != nil {
		return nil, err
	}

	res, err := s.authority.ApplyOrder(ctx, order.ID, target, reconciler.SourceOwner)
	if errors.Is(err, reconciler.ErrIllegalTransition) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, order.Status, target)
	}
	if err != nil {
		return nil, err
	}
	if !res.OrderChanged && res.Order.Status != target {
		// 并发修改
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, res.Order.Status, target)
	}
	order.Status = res.Order.Status
	order.StatusLabel = res.Order.Status.Label()
	order.UpdatedAt = res.Order.UpdatedAt
	return order, nil
}

func (s *orderService) load(ctx context.Context, id string) (*ordermodel.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	return order, err
}
