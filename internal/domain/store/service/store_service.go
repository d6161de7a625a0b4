package service

import (
	"context"
	"errors"
	"fmt"
	"food_delivery/internal/domain/store/model"
	"food_delivery/internal/domain/store/repository"
	usermodel "food_delivery/internal/domain/user/model"
	"food_delivery/internal/pkg/uploader"
	"food_delivery/pkg/cache"
	"food_delivery/pkg/logger"
	"food_delivery/pkg/metrics"
	"food_delivery/pkg/utils"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrStoreNotFound   = errors.New("store not found")
	ErrProductNotFound = errors.New("product not found")
	ErrForbidden       = errors.New("no permission for this store")
	ErrInvalidPrice    = errors.New("price must be positive")
	ErrNoUploader      = errors.New("object storage not configured")
)

const (
	menuCacheKeyPrefix = "menu:"
	menuCacheTTL       = 10 * time.Minute
)

// StoreInput 创建/更新门店
type StoreInput struct {
	Name         string          `json:"name" binding:"required,max=128"`
	Description  string          `json:"description"`
	Address      string          `json:"address" binding:"max=255"`
	Phone        string          `json:"phone" binding:"max=20"`
	DeliveryFee  decimal.Decimal `json:"deliveryFee"`
	MinimumOrder decimal.Decimal `json:"minimumOrder"`
}

// ProductInput 创建/更新商品
type ProductInput struct {
	Name        string          `json:"name" binding:"required,max=128"`
	Description string          `json:"description"`
	Category    string          `json:"category" binding:"max=64"`
	Price       decimal.Decimal `json:"price"`
	Available   *bool           `json:"available"`
	SortOrder   int             `json:"sortOrder"`
}

type ListQuery struct {
	utils.Pagination
	Search string `form:"q"`
}

type StoreService interface {
	ListStores(ctx context.Context, q ListQuery) ([]model.Store, int64, error)
	ListOwnedStores(ctx context.Context, actor usermodel.Actor) ([]model.Store, error)
	GetStore(ctx context.Context, idOrSlug string) (*model.Store, error)
	GetMenu(ctx context.Context, storeID string) (*model.Menu, error)
	CreateStore(ctx context.Context, actor usermodel.Actor, in StoreInput) (*model.Store, error)
	UpdateStore(ctx context.Context, actor usermodel.Actor, id string, in StoreInput) (*model.Store, error)
	SetOpen(ctx context.Context, actor usermodel.Actor, id string, open bool) error
	DeleteStore(ctx context.Context, actor usermodel.Actor, id string) error
	UploadStoreImage(ctx context.Context, actor usermodel.Actor, id, kind, filename string, r io.Reader) (string, error)

	ListProducts(ctx context.Context, actor usermodel.Actor, storeID string) ([]model.Product, error)
	CreateProduct(ctx context.Context, actor usermodel.Actor, storeID string, in ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, actor usermodel.Actor, productID string, in ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, actor usermodel.Actor, productID string) error
	UploadProductImage(ctx context.Context, actor usermodel.Actor, productID, filename string, r io.Reader) (string, error)

	// 下单使用
	GetProductsByIDs(ctx context.Context, storeID string, ids []string) ([]model.Product, error)
	// Authorize 校验 actor 是否可以管理门店
	Authorize(ctx context.Context, actor usermodel.Actor, storeID string) (*model.Store, error)
}

type storeService struct {
	repo     repository.StoreRepository
	cache    cache.CacheService
	uploader uploader.Uploader
	metrics  *metrics.MetricsCollector
}

func NewStoreService(repo repository.StoreRepository, c cache.CacheService, u uploader.Uploader, m *metrics.MetricsCollector) StoreService {
	return &storeService{repo: repo, cache: c, uploader: u, metrics: m}
}

func (s *storeService) ListStores(ctx context.Context, q ListQuery) ([]model.Store, int64, error) {
	offset, limit := q.GetPageOffset()
	return s.repo.List(ctx, repository.StoreFilter{OnlyOpen: false, Search: strings.TrimSpace(q.Search)}, offset, limit)
}

func (s *storeService) ListOwnedStores(ctx context.Context, actor usermodel.Actor) ([]model.Store, error) {
	stores, _, err := s.repo.List(ctx, repository.StoreFilter{OwnerID: actor.UserID}, 0, 100)
	return stores, err
}

func (s *storeService) GetStore(ctx context.Context, idOrSlug string) (*model.Store, error) {
	var (
		store *model.Store
		err   error
	)
	if _, perr := uuid.Parse(idOrSlug); perr == nil {
		store, err = s.repo.GetByID(ctx, idOrSlug)
	} else {
		store, err = s.repo.GetBySlug(ctx, idOrSlug)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStoreNotFound
	}
	return store, err
}

// GetMenu 公开菜单 (仅可售商品)，Redis 缓存
func (s *storeService) GetMenu(ctx context.Context, storeID string) (*model.Menu, error) {
	key := menuCacheKeyPrefix + storeID

	var cached model.Menu
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		s.recordCache(true)
		return &cached, nil
	}
	s.recordCache(false)

	store, err := s.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.ListProducts(ctx, store.ID, true)
	if err != nil {
		return nil, err
	}

	menu := model.BuildMenu(*store, products)
	if err := s.cache.Set(ctx, menuCacheKeyPrefix+store.ID, menu, menuCacheTTL); err != nil {
		logger.Log.Warn("failed to cache menu", zap.String("store_id", store.ID), zap.Error(err))
	}
	return &menu, nil
}

func (s *storeService) CreateStore(ctx context.Context, actor usermodel.Actor, in StoreInput) (*model.Store, error) {
	if err := validateFees(in); err != nil {
		return nil, err
	}
	slug, err := s.uniqueSlug(ctx, in.Name)
	if err != nil {
		return nil, err
	}

	store := &model.Store{
		OwnerID:      actor.UserID,
		Name:         in.Name,
		Slug:         slug,
		Description:  in.Description,
		Address:      in.Address,
		Phone:        in.Phone,
		DeliveryFee:  in.DeliveryFee,
		MinimumOrder: in.MinimumOrder,
	}
	if err := s.repo.Create(ctx, store); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *storeService) UpdateStore(ctx context.Context, actor usermodel.Actor, id string, in StoreInput) (*model.Store, error) {
	if err := validateFees(in); err != nil {
		return nil, err
	}
	store, err := s.Authorize(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	store.Name = in.Name
	store.Description = in.Description
	store.Address = in.Address
	store.Phone = in.Phone
	store.DeliveryFee = in.DeliveryFee
	store.MinimumOrder = in.MinimumOrder

	if err := s.repo.Update(ctx, store); err != nil {
		return nil, err
	}
	s.invalidateMenu(ctx, store.ID)
	return store, nil
}

func (s *storeService) SetOpen(ctx context.Context, actor usermodel.Actor, id string, open bool) error {
	store, err := s.Authorize(ctx, actor, id)
	if err != nil {
		return err
	}
	store.IsOpen = open
	if err := s.repo.Update(ctx, store); err != nil {
		return err
	}
	s.invalidateMenu(ctx, store.ID)
	return nil
}

func (s *storeService) DeleteStore(ctx context.Context, actor usermodel.Actor, id string) error {
	store, err := s.Authorize(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, store.ID); err != nil {
		return err
	}
	s.invalidateMenu(ctx, store.ID)
	return nil
}

// UploadStoreImage kind: logo | banner
func (s *storeService) UploadStoreImage(ctx context.Context, actor usermodel.Actor, id, kind, filename string, r io.Reader) (string, error) {
	if s.uploader == nil {
		return "", ErrNoUploader
	}
	store, err := s.Authorize(ctx, actor, id)
	if err != nil {
		return "", err
	}
	if err := uploader.CheckImage(filename); err != nil {
		return "", err
	}

	url, err := s.uploader.Upload("stores/"+store.ID, filename, r)
	if err != nil {
		return "", err
	}
	if kind == "banner" {
		store.BannerURL = url
	} else {
		store.LogoURL = url
	}
	if err := s.repo.Update(ctx, store); err != nil {
		return "", err
	}
	s.invalidateMenu(ctx, store.ID)
	return url, nil
}

// ListProducts 管理端商品列表 (含下架商品)
func (s *storeService) ListProducts(ctx context.Context, actor usermodel.Actor, storeID string) ([]model.Product, error) {
	if _, err := s.Authorize(ctx, actor, storeID); err != nil {
		return nil, err
	}
	return s.repo.ListProducts(ctx, storeID, false)
}

func (s *storeService) CreateProduct(ctx context.Context, actor usermodel.Actor, storeID string, in ProductInput) (*model.Product, error) {
	if !in.Price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	if _, err := s.Authorize(ctx, actor, storeID); err != nil {
		return nil, err
	}

	p := &model.Product{
		StoreID:     storeID,
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price.Round(2),
		Available:   in.Available == nil || *in.Available,
		SortOrder:   in.SortOrder,
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateMenu(ctx, storeID)
	return p, nil
}

func (s *storeService) UpdateProduct(ctx context.Context, actor usermodel.Actor, productID string, in ProductInput) (*model.Product, error) {
	if !in.Price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	p, err := s.authorizeProduct(ctx, actor, productID)
	if err != nil {
		return nil, err
	}

	p.Name = in.Name
	p.Description = in.Description
	p.Category = in.Category
	p.Price = in.Price.Round(2)
	p.SortOrder = in.SortOrder
	if in.Available != nil {
		p.Available = *in.Available
	}
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateMenu(ctx, p.StoreID)
	return p, nil
}

func (s *storeService) DeleteProduct(ctx context.Context, actor usermodel.Actor, productID string) error {
	p, err := s.authorizeProduct(ctx, actor, productID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, p.ID); err != nil {
		return err
	}
	s.invalidateMenu(ctx, p.StoreID)
	return nil
}

func (s *storeService) UploadProductImage(ctx context.Context, actor usermodel.Actor, productID, filename string, r io.Reader) (string, error) {
	if s.uploader == nil {
		return "", ErrNoUploader
	}
	p, err := s.authorizeProduct(ctx, actor, productID)
	if err != nil {
		return "", err
	}
	if err := uploader.CheckImage(filename); err != nil {
		return "", err
	}

	url, err := s.uploader.Upload("products/"+p.StoreID, filename, r)
	if err != nil {
		return "", err
	}
	p.ImageURL = url
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return "", err
	}
	s.invalidateMenu(ctx, p.StoreID)
	return url, nil
}

func (s *storeService) GetProductsByIDs(ctx context.Context, storeID string, ids []string) ([]model.Product, error) {
	return s.repo.GetProductsByIDs(ctx, storeID, ids)
}

func (s *storeService) Authorize(ctx context.Context, actor usermodel.Actor, storeID string) (*model.Store, error) {
	store, err := s.repo.GetByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	if !actor.CanManage(store.OwnerID) {
		return nil, ErrForbidden
	}
	return store, nil
}

func (s *storeService) authorizeProduct(ctx context.Context, actor usermodel.Actor, productID string) (*model.Product, error) {
	p, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if _, err := s.Authorize(ctx, actor, p.StoreID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *storeService) invalidateMenu(ctx context.Context, storeID string) {
	if err := s.cache.Delete(ctx, menuCacheKeyPrefix+storeID); err != nil {
		logger.Log.Warn("failed to invalidate menu cache", zap.String("store_id", storeID), zap.Error(err))
	}
}

func (s *storeService) recordCache(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(menuCacheKeyPrefix, hit)
	}
}

func validateFees(in StoreInput) error {
	if in.DeliveryFee.IsNegative() || in.MinimumOrder.IsNegative() {
		return fmt.Errorf("fees must not be negative")
	}
	return nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

var accentReplacer = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a", "ä", "a",
	"é", "e", "ê", "e", "è", "e",
	"í", "i", "î", "i",
	"ó", "o", "ô", "o", "õ", "o", "ö", "o",
	"ú", "u", "ü", "u",
	"ç", "c", "ñ", "n",
)

// Slugify "Pão de Açúcar" -> "pao-de-acucar"
func Slugify(name string) string {
	s := accentReplacer.Replace(strings.ToLower(strings.TrimSpace(name)))
	s = nonSlug.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "loja"
	}
	return s
}

func (s *storeService) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := Slugify(name)
	slug := base
	for i := 2; i < 50; i++ {
		exists, err := s.repo.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	return fmt.Sprintf("%s-%s", base, uuid.New().String()[:8]), nil
}
