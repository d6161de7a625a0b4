package repository

import (
	"context"
	"food_delivery/internal/domain/store/model"

	"gorm.io/gorm"
)

// StoreFilter 门店查询条件
type StoreFilter struct {
	OwnerID  string
	OnlyOpen bool
	Search   string
}

type StoreRepository interface {
	Create(ctx context.Context, store *model.Store) error
	Update(ctx context.Context, store *model.Store) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Store, error)
	GetBySlug(ctx context.Context, slug string) (*model.Store, error)
	List(ctx context.Context, f StoreFilter, offset, limit int) ([]model.Store, int64, error)
	SlugExists(ctx context.Context, slug string) (bool, error)

	CreateProduct(ctx context.Context, p *model.Product) error
	UpdateProduct(ctx context.Context, p *model.Product) error
	DeleteProduct(ctx context.Context, id string) error
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, storeID string, onlyAvailable bool) ([]model.Product, error)
	GetProductsByIDs(ctx context.Context, storeID string, ids []string) ([]model.Product, error)
}

type storeRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) Create(ctx context.Context, store *model.Store) error {
	return r.db.WithContext(ctx).Create(store).Error
}

func (r *storeRepository) Update(ctx context.Context, store *model.Store) error {
	return r.db.WithContext(ctx).Save(store).Error
}

// Delete 软删除门店及其商品
func (r *storeRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("store_id = ?", id).Delete(&model.Product{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Store{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *storeRepository) GetByID(ctx context.Context, id string) (*model.Store, error) {
	var s model.Store
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *storeRepository) GetBySlug(ctx context.Context, slug string) (*model.Store, error) {
	var s model.Store
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *storeRepository) List(ctx context.Context, f StoreFilter, offset, limit int) ([]model.Store, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.Store{})
	if f.OwnerID != "" {
		db = db.Where("owner_id = ?", f.OwnerID)
	}
	if f.OnlyOpen {
		db = db.Where("is_open = ?", true)
	}
	if f.Search != "" {
		db = db.Where("LOWER(name) LIKE LOWER(?)", "%"+f.Search+"%")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var stores []model.Store
	if err := db.Order("is_open DESC, name ASC").Offset(offset).Limit(limit).Find(&stores).Error; err != nil {
		return nil, 0, err
	}
	return stores, total, nil
}

func (r *storeRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Unscoped().Model(&model.Store{}).Where("slug = ?", slug).Count(&n).Error
	return n > 0, err
}

func (r *storeRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *storeRepository) UpdateProduct(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *storeRepository) DeleteProduct(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *storeRepository) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *storeRepository) ListProducts(ctx context.Context, storeID string, onlyAvailable bool) ([]model.Product, error) {
	db := r.db.WithContext(ctx).Where("store_id = ?", storeID)
	if onlyAvailable {
		db = db.Where("available = ?", true)
	}
	var products []model.Product
	err := db.Order("category ASC, sort_order ASC, name ASC").Find(&products).Error
	return products, err
}

func (r *storeRepository) GetProductsByIDs(ctx context.Context, storeID string, ids []string) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND id IN ?", storeID, ids).
		Find(&products).Error
	return products, err
}
