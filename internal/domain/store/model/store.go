package model

import (
	basemodel "food_delivery/pkg/model"

	"github.com/shopspring/decimal"
)

// Store 门店
type Store struct {
	basemodel.BaseModel
	OwnerID      string          `gorm:"type:uuid;index;not null" json:"ownerId"`
	Name         string          `gorm:"size:128;not null" json:"name"`
	Slug         string          `gorm:"size:128;uniqueIndex;not null" json:"slug"`
	Description  string          `gorm:"type:text" json:"description"`
	LogoURL      string          `gorm:"size:512" json:"logoUrl"`
	BannerURL    string          `gorm:"size:512" json:"bannerUrl"`
	Address      string          `gorm:"size:255" json:"address"`
	Phone        string          `gorm:"size:20" json:"phone"`
	IsOpen       bool            `gorm:"not null;default:false" json:"isOpen"`
	DeliveryFee  decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"deliveryFee"`
	MinimumOrder decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"minimumOrder"`
}

func (Store) TableName() string { return "stores" }

// Product 商品
type Product struct {
	basemodel.BaseModel
	StoreID     string          `gorm:"type:uuid;index;not null" json:"storeId"`
	Name        string          `gorm:"size:128;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Category    string          `gorm:"size:64;index" json:"category"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	ImageURL    string          `gorm:"size:512" json:"imageUrl"`
	Available   bool            `gorm:"not null" json:"available"`
	SortOrder   int             `gorm:"not null;default:0" json:"sortOrder"`
}

func (Product) TableName() string { return "products" }

// MenuCategory 菜单分类
type MenuCategory struct {
	Name     string    `json:"name"`
	Products []Product `json:"products"`
}

// Menu 门店菜单 (缓存对象)
type Menu struct {
	Store      Store          `json:"store"`
	Categories []MenuCategory `json:"categories"`
}

// BuildMenu 按分类分组，保持商品原有顺序，分类按首次出现排序
func BuildMenu(store Store, products []Product) Menu {
	menu := Menu{Store: store, Categories: []MenuCategory{}}
	index := make(map[string]int)
	for _, p := range products {
		cat := p.Category
		if cat == "" {
			cat = "Outros"
		}
		i, ok := index[cat]
		if !ok {
			i = len(menu.Categories)
			index[cat] = i
			menu.Categories = append(menu.Categories, MenuCategory{Name: cat})
		}
		menu.Categories[i].Products = append(menu.Categories[i].Products, p)
	}
	return menu
}
