package model

import (
	"time"

	baseModel "storefront_api/pkg/model"

	"github.com/shopspring/decimal"
)

// Product 商品模型
// Price 使用 decimal，货币计算全程定点，避免二进制浮点的舍入漂移
type Product struct {
	baseModel.BaseModel
	Name        string          `gorm:"type:varchar(200);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Category    string          `gorm:"type:varchar(100);index" json:"category"`
	ImageURL    string          `json:"imageUrl"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	OnSale      bool            `gorm:"default:false" json:"onSale"`
	SalePercent int             `gorm:"default:0" json:"salePercent"` // 0-100
	SaleEndsAt  *time.Time      `json:"saleEndsAt,omitempty"`
}
