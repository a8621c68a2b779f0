package model

import (
	"time"

	baseModel "storefront_api/pkg/model"

	"github.com/shopspring/decimal"
)

// Coupon 优惠券定义
// Code 统一大写存储，查找前先归一化
type Coupon struct {
	baseModel.BaseModel
	Code             string           `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	DiscountType     string           `gorm:"type:varchar(20);not null" json:"discountType"` // PERCENTAGE / FIXED
	DiscountValue    decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"discountValue"`
	MinOrderValue    *decimal.Decimal `gorm:"type:numeric(12,2)" json:"minOrderValue,omitempty"`
	MaxUses          *int             `json:"maxUses,omitempty"`
	UsedCount        int              `gorm:"not null;default:0" json:"usedCount"` // 只增不减，受 max_uses 上限约束
	FirstOrderOnly   bool             `gorm:"default:false" json:"firstOrderOnly"`
	ExcludeSaleItems bool             `gorm:"default:false" json:"excludeSaleItems"`
	ExpiresAt        *time.Time       `json:"expiresAt,omitempty"`
	Active           bool             `gorm:"default:true" json:"active"`
}

// CouponUsage 核销记录
// (coupon, user) 是否存在此记录即"是否已用过这张券"的唯一事实
type CouponUsage struct {
	baseModel.BaseModel
	CouponID string `gorm:"type:uuid;index;not null" json:"couponId"`
	UserID   string `gorm:"type:uuid;index;not null" json:"userId"`
	OrderID  string `gorm:"type:uuid;not null" json:"orderId"`
}
