package model

import (
	baseModel "storefront_api/pkg/model"
)

// Cart 购物车，每个用户一个，首次加购时惰性创建
type Cart struct {
	baseModel.BaseModel
	UserID string     `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	Items  []CartItem `gorm:"foreignKey:CartID" json:"items"`
}

// CartItem 购物车行项目
// 只存商品引用和数量，价格永远在读取/下单时由服务端现算
type CartItem struct {
	baseModel.BaseModel
	CartID    string `gorm:"type:uuid;index:idx_cart_product,unique;not null" json:"cartId"`
	ProductID string `gorm:"type:uuid;index:idx_cart_product,unique;not null" json:"productId"`
	Quantity  int    `gorm:"not null" json:"quantity"`
}
