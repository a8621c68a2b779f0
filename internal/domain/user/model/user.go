package model

import (
	baseModel "storefront_api/pkg/model"
)

// 用户角色
const (
	RoleUser          = 1
	RoleAdmin         = 2
	RoleDeliveryAgent = 3
)

// 用户状态
const (
	StatusNormal = 1
	StatusBanned = 2
)

// User 用户模型
type User struct {
	baseModel.BaseModel
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"` // 密码不返回给前端
	Name     string `gorm:"type:varchar(100)" json:"name"`
	Role     int    `gorm:"default:1" json:"role"`
	Status   int    `gorm:"default:1" json:"status"`
}

// Address 用户收货地址簿
// 下单时拷贝为订单上的快照，后续修改地址不影响历史订单
type Address struct {
	baseModel.BaseModel
	UserID  string `gorm:"type:uuid;index;not null" json:"userId"`
	Tag     string `gorm:"type:varchar(50)" json:"tag"` // home / office 等
	Street  string `gorm:"not null" json:"street"`
	City    string `gorm:"not null" json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `gorm:"not null" json:"country"`
	Phone   string `gorm:"not null" json:"phone"`
}
