package model

import (
	baseModel "storefront_api/pkg/model"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// 订单状态
const (
	StatusPending        = "PENDING"
	StatusProcessing     = "PROCESSING"
	StatusShipped        = "SHIPPED"
	StatusOutForDelivery = "OUT_FOR_DELIVERY"
	StatusDelivered      = "DELIVERED"
	StatusCancelled      = "CANCELLED"
)

// transitions 状态机允许的流转
// 不在表内的流转一律拒绝，未知状态值不静默放过
var transitions = map[string][]string{
	StatusPending:        {StatusProcessing, StatusCancelled},
	StatusProcessing:     {StatusShipped, StatusOutForDelivery, StatusCancelled},
	StatusShipped:        {StatusOutForDelivery, StatusCancelled},
	StatusOutForDelivery: {StatusDelivered, StatusCancelled},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

// CanTransition 判断 from -> to 是否为合法流转
func CanTransition(from, to string) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal 终态不再接受任何流转
func IsTerminal(status string) bool {
	next, ok := transitions[status]
	return ok && len(next) == 0
}

// NonTerminalStatuses 全部非终态，管理员取消的守卫条件
func NonTerminalStatuses() []string {
	return []string{StatusPending, StatusProcessing, StatusShipped, StatusOutForDelivery}
}

// Order 订单
// 金额与收货地址均为下单时刻的快照，后续改价、改地址簿不影响已有订单
type Order struct {
	baseModel.BaseModel
	OrderNumber string          `gorm:"type:varchar(40);uniqueIndex;not null" json:"orderNumber"`
	UserID      string          `gorm:"type:uuid;index;not null" json:"userId"`
	Status      string          `gorm:"type:varchar(20);index;not null;default:'PENDING'" json:"status"`
	Subtotal    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	Discount    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"discount"`
	Total       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	CouponCode  *string         `gorm:"type:varchar(50)" json:"couponCode,omitempty"`

	// 收货地址快照
	ShippingAddress datatypes.JSON `gorm:"type:jsonb;not null" json:"shippingAddress"`

	TrackingNumber  *string `gorm:"type:varchar(40)" json:"trackingNumber,omitempty"`
	DeliveryOTP     *string `gorm:"type:varchar(10)" json:"-"`
	DeliveryAgentID *string `gorm:"type:uuid;index" json:"deliveryAgentId,omitempty"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

// OrderItem 订单行，Price 为下单时刻的有效单价快照
type OrderItem struct {
	baseModel.BaseModel
	OrderID     string          `gorm:"type:uuid;index;not null" json:"orderId"`
	ProductID   string          `gorm:"type:uuid;not null" json:"productId"`
	ProductName string          `gorm:"type:varchar(255)" json:"productName"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
}
