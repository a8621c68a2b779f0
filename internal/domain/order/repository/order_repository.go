package repository

import (
	"storefront_api/internal/domain/order/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OrderRepository 接口定义
type OrderRepository interface {
	Create(tx *gorm.DB, order *model.Order) error
	GetByID(id string) (*model.Order, error)
	GetByIDTx(tx *gorm.DB, id string) (*model.Order, error)
	ListByUser(userID string, offset, limit int) ([]model.Order, int64, error)
	ListAll(status string, offset, limit int) ([]model.Order, int64, error)
	ListByAgent(agentID string, offset, limit int) ([]model.Order, int64, error)
	CountByUser(userID string) (int64, error)

	// TransitionStatus 条件状态流转，返回是否命中了行
	TransitionStatus(tx *gorm.DB, orderID string, from []string, to string, extras map[string]interface{}) (bool, error)
	AssignAgent(orderID, agentID string, allowed []string) (bool, error)
	UpdateAddress(orderID string, address datatypes.JSON, allowed []string) (bool, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create 创建订单及其订单行，必须在下单事务内调用
func (r *orderRepository) Create(tx *gorm.DB, order *model.Order) error {
	return tx.Create(order).Error
}

func (r *orderRepository) GetByID(id string) (*model.Order, error) {
	return r.GetByIDTx(r.db, id)
}

func (r *orderRepository) GetByIDTx(tx *gorm.DB, id string) (*model.Order, error) {
	var order model.Order
	if err := tx.Where("id = ?", id).Preload("Items").First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListByUser(userID string, offset, limit int) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	query := r.db.Model(&model.Order{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Preload("Items").Offset(offset).Limit(limit).Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListAll 管理端订单列表，可按状态过滤
func (r *orderRepository) ListAll(status string, offset, limit int) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	query := r.db.Model(&model.Order{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Preload("Items").Offset(offset).Limit(limit).Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListByAgent 配送员名下的在途订单
func (r *orderRepository) ListByAgent(agentID string, offset, limit int) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	query := r.db.Model(&model.Order{}).Where("delivery_agent_id = ?", agentID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Preload("Items").Offset(offset).Limit(limit).Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// CountByUser 用户历史订单数，不论状态，首单券校验用
func (r *orderRepository) CountByUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Order{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// TransitionStatus 条件状态流转
// 当前状态检查和更新必须是同一条 UPDATE，由数据库仲裁并发流转，
// 命中零行表示订单不在 from 列表中，由调用方决定语义（非法流转或已处理过）
func (r *orderRepository) TransitionStatus(tx *gorm.DB, orderID string, from []string, to string, extras map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range extras {
		updates[k] = v
	}

	result := tx.Model(&model.Order{}).
		Where("id = ? AND status IN ?", orderID, from).
		Updates(updates)

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AssignAgent 指派配送员，只在允许的状态下生效
func (r *orderRepository) AssignAgent(orderID, agentID string, allowed []string) (bool, error) {
	result := r.db.Model(&model.Order{}).
		Where("id = ? AND status IN ?", orderID, allowed).
		UpdateColumn("delivery_agent_id", agentID)

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateAddress 替换地址快照，发货后订单不再接受修改
func (r *orderRepository) UpdateAddress(orderID string, address datatypes.JSON, allowed []string) (bool, error) {
	result := r.db.Model(&model.Order{}).
		Where("id = ? AND status IN ?", orderID, allowed).
		UpdateColumn("shipping_address", address)

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
