package repository

import (
	"errors"

	"storefront_api/internal/domain/cart/model"

	"gorm.io/gorm"
)

// CartRepository 接口定义
type CartRepository interface {
	GetOrCreateByUser(userID string) (*model.Cart, error)
	GetByUser(userID string) (*model.Cart, error)
	GetItem(cartID, productID string) (*model.CartItem, error)
	CreateItem(item *model.CartItem) error
	UpdateItemQuantity(itemID string, quantity int) error
	DeleteItem(cartID, itemID string) error
	Clear(tx *gorm.DB, cartID string) error
	ClearByUser(userID string) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

// GetOrCreateByUser 取用户购物车，不存在则惰性创建
func (r *cartRepository) GetOrCreateByUser(userID string) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.Where("user_id = ?", userID).Preload("Items").First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart = model.Cart{UserID: userID}
	if err := r.db.Create(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) GetByUser(userID string) (*model.Cart, error) {
	var cart model.Cart
	if err := r.db.Where("user_id = ?", userID).Preload("Items").First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) GetItem(cartID, productID string) (*model.CartItem, error) {
	var item model.CartItem
	if err := r.db.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) CreateItem(item *model.CartItem) error {
	return r.db.Create(item).Error
}

func (r *cartRepository) UpdateItemQuantity(itemID string, quantity int) error {
	return r.db.Model(&model.CartItem{}).
		Where("id = ?", itemID).
		UpdateColumn("quantity", quantity).Error
}

func (r *cartRepository) DeleteItem(cartID, itemID string) error {
	return r.db.Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&model.CartItem{}).Error
}

// Clear 清空购物车，下单事务内调用
func (r *cartRepository) Clear(tx *gorm.DB, cartID string) error {
	return tx.Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error
}

// ClearByUser 清空用户购物车，购物车页的清空操作走这里
func (r *cartRepository) ClearByUser(userID string) error {
	cart, err := r.GetByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return r.Clear(r.db, cart.ID)
}
