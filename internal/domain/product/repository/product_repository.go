package repository

import (
	"errors"

	"storefront_api/internal/domain/product/model"

	"gorm.io/gorm"
)

// ErrInsufficientStock 条件扣减未命中任何行：库存不足
var ErrInsufficientStock = errors.New("insufficient stock")

// ProductRepository 接口定义
type ProductRepository interface {
	Create(product *model.Product) error
	GetByID(id string) (*model.Product, error)
	GetByIDTx(tx *gorm.DB, id string) (*model.Product, error)
	GetList(category string, offset, limit int) ([]model.Product, int64, error)
	Update(product *model.Product) error
	Delete(id string) error
	DecrementStock(tx *gorm.DB, productID string, quantity int) error
	RestoreStock(tx *gorm.DB, productID string, quantity int) error
}

// productRepository 实现
type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepository) GetByID(id string) (*model.Product, error) {
	return r.GetByIDTx(r.db, id)
}

// GetByIDTx 在事务内读取商品，用于下单时服务端重新取价
func (r *productRepository) GetByIDTx(tx *gorm.DB, id string) (*model.Product, error) {
	var product model.Product
	if err := tx.Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetList 商品列表（分页，可按分类过滤）
func (r *productRepository) GetList(category string, offset, limit int) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	query := r.db.Model(&model.Product{})
	if category != "" {
		query = query.Where("category = ?", category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Offset(offset).Limit(limit).Order("created_at desc").Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *productRepository) Update(product *model.Product) error {
	return r.db.Save(product).Error
}

func (r *productRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.Product{}).Error
}

// DecrementStock 条件扣减库存
// 扣减和下限检查必须是同一条 UPDATE，由数据库原子行更新仲裁并发，
// 读-查-写三步在并发下会超卖
func (r *productRepository) DecrementStock(tx *gorm.DB, productID string, quantity int) error {
	result := tx.Model(&model.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// RestoreStock 取消订单时回补库存，纯增量不需要下限检查
func (r *productRepository) RestoreStock(tx *gorm.DB, productID string, quantity int) error {
	return tx.Model(&model.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity)).Error
}
