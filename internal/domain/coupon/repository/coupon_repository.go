package repository

import (
	"errors"
	"strings"

	"storefront_api/internal/domain/coupon/model"

	"gorm.io/gorm"
)

// ErrUsageExhausted 条件自增未命中任何行：全局使用次数已达上限
var ErrUsageExhausted = errors.New("coupon usage exhausted")

// CouponRepository 接口定义
type CouponRepository interface {
	Create(coupon *model.Coupon) error
	GetByCode(code string) (*model.Coupon, error)
	GetList(offset, limit int) ([]model.Coupon, int64, error)
	SetActive(id string, active bool) error
	CountUsage(couponID, userID string) (int64, error)
	Redeem(tx *gorm.DB, couponID string) error
	CreateUsage(tx *gorm.DB, usage *model.CouponUsage) error
}

type couponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Create(coupon *model.Coupon) error {
	coupon.Code = strings.ToUpper(coupon.Code)
	return r.db.Create(coupon).Error
}

// GetByCode 按码查找，码大小写不敏感
func (r *couponRepository) GetByCode(code string) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := r.db.Where("code = ?", strings.ToUpper(code)).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) GetList(offset, limit int) ([]model.Coupon, int64, error) {
	var coupons []model.Coupon
	var total int64

	if err := r.db.Model(&model.Coupon{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.Offset(offset).Limit(limit).Order("created_at desc").Find(&coupons).Error; err != nil {
		return nil, 0, err
	}

	return coupons, total, nil
}

func (r *couponRepository) SetActive(id string, active bool) error {
	return r.db.Model(&model.Coupon{}).
		Where("id = ?", id).
		UpdateColumn("active", active).Error
}

// CountUsage 该用户是否已核销过这张券
func (r *couponRepository) CountUsage(couponID, userID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.CouponUsage{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&count).Error
	return count, err
}

// Redeem 核销：条件自增 used_count
// 上限检查和自增必须是同一条 UPDATE，保证 used_count 永远不超过 max_uses
func (r *couponRepository) Redeem(tx *gorm.DB, couponID string) error {
	result := tx.Model(&model.Coupon{}).
		Where("id = ? AND (max_uses IS NULL OR used_count < max_uses)", couponID).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUsageExhausted
	}
	return nil
}

func (r *couponRepository) CreateUsage(tx *gorm.DB, usage *model.CouponUsage) error {
	return tx.Create(usage).Error
}
