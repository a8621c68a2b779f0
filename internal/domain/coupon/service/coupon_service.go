package service

import (
	"context"
	"errors"
	"time"

	"storefront_api/internal/domain/coupon/model"
	"storefront_api/internal/domain/coupon/repository"
	"storefront_api/internal/domain/product/pricing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 校验失败原因，按校验顺序排列
var (
	ErrRateLimited       = errors.New("too many validation attempts")
	ErrInvalidCode       = errors.New("invalid coupon code")
	ErrInactive          = errors.New("coupon is not active")
	ErrExpired           = errors.New("coupon has expired")
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	ErrAlreadyUsed       = errors.New("coupon already used")
	ErrNotFirstOrder     = errors.New("coupon is for first orders only")
	ErrSaleItemsExcluded = errors.New("coupon cannot be applied to sale items")
	ErrBelowMinimum      = errors.New("order below coupon minimum value")
)

// SaleLine 校验输入的一条购物行：商品是否正在促销
type SaleLine struct {
	ProductID string
	OnSale    bool
}

// OrderCounter 查询用户历史订单数，首单券校验用
// 由 order 模块的仓库实现
type OrderCounter interface {
	CountByUser(userID string) (int64, error)
}

// CouponInput 创建优惠券输入
type CouponInput struct {
	Code             string
	DiscountType     string
	DiscountValue    decimal.Decimal
	MinOrderValue    *decimal.Decimal
	MaxUses          *int
	FirstOrderOnly   bool
	ExcludeSaleItems bool
	ExpiresAt        *time.Time
}

// CouponService 优惠券服务接口
type CouponService interface {
	Create(input CouponInput) (*model.Coupon, error)
	GetList(page, limit int) ([]model.Coupon, int64, error)
	SetActive(id string, active bool) error

	// Validate 对外校验入口，先过限流再走 Check
	Validate(ctx context.Context, userID, code string, subtotal decimal.Decimal, lines []SaleLine) (*model.Coupon, decimal.Decimal, error)

	// Check 完整资格校验并计算优惠金额，无任何写入
	// 核销（used_count 自增 + 使用记录）只发生在下单事务内
	Check(userID, code string, subtotal decimal.Decimal, lines []SaleLine) (*model.Coupon, decimal.Decimal, error)
}

type couponService struct {
	repo    repository.CouponRepository
	orders  OrderCounter
	limiter AttemptLimiter
}

func NewCouponService(repo repository.CouponRepository, orders OrderCounter, limiter AttemptLimiter) CouponService {
	return &couponService{
		repo:    repo,
		orders:  orders,
		limiter: limiter,
	}
}

func (s *couponService) Create(input CouponInput) (*model.Coupon, error) {
	coupon := &model.Coupon{
		Code:             input.Code,
		DiscountType:     input.DiscountType,
		DiscountValue:    input.DiscountValue,
		MinOrderValue:    input.MinOrderValue,
		MaxUses:          input.MaxUses,
		FirstOrderOnly:   input.FirstOrderOnly,
		ExcludeSaleItems: input.ExcludeSaleItems,
		ExpiresAt:        input.ExpiresAt,
		Active:           true,
	}
	if err := s.repo.Create(coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

func (s *couponService) GetList(page, limit int) ([]model.Coupon, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.GetList((page-1)*limit, limit)
}

func (s *couponService) SetActive(id string, active bool) error {
	return s.repo.SetActive(id, active)
}

// Validate 限流在任何数据库查询之前
func (s *couponService) Validate(ctx context.Context, userID, code string, subtotal decimal.Decimal, lines []SaleLine) (*model.Coupon, decimal.Decimal, error) {
	allowed, err := s.limiter.Allow(ctx, userID)
	if err != nil {
		// 限流器故障时中止本次尝试，不写入任何状态
		return nil, decimal.Zero, err
	}
	if !allowed {
		return nil, decimal.Zero, ErrRateLimited
	}

	return s.Check(userID, code, subtotal, lines)
}

// Check 按固定顺序短路校验，顺序决定了用户看到的拒绝原因
func (s *couponService) Check(userID, code string, subtotal decimal.Decimal, lines []SaleLine) (*model.Coupon, decimal.Decimal, error) {
	// 1. 码必须存在
	coupon, err := s.repo.GetByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, decimal.Zero, ErrInvalidCode
		}
		return nil, decimal.Zero, err
	}

	// 2. 必须启用
	if !coupon.Active {
		return nil, decimal.Zero, ErrInactive
	}

	// 3. 未过期
	if coupon.ExpiresAt != nil && time.Now().After(*coupon.ExpiresAt) {
		return nil, decimal.Zero, ErrExpired
	}

	// 4. 全局使用次数未达上限
	if coupon.MaxUses != nil && coupon.UsedCount >= *coupon.MaxUses {
		return nil, decimal.Zero, ErrUsageLimitReached
	}

	// 5. 该用户未用过这张券
	used, err := s.repo.CountUsage(coupon.ID, userID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if used > 0 {
		return nil, decimal.Zero, ErrAlreadyUsed
	}

	// 6. 首单券要求用户没有任何历史订单（不论状态）
	if coupon.FirstOrderOnly {
		count, err := s.orders.CountByUser(userID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if count > 0 {
			return nil, decimal.Zero, ErrNotFirstOrder
		}
	}

	// 7. 排除促销商品的券：购物车里有任何促销中的商品即拒绝
	if coupon.ExcludeSaleItems {
		for _, line := range lines {
			if line.OnSale {
				return nil, decimal.Zero, ErrSaleItemsExcluded
			}
		}
	}

	// 8. 满足最低消费
	if coupon.MinOrderValue != nil && subtotal.LessThan(*coupon.MinOrderValue) {
		return nil, decimal.Zero, ErrBelowMinimum
	}

	discount := pricing.Discount(subtotal, coupon.DiscountType, coupon.DiscountValue)
	return coupon, discount, nil
}
