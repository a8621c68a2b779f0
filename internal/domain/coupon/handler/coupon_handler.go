package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	cartService "storefront_api/internal/domain/cart/service"
	"storefront_api/internal/domain/coupon/service"
	"storefront_api/internal/pkg/middleware"
	"storefront_api/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CouponHandler struct {
	service service.CouponService
	carts   cartService.CartService
}

func NewCouponHandler(service service.CouponService, carts cartService.CartService) *CouponHandler {
	return &CouponHandler{service: service, carts: carts}
}

// CreateCouponInput 创建优惠券输入，金额字段用字符串承载 decimal
type CreateCouponInput struct {
	Code             string     `json:"code" binding:"required"`
	DiscountType     string     `json:"discountType" binding:"required,oneof=PERCENTAGE FIXED"`
	DiscountValue    string     `json:"discountValue" binding:"required"`
	MinOrderValue    *string    `json:"minOrderValue"`
	MaxUses          *int       `json:"maxUses"`
	FirstOrderOnly   bool       `json:"firstOrderOnly"`
	ExcludeSaleItems bool       `json:"excludeSaleItems"`
	ExpiresAt        *time.Time `json:"expiresAt"`
}

// ValidateInput 校验优惠码输入，订单上下文取自当前用户购物车
type ValidateInput struct {
	Code string `json:"code" binding:"required"`
}

// Create 管理员创建优惠券
func (h *CouponHandler) Create(c *gin.Context) {
	var input CreateCouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	value, err := decimal.NewFromString(input.DiscountValue)
	if err != nil || value.IsNegative() {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "invalid discount value")
		return
	}

	var minOrder *decimal.Decimal
	if input.MinOrderValue != nil {
		m, err := decimal.NewFromString(*input.MinOrderValue)
		if err != nil || m.IsNegative() {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "invalid minimum order value")
			return
		}
		minOrder = &m
	}

	coupon, err := h.service.Create(service.CouponInput{
		Code:             input.Code,
		DiscountType:     input.DiscountType,
		DiscountValue:    value,
		MinOrderValue:    minOrder,
		MaxUses:          input.MaxUses,
		FirstOrderOnly:   input.FirstOrderOnly,
		ExcludeSaleItems: input.ExcludeSaleItems,
		ExpiresAt:        input.ExpiresAt,
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to create coupon")
		return
	}

	response.Success(c, coupon)
}

// GetList 管理员优惠券列表
func (h *CouponHandler) GetList(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	coupons, total, err := h.service.GetList(page, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to fetch coupons")
		return
	}

	response.Success(c, gin.H{"coupons": coupons, "total": total})
}

// SetActiveInput 启用/停用输入
type SetActiveInput struct {
	Active *bool `json:"active" binding:"required"`
}

// SetActive 管理员启用/停用优惠券
func (h *CouponHandler) SetActive(c *gin.Context) {
	var input SetActiveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	if err := h.service.SetActive(c.Param("id"), *input.Active); err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to update coupon")
		return
	}
	response.Success(c, true)
}

// Validate 校验优惠码对当前用户购物车是否可用
// 只读操作，核销发生在下单事务内
func (h *CouponHandler) Validate(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "User not authenticated")
		return
	}

	var input ValidateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	cart, err := h.carts.GetCart(userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to fetch cart")
		return
	}

	lines := make([]service.SaleLine, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		lines = append(lines, service.SaleLine{ProductID: l.ProductID, OnSale: l.OnSale})
	}

	coupon, discount, err := h.service.Validate(c.Request.Context(), userID, input.Code, cart.Subtotal, lines)
	if err != nil {
		code, msg := validationFailure(err)
		if code == response.ErrServerInternal {
			response.Error(c, http.StatusInternalServerError, code, msg)
			return
		}
		response.Fail(c, code, msg)
		return
	}

	response.Success(c, gin.H{
		"accepted": true,
		"code":     coupon.Code,
		"discount": discount,
		"total":    cart.Subtotal.Sub(discount),
	})
}

// validationFailure 将校验失败原因映射为业务码
func validationFailure(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrRateLimited):
		return response.ErrCouponRateLimited, "Too many attempts, please try again later"
	case errors.Is(err, service.ErrInvalidCode):
		return response.ErrCouponInvalidCode, "Invalid coupon code"
	case errors.Is(err, service.ErrInactive):
		return response.ErrCouponInactive, "Coupon is not active"
	case errors.Is(err, service.ErrExpired):
		return response.ErrCouponExpired, "Coupon has expired"
	case errors.Is(err, service.ErrUsageLimitReached):
		return response.ErrCouponUsageLimit, "Coupon usage limit reached"
	case errors.Is(err, service.ErrAlreadyUsed):
		return response.ErrCouponAlreadyUsed, "You have already used this coupon"
	case errors.Is(err, service.ErrNotFirstOrder):
		return response.ErrCouponNotFirst, "Coupon is valid for first orders only"
	case errors.Is(err, service.ErrSaleItemsExcluded):
		return response.ErrCouponSaleExcluded, "Coupon cannot be applied to sale items"
	case errors.Is(err, service.ErrBelowMinimum):
		return response.ErrCouponBelowMin, "Order value below coupon minimum"
	default:
		return response.ErrServerInternal, "Coupon validation failed"
	}
}
