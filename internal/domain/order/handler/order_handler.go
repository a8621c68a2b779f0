package handler

import (
	"errors"
	"net/http"
	"strconv"

	couponService "storefront_api/internal/domain/coupon/service"
	"storefront_api/internal/domain/order/service"
	"storefront_api/internal/pkg/middleware"
	"storefront_api/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(service service.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// PlaceOrderInput 下单请求体，价格一律不接受客户端输入
type PlaceOrderInput struct {
	AddressID  string `json:"addressId" binding:"required"`
	CouponCode string `json:"couponCode"`
}

// Place 下单
func (h *OrderHandler) Place(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "User not authenticated")
		return
	}

	var input PlaceOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	order, err := h.service.PlaceOrder(userID, service.PlaceOrderInput{
		AddressID:  input.AddressID,
		CouponCode: input.CouponCode,
	})
	if err != nil {
		h.placementFailure(c, err)
		return
	}

	response.Success(c, order)
}

// placementFailure 下单失败只向用户暴露可操作的原因，其余归为通用失败
func (h *OrderHandler) placementFailure(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		response.Fail(c, response.ErrProductNotFound, "Product not found")
	case errors.Is(err, service.ErrOutOfStock):
		response.Fail(c, response.ErrProductStock, "Product out of stock")
	case errors.Is(err, service.ErrEmptyCart):
		response.Fail(c, response.ErrCartEmpty, "Cart is empty")
	case errors.Is(err, service.ErrAddressNotFound):
		response.Fail(c, response.ErrAddressNotFound, "Address not found")
	case errors.Is(err, couponService.ErrInvalidCode),
		errors.Is(err, couponService.ErrInactive),
		errors.Is(err, couponService.ErrExpired),
		errors.Is(err, couponService.ErrUsageLimitReached),
		errors.Is(err, couponService.ErrAlreadyUsed),
		errors.Is(err, couponService.ErrNotFirstOrder),
		errors.Is(err, couponService.ErrSaleItemsExcluded),
		errors.Is(err, couponService.ErrBelowMinimum):
		response.Fail(c, response.ErrCouponInvalidCode, "Coupon not applicable: "+err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.ErrOrderPlacement, "Failed to place order")
	}
}

// List 当前用户订单列表
func (h *OrderHandler) List(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "User not authenticated")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	orders, total, err := h.service.ListOrders(userID, page, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to fetch orders")
		return
	}
	response.Success(c, gin.H{"orders": orders, "total": total})
}

// Get 订单详情，只能看自己的
func (h *OrderHandler) Get(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "User not authenticated")
		return
	}

	order, err := h.service.GetOrder(userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			response.Error(c, http.StatusNotFound, response.ErrOrderNotFound, "Order not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to fetch order")
		return
	}
	response.Success(c, order)
}

// Cancel 客户取消订单
func (h *OrderHandler) Cancel(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "User not authenticated")
		return
	}

	if err := h.service.Cancel(userID, c.Param("id")); err != nil {
		h.transitionFailure(c, err)
		return
	}
	response.Success(c, true)
}

// UpdateAddressInput 改地址请求体
type UpdateAddressInput struct {
	AddressID string `json:"addressId" binding:"required"`
}

// UpdateAddress 改收货地址，发货后锁定
func (h *OrderHandler) UpdateAddress(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "User not authenticated")
		return
	}

	var input UpdateAddressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	if err := h.service.UpdateAddress(userID, c.Param("id"), input.AddressID); err != nil {
		h.transitionFailure(c, err)
		return
	}
	response.Success(c, true)
}

// AdminList 管理端订单列表，可按状态过滤
func (h *OrderHandler) AdminList(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	status := c.Query("status")

	orders, total, err := h.service.AdminListOrders(status, page, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to fetch orders")
		return
	}
	response.Success(c, gin.H{"orders": orders, "total": total})
}

// AdminGet 管理端订单详情
func (h *OrderHandler) AdminGet(c *gin.Context) {
	order, err := h.service.AdminGetOrder(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			response.Error(c, http.StatusNotFound, response.ErrOrderNotFound, "Order not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to fetch order")
		return
	}
	response.Success(c, order)
}

// UpdateStatusInput 管理员推进状态请求体
type UpdateStatusInput struct {
	Status string `json:"status" binding:"required"`
}

// AdminUpdateStatus 管理员推进订单状态
func (h *OrderHandler) AdminUpdateStatus(c *gin.Context) {
	var input UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	order, err := h.service.AdminUpdateStatus(c.Param("id"), input.Status)
	if err != nil {
		h.transitionFailure(c, err)
		return
	}
	response.Success(c, order)
}

// AssignAgentInput 指派配送员请求体
type AssignAgentInput struct {
	AgentID string `json:"agentId" binding:"required"`
}

// AssignAgent 管理员指派配送员
func (h *OrderHandler) AssignAgent(c *gin.Context) {
	var input AssignAgentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	if err := h.service.AssignAgent(c.Param("id"), input.AgentID); err != nil {
		h.transitionFailure(c, err)
		return
	}
	response.Success(c, true)
}

// AgentList 配送员名下订单
func (h *OrderHandler) AgentList(c *gin.Context) {
	agentID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "User not authenticated")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	orders, total, err := h.service.AgentListOrders(agentID, page, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to fetch orders")
		return
	}
	response.Success(c, gin.H{"orders": orders, "total": total})
}

// StartDelivery 配送员取件出发
func (h *OrderHandler) StartDelivery(c *gin.Context) {
	agentID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "User not authenticated")
		return
	}

	if err := h.service.AgentStartDelivery(agentID, c.Param("id")); err != nil {
		h.transitionFailure(c, err)
		return
	}
	response.Success(c, true)
}

// CompleteDeliveryInput 收货验证码请求体
type CompleteDeliveryInput struct {
	OTP string `json:"otp" binding:"required"`
}

// CompleteDelivery 配送员凭收货验证码完成配送
func (h *OrderHandler) CompleteDelivery(c *gin.Context) {
	agentID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "User not authenticated")
		return
	}

	var input CompleteDeliveryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	if err := h.service.AgentCompleteDelivery(agentID, c.Param("id"), input.OTP); err != nil {
		h.transitionFailure(c, err)
		return
	}
	response.Success(c, true)
}

// transitionFailure 状态类失败映射为业务码
func (h *OrderHandler) transitionFailure(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		response.Error(c, http.StatusNotFound, response.ErrOrderNotFound, "Order not found")
	case errors.Is(err, service.ErrInvalidTransition):
		response.Fail(c, response.ErrOrderTransition, "Invalid status transition")
	case errors.Is(err, service.ErrOrderLocked):
		response.Fail(c, response.ErrOrderLocked, "Order can no longer be modified")
	case errors.Is(err, service.ErrInvalidOTP):
		response.Fail(c, response.ErrOrderInvalidOTP, "Invalid delivery OTP")
	case errors.Is(err, service.ErrNotAssigned):
		response.Error(c, http.StatusForbidden, response.ErrOrderNotAssigned, "Order not assigned to you")
	case errors.Is(err, service.ErrNotAgent):
		response.Fail(c, response.ErrOrderNotAssigned, "User is not a delivery agent")
	case errors.Is(err, service.ErrAddressNotFound):
		response.Fail(c, response.ErrAddressNotFound, "Address not found")
	default:
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Operation failed")
	}
}
