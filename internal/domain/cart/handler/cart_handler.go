package handler

import (
	"errors"
	"net/http"

	"storefront_api/internal/domain/cart/service"
	"storefront_api/internal/pkg/middleware"
	"storefront_api/pkg/response"

	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	service service.CartService
}

func NewCartHandler(service service.CartService) *CartHandler {
	return &CartHandler{service: service}
}

// AddItemInput 加购输入
type AddItemInput struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// UpdateQuantityInput 数量更新输入，数量 <= 0 删除该行
type UpdateQuantityInput struct {
	Quantity int `json:"quantity"`
}

// Get 读取购物车
func (h *CartHandler) Get(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	view, err := h.service.GetCart(userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to fetch cart")
		return
	}
	response.Success(c, view)
}

// AddItem 加购
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var input AddItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	item, err := h.service.AddItem(userID, input.ProductID, input.Quantity)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			response.Fail(c, response.ErrProductNotFound, "Product not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to add item to cart")
		return
	}
	response.Success(c, item)
}

// UpdateQuantity 更新行数量
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	itemID := c.Param("id")

	var input UpdateQuantityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	if err := h.service.UpdateQuantity(userID, itemID, input.Quantity); err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			response.Fail(c, response.ErrCartItemNotFound, "Cart item not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to update cart item")
		return
	}
	response.Success(c, true)
}

// RemoveItem 删除行
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	itemID := c.Param("id")

	if err := h.service.RemoveItem(userID, itemID); err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			response.Fail(c, response.ErrCartItemNotFound, "Cart item not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to remove cart item")
		return
	}
	response.Success(c, true)
}

// Clear 清空购物车
func (h *CartHandler) Clear(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	if err := h.service.Clear(userID); err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to clear cart")
		return
	}
	response.Success(c, true)
}
