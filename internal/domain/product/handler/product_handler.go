package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront_api/internal/domain/product/service"
	"storefront_api/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	service service.ProductService
}

func NewProductHandler(service service.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// ProductInput 商品输入
// 价格以字符串接收并解析为 decimal，拒绝无法解析的负值或乱值
type ProductInput struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	ImageURL    string     `json:"imageUrl"`
	Price       string     `json:"price" binding:"required"`
	Stock       int        `json:"stock" binding:"min=0"`
	OnSale      bool       `json:"onSale"`
	SalePercent int        `json:"salePercent" binding:"min=0,max=100"`
	SaleEndsAt  *time.Time `json:"saleEndsAt"`
}

func (in *ProductInput) toService() (service.ProductInput, error) {
	price, err := decimal.NewFromString(in.Price)
	if err != nil || price.IsNegative() {
		return service.ProductInput{}, errors.New("invalid price")
	}
	return service.ProductInput{
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		Price:       price,
		Stock:       in.Stock,
		OnSale:      in.OnSale,
		SalePercent: in.SalePercent,
		SaleEndsAt:  in.SaleEndsAt,
	}, nil
}

// Create 管理员创建商品
func (h *ProductHandler) Create(c *gin.Context) {
	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	svcInput, err := input.toService()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	product, err := h.service.Create(svcInput)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to create product")
		return
	}
	response.Success(c, product)
}

// Get 获取单个商品（含当前有效价）
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.service.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			response.Fail(c, response.ErrProductNotFound, "Product not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to fetch product")
		return
	}
	response.Success(c, product)
}

// GetList 商品列表
func (h *ProductHandler) GetList(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	category := c.Query("category")

	products, total, err := h.service.GetList(category, page, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to fetch products")
		return
	}

	response.Success(c, gin.H{
		"products": products,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// Update 管理员更新商品
func (h *ProductHandler) Update(c *gin.Context) {
	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	svcInput, err := input.toService()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	product, err := h.service.Update(c.Param("id"), svcInput)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			response.Fail(c, response.ErrProductNotFound, "Product not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to update product")
		return
	}
	response.Success(c, product)
}

// Delete 管理员删除商品
func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Param("id")); err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to delete product")
		return
	}
	response.Success(c, true)
}
