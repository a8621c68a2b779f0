package handler

import (
	"errors"
	"net/http"

	"storefront_api/internal/domain/user/model"
	"storefront_api/internal/domain/user/service"
	"storefront_api/internal/pkg/middleware"
	"storefront_api/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	service service.UserService
}

// NewUserHandler 创建处理器
func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterInput 注册输入
type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

// LoginInput 登录输入
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AddressInput 地址输入
type AddressInput struct {
	Tag     string `json:"tag"`
	Street  string `json:"street" binding:"required"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
}

func (in *AddressInput) toModel() *model.Address {
	return &model.Address{
		Tag:     in.Tag,
		Street:  in.Street,
		City:    in.City,
		State:   in.State,
		Zip:     in.Zip,
		Country: in.Country,
		Phone:   in.Phone,
	}
}

// Register 处理注册请求
func (h *UserHandler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	user, err := h.service.Register(input.Email, input.Password, input.Name)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			response.Fail(c, response.ErrUserExists, "Email already registered")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Registration failed")
		return
	}

	response.Success(c, user)
}

// Login 处理登录请求
func (h *UserHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	token, err := h.service.Login(input.Email, input.Password)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, response.ErrAuthFailed, err.Error())
		return
	}

	response.Success(c, gin.H{"token": token})
}

// Me 获取当前登录用户
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "User not authenticated")
		return
	}

	user, err := h.service.GetUser(userID)
	if err != nil {
		response.Error(c, http.StatusNotFound, response.ErrUserNotFound, "User not found")
		return
	}
	response.Success(c, user)
}

// CreateAddress 新增收货地址
func (h *UserHandler) CreateAddress(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var input AddressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	addr := input.toModel()
	if err := h.service.CreateAddress(userID, addr); err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to create address")
		return
	}
	response.Success(c, addr)
}

// GetAddresses 获取地址簿
func (h *UserHandler) GetAddresses(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	addrs, err := h.service.GetAddresses(userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to fetch addresses")
		return
	}
	response.Success(c, addrs)
}

// UpdateAddress 更新地址
func (h *UserHandler) UpdateAddress(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	addressID := c.Param("id")

	var input AddressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	addr, err := h.service.UpdateAddress(userID, addressID, input.toModel())
	if err != nil {
		if errors.Is(err, service.ErrAddressNotFound) {
			response.Fail(c, response.ErrAddressNotFound, "Address not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to update address")
		return
	}
	response.Success(c, addr)
}

// DeleteAddress 删除地址
func (h *UserHandler) DeleteAddress(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	addressID := c.Param("id")

	if err := h.service.DeleteAddress(userID, addressID); err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to delete address")
		return
	}
	response.Success(c, true)
}

// GetAgents 管理员查看配送员列表
func (h *UserHandler) GetAgents(c *gin.Context) {
	agents, err := h.service.GetAgents()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to fetch agents")
		return
	}
	response.Success(c, agents)
}
