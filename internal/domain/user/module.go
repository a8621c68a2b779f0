package user

import (
	"storefront_api/internal/domain/user/handler"
	"storefront_api/internal/domain/user/repository"
	"storefront_api/internal/domain/user/service"
	"storefront_api/internal/pkg/middleware"
	"storefront_api/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// UserModule 用户模块
type UserModule struct{}

func init() {
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	return 10
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	uRepo := repository.NewUserRepository(ctx.DB)
	uService := service.NewUserService(uRepo)
	uHandler := handler.NewUserHandler(uService)

	// 2. 路由注册
	setupRoutes(ctx.Router, uHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.UserHandler) {
	g := r.Group("/users")

	g.POST("/register", h.Register)
	g.POST("/login", h.Login)

	// 需要认证的路由组
	authorized := g.Group("")
	authorized.Use(middleware.AuthMiddleware())
	{
		authorized.GET("/me", h.Me)

		authorized.POST("/addresses", h.CreateAddress)
		authorized.GET("/addresses", h.GetAddresses)
		authorized.PUT("/addresses/:id", h.UpdateAddress)
		authorized.DELETE("/addresses/:id", h.DeleteAddress)
	}

	// 管理员接口
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.GET("/agents", h.GetAgents)
	}
}
