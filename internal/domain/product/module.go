package product

import (
	"storefront_api/internal/domain/product/handler"
	"storefront_api/internal/domain/product/repository"
	"storefront_api/internal/domain/product/service"
	"storefront_api/internal/pkg/middleware"
	"storefront_api/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// ProductModule 商品模块
type ProductModule struct{}

func init() {
	registry.Register(&ProductModule{})
}

func (m *ProductModule) Name() string {
	return "product"
}

func (m *ProductModule) Priority() int {
	return 20
}

func (m *ProductModule) Init(ctx *registry.ModuleContext) error {
	pRepo := repository.NewProductRepository(ctx.DB)
	pService := service.NewProductService(pRepo)
	pHandler := handler.NewProductHandler(pService)

	setupRoutes(ctx.Router, pHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.ProductHandler) {
	g := r.Group("/products")

	// 公开读取
	g.GET("", h.GetList)
	g.GET("/:id", h.Get)

	// 管理员维护目录
	admin := g.Group("")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.POST("", h.Create)
		admin.PUT("/:id", h.Update)
		admin.DELETE("/:id", h.Delete)
	}
}
