package cart

import (
	"storefront_api/internal/domain/cart/handler"
	"storefront_api/internal/domain/cart/repository"
	"storefront_api/internal/domain/cart/service"
	productRepo "storefront_api/internal/domain/product/repository"
	"storefront_api/internal/pkg/middleware"
	"storefront_api/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// CartModule 购物车模块
type CartModule struct{}

func init() {
	registry.Register(&CartModule{})
}

func (m *CartModule) Name() string {
	return "cart"
}

func (m *CartModule) Priority() int {
	return 30
}

func (m *CartModule) Init(ctx *registry.ModuleContext) error {
	cRepo := repository.NewCartRepository(ctx.DB)
	pRepo := productRepo.NewProductRepository(ctx.DB)
	cService := service.NewCartService(cRepo, pRepo)
	cHandler := handler.NewCartHandler(cService)

	setupRoutes(ctx.Router, cHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.CartHandler) {
	g := r.Group("/cart")
	g.Use(middleware.AuthMiddleware())
	{
		g.GET("", h.Get)
		g.DELETE("", h.Clear)
		g.POST("/items", h.AddItem)
		g.PUT("/items/:id", h.UpdateQuantity)
		g.DELETE("/items/:id", h.RemoveItem)
	}
}
