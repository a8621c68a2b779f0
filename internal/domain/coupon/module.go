package coupon

import (
	cartRepo "storefront_api/internal/domain/cart/repository"
	cartService "storefront_api/internal/domain/cart/service"
	"storefront_api/internal/domain/coupon/handler"
	"storefront_api/internal/domain/coupon/repository"
	"storefront_api/internal/domain/coupon/service"
	orderRepo "storefront_api/internal/domain/order/repository"
	productRepo "storefront_api/internal/domain/product/repository"
	"storefront_api/internal/pkg/middleware"
	"storefront_api/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// CouponModule 优惠券模块
type CouponModule struct{}

func init() {
	registry.Register(&CouponModule{})
}

func (m *CouponModule) Name() string {
	return "coupon"
}

func (m *CouponModule) Priority() int {
	return 40
}

func (m *CouponModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewCouponRepository(ctx.DB)
	orders := orderRepo.NewOrderRepository(ctx.DB)
	limiter := service.NewRedisAttemptLimiter(ctx.Redis, ctx.Config.App.CouponAttemptLimit)
	cService := service.NewCouponService(repo, orders, limiter)

	carts := cartService.NewCartService(
		cartRepo.NewCartRepository(ctx.DB),
		productRepo.NewProductRepository(ctx.DB),
	)

	cHandler := handler.NewCouponHandler(cService, carts)
	setupRoutes(ctx.Router, cHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.CouponHandler) {
	g := r.Group("/coupons")
	g.Use(middleware.AuthMiddleware())
	{
		g.POST("/validate", h.Validate)
	}

	admin := r.Group("/admin/coupons")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.POST("", h.Create)
		admin.GET("", h.GetList)
		admin.PUT("/:id/active", h.SetActive)
	}
}
