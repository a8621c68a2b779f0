package order

import (
	cartRepo "storefront_api/internal/domain/cart/repository"
	couponRepo "storefront_api/internal/domain/coupon/repository"
	couponService "storefront_api/internal/domain/coupon/service"
	"storefront_api/internal/domain/order/handler"
	"storefront_api/internal/domain/order/repository"
	"storefront_api/internal/domain/order/service"
	productRepo "storefront_api/internal/domain/product/repository"
	userRepo "storefront_api/internal/domain/user/repository"
	"storefront_api/internal/pkg/middleware"
	"storefront_api/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// OrderModule 订单模块
type OrderModule struct{}

func init() {
	registry.Register(&OrderModule{})
}

func (m *OrderModule) Name() string {
	return "order"
}

func (m *OrderModule) Priority() int {
	return 50
}

func (m *OrderModule) Init(ctx *registry.ModuleContext) error {
	oRepo := repository.NewOrderRepository(ctx.DB)
	pRepo := productRepo.NewProductRepository(ctx.DB)
	cRepo := cartRepo.NewCartRepository(ctx.DB)
	cpRepo := couponRepo.NewCouponRepository(ctx.DB)
	uRepo := userRepo.NewUserRepository(ctx.DB)

	// 下单路径只经由 Check，不触发限流；限流器仍然注入，
	// 这个实例上调用 Validate 也必须是安全的
	limiter := couponService.NewRedisAttemptLimiter(ctx.Redis, ctx.Config.App.CouponAttemptLimit)
	verifier := couponService.NewCouponService(cpRepo, oRepo, limiter)

	oService := service.NewOrderService(
		oRepo, pRepo, cRepo, cpRepo, verifier, uRepo, ctx.DB, ctx.Mailer,
	)
	oHandler := handler.NewOrderHandler(oService)

	setupRoutes(ctx.Router, oHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.OrderHandler) {
	g := r.Group("/orders")
	g.Use(middleware.AuthMiddleware())
	{
		g.POST("", h.Place)
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.POST("/:id/cancel", h.Cancel)
		g.PUT("/:id/address", h.UpdateAddress)
	}

	admin := r.Group("/admin/orders")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.GET("", h.AdminList)
		admin.GET("/:id", h.AdminGet)
		admin.PUT("/:id/status", h.AdminUpdateStatus)
		admin.PUT("/:id/assign", h.AssignAgent)
	}

	agent := r.Group("/agent/orders")
	agent.Use(middleware.AuthMiddleware(), middleware.AgentMiddleware())
	{
		agent.GET("", h.AgentList)
		agent.POST("/:id/out-for-delivery", h.StartDelivery)
		agent.POST("/:id/deliver", h.CompleteDelivery)
	}
}
