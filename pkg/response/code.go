package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 用户模块错误 100xx
	ErrUserExists   = 10001
	ErrUserNotFound = 10002
	ErrAuthFailed   = 10003
	ErrTokenInvalid = 10004
	ErrNoPermission = 10005

	// 商品模块错误 200xx
	ErrProductNotFound = 20001
	ErrProductStock    = 20002

	// 购物车模块错误 300xx
	ErrCartEmpty        = 30001
	ErrCartItemNotFound = 30002

	// 优惠券模块错误 400xx
	ErrCouponInvalidCode  = 40001
	ErrCouponInactive     = 40002
	ErrCouponExpired      = 40003
	ErrCouponUsageLimit   = 40004
	ErrCouponAlreadyUsed  = 40005
	ErrCouponNotFirst     = 40006
	ErrCouponSaleExcluded = 40007
	ErrCouponBelowMin     = 40008
	ErrCouponRateLimited  = 40009

	// 订单模块错误 600xx
	ErrOrderNotFound     = 60001
	ErrOrderTransition   = 60002
	ErrOrderLocked       = 60003
	ErrOrderInvalidOTP   = 60004
	ErrOrderNotAssigned  = 60005
	ErrAddressNotFound   = 60006
	ErrOrderPlacement    = 60007

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
)
