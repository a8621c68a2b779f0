package service

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	cartRepo "storefront_api/internal/domain/cart/repository"
	couponModel "storefront_api/internal/domain/coupon/model"
	couponRepo "storefront_api/internal/domain/coupon/repository"
	couponService "storefront_api/internal/domain/coupon/service"
	"storefront_api/internal/domain/order/model"
	"storefront_api/internal/domain/order/repository"
	"storefront_api/internal/domain/product/pricing"
	productRepo "storefront_api/internal/domain/product/repository"
	userModel "storefront_api/internal/domain/user/model"
	userRepo "storefront_api/internal/domain/user/repository"
	"storefront_api/internal/pkg/mailer"
	"storefront_api/internal/pkg/metrics"
	"storefront_api/internal/pkg/otp"
	"storefront_api/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrProductNotFound   = errors.New("product not found")
	ErrOutOfStock        = errors.New("product out of stock")
	ErrAddressNotFound   = errors.New("address not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrOrderLocked       = errors.New("order can no longer be modified")
	ErrInvalidOTP        = errors.New("invalid delivery otp")
	ErrNotAssigned       = errors.New("order not assigned to this agent")
	ErrNotAgent          = errors.New("user is not a delivery agent")
)

// TxManager 事务入口，*gorm.DB 天然满足该接口
// 抽出来是为了在服务测试里用假事务替换真数据库
type TxManager interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// CouponVerifier 下单路径的优惠券资格校验，不走限流
type CouponVerifier interface {
	Check(userID, code string, subtotal decimal.Decimal, lines []couponService.SaleLine) (*couponModel.Coupon, decimal.Decimal, error)
}

// AddressSnapshot 订单上的收货地址快照，字段与地址簿条目一一对应
type AddressSnapshot struct {
	Tag     string `json:"tag"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Phone   string `json:"phone"`
}

// snapshotAddress 把地址簿条目固化为订单上的 JSON 快照
func snapshotAddress(addr *userModel.Address) (datatypes.JSON, error) {
	raw, err := json.Marshal(AddressSnapshot{
		Tag:     addr.Tag,
		Street:  addr.Street,
		City:    addr.City,
		State:   addr.State,
		Zip:     addr.Zip,
		Country: addr.Country,
		Phone:   addr.Phone,
	})
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// PlaceOrderInput 下单输入：买购物车里的全部商品
type PlaceOrderInput struct {
	AddressID  string
	CouponCode string
}

// OrderService 订单服务接口
type OrderService interface {
	// PlaceOrder 下单：单个事务内建单、扣库存、清空购物车、核销优惠券
	PlaceOrder(userID string, input PlaceOrderInput) (*model.Order, error)

	GetOrder(userID, orderID string) (*model.Order, error)
	ListOrders(userID string, page, limit int) ([]model.Order, int64, error)
	Cancel(userID, orderID string) error
	UpdateAddress(userID, orderID, addressID string) error

	AdminListOrders(status string, page, limit int) ([]model.Order, int64, error)
	AdminGetOrder(orderID string) (*model.Order, error)
	AdminUpdateStatus(orderID, to string) (*model.Order, error)
	AssignAgent(orderID, agentID string) error

	AgentListOrders(agentID string, page, limit int) ([]model.Order, int64, error)
	AgentStartDelivery(agentID, orderID string) error
	AgentCompleteDelivery(agentID, orderID, otpCode string) error
}

type orderService struct {
	repo     repository.OrderRepository
	products productRepo.ProductRepository
	carts    cartRepo.CartRepository
	coupons  couponRepo.CouponRepository
	verifier CouponVerifier
	users    userRepo.UserRepository
	txm      TxManager
	mail     *mailer.Dispatcher
}

func NewOrderService(
	repo repository.OrderRepository,
	products productRepo.ProductRepository,
	carts cartRepo.CartRepository,
	coupons couponRepo.CouponRepository,
	verifier CouponVerifier,
	users userRepo.UserRepository,
	txm TxManager,
	mail *mailer.Dispatcher,
) OrderService {
	return &orderService{
		repo:     repo,
		products: products,
		carts:    carts,
		coupons:  coupons,
		verifier: verifier,
		users:    users,
		txm:      txm,
		mail:     mail,
	}
}

// PlaceOrder 下单事务
// 所有价格在事务内服务端重取，客户端传来的价格一律不信
func (s *orderService) PlaceOrder(userID string, input PlaceOrderInput) (*model.Order, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}

	addr, err := s.users.GetAddress(userID, input.AddressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	snapshot, err := snapshotAddress(addr)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.GetByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	var order *model.Order
	err = s.txm.Transaction(func(tx *gorm.DB) error {
		// 事务内重取商品，计算权威单价
		subtotal := decimal.Zero
		items := make([]model.OrderItem, 0, len(cart.Items))
		saleLines := make([]couponService.SaleLine, 0, len(cart.Items))

		for _, ci := range cart.Items {
			p, err := s.products.GetByIDTx(tx, ci.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrProductNotFound
				}
				return err
			}

			unit := pricing.Effective(p.Price, p.OnSale, p.SalePercent, p.SaleEndsAt, nowFunc())
			items = append(items, model.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    ci.Quantity,
				Price:       unit,
			})
			saleLines = append(saleLines, couponService.SaleLine{
				ProductID: p.ID,
				OnSale:    pricing.SaleActive(p.OnSale, p.SalePercent, p.SaleEndsAt, nowFunc()),
			})
			subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(int64(ci.Quantity))))
		}

		discount := decimal.Zero
		var coupon *couponModel.Coupon
		var couponCode *string
		if input.CouponCode != "" {
			c, d, err := s.verifier.Check(userID, input.CouponCode, subtotal, saleLines)
			if err != nil {
				return err
			}
			coupon = c
			couponCode = &c.Code
			discount = d
		}

		tracking := otp.TrackingNumber()
		order = &model.Order{
			OrderNumber:     otp.OrderNumber(),
			UserID:          userID,
			Status:          model.StatusPending,
			Subtotal:        subtotal,
			Discount:        discount,
			Total:           subtotal.Sub(discount),
			CouponCode:      couponCode,
			ShippingAddress: snapshot,
			TrackingNumber:  &tracking,
			Items:           items,
		}
		if err := s.repo.Create(tx, order); err != nil {
			return err
		}

		// 条件扣库存，任何一行不足则整单回滚
		for _, item := range order.Items {
			if err := s.products.DecrementStock(tx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, productRepo.ErrInsufficientStock) {
					return ErrOutOfStock
				}
				return err
			}
		}

		if err := s.carts.Clear(tx, cart.ID); err != nil {
			return err
		}

		// 核销与建单同事务，保证 used_count 与使用记录一致
		if coupon != nil {
			if err := s.coupons.Redeem(tx, coupon.ID); err != nil {
				if errors.Is(err, couponRepo.ErrUsageExhausted) {
					return couponService.ErrUsageLimitReached
				}
				return err
			}
			if err := s.coupons.CreateUsage(tx, &couponModel.CouponUsage{
				CouponID: coupon.ID,
				UserID:   userID,
				OrderID:  order.ID,
			}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderPlaced()

	// 确认邮件在事务外异步发送，失败只记录不回滚订单
	s.enqueueMail(mailer.Message{
		To:       user.Email,
		Subject:  "Your order has been placed",
		Template: mailer.TemplateOrderConfirmation,
		Data: mailer.OrderConfirmationData{
			Name:        user.Name,
			OrderNumber: order.OrderNumber,
			Total:       order.Total.StringFixed(2),
		},
	})

	logger.Log.Info("order placed",
		zap.String("orderId", order.ID),
		zap.String("userId", userID),
		zap.String("total", order.Total.StringFixed(2)))

	return order, nil
}

func (s *orderService) GetOrder(userID, orderID string) (*model.Order, error) {
	order, err := s.repo.GetByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	// 不泄露他人订单的存在
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) ListOrders(userID string, page, limit int) ([]model.Order, int64, error) {
	offset, limit := paginate(page, limit)
	return s.repo.ListByUser(userID, offset, limit)
}

// Cancel 客户取消，仅限 PENDING / PROCESSING
// 条件流转命中才回补库存，天然防止重复回补
func (s *orderService) Cancel(userID, orderID string) error {
	order, err := s.GetOrder(userID, orderID)
	if err != nil {
		return err
	}

	return s.txm.Transaction(func(tx *gorm.DB) error {
		ok, err := s.repo.TransitionStatus(tx, order.ID,
			[]string{model.StatusPending, model.StatusProcessing},
			model.StatusCancelled, nil)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}

		for _, item := range order.Items {
			if err := s.products.RestoreStock(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateAddress 换收货地址，发货后拒绝
func (s *orderService) UpdateAddress(userID, orderID, addressID string) error {
	if _, err := s.GetOrder(userID, orderID); err != nil {
		return err
	}

	addr, err := s.users.GetAddress(userID, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAddressNotFound
		}
		return err
	}

	snapshot, err := snapshotAddress(addr)
	if err != nil {
		return err
	}

	ok, err := s.repo.UpdateAddress(orderID, snapshot,
		[]string{model.StatusPending, model.StatusProcessing})
	if err != nil {
		return err
	}
	if !ok {
		return ErrOrderLocked
	}
	return nil
}

func (s *orderService) AdminListOrders(status string, page, limit int) ([]model.Order, int64, error) {
	offset, limit := paginate(page, limit)
	return s.repo.ListAll(status, offset, limit)
}

func (s *orderService) AdminGetOrder(orderID string) (*model.Order, error) {
	order, err := s.repo.GetByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// AdminUpdateStatus 管理员推进订单状态
// SHIPPED 是唯一会改写收货验证码的流转
func (s *orderService) AdminUpdateStatus(orderID, to string) (*model.Order, error) {
	order, err := s.AdminGetOrder(orderID)
	if err != nil {
		return nil, err
	}

	switch to {
	case model.StatusProcessing:
		err = s.transition(order.ID, []string{model.StatusPending}, to, nil)

	case model.StatusShipped:
		code := otp.NumericCode(4)
		extras := map[string]interface{}{"delivery_otp": code}
		if order.TrackingNumber == nil {
			tracking := otp.TrackingNumber()
			extras["tracking_number"] = tracking
			order.TrackingNumber = &tracking
		}
		err = s.transition(order.ID, []string{model.StatusProcessing}, to, extras)
		if err == nil {
			s.notifyShipped(order, code)
		}

	case model.StatusCancelled:
		err = s.cancelWithRestore(order)

	default:
		// OUT_FOR_DELIVERY / DELIVERED 属于配送员操作，其余一律非法
		return nil, ErrInvalidTransition
	}

	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(orderID)
}

// AssignAgent 指派配送员，出库配送前的任意状态都允许
func (s *orderService) AssignAgent(orderID, agentID string) error {
	agent, err := s.users.GetByID(agentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotAgent
		}
		return err
	}
	if agent.Role != userModel.RoleDeliveryAgent {
		return ErrNotAgent
	}

	ok, err := s.repo.AssignAgent(orderID, agentID,
		[]string{model.StatusPending, model.StatusProcessing, model.StatusShipped})
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}
	return nil
}

func (s *orderService) AgentListOrders(agentID string, page, limit int) ([]model.Order, int64, error) {
	offset, limit := paginate(page, limit)
	return s.repo.ListByAgent(agentID, offset, limit)
}

// AgentStartDelivery 配送员取件出发，只有被指派的配送员可以操作
func (s *orderService) AgentStartDelivery(agentID, orderID string) error {
	order, err := s.AdminGetOrder(orderID)
	if err != nil {
		return err
	}
	if order.DeliveryAgentID == nil || *order.DeliveryAgentID != agentID {
		return ErrNotAssigned
	}

	return s.transition(order.ID,
		[]string{model.StatusProcessing, model.StatusShipped},
		model.StatusOutForDelivery, nil)
}

// AgentCompleteDelivery 收货验证码完全匹配才允许进入 DELIVERED
// 验证码不匹配时订单不发生任何变化
func (s *orderService) AgentCompleteDelivery(agentID, orderID, otpCode string) error {
	order, err := s.AdminGetOrder(orderID)
	if err != nil {
		return err
	}
	if order.DeliveryAgentID == nil || *order.DeliveryAgentID != agentID {
		return ErrNotAssigned
	}
	if order.DeliveryOTP == nil || *order.DeliveryOTP != otpCode {
		return ErrInvalidOTP
	}

	return s.transition(order.ID,
		[]string{model.StatusOutForDelivery},
		model.StatusDelivered, nil)
}

// transition 单次条件流转，未命中按非法流转处理
func (s *orderService) transition(orderID string, from []string, to string, extras map[string]interface{}) error {
	return s.txm.Transaction(func(tx *gorm.DB) error {
		ok, err := s.repo.TransitionStatus(tx, orderID, from, to, extras)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}
		return nil
	})
}

// cancelWithRestore 管理员取消：任意非终态可取消
// 流转命中才回补库存，重试不会重复回补
func (s *orderService) cancelWithRestore(order *model.Order) error {
	return s.txm.Transaction(func(tx *gorm.DB) error {
		ok, err := s.repo.TransitionStatus(tx, order.ID,
			model.NonTerminalStatuses(), model.StatusCancelled, nil)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}

		for _, item := range order.Items {
			if err := s.products.RestoreStock(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

// notifyShipped 发货通知，带收货验证码
func (s *orderService) notifyShipped(order *model.Order, code string) {
	user, err := s.users.GetByID(order.UserID)
	if err != nil {
		logger.Log.Warn("shipped notification skipped, user lookup failed",
			zap.String("orderId", order.ID), zap.Error(err))
		return
	}

	tracking := ""
	if order.TrackingNumber != nil {
		tracking = *order.TrackingNumber
	}
	s.enqueueMail(mailer.Message{
		To:       user.Email,
		Subject:  "Your order has shipped",
		Template: mailer.TemplateOrderShipped,
		Data: mailer.OrderShippedData{
			Name:           user.Name,
			OrderNumber:    order.OrderNumber,
			TrackingNumber: tracking,
			OTP:            code,
		},
	})
}

func (s *orderService) enqueueMail(msg mailer.Message) {
	if s.mail == nil {
		return
	}
	s.mail.Enqueue(msg)
}

func paginate(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return (page - 1) * limit, limit
}

// nowFunc 测试时可替换
var nowFunc = time.Now
