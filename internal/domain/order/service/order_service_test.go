package service

import (
	"database/sql"
	"strings"
	"testing"

	cartModel "storefront_api/internal/domain/cart/model"
	couponModel "storefront_api/internal/domain/coupon/model"
	couponService "storefront_api/internal/domain/coupon/service"
	"storefront_api/internal/domain/order/model"
	productModel "storefront_api/internal/domain/product/model"
	productRepo "storefront_api/internal/domain/product/repository"
	userModel "storefront_api/internal/domain/user/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// fakeTxManager 直接执行闭包，不真正开事务
type fakeTxManager struct{}

func (fakeTxManager) Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error {
	return fc(nil)
}

// MockOrderRepository is a mock of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(tx *gorm.DB, order *model.Order) error {
	args := m.Called(tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(id string) (*model.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByIDTx(tx *gorm.DB, id string) (*model.Order, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByUser(userID string, offset, limit int) ([]model.Order, int64, error) {
	args := m.Called(userID, offset, limit)
	return args.Get(0).([]model.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) ListAll(status string, offset, limit int) ([]model.Order, int64, error) {
	args := m.Called(status, offset, limit)
	return args.Get(0).([]model.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) ListByAgent(agentID string, offset, limit int) ([]model.Order, int64, error) {
	args := m.Called(agentID, offset, limit)
	return args.Get(0).([]model.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) CountByUser(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) TransitionStatus(tx *gorm.DB, orderID string, from []string, to string, extras map[string]interface{}) (bool, error) {
	args := m.Called(tx, orderID, from, to, extras)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) AssignAgent(orderID, agentID string, allowed []string) (bool, error) {
	args := m.Called(orderID, agentID, allowed)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) UpdateAddress(orderID string, address datatypes.JSON, allowed []string) (bool, error) {
	args := m.Called(orderID, address, allowed)
	return args.Bool(0), args.Error(1)
}

// MockProductRepository is a mock of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(p *productModel.Product) error {
	args := m.Called(p)
	return args.Error(0)
}

func (m *MockProductRepository) GetByID(id string) (*productModel.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*productModel.Product), args.Error(1)
}

func (m *MockProductRepository) GetByIDTx(tx *gorm.DB, id string) (*productModel.Product, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*productModel.Product), args.Error(1)
}

func (m *MockProductRepository) GetList(category string, offset, limit int) ([]productModel.Product, int64, error) {
	args := m.Called(category, offset, limit)
	return args.Get(0).([]productModel.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) Update(p *productModel.Product) error {
	args := m.Called(p)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockProductRepository) DecrementStock(tx *gorm.DB, productID string, quantity int) error {
	args := m.Called(tx, productID, quantity)
	return args.Error(0)
}

func (m *MockProductRepository) RestoreStock(tx *gorm.DB, productID string, quantity int) error {
	args := m.Called(tx, productID, quantity)
	return args.Error(0)
}

// MockCartRepository is a mock of CartRepository
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) GetOrCreateByUser(userID string) (*cartModel.Cart, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cartModel.Cart), args.Error(1)
}

func (m *MockCartRepository) GetByUser(userID string) (*cartModel.Cart, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cartModel.Cart), args.Error(1)
}

func (m *MockCartRepository) GetItem(cartID, productID string) (*cartModel.CartItem, error) {
	args := m.Called(cartID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cartModel.CartItem), args.Error(1)
}

func (m *MockCartRepository) CreateItem(item *cartModel.CartItem) error {
	args := m.Called(item)
	return args.Error(0)
}

func (m *MockCartRepository) UpdateItemQuantity(itemID string, quantity int) error {
	args := m.Called(itemID, quantity)
	return args.Error(0)
}

func (m *MockCartRepository) DeleteItem(cartID, itemID string) error {
	args := m.Called(cartID, itemID)
	return args.Error(0)
}

func (m *MockCartRepository) Clear(tx *gorm.DB, cartID string) error {
	args := m.Called(tx, cartID)
	return args.Error(0)
}

func (m *MockCartRepository) ClearByUser(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

// MockCouponRepo is a mock of CouponRepository
type MockCouponRepo struct {
	mock.Mock
}

func (m *MockCouponRepo) Create(c *couponModel.Coupon) error {
	args := m.Called(c)
	return args.Error(0)
}

func (m *MockCouponRepo) GetByCode(code string) (*couponModel.Coupon, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*couponModel.Coupon), args.Error(1)
}

func (m *MockCouponRepo) GetList(offset, limit int) ([]couponModel.Coupon, int64, error) {
	args := m.Called(offset, limit)
	return args.Get(0).([]couponModel.Coupon), args.Get(1).(int64), args.Error(2)
}

func (m *MockCouponRepo) SetActive(id string, active bool) error {
	args := m.Called(id, active)
	return args.Error(0)
}

func (m *MockCouponRepo) CountUsage(couponID, userID string) (int64, error) {
	args := m.Called(couponID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCouponRepo) Redeem(tx *gorm.DB, couponID string) error {
	args := m.Called(tx, couponID)
	return args.Error(0)
}

func (m *MockCouponRepo) CreateUsage(tx *gorm.DB, usage *couponModel.CouponUsage) error {
	args := m.Called(tx, usage)
	return args.Error(0)
}

// MockCouponVerifier is a mock of CouponVerifier
type MockCouponVerifier struct {
	mock.Mock
}

func (m *MockCouponVerifier) Check(userID, code string, subtotal decimal.Decimal, lines []couponService.SaleLine) (*couponModel.Coupon, decimal.Decimal, error) {
	args := m.Called(userID, code, subtotal, lines)
	if args.Get(0) == nil {
		return nil, decimal.Zero, args.Error(2)
	}
	return args.Get(0).(*couponModel.Coupon), args.Get(1).(decimal.Decimal), args.Error(2)
}

// MockUserRepository is a mock of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(u *userModel.User) error {
	args := m.Called(u)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id string) (*userModel.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userModel.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*userModel.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userModel.User), args.Error(1)
}

func (m *MockUserRepository) GetList(offset, limit int) ([]userModel.User, int64, error) {
	args := m.Called(offset, limit)
	return args.Get(0).([]userModel.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) GetAgents() ([]userModel.User, error) {
	args := m.Called()
	return args.Get(0).([]userModel.User), args.Error(1)
}

func (m *MockUserRepository) Update(u *userModel.User) error {
	args := m.Called(u)
	return args.Error(0)
}

func (m *MockUserRepository) CreateAddress(a *userModel.Address) error {
	args := m.Called(a)
	return args.Error(0)
}

func (m *MockUserRepository) GetAddress(userID, addressID string) (*userModel.Address, error) {
	args := m.Called(userID, addressID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userModel.Address), args.Error(1)
}

func (m *MockUserRepository) GetAddresses(userID string) ([]userModel.Address, error) {
	args := m.Called(userID)
	return args.Get(0).([]userModel.Address), args.Error(1)
}

func (m *MockUserRepository) UpdateAddress(a *userModel.Address) error {
	args := m.Called(a)
	return args.Error(0)
}

func (m *MockUserRepository) DeleteAddress(userID, addressID string) error {
	args := m.Called(userID, addressID)
	return args.Error(0)
}

type fixture struct {
	orders   *MockOrderRepository
	products *MockProductRepository
	carts    *MockCartRepository
	coupons  *MockCouponRepo
	verifier *MockCouponVerifier
	users    *MockUserRepository
	service  OrderService
}

func newFixture() *fixture {
	f := &fixture{
		orders:   new(MockOrderRepository),
		products: new(MockProductRepository),
		carts:    new(MockCartRepository),
		coupons:  new(MockCouponRepo),
		verifier: new(MockCouponVerifier),
		users:    new(MockUserRepository),
	}
	f.service = NewOrderService(f.orders, f.products, f.carts, f.coupons, f.verifier, f.users, fakeTxManager{}, nil)
	return f
}

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func strPtr(s string) *string { return &s }

func testUser() *userModel.User {
	u := &userModel.User{Email: "buyer@example.com", Name: "Buyer"}
	u.ID = "user-1"
	return u
}

func testAddress() *userModel.Address {
	a := &userModel.Address{
		UserID: "user-1", Tag: "home", Street: "1 Main St", City: "Metropolis", Country: "US", Phone: "555-0100",
	}
	a.ID = "addr-1"
	return a
}

func testProduct(id, name, price string, stock int) *productModel.Product {
	p := &productModel.Product{Name: name, Price: d(price), Stock: stock}
	p.ID = id
	return p
}

func testCart() *cartModel.Cart {
	cart := &cartModel.Cart{UserID: "user-1"}
	cart.ID = "cart-1"
	i1 := cartModel.CartItem{CartID: "cart-1", ProductID: "p1", Quantity: 2}
	i1.ID = "ci-1"
	i2 := cartModel.CartItem{CartID: "cart-1", ProductID: "p2", Quantity: 1}
	i2.ID = "ci-2"
	cart.Items = []cartModel.CartItem{i1, i2}
	return cart
}

func TestPlaceOrder(t *testing.T) {
	userID := "user-1"

	t.Run("Success without coupon", func(t *testing.T) {
		f := newFixture()

		f.users.On("GetByID", userID).Return(testUser(), nil)
		f.users.On("GetAddress", userID, "addr-1").Return(testAddress(), nil)
		f.carts.On("GetByUser", userID).Return(testCart(), nil)

		f.products.On("GetByIDTx", mock.Anything, "p1").Return(testProduct("p1", "Keyboard", "300", 10), nil)
		f.products.On("GetByIDTx", mock.Anything, "p2").Return(testProduct("p2", "Monitor", "400", 5), nil)

		var created *model.Order
		f.orders.On("Create", mock.Anything, mock.AnythingOfType("*model.Order")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*model.Order)
				created.ID = "order-1"
			}).Return(nil)

		f.products.On("DecrementStock", mock.Anything, "p1", 2).Return(nil)
		f.products.On("DecrementStock", mock.Anything, "p2", 1).Return(nil)
		f.carts.On("Clear", mock.Anything, "cart-1").Return(nil)

		order, err := f.service.PlaceOrder(userID, PlaceOrderInput{AddressID: "addr-1"})

		assert.NoError(t, err)
		assert.Equal(t, model.StatusPending, order.Status)
		// 2*300 + 1*400，单价为服务端事务内现算的价格
		assert.True(t, order.Subtotal.Equal(d("1000")))
		assert.True(t, order.Total.Equal(d("1000")))
		assert.Len(t, order.Items, 2)
		assert.True(t, order.Items[0].Price.Equal(d("300")))
		assert.NotNil(t, order.TrackingNumber)
		assert.NotEmpty(t, order.OrderNumber)
		// 快照保留地址簿条目的全部字段，包括标签
		assert.Contains(t, string(order.ShippingAddress), "Metropolis")
		assert.Contains(t, string(order.ShippingAddress), `"tag":"home"`)
		f.orders.AssertExpectations(t)
		f.products.AssertExpectations(t)
		f.carts.AssertExpectations(t)
		// 未传优惠码时不应触发任何核销
		f.coupons.AssertNotCalled(t, "Redeem", mock.Anything, mock.Anything)
	})

	t.Run("Success with coupon redeems inside transaction", func(t *testing.T) {
		f := newFixture()

		f.users.On("GetByID", userID).Return(testUser(), nil)
		f.users.On("GetAddress", userID, "addr-1").Return(testAddress(), nil)
		f.carts.On("GetByUser", userID).Return(testCart(), nil)
		f.products.On("GetByIDTx", mock.Anything, "p1").Return(testProduct("p1", "Keyboard", "300", 10), nil)
		f.products.On("GetByIDTx", mock.Anything, "p2").Return(testProduct("p2", "Monitor", "400", 5), nil)

		coupon := &couponModel.Coupon{Code: "SAVE10", DiscountType: "PERCENTAGE", DiscountValue: d("10")}
		coupon.ID = "coupon-1"
		f.verifier.On("Check", userID, "SAVE10", mock.Anything, mock.Anything).
			Return(coupon, d("100"), nil)

		f.orders.On("Create", mock.Anything, mock.AnythingOfType("*model.Order")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*model.Order).ID = "order-1"
			}).Return(nil)
		f.products.On("DecrementStock", mock.Anything, "p1", 2).Return(nil)
		f.products.On("DecrementStock", mock.Anything, "p2", 1).Return(nil)
		f.carts.On("Clear", mock.Anything, "cart-1").Return(nil)
		f.coupons.On("Redeem", mock.Anything, "coupon-1").Return(nil)
		f.coupons.On("CreateUsage", mock.Anything, mock.MatchedBy(func(u *couponModel.CouponUsage) bool {
			return u.CouponID == "coupon-1" && u.UserID == userID && u.OrderID == "order-1"
		})).Return(nil)

		order, err := f.service.PlaceOrder(userID, PlaceOrderInput{AddressID: "addr-1", CouponCode: "SAVE10"})

		assert.NoError(t, err)
		assert.True(t, order.Discount.Equal(d("100")))
		assert.True(t, order.Total.Equal(d("900")))
		assert.Equal(t, "SAVE10", *order.CouponCode)
		f.coupons.AssertExpectations(t)
	})

	t.Run("Out of stock aborts whole placement", func(t *testing.T) {
		f := newFixture()

		f.users.On("GetByID", userID).Return(testUser(), nil)
		f.users.On("GetAddress", userID, "addr-1").Return(testAddress(), nil)
		f.carts.On("GetByUser", userID).Return(testCart(), nil)
		f.products.On("GetByIDTx", mock.Anything, "p1").Return(testProduct("p1", "Keyboard", "300", 10), nil)
		f.products.On("GetByIDTx", mock.Anything, "p2").Return(testProduct("p2", "Monitor", "400", 0), nil)

		f.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.products.On("DecrementStock", mock.Anything, "p1", 2).Return(nil)
		f.products.On("DecrementStock", mock.Anything, "p2", 1).Return(productRepo.ErrInsufficientStock)

		_, err := f.service.PlaceOrder(userID, PlaceOrderInput{AddressID: "addr-1"})

		assert.ErrorIs(t, err, ErrOutOfStock)
		// 事务内失败，购物车不应被清空
		f.carts.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
	})

	t.Run("Empty cart rejected", func(t *testing.T) {
		f := newFixture()

		f.users.On("GetByID", userID).Return(testUser(), nil)
		f.users.On("GetAddress", userID, "addr-1").Return(testAddress(), nil)
		empty := &cartModel.Cart{UserID: userID}
		empty.ID = "cart-1"
		f.carts.On("GetByUser", userID).Return(empty, nil)

		_, err := f.service.PlaceOrder(userID, PlaceOrderInput{AddressID: "addr-1"})
		assert.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("Unknown address rejected", func(t *testing.T) {
		f := newFixture()

		f.users.On("GetByID", userID).Return(testUser(), nil)
		f.users.On("GetAddress", userID, "addr-x").Return(nil, gorm.ErrRecordNotFound)

		_, err := f.service.PlaceOrder(userID, PlaceOrderInput{AddressID: "addr-x"})
		assert.ErrorIs(t, err, ErrAddressNotFound)
	})
}

func pendingOrder() *model.Order {
	o := &model.Order{
		OrderNumber: "ORD123",
		UserID:      "user-1",
		Status:      model.StatusPending,
		Subtotal:    d("1000"),
		Total:       d("1000"),
	}
	o.ID = "order-1"
	i := model.OrderItem{OrderID: "order-1", ProductID: "p1", Quantity: 2, Price: d("300")}
	i.ID = "oi-1"
	o.Items = []model.OrderItem{i}
	return o
}

func TestCancel(t *testing.T) {
	t.Run("Restores stock when transition lands", func(t *testing.T) {
		f := newFixture()

		f.orders.On("GetByID", "order-1").Return(pendingOrder(), nil)
		f.orders.On("TransitionStatus", mock.Anything, "order-1",
			[]string{model.StatusPending, model.StatusProcessing},
			model.StatusCancelled, mock.Anything).Return(true, nil)
		f.products.On("RestoreStock", mock.Anything, "p1", 2).Return(nil)

		err := f.service.Cancel("user-1", "order-1")
		assert.NoError(t, err)
		f.products.AssertExpectations(t)
	})

	t.Run("No restore when transition misses", func(t *testing.T) {
		f := newFixture()

		shipped := pendingOrder()
		shipped.Status = model.StatusShipped
		f.orders.On("GetByID", "order-1").Return(shipped, nil)
		f.orders.On("TransitionStatus", mock.Anything, "order-1",
			mock.Anything, model.StatusCancelled, mock.Anything).Return(false, nil)

		err := f.service.Cancel("user-1", "order-1")
		assert.ErrorIs(t, err, ErrInvalidTransition)
		// 流转未命中时绝不回补库存，防止重复回补
		f.products.AssertNotCalled(t, "RestoreStock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Foreign order invisible", func(t *testing.T) {
		f := newFixture()

		f.orders.On("GetByID", "order-1").Return(pendingOrder(), nil)

		err := f.service.Cancel("user-2", "order-1")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestAdminUpdateStatus(t *testing.T) {
	t.Run("Shipped generates fresh OTP and keeps existing tracking", func(t *testing.T) {
		f := newFixture()

		o := pendingOrder()
		o.Status = model.StatusProcessing
		o.TrackingNumber = strPtr("TRK-EXISTING")
		f.orders.On("GetByID", "order-1").Return(o, nil)
		f.users.On("GetByID", "user-1").Return(testUser(), nil)

		var extras map[string]interface{}
		f.orders.On("TransitionStatus", mock.Anything, "order-1",
			[]string{model.StatusProcessing}, model.StatusShipped, mock.Anything).
			Run(func(args mock.Arguments) {
				extras = args.Get(4).(map[string]interface{})
			}).Return(true, nil)

		_, err := f.service.AdminUpdateStatus("order-1", model.StatusShipped)

		assert.NoError(t, err)
		otpValue, ok := extras["delivery_otp"].(string)
		assert.True(t, ok)
		assert.Len(t, otpValue, 4)
		// 已有物流单号时不重新生成
		_, hasTracking := extras["tracking_number"]
		assert.False(t, hasTracking)
	})

	t.Run("Shipped synthesizes tracking number when missing", func(t *testing.T) {
		f := newFixture()

		o := pendingOrder()
		o.Status = model.StatusProcessing
		o.TrackingNumber = nil
		f.orders.On("GetByID", "order-1").Return(o, nil)
		f.users.On("GetByID", "user-1").Return(testUser(), nil)

		var extras map[string]interface{}
		f.orders.On("TransitionStatus", mock.Anything, "order-1",
			[]string{model.StatusProcessing}, model.StatusShipped, mock.Anything).
			Run(func(args mock.Arguments) {
				extras = args.Get(4).(map[string]interface{})
			}).Return(true, nil)

		_, err := f.service.AdminUpdateStatus("order-1", model.StatusShipped)

		assert.NoError(t, err)
		tracking, ok := extras["tracking_number"].(string)
		assert.True(t, ok)
		assert.Contains(t, tracking, "TRK")
	})

	t.Run("Cancel from shipped restores stock once", func(t *testing.T) {
		f := newFixture()

		o := pendingOrder()
		o.Status = model.StatusShipped
		f.orders.On("GetByID", "order-1").Return(o, nil)
		f.orders.On("TransitionStatus", mock.Anything, "order-1",
			model.NonTerminalStatuses(), model.StatusCancelled, mock.Anything).Return(true, nil)
		f.products.On("RestoreStock", mock.Anything, "p1", 2).Return(nil)

		_, err := f.service.AdminUpdateStatus("order-1", model.StatusCancelled)
		assert.NoError(t, err)
		f.products.AssertNumberOfCalls(t, "RestoreStock", 1)
	})

	t.Run("Agent-only targets rejected", func(t *testing.T) {
		f := newFixture()
		f.orders.On("GetByID", "order-1").Return(pendingOrder(), nil)

		_, err := f.service.AdminUpdateStatus("order-1", model.StatusDelivered)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestAgentDelivery(t *testing.T) {
	agentID := "agent-1"

	t.Run("Start delivery requires assignment", func(t *testing.T) {
		f := newFixture()

		o := pendingOrder()
		o.Status = model.StatusShipped
		f.orders.On("GetByID", "order-1").Return(o, nil)

		err := f.service.AgentStartDelivery(agentID, "order-1")
		assert.ErrorIs(t, err, ErrNotAssigned)
	})

	t.Run("Assigned agent moves order out for delivery", func(t *testing.T) {
		f := newFixture()

		o := pendingOrder()
		o.Status = model.StatusShipped
		o.DeliveryAgentID = strPtr(agentID)
		f.orders.On("GetByID", "order-1").Return(o, nil)
		f.orders.On("TransitionStatus", mock.Anything, "order-1",
			[]string{model.StatusProcessing, model.StatusShipped},
			model.StatusOutForDelivery, mock.Anything).Return(true, nil)

		err := f.service.AgentStartDelivery(agentID, "order-1")
		assert.NoError(t, err)
	})

	t.Run("Wrong OTP rejects delivery without mutation", func(t *testing.T) {
		f := newFixture()

		o := pendingOrder()
		o.Status = model.StatusOutForDelivery
		o.DeliveryAgentID = strPtr(agentID)
		o.DeliveryOTP = strPtr("1234")
		f.orders.On("GetByID", "order-1").Return(o, nil)

		err := f.service.AgentCompleteDelivery(agentID, "order-1", "9999")
		assert.ErrorIs(t, err, ErrInvalidOTP)
		f.orders.AssertNotCalled(t, "TransitionStatus",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Matching OTP completes delivery", func(t *testing.T) {
		f := newFixture()

		o := pendingOrder()
		o.Status = model.StatusOutForDelivery
		o.DeliveryAgentID = strPtr(agentID)
		o.DeliveryOTP = strPtr("1234")
		f.orders.On("GetByID", "order-1").Return(o, nil)
		f.orders.On("TransitionStatus", mock.Anything, "order-1",
			[]string{model.StatusOutForDelivery},
			model.StatusDelivered, mock.Anything).Return(true, nil)

		err := f.service.AgentCompleteDelivery(agentID, "order-1", "1234")
		assert.NoError(t, err)
	})
}

func TestAssignAgent(t *testing.T) {
	t.Run("Rejects non-agent user", func(t *testing.T) {
		f := newFixture()

		u := testUser()
		u.Role = userModel.RoleUser
		f.users.On("GetByID", "user-1").Return(u, nil)

		err := f.service.AssignAgent("order-1", "user-1")
		assert.ErrorIs(t, err, ErrNotAgent)
	})

	t.Run("Assigns agent while order not yet out for delivery", func(t *testing.T) {
		f := newFixture()

		agent := testUser()
		agent.ID = "agent-1"
		agent.Role = userModel.RoleDeliveryAgent
		f.users.On("GetByID", "agent-1").Return(agent, nil)
		f.orders.On("AssignAgent", "order-1", "agent-1",
			[]string{model.StatusPending, model.StatusProcessing, model.StatusShipped}).Return(true, nil)

		err := f.service.AssignAgent("order-1", "agent-1")
		assert.NoError(t, err)
	})
}

func TestUpdateAddress(t *testing.T) {
	t.Run("Locked after shipping", func(t *testing.T) {
		f := newFixture()

		f.orders.On("GetByID", "order-1").Return(pendingOrder(), nil)
		f.users.On("GetAddress", "user-1", "addr-1").Return(testAddress(), nil)
		f.orders.On("UpdateAddress", "order-1", mock.Anything,
			[]string{model.StatusPending, model.StatusProcessing}).Return(false, nil)

		err := f.service.UpdateAddress("user-1", "order-1", "addr-1")
		assert.ErrorIs(t, err, ErrOrderLocked)
	})

	t.Run("Replaces snapshot while pending", func(t *testing.T) {
		f := newFixture()

		f.orders.On("GetByID", "order-1").Return(pendingOrder(), nil)
		f.users.On("GetAddress", "user-1", "addr-1").Return(testAddress(), nil)
		f.orders.On("UpdateAddress", "order-1", mock.MatchedBy(func(j datatypes.JSON) bool {
			return strings.Contains(string(j), `"tag":"home"`)
		}), []string{model.StatusPending, model.StatusProcessing}).Return(true, nil)

		err := f.service.UpdateAddress("user-1", "order-1", "addr-1")
		assert.NoError(t, err)
	})
}
