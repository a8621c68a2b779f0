package service

import (
	"errors"
	"time"

	"storefront_api/internal/domain/cart/model"
	"storefront_api/internal/domain/cart/repository"
	"storefront_api/internal/domain/product/pricing"
	productRepo "storefront_api/internal/domain/product/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrItemNotFound    = errors.New("cart item not found")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// CartLine 购物车行视图，单价为当前有效价
type CartLine struct {
	ItemID         string          `json:"itemId"`
	ProductID      string          `json:"productId"`
	ProductName    string          `json:"productName"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	LineTotal      decimal.Decimal `json:"lineTotal"`
	OnSale         bool            `json:"onSale"`
	OutOfStock     bool            `json:"outOfStock"`
	AvailableStock int             `json:"availableStock"`
}

// CartView 购物车视图
type CartView struct {
	CartID   string          `json:"cartId"`
	Lines    []CartLine      `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// CartService 购物车服务接口
type CartService interface {
	AddItem(userID, productID string, quantity int) (*model.CartItem, error)
	UpdateQuantity(userID, itemID string, quantity int) error
	RemoveItem(userID, itemID string) error
	Clear(userID string) error
	GetCart(userID string) (*CartView, error)
}

type cartService struct {
	repo     repository.CartRepository
	products productRepo.ProductRepository
}

func NewCartService(repo repository.CartRepository, products productRepo.ProductRepository) CartService {
	return &cartService{repo: repo, products: products}
}

// AddItem 加购：已有同商品行则累加数量
func (s *cartService) AddItem(userID, productID string, quantity int) (*model.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	if _, err := s.products.GetByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	cart, err := s.repo.GetOrCreateByUser(userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetItem(cart.ID, productID)
	if err == nil {
		newQty := existing.Quantity + quantity
		if err := s.repo.UpdateItemQuantity(existing.ID, newQty); err != nil {
			return nil, err
		}
		existing.Quantity = newQty
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	item := &model.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.repo.CreateItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateQuantity 更新行数量，数量 <= 0 等价于删除该行
func (s *cartService) UpdateQuantity(userID, itemID string, quantity int) error {
	cart, err := s.repo.GetByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrItemNotFound
		}
		return err
	}

	owned := false
	for _, it := range cart.Items {
		if it.ID == itemID {
			owned = true
			break
		}
	}
	if !owned {
		return ErrItemNotFound
	}

	if quantity <= 0 {
		return s.repo.DeleteItem(cart.ID, itemID)
	}
	return s.repo.UpdateItemQuantity(itemID, quantity)
}

func (s *cartService) RemoveItem(userID, itemID string) error {
	cart, err := s.repo.GetByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrItemNotFound
		}
		return err
	}
	return s.repo.DeleteItem(cart.ID, itemID)
}

// Clear 清空购物车，购物车不存在时视为已清空
func (s *cartService) Clear(userID string) error {
	return s.repo.ClearByUser(userID)
}

// GetCart 读取购物车，行单价为服务端现算的有效价
func (s *cartService) GetCart(userID string) (*CartView, error) {
	cart, err := s.repo.GetOrCreateByUser(userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	view := &CartView{CartID: cart.ID, Lines: []CartLine{}}
	var lines []pricing.Line

	for _, item := range cart.Items {
		p, err := s.products.GetByID(item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// 商品已下架，跳过但保留行项目供前端提示
				view.Lines = append(view.Lines, CartLine{
					ItemID:    item.ID,
					ProductID: item.ProductID,
					Quantity:  item.Quantity,
				})
				continue
			}
			return nil, err
		}

		unit := pricing.Effective(p.Price, p.OnSale, p.SalePercent, p.SaleEndsAt, now)
		line := CartLine{
			ItemID:         item.ID,
			ProductID:      p.ID,
			ProductName:    p.Name,
			Quantity:       item.Quantity,
			UnitPrice:      unit,
			LineTotal:      unit.Mul(decimal.NewFromInt(int64(item.Quantity))),
			OnSale:         pricing.SaleActive(p.OnSale, p.SalePercent, p.SaleEndsAt, now),
			OutOfStock:     p.Stock < item.Quantity,
			AvailableStock: p.Stock,
		}
		view.Lines = append(view.Lines, line)
		lines = append(lines, pricing.Line{UnitPrice: unit, Quantity: item.Quantity})
	}

	view.Subtotal = pricing.Subtotal(lines)
	return view, nil
}
