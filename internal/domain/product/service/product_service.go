package service

import (
	"errors"
	"time"

	"storefront_api/internal/domain/product/model"
	"storefront_api/internal/domain/product/pricing"
	"storefront_api/internal/domain/product/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrProductNotFound = errors.New("product not found")

// PricedProduct 商品视图，附带当前有效单价
type PricedProduct struct {
	model.Product
	EffectivePrice decimal.Decimal `json:"effectivePrice"`
}

// ProductInput 创建/更新商品的输入
type ProductInput struct {
	Name        string
	Description string
	Category    string
	ImageURL    string
	Price       decimal.Decimal
	Stock       int
	OnSale      bool
	SalePercent int
	SaleEndsAt  *time.Time
}

// ProductService 商品服务接口
type ProductService interface {
	Create(input ProductInput) (*model.Product, error)
	Get(id string) (*PricedProduct, error)
	GetList(category string, page, limit int) ([]PricedProduct, int64, error)
	Update(id string, input ProductInput) (*model.Product, error)
	Delete(id string) error
}

type productService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) ProductService {
	return &productService{repo: repo}
}

func priced(p model.Product, now time.Time) PricedProduct {
	return PricedProduct{
		Product:        p,
		EffectivePrice: pricing.Effective(p.Price, p.OnSale, p.SalePercent, p.SaleEndsAt, now),
	}
}

func (s *productService) Create(input ProductInput) (*model.Product, error) {
	product := &model.Product{
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		ImageURL:    input.ImageURL,
		Price:       input.Price,
		Stock:       input.Stock,
		OnSale:      input.OnSale,
		SalePercent: input.SalePercent,
		SaleEndsAt:  input.SaleEndsAt,
	}
	if err := s.repo.Create(product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) Get(id string) (*PricedProduct, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	view := priced(*product, time.Now())
	return &view, nil
}

func (s *productService) GetList(category string, page, limit int) ([]PricedProduct, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	offset := (page - 1) * limit

	products, total, err := s.repo.GetList(category, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	views := make([]PricedProduct, 0, len(products))
	for _, p := range products {
		views = append(views, priced(p, now))
	}
	return views, total, nil
}

func (s *productService) Update(id string, input ProductInput) (*model.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Category = input.Category
	product.ImageURL = input.ImageURL
	product.Price = input.Price
	product.Stock = input.Stock
	product.OnSale = input.OnSale
	product.SalePercent = input.SalePercent
	product.SaleEndsAt = input.SaleEndsAt

	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) Delete(id string) error {
	return s.repo.Delete(id)
}
