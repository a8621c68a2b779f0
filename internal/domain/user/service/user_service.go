package service

import (
	"errors"

	"storefront_api/internal/domain/user/model"
	"storefront_api/internal/domain/user/repository"
	"storefront_api/pkg/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken      = errors.New("email already registered")
	ErrInvalidLogin    = errors.New("invalid email or password")
	ErrAccountBanned   = errors.New("account is banned")
	ErrAddressNotFound = errors.New("address not found")
)

// UserService 用户服务接口
type UserService interface {
	Register(email, password, name string) (*model.User, error)
	Login(email, password string) (string, error)
	GetUser(id string) (*model.User, error)
	GetAgents() ([]model.User, error)

	CreateAddress(userID string, addr *model.Address) error
	GetAddresses(userID string) ([]model.Address, error)
	UpdateAddress(userID, addressID string, addr *model.Address) (*model.Address, error)
	DeleteAddress(userID, addressID string) error
}

// userService 实现
type userService struct {
	repo repository.UserRepository
}

// NewUserService 创建用户服务
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

// Register 注册新用户
func (s *userService) Register(email, password, name string) (*model.User, error) {
	if _, err := s.repo.GetByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:    email,
		Password: string(hash),
		Name:     name,
		Role:     model.RoleUser,
		Status:   model.StatusNormal,
	}
	if err := s.repo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login 登录，成功返回 JWT
func (s *userService) Login(email, password string) (string, error) {
	user, err := s.repo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidLogin
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidLogin
	}

	if user.Status == model.StatusBanned {
		return "", ErrAccountBanned
	}

	token, _, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *userService) GetUser(id string) (*model.User, error) {
	return s.repo.GetByID(id)
}

func (s *userService) GetAgents() ([]model.User, error) {
	return s.repo.GetAgents()
}

func (s *userService) CreateAddress(userID string, addr *model.Address) error {
	addr.UserID = userID
	return s.repo.CreateAddress(addr)
}

func (s *userService) GetAddresses(userID string) ([]model.Address, error) {
	return s.repo.GetAddresses(userID)
}

// UpdateAddress 更新地址簿条目
// 只改地址簿本身，历史订单上的快照不受影响
func (s *userService) UpdateAddress(userID, addressID string, addr *model.Address) (*model.Address, error) {
	existing, err := s.repo.GetAddress(userID, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}

	existing.Tag = addr.Tag
	existing.Street = addr.Street
	existing.City = addr.City
	existing.State = addr.State
	existing.Zip = addr.Zip
	existing.Country = addr.Country
	existing.Phone = addr.Phone

	if err := s.repo.UpdateAddress(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *userService) DeleteAddress(userID, addressID string) error {
	return s.repo.DeleteAddress(userID, addressID)
}
