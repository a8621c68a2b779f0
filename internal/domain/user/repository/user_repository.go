package repository

import (
	"storefront_api/internal/domain/user/model"

	"gorm.io/gorm"
)

// UserRepository 接口定义
type UserRepository interface {
	Create(user *model.User) error
	GetByID(id string) (*model.User, error)
	GetByEmail(email string) (*model.User, error)
	GetList(offset, limit int) ([]model.User, int64, error)
	GetAgents() ([]model.User, error)
	Update(user *model.User) error

	CreateAddress(addr *model.Address) error
	GetAddress(userID, addressID string) (*model.Address, error)
	GetAddresses(userID string) ([]model.Address, error)
	UpdateAddress(addr *model.Address) error
	DeleteAddress(userID, addressID string) error
}

// userRepository 实现
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建新的仓库实例
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) GetByID(id string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetList 获取用户列表（分页）
func (r *userRepository) GetList(offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	if err := r.db.Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.Offset(offset).Limit(limit).Order("created_at desc").Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// GetAgents 获取全部配送员账号
func (r *userRepository) GetAgents() ([]model.User, error) {
	var agents []model.User
	if err := r.db.Where("role = ?", model.RoleDeliveryAgent).Find(&agents).Error; err != nil {
		return nil, err
	}
	return agents, nil
}

func (r *userRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}

func (r *userRepository) CreateAddress(addr *model.Address) error {
	return r.db.Create(addr).Error
}

// GetAddress 获取指定地址，限定属主，避免越权读取他人地址
func (r *userRepository) GetAddress(userID, addressID string) (*model.Address, error) {
	var addr model.Address
	if err := r.db.Where("id = ? AND user_id = ?", addressID, userID).First(&addr).Error; err != nil {
		return nil, err
	}
	return &addr, nil
}

func (r *userRepository) GetAddresses(userID string) ([]model.Address, error) {
	var addrs []model.Address
	if err := r.db.Where("user_id = ?", userID).Order("created_at desc").Find(&addrs).Error; err != nil {
		return nil, err
	}
	return addrs, nil
}

func (r *userRepository) UpdateAddress(addr *model.Address) error {
	return r.db.Save(addr).Error
}

func (r *userRepository) DeleteAddress(userID, addressID string) error {
	return r.db.Where("id = ? AND user_id = ?", addressID, userID).Delete(&model.Address{}).Error
}
