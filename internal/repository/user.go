package repository

import (
	"context"
	"time"

	"github.com/wfunc/dig-game/internal/models"
	"gorm.io/gorm"
)

// UserRepository 学员仓储接口
type UserRepository interface {
	BaseRepository
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uint) error
}

// userRepo 学员仓储实现
type userRepo struct {
	*BaseRepo
}

// NewUserRepository 创建学员仓储
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Create 创建学员
func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Update 更新学员
func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// FindByID 根据ID查找
func (r *userRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername 根据用户名查找
func (r *userRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin 更新最后登录时间
func (r *userRepo) UpdateLastLogin(ctx context.Context, id uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login_at", &now).Error
}

// WithTx 使用事务
func (r *userRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &userRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
