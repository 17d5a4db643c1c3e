package repository

import (
	"context"

	"github.com/wfunc/dig-game/internal/models"
	"gorm.io/gorm"
)

// SiteRepository 遗址仓储接口
type SiteRepository interface {
	BaseRepository
	Create(ctx context.Context, site *models.Site) error
	Update(ctx context.Context, site *models.Site) error
	FindByID(ctx context.Context, id uint) (*models.Site, error)
	FindActive(ctx context.Context, p *Pagination) ([]*models.Site, error)
	FindByDifficulty(ctx context.Context, difficulty string, p *Pagination) ([]*models.Site, error)
	AddArtifact(ctx context.Context, artifact *models.SiteArtifact) error
	CountArtifacts(ctx context.Context, siteID uint) (int64, error)
}

// siteRepo 遗址仓储实现
type siteRepo struct {
	*BaseRepo
}

// NewSiteRepository 创建遗址仓储
func NewSiteRepository(db *gorm.DB) SiteRepository {
	return &siteRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Create 创建遗址（级联创建文物）
func (r *siteRepo) Create(ctx context.Context, site *models.Site) error {
	return r.db.WithContext(ctx).Create(site).Error
}

// Update 更新遗址
func (r *siteRepo) Update(ctx context.Context, site *models.Site) error {
	return r.db.WithContext(ctx).Save(site).Error
}

// FindByID 根据ID查找（预加载文物）
func (r *siteRepo) FindByID(ctx context.Context, id uint) (*models.Site, error) {
	var site models.Site
	err := r.db.WithContext(ctx).
		Preload("Artifacts").
		First(&site, id).Error
	if err != nil {
		return nil, err
	}
	return &site, nil
}

// FindActive 查找开放中的遗址（分页）
func (r *siteRepo) FindActive(ctx context.Context, p *Pagination) ([]*models.Site, error) {
	var sites []*models.Site

	r.db.WithContext(ctx).
		Model(&models.Site{}).
		Where("status = ?", models.SiteStatusActive).
		Count(&p.Total)

	err := r.db.WithContext(ctx).
		Where("status = ?", models.SiteStatusActive).
		Order("created_at desc").
		Scopes(Paginate(p)).
		Find(&sites).Error

	return sites, err
}

// FindByDifficulty 按难度查找开放中的遗址（分页）
func (r *siteRepo) FindByDifficulty(ctx context.Context, difficulty string, p *Pagination) ([]*models.Site, error) {
	var sites []*models.Site

	r.db.WithContext(ctx).
		Model(&models.Site{}).
		Where("status = ? AND difficulty = ?", models.SiteStatusActive, difficulty).
		Count(&p.Total)

	err := r.db.WithContext(ctx).
		Where("status = ? AND difficulty = ?", models.SiteStatusActive, difficulty).
		Order("created_at desc").
		Scopes(Paginate(p)).
		Find(&sites).Error

	return sites, err
}

// AddArtifact 为遗址添加文物
func (r *siteRepo) AddArtifact(ctx context.Context, artifact *models.SiteArtifact) error {
	return r.db.WithContext(ctx).Create(artifact).Error
}

// CountArtifacts 统计遗址文物数
func (r *siteRepo) CountArtifacts(ctx context.Context, siteID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SiteArtifact{}).
		Where("site_id = ?", siteID).
		Count(&count).Error
	return count, err
}

// WithTx 使用事务
func (r *siteRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &siteRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
