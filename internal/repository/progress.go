package repository

import (
	"context"
	"time"

	"github.com/wfunc/dig-game/internal/models"
	"gorm.io/gorm"
)

// ProgressRepository 学员成绩进度仓储接口
type ProgressRepository interface {
	BaseRepository
	Get(ctx context.Context, userID uint, gameType string) (*models.UserGameProgress, error)
	RecordResult(ctx context.Context, userID uint, gameType string, score int) error
	FindByUserID(ctx context.Context, userID uint) ([]*models.UserGameProgress, error)
}

// progressRepo 学员成绩进度仓储实现
type progressRepo struct {
	*BaseRepo
}

// NewProgressRepository 创建成绩进度仓储
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Get 查询学员某种游戏类型的进度（不存在时返回 gorm.ErrRecordNotFound）
func (r *progressRepo) Get(ctx context.Context, userID uint, gameType string) (*models.UserGameProgress, error) {
	var progress models.UserGameProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND game_type = ?", userID, gameType).
		First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// RecordResult 记录一次完成成绩：累计次数，保留历史最佳
func (r *progressRepo) RecordResult(ctx context.Context, userID uint, gameType string, score int) error {
	var progress models.UserGameProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND game_type = ?", userID, gameType).
		First(&progress).Error

	if err == gorm.ErrRecordNotFound {
		progress = models.UserGameProgress{
			UserID:       userID,
			GameType:     gameType,
			BestScore:    score,
			TimesPlayed:  1,
			LastPlayedAt: time.Now(),
		}
		return r.db.WithContext(ctx).Create(&progress).Error
	}
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"times_played":   progress.TimesPlayed + 1,
		"last_played_at": time.Now(),
	}
	if score > progress.BestScore {
		updates["best_score"] = score
	}
	return r.db.WithContext(ctx).
		Model(&progress).
		Updates(updates).Error
}

// FindByUserID 查询学员的全部进度记录
func (r *progressRepo) FindByUserID(ctx context.Context, userID uint) ([]*models.UserGameProgress, error) {
	var list []*models.UserGameProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("game_type asc").
		Find(&list).Error
	return list, err
}

// WithTx 使用事务
func (r *progressRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &progressRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
