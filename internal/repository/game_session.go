package repository

import (
	"context"
	"time"

	"github.com/wfunc/dig-game/internal/models"
	"gorm.io/gorm"
)

// GameSessionRepository 挖掘会话仓储接口
type GameSessionRepository interface {
	BaseRepository
	Create(ctx context.Context, session *models.GameSession) error
	Update(ctx context.Context, session *models.GameSession) error
	UpdateBySessionID(ctx context.Context, sessionID string, updates map[string]interface{}) error
	FindByID(ctx context.Context, id uint) (*models.GameSession, error)
	FindBySessionID(ctx context.Context, sessionID string) (*models.GameSession, error)
	FindByUserID(ctx context.Context, userID uint, p *Pagination) ([]*models.GameSession, error)
	FindActiveByUserID(ctx context.Context, userID uint) (*models.GameSession, error)
	SaveState(ctx context.Context, sessionID string, state string, score int) error
	EndSession(ctx context.Context, sessionID, status string) error
	AppendAction(ctx context.Context, action *models.GameAction) error
	FindActions(ctx context.Context, sessionID string) ([]*models.GameAction, error)
	CleanupExpiredSessions(ctx context.Context, expiredBefore time.Time) (int64, error)
}

// gameSessionRepo 挖掘会话仓储实现
type gameSessionRepo struct {
	*BaseRepo
}

// NewGameSessionRepository 创建挖掘会话仓储
func NewGameSessionRepository(db *gorm.DB) GameSessionRepository {
	return &gameSessionRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Create 创建会话
func (r *gameSessionRepo) Create(ctx context.Context, session *models.GameSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// Update 更新会话
func (r *gameSessionRepo) Update(ctx context.Context, session *models.GameSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

// UpdateBySessionID 根据会话ID更新
func (r *gameSessionRepo) UpdateBySessionID(ctx context.Context, sessionID string, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.GameSession{}).
		Where("session_id = ?", sessionID).
		Updates(updates).Error
}

// FindByID 根据ID查找
func (r *gameSessionRepo) FindByID(ctx context.Context, id uint) (*models.GameSession, error) {
	var session models.GameSession
	err := r.db.WithContext(ctx).
		Preload("Site").
		First(&session, id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindBySessionID 根据会话ID查找
func (r *gameSessionRepo) FindBySessionID(ctx context.Context, sessionID string) (*models.GameSession, error) {
	var session models.GameSession
	err := r.db.WithContext(ctx).
		Preload("Site").
		Where("session_id = ?", sessionID).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByUserID 根据用户ID查找（分页）
func (r *gameSessionRepo) FindByUserID(ctx context.Context, userID uint, p *Pagination) ([]*models.GameSession, error) {
	var sessions []*models.GameSession

	r.db.WithContext(ctx).
		Model(&models.GameSession{}).
		Where("user_id = ?", userID).
		Count(&p.Total)

	err := r.db.WithContext(ctx).
		Preload("Site").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Scopes(Paginate(p)).
		Find(&sessions).Error

	return sessions, err
}

// FindActiveByUserID 查找用户当前进行中的会话
func (r *gameSessionRepo) FindActiveByUserID(ctx context.Context, userID uint) (*models.GameSession, error) {
	var session models.GameSession
	err := r.db.WithContext(ctx).
		Preload("Site").
		Where("user_id = ? AND status = ?", userID, models.SessionStatusActive).
		Order("created_at desc").
		First(&session).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	return &session, err
}

// SaveState 保存引擎状态快照与当前分数
func (r *gameSessionRepo) SaveState(ctx context.Context, sessionID string, state string, score int) error {
	return r.db.WithContext(ctx).
		Model(&models.GameSession{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"engine_state": state,
			"score":        score,
		}).Error
}

// EndSession 结束会话（完成或放弃）
func (r *gameSessionRepo) EndSession(ctx context.Context, sessionID, status string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.GameSession{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"status":   status,
			"ended_at": &now,
		}).Error
}

// AppendAction 追加动作日志
func (r *gameSessionRepo) AppendAction(ctx context.Context, action *models.GameAction) error {
	return r.db.WithContext(ctx).Create(action).Error
}

// FindActions 查询会话的动作日志（按时间正序）
func (r *gameSessionRepo) FindActions(ctx context.Context, sessionID string) ([]*models.GameAction, error) {
	var actions []*models.GameAction
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id asc").
		Find(&actions).Error
	return actions, err
}

// CleanupExpiredSessions 将长时间未更新的进行中会话标记为放弃
func (r *gameSessionRepo) CleanupExpiredSessions(ctx context.Context, expiredBefore time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.GameSession{}).
		Where("status = ? AND updated_at < ?", models.SessionStatusActive, expiredBefore).
		Updates(map[string]interface{}{
			"status":   models.SessionStatusAbandoned,
			"ended_at": &expiredBefore,
		})

	return result.RowsAffected, result.Error
}

// WithTx 使用事务
func (r *gameSessionRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &gameSessionRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
