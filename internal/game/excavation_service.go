package game

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/wfunc/dig-game/internal/errors"
	"github.com/wfunc/dig-game/internal/game/excavation"
	"github.com/wfunc/dig-game/internal/models"
	"github.com/wfunc/dig-game/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GameTypeExcavation 成绩进度表中的游戏类型标识
const GameTypeExcavation = "excavation"

// EventPublisher 会话事件发布接口（由WebSocket推送层实现）
type EventPublisher interface {
	Publish(sessionID string, event *SessionEvent)
}

// SessionEvent 会话事件
type SessionEvent struct {
	Type      string      `json:"type"` // discovery, violation, quest_completed, session_completed
	SessionID string      `json:"session_id"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ExcavationService 发掘业务服务。引擎状态常驻缓存，
// 每次变更后整体序列化写回数据库。
type ExcavationService struct {
	engine      *excavation.Engine
	cache       *SessionCache
	siteRepo    repository.SiteRepository
	sessionRepo repository.GameSessionRepository
	userRepo    repository.UserRepository
	progressRepo repository.ProgressRepository
	events      EventPublisher
	logger      *zap.Logger
	db          *gorm.DB
}

// ExcavationServiceConfig 发掘服务配置
type ExcavationServiceConfig struct {
	DB             *gorm.DB
	Logger         *zap.Logger
	Gameplay       excavation.GameplayConfig
	Events         EventPublisher
	CacheTimeout   time.Duration
}

// NewExcavationService 创建发掘服务
func NewExcavationService(config *ExcavationServiceConfig) *ExcavationService {
	return &ExcavationService{
		engine:       excavation.NewEngine(excavation.DefaultRegistry(), config.Gameplay),
		cache:        NewSessionCache(config.CacheTimeout, config.Logger),
		siteRepo:     repository.NewSiteRepository(config.DB),
		sessionRepo:  repository.NewGameSessionRepository(config.DB),
		userRepo:     repository.NewUserRepository(config.DB),
		progressRepo: repository.NewProgressRepository(config.DB),
		events:       config.Events,
		logger:       config.Logger,
		db:           config.DB,
	}
}

// Tools 工具目录
func (s *ExcavationService) Tools() []ToolView {
	var out []ToolView
	for _, t := range s.engine.Tools().List() {
		out = append(out, ToolView{
			ID:            t.ID,
			Name:          t.Name,
			Category:      string(t.Category),
			Effectiveness: t.Effectiveness,
		})
	}
	return out
}

// ListSites 按难度列出开放中的遗址
func (s *ExcavationService) ListSites(ctx context.Context, difficulty string, p *repository.Pagination) ([]*models.Site, error) {
	if difficulty == "" {
		return s.siteRepo.FindActive(ctx, p)
	}
	if !excavation.ValidDifficulty(excavation.Difficulty(difficulty)) {
		return nil, apperrors.New(apperrors.ErrInvalidDifficulty, difficulty)
	}
	return s.siteRepo.FindByDifficulty(ctx, difficulty, p)
}

// ListSessions 列出学员的历史会话
func (s *ExcavationService) ListSessions(ctx context.Context, userID uint, p *repository.Pagination) ([]*models.GameSession, error) {
	return s.sessionRepo.FindByUserID(ctx, userID, p)
}

// StartSession 开始一次发掘会话。学员已有进行中的会话时自动放弃旧会话。
func (s *ExcavationService) StartSession(ctx context.Context, userID uint, req *StartSessionRequest) (*SessionStateResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUserNotFound)
	}
	if !user.IsActive() {
		return nil, apperrors.New(apperrors.ErrUserDisabled)
	}

	site, err := s.siteRepo.FindByID(ctx, req.SiteID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrSiteNotFound)
	}
	if !site.IsActive() {
		return nil, apperrors.New(apperrors.ErrSiteInactive, site.Name)
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = site.Difficulty
	}

	// 旧会话自动放弃
	if prev, err := s.sessionRepo.FindActiveByUserID(ctx, userID); err == nil && prev != nil {
		if err := s.sessionRepo.EndSession(ctx, prev.SessionID, models.SessionStatusAbandoned); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrTransaction)
		}
		s.cache.Remove(prev.SessionID)
		s.logger.Info("自动放弃未结束的会话",
			zap.Uint("user_id", userID),
			zap.String("session_id", prev.SessionID))
	}

	state, err := s.engine.NewSession(siteSpec(site), excavation.Difficulty(difficulty),
		rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		return nil, mapEngineError(err)
	}

	sessionID := uuid.New().String()
	stateJSON, err := marshalState(state)
	if err != nil {
		return nil, err
	}

	session := &models.GameSession{
		UserID:     userID,
		SiteID:     site.ID,
		SessionID:  sessionID,
		Difficulty: difficulty,
		Status:     models.SessionStatusActive,
		StartedAt:  state.StartedAt,
		MaxScore:   state.MaxScore,
		EngineState: stateJSON,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.sessionRepo.WithTx(tx).(repository.GameSessionRepository).Create(ctx, session); err != nil {
			return err
		}
		return s.sessionRepo.WithTx(tx).(repository.GameSessionRepository).AppendAction(ctx, &models.GameAction{
			SessionID:  sessionID,
			ActionType: "start",
			Detail:     models.JSONMap{"site_id": site.ID, "difficulty": difficulty},
		})
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTransaction)
	}

	s.cache.Put(sessionID, state, NewLifecycle(sessionID, PhaseActive, s.logger))

	s.logger.Info("发掘会话开始",
		zap.Uint("user_id", userID),
		zap.String("session_id", sessionID),
		zap.String("site", site.Name),
		zap.String("difficulty", difficulty))

	return stateView(sessionID, site.Name, models.SessionStatusActive, state), nil
}

// GetSessionState 查询会话状态（玩家视角）
func (s *ExcavationService) GetSessionState(ctx context.Context, sessionID string) (*SessionStateResponse, error) {
	session, state, _, err := s.loadSession(ctx, sessionID, false)
	if err != nil {
		return nil, err
	}
	return stateView(sessionID, session.Site.Name, session.Status, state), nil
}

// ApplyAction 在指定单元使用工具
func (s *ExcavationService) ApplyAction(ctx context.Context, sessionID string, req *ActionRequest) (*ActionResponse, error) {
	_, state, lifecycle, err := s.loadSession(ctx, sessionID, true)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Trigger(EventAction); err != nil {
		return nil, apperrors.New(apperrors.ErrSessionNotActive)
	}

	toolID := req.ToolID
	if toolID == "" {
		toolID = state.CurrentTool
	}

	outcome, err := s.engine.ApplyAction(state, req.X, req.Y, toolID)
	if err != nil {
		return nil, mapEngineError(err)
	}

	if err := s.persistAction(ctx, sessionID, state, &models.GameAction{
		SessionID:  sessionID,
		ActionType: "excavate",
		GridX:      req.X,
		GridY:      req.Y,
		ToolID:     toolID,
		ScoreDelta: outcome.ScoreDelta,
		Detail:     actionDetail(outcome),
	}); err != nil {
		return nil, err
	}

	s.publishOutcome(sessionID, outcome)

	return &ActionResponse{
		Cell:            cellView(state, &outcome.Cell),
		Discoveries:     discoveredByName(state, outcome.Discoveries),
		Violations:      outcome.Violations,
		QuestsCompleted: outcome.QuestsCompleted,
		ScoreDelta:      outcome.ScoreDelta,
		Score:           state.Score,
		Messages:        outcome.Messages,
	}, nil
}

// ChangeTool 切换当前工具
func (s *ExcavationService) ChangeTool(ctx context.Context, sessionID string, req *ChangeToolRequest) error {
	_, state, lifecycle, err := s.loadSession(ctx, sessionID, true)
	if err != nil {
		return err
	}
	if err := lifecycle.Trigger(EventAction); err != nil {
		return apperrors.New(apperrors.ErrSessionNotActive)
	}

	if err := s.engine.ChangeTool(state, req.ToolID); err != nil {
		return mapEngineError(err)
	}

	return s.persistAction(ctx, sessionID, state, &models.GameAction{
		SessionID:  sessionID,
		ActionType: "change_tool",
		ToolID:     req.ToolID,
	})
}

// AddEntry 添加记录条目
func (s *ExcavationService) AddEntry(ctx context.Context, sessionID string, req *EntryRequest) (*EntryResponse, error) {
	_, state, lifecycle, err := s.loadSession(ctx, sessionID, true)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Trigger(EventAction); err != nil {
		return nil, apperrors.New(apperrors.ErrSessionNotActive)
	}

	outcome, err := s.engine.AddDocumentation(state,
		excavation.EntryType(req.Type), req.X, req.Y, req.Content, req.ArtifactID)
	if err != nil {
		return nil, mapEngineError(err)
	}

	if err := s.persistAction(ctx, sessionID, state, &models.GameAction{
		SessionID:  sessionID,
		ActionType: "entry",
		GridX:      req.X,
		GridY:      req.Y,
		ScoreDelta: outcome.BonusScore,
		Detail:     models.JSONMap{"type": req.Type, "entry_id": outcome.Entry.ID},
	}); err != nil {
		return nil, err
	}

	for _, title := range outcome.QuestsCompleted {
		s.publish(sessionID, "quest_completed", map[string]interface{}{"title": title})
	}

	return &EntryResponse{
		Entry:           outcome.Entry,
		QuestsCompleted: outcome.QuestsCompleted,
		BonusScore:      outcome.BonusScore,
		Violations:      outcome.Violations,
		Score:           state.Score,
	}, nil
}

// CompleteSession 结算会话并生成报告
func (s *ExcavationService) CompleteSession(ctx context.Context, sessionID string) (*ReportResponse, error) {
	session, state, lifecycle, err := s.loadSession(ctx, sessionID, true)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Trigger(EventComplete); err != nil {
		return nil, apperrors.New(apperrors.ErrSessionNotActive)
	}

	report := s.engine.Complete(state, session.Site.Name)

	stateJSON, err := marshalState(state)
	if err != nil {
		return nil, err
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown)
	}
	var reportData models.JSONMap
	if err := json.Unmarshal(reportJSON, &reportData); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown)
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.sessionRepo.WithTx(tx).(repository.GameSessionRepository)
		if err := repo.UpdateBySessionID(ctx, sessionID, map[string]interface{}{
			"status":             models.SessionStatusCompleted,
			"ended_at":           &now,
			"score":              state.Score,
			"completion_percent": report.CompletionPercent,
			"engine_state":       stateJSON,
			"report_data":        reportData,
		}); err != nil {
			return err
		}
		if err := repo.AppendAction(ctx, &models.GameAction{
			SessionID:  sessionID,
			ActionType: "complete",
			Detail:     models.JSONMap{"overall_score": report.OverallScore},
		}); err != nil {
			return err
		}
		return s.progressRepo.WithTx(tx).(repository.ProgressRepository).
			RecordResult(ctx, session.UserID, GameTypeExcavation, state.Score)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTransaction)
	}

	s.cache.Remove(sessionID)
	s.publish(sessionID, "session_completed", map[string]interface{}{
		"overall_score": report.OverallScore,
		"score":         state.Score,
	})

	best := state.Score
	if progress, err := s.progressRepo.Get(ctx, session.UserID, GameTypeExcavation); err == nil {
		best = progress.BestScore
	}

	s.logger.Info("发掘会话结算",
		zap.String("session_id", sessionID),
		zap.Int("score", state.Score),
		zap.Int("overall", report.OverallScore),
		zap.Float64("completion", report.CompletionPercent))

	return &ReportResponse{
		SessionID: sessionID,
		Report:    report,
		Score:     state.Score,
		MaxScore:  state.MaxScore,
		BestScore: best,
	}, nil
}

// AbandonSession 放弃会话，不生成报告，不计入成绩
func (s *ExcavationService) AbandonSession(ctx context.Context, sessionID string) error {
	_, _, lifecycle, err := s.loadSession(ctx, sessionID, true)
	if err != nil {
		return err
	}
	if err := lifecycle.Trigger(EventAbandon); err != nil {
		return apperrors.New(apperrors.ErrSessionNotActive)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.sessionRepo.WithTx(tx).(repository.GameSessionRepository)
		if err := repo.EndSession(ctx, sessionID, models.SessionStatusAbandoned); err != nil {
			return err
		}
		return repo.AppendAction(ctx, &models.GameAction{
			SessionID:  sessionID,
			ActionType: "abandon",
		})
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrTransaction)
	}

	s.cache.Remove(sessionID)
	s.logger.Info("发掘会话放弃", zap.String("session_id", sessionID))
	return nil
}

// Close 释放服务资源
func (s *ExcavationService) Close() {
	s.cache.Stop()
}

// loadSession 加载会话与引擎状态。mustActive 为真时要求会话进行中。
// 缓存未命中时从持久化状态重建（进程重启后的恢复路径）。
func (s *ExcavationService) loadSession(ctx context.Context, sessionID string, mustActive bool) (*models.GameSession, *excavation.State, *Lifecycle, error) {
	session, err := s.sessionRepo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, nil, nil, apperrors.Wrap(err, apperrors.ErrSessionNotFound)
	}
	if mustActive && !session.IsActive() {
		if session.Status == models.SessionStatusCompleted {
			return nil, nil, nil, apperrors.New(apperrors.ErrSessionCompleted)
		}
		return nil, nil, nil, apperrors.New(apperrors.ErrSessionNotActive)
	}

	if state, lifecycle, ok := s.cache.Get(sessionID); ok {
		return session, state, lifecycle, nil
	}

	var state excavation.State
	if err := json.Unmarshal([]byte(session.EngineState), &state); err != nil {
		return nil, nil, nil, apperrors.Wrap(err, apperrors.ErrStateCorrupted, sessionID)
	}

	lifecycle := NewLifecycle(sessionID, SessionPhase(session.Status), s.logger)
	if session.IsActive() {
		s.cache.Put(sessionID, &state, lifecycle)
		s.logger.Info("从持久化状态恢复会话", zap.String("session_id", sessionID))
	}
	return session, &state, lifecycle, nil
}

// persistAction 写回引擎状态并追加动作日志（单事务）
func (s *ExcavationService) persistAction(ctx context.Context, sessionID string, state *excavation.State, action *models.GameAction) error {
	stateJSON, err := marshalState(state)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.sessionRepo.WithTx(tx).(repository.GameSessionRepository)
		if err := repo.SaveState(ctx, sessionID, stateJSON, state.Score); err != nil {
			return err
		}
		return repo.AppendAction(ctx, action)
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrTransaction)
	}
	return nil
}

// publishOutcome 推送动作产生的事件
func (s *ExcavationService) publishOutcome(sessionID string, outcome *excavation.ActionOutcome) {
	for _, name := range outcome.Discoveries {
		s.publish(sessionID, "discovery", map[string]interface{}{"name": name})
	}
	for _, v := range outcome.Violations {
		s.publish(sessionID, "violation", v)
	}
	for _, title := range outcome.QuestsCompleted {
		s.publish(sessionID, "quest_completed", map[string]interface{}{"title": title})
	}
}

// publish 发布单个事件（未配置推送层时为空操作）
func (s *ExcavationService) publish(sessionID, eventType string, data interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(sessionID, &SessionEvent{
		Type:      eventType,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// siteSpec 数据库遗址转引擎输入
func siteSpec(site *models.Site) excavation.SiteSpec {
	artifacts := make([]excavation.ArtifactSpec, 0, len(site.Artifacts))
	for _, a := range site.Artifacts {
		artifacts = append(artifacts, excavation.ArtifactSpec{
			ID:        a.ID,
			Name:      a.Name,
			Condition: excavation.Condition(a.Condition),
			BaseDepth: a.BurialDepth,
		})
	}
	return excavation.SiteSpec{
		ID:         site.ID,
		Name:       site.Name,
		GridWidth:  site.GridWidth,
		GridHeight: site.GridHeight,
		Environment: excavation.Environment{
			Visibility:        site.Visibility,
			CurrentStrength:   site.CurrentStrength,
			Temperature:       site.Temperature,
			DepthMeters:       site.DepthMeters,
			SedimentType:      site.SedimentType,
			TimeBudgetMinutes: site.TimeBudget,
		},
		Artifacts: artifacts,
	}
}

// marshalState 序列化引擎状态
func marshalState(state *excavation.State) (string, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrUnknown)
	}
	return string(data), nil
}

// mapEngineError 引擎错误转应用错误
func mapEngineError(err error) error {
	switch err {
	case excavation.ErrUnknownTool:
		return apperrors.New(apperrors.ErrUnknownTool)
	case excavation.ErrOutOfRange:
		return apperrors.New(apperrors.ErrCoordOutOfRange)
	case excavation.ErrInvalidDifficulty:
		return apperrors.New(apperrors.ErrInvalidDifficulty)
	case excavation.ErrInvalidEntryType:
		return apperrors.New(apperrors.ErrInvalidEntryType)
	default:
		return apperrors.Wrap(err, apperrors.ErrUnknown)
	}
}

// actionDetail 动作日志详情
func actionDetail(outcome *excavation.ActionOutcome) models.JSONMap {
	detail := models.JSONMap{"depth": outcome.Cell.Depth}
	if len(outcome.Discoveries) > 0 {
		detail["discoveries"] = outcome.Discoveries
	}
	if len(outcome.Violations) > 0 {
		detail["violations"] = len(outcome.Violations)
	}
	return detail
}

// discoveredByName 按名称取已发现文物视图
func discoveredByName(state *excavation.State, names []string) []DiscoveryView {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	var out []DiscoveryView
	for _, v := range discoveryViews(state) {
		if set[v.Name] {
			out = append(out, v)
		}
	}
	return out
}
