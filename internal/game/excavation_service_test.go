package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/dig-game/internal/errors"
	"github.com/wfunc/dig-game/internal/game/excavation"
	"github.com/wfunc/dig-game/internal/models"
	"github.com/wfunc/dig-game/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// capturedEvents 记录推送事件的测试桩
type capturedEvents struct {
	mu     sync.Mutex
	events []*SessionEvent
}

func (c *capturedEvents) Publish(sessionID string, event *SessionEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *capturedEvents) byType(eventType string) []*SessionEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*SessionEvent
	for _, e := range c.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func setupService(t *testing.T) (*gorm.DB, *ExcavationService, *capturedEvents) {
	db := repository.SetupTestDB(t)
	repository.SeedTestData(t, db)

	events := &capturedEvents{}
	svc := NewExcavationService(&ExcavationServiceConfig{
		DB:     db,
		Logger: zap.NewNop(),
		Gameplay: excavation.GameplayConfig{
			QuestsEnabled: true,
			DefaultTool:   "trowel",
		},
		Events:       events,
		CacheTimeout: time.Minute,
	})
	t.Cleanup(func() {
		svc.Close()
		repository.CleanupTestDB(db)
	})
	return db, svc, events
}

func TestStartSession(t *testing.T) {
	db, svc, _ := setupService(t)
	ctx := context.Background()

	resp, err := svc.StartSession(ctx, 1, &StartSessionRequest{SiteID: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "南海一号沉船", resp.SiteName)
	assert.Equal(t, "beginner", resp.Difficulty)
	assert.Equal(t, "trowel", resp.CurrentTool)
	assert.Len(t, resp.Grid, 30)
	assert.Equal(t, 3, resp.TotalArtifacts)
	assert.NotEmpty(t, resp.Quests)
	assert.Greater(t, resp.MaxScore, 0)

	// 未发现的埋藏不能泄露给玩家
	for _, cell := range resp.Grid {
		assert.False(t, cell.HasArtifact, "单元 (%d,%d) 泄露了埋藏信息", cell.X, cell.Y)
	}
	assert.Empty(t, resp.Discoveries)

	// 会话已持久化
	var session models.GameSession
	err = db.Where("session_id = ?", resp.SessionID).First(&session).Error
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusActive, session.Status)
	assert.NotEmpty(t, session.EngineState)
}

func TestStartSession_Errors(t *testing.T) {
	_, svc, _ := setupService(t)
	ctx := context.Background()

	// 草稿遗址不可开始
	_, err := svc.StartSession(ctx, 1, &StartSessionRequest{SiteID: 2})
	assert.Equal(t, apperrors.ErrSiteInactive, apperrors.GetCode(err))

	// 遗址不存在
	_, err = svc.StartSession(ctx, 1, &StartSessionRequest{SiteID: 999})
	assert.Equal(t, apperrors.ErrSiteNotFound, apperrors.GetCode(err))

	// 学员不存在
	_, err = svc.StartSession(ctx, 999, &StartSessionRequest{SiteID: 1})
	assert.Equal(t, apperrors.ErrUserNotFound, apperrors.GetCode(err))
}

func TestStartSession_AutoAbandonPrevious(t *testing.T) {
	db, svc, _ := setupService(t)
	ctx := context.Background()

	first, err := svc.StartSession(ctx, 1, &StartSessionRequest{SiteID: 1})
	require.NoError(t, err)

	second, err := svc.StartSession(ctx, 1, &StartSessionRequest{SiteID: 1})
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)

	// 旧会话被自动放弃
	var session models.GameSession
	err = db.Where("session_id = ?", first.SessionID).First(&session).Error
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusAbandoned, session.Status)
}

func TestApplyAction(t *testing.T) {
	_, svc, _ := setupService(t)
	ctx := context.Background()

	start, err := svc.StartSession(ctx, 1, &StartSessionRequest{SiteID: 1})
	require.NoError(t, err)

	// 能见度60、水流3，手铲单次进度 0.9*0.1*0.6*0.7*1.2=0.04536，第7次超过0.3
	var resp *ActionResponse
	for i := 0; i < 7; i++ {
		resp, err = svc.ApplyAction(ctx, start.SessionID, &ActionRequest{X: 0, Y: 0})
		require.NoError(t, err)
	}
	assert.True(t, resp.Cell.Excavated)
	assert.Greater(t, resp.Cell.Depth, 0.3)
}

func TestApplyAction_Errors(t *testing.T) {
	_, svc, _ := setupService(t)
	ctx := context.Background()

	start, err := svc.StartSession(ctx, 1, &StartSessionRequest{SiteID: 1})
	require.NoError(t, err)

	_, err = svc.ApplyAction(ctx, "missing", &ActionRequest{X: 0, Y: 0})
	assert.Equal(t, apperrors.ErrSessionNotFound, apperrors.GetCode(err))

	_, err = svc.ApplyAction(ctx, start.SessionID, &ActionRequest{X: 99, Y: 0})
	assert.Equal(t, apperrors.ErrCoordOutOfRange, apperrors.GetCode(err))

	_, err = svc.ApplyAction(ctx, start.SessionID, &ActionRequest{X: 0, Y: 0, ToolID: "laser"})
	assert.Equal(t, apperrors.ErrUnknownTool, apperrors.GetCode(err))
}

func TestChangeTool(t *testing.T) {
	_, svc, _ := setupService(t)
	ctx := context.Background()

	start, err := svc.StartSession(ctx, 1, &StartSessionRequest{SiteID: 1})
	require.NoError(t, err)

	err = svc.ChangeTool(ctx, start.SessionID, &ChangeToolRequest{ToolID: "soft_brush"})
	require.NoError(t, err)

	state, err := svc.GetSessionState(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "soft_brush", state.CurrentTool)

	err = svc.ChangeTool(ctx, start.SessionID, &ChangeToolRequest{ToolID: "shovel"})
	assert.Equal(t, apperrors.ErrUnknownTool, apperrors.GetCode(err))
}

func TestAddEntry(t *testing.T) {
	_, svc, events := setupService(t)
	ctx := context.Background()

	start, err := svc.StartSession(ctx, 1, &StartSessionRequest{SiteID: 1})
	require.NoError(t, err)

	resp, err := svc.AddEntry(ctx, start.SessionID, &EntryRequest{
		Type: "photo", X: 0, Y: 0, Content: "探方全景",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Entry.ID)
	assert.True(t, resp.Entry.IsComplete)

	// 初级照片任务目标3张
	for i := 0; i < 2; i++ {
		resp, err = svc.AddEntry(ctx, start.SessionID, &EntryRequest{Type: "photo", Content: "照片"})
		require.NoError(t, err)
	}
	assert.NotEmpty(t, resp.QuestsCompleted)
	assert.NotEmpty(t, events.byType("quest_completed"))

	_, err = svc.AddEntry(ctx, start.SessionID, &EntryRequest{Type: "video"})
	assert.Equal(t, apperrors.ErrInvalidEntryType, apperrors.GetCode(err))
}

func TestCompleteSession(t *testing.T) {
	db, svc, events := setupService(t)
	ctx := context.Background()

	start, err := svc.StartSession(ctx, 1, &StartSessionRequest{SiteID: 1})
	require.NoError(t, err)

	_, err = svc.AddEntry(ctx, start.SessionID, &EntryRequest{Type: "photo", Content: "照片"})
	require.NoError(t, err)

	resp, err := svc.CompleteSession(ctx, start.SessionID)
	require.NoError(t, err)
	require.NotNil(t, resp.Report)
	assert.Equal(t, "南海一号沉船", resp.Report.SiteName)
	assert.NotEmpty(t, resp.Report.DigitalReport)

	// 会话状态已更新
	var session models.GameSession
	err = db.Where("session_id = ?", start.SessionID).First(&session).Error
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, session.Status)
	assert.NotNil(t, session.EndedAt)

	// 成绩进度已记录
	var progress models.UserGameProgress
	err = db.Where("user_id = ? AND game_type = ?", 1, GameTypeExcavation).First(&progress).Error
	require.NoError(t, err)
	assert.Equal(t, 1, progress.TimesPlayed)

	assert.NotEmpty(t, events.byType("session_completed"))

	// 结算后不可再操作
	_, err = svc.ApplyAction(ctx, start.SessionID, &ActionRequest{X: 0, Y: 0})
	assert.Equal(t, apperrors.ErrSessionCompleted, apperrors.GetCode(err))
	_, err = svc.CompleteSession(ctx, start.SessionID)
	assert.Equal(t, apperrors.ErrSessionCompleted, apperrors.GetCode(err))
}

func TestAbandonSession(t *testing.T) {
	db, svc, _ := setupService(t)
	ctx := context.Background()

	start, err := svc.StartSession(ctx, 1, &StartSessionRequest{SiteID: 1})
	require.NoError(t, err)

	err = svc.AbandonSession(ctx, start.SessionID)
	require.NoError(t, err)

	var session models.GameSession
	err = db.Where("session_id = ?", start.SessionID).First(&session).Error
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusAbandoned, session.Status)

	// 放弃不计入成绩进度
	var count int64
	db.Model(&models.UserGameProgress{}).Where("user_id = ?", 1).Count(&count)
	assert.Zero(t, count)

	_, err = svc.ApplyAction(ctx, start.SessionID, &ActionRequest{X: 0, Y: 0})
	assert.Equal(t, apperrors.ErrSessionNotActive, apperrors.GetCode(err))
}

func TestSessionRecoveryFromPersistedState(t *testing.T) {
	_, svc, _ := setupService(t)
	ctx := context.Background()

	start, err := svc.StartSession(ctx, 1, &StartSessionRequest{SiteID: 1})
	require.NoError(t, err)

	_, err = svc.ApplyAction(ctx, start.SessionID, &ActionRequest{X: 0, Y: 0})
	require.NoError(t, err)

	// 模拟进程重启：清掉缓存后应能从持久化状态恢复
	svc.cache.Remove(start.SessionID)

	state, err := svc.GetSessionState(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Greater(t, state.Grid[0].Depth, 0.0)

	// 恢复后可继续操作
	_, err = svc.ApplyAction(ctx, start.SessionID, &ActionRequest{X: 0, Y: 0})
	require.NoError(t, err)
}

func TestGetSessionStateIdempotent(t *testing.T) {
	_, svc, _ := setupService(t)
	ctx := context.Background()

	start, err := svc.StartSession(ctx, 1, &StartSessionRequest{SiteID: 1})
	require.NoError(t, err)

	_, err = svc.ApplyAction(ctx, start.SessionID, &ActionRequest{X: 1, Y: 1})
	require.NoError(t, err)

	// 查询本身不改变会话状态
	first, err := svc.GetSessionState(ctx, start.SessionID)
	require.NoError(t, err)
	second, err := svc.GetSessionState(ctx, start.SessionID)
	require.NoError(t, err)

	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Grid, second.Grid)
	assert.Equal(t, first.Discoveries, second.Discoveries)
	assert.Equal(t, first.Violations, second.Violations)
}

func TestListSites(t *testing.T) {
	_, svc, _ := setupService(t)
	ctx := context.Background()

	p := repository.NewPagination(1, 10)
	sites, err := svc.ListSites(ctx, "", p)
	require.NoError(t, err)
	assert.Len(t, sites, 1)

	_, err = svc.ListSites(ctx, "expert", repository.NewPagination(1, 10))
	assert.Equal(t, apperrors.ErrInvalidDifficulty, apperrors.GetCode(err))
}

func TestLifecycle(t *testing.T) {
	l := NewLifecycle("s1", PhaseActive, zap.NewNop())

	assert.True(t, l.CanTrigger(EventAction))
	require.NoError(t, l.Trigger(EventAction))
	assert.Equal(t, PhaseActive, l.Phase())

	require.NoError(t, l.Trigger(EventComplete))
	assert.Equal(t, PhaseCompleted, l.Phase())

	// 终态不可再转换
	assert.Error(t, l.Trigger(EventAction))
	assert.Error(t, l.Trigger(EventAbandon))
}

func TestSessionCache(t *testing.T) {
	cache := NewSessionCache(time.Minute, zap.NewNop())
	defer cache.Stop()

	state := &excavation.State{SiteID: 1}
	cache.Put("s1", state, NewLifecycle("s1", PhaseActive, zap.NewNop()))

	got, _, ok := cache.Get("s1")
	require.True(t, ok)
	assert.Equal(t, state, got)
	assert.Equal(t, 1, cache.Len())

	cache.Remove("s1")
	_, _, ok = cache.Get("s1")
	assert.False(t, ok)
}
