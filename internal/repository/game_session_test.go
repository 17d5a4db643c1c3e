package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/dig-game/internal/models"
)

func TestGameSessionRepository_Create(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(db)
	SeedTestData(t, db)
	repo := NewGameSessionRepository(db)
	ctx := context.Background()

	// 测试创建会话
	session := CreateTestSession(1, 1)
	err := repo.Create(ctx, session)
	require.NoError(t, err)
	assert.NotZero(t, session.ID)

	// 验证会话已创建
	found, err := repo.FindBySessionID(ctx, session.SessionID)
	require.NoError(t, err)
	AssertGameSession(t, session, found)
	assert.Equal(t, "南海一号沉船", found.Site.Name)
}

func TestGameSessionRepository_UpdateBySessionID(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(db)
	SeedTestData(t, db)
	repo := NewGameSessionRepository(db)
	ctx := context.Background()

	session := CreateTestSession(1, 1)
	err := repo.Create(ctx, session)
	require.NoError(t, err)

	// 使用SessionID更新
	updates := map[string]interface{}{
		"score":              155,
		"completion_percent": 50.0,
	}
	err = repo.UpdateBySessionID(ctx, session.SessionID, updates)
	require.NoError(t, err)

	found, err := repo.FindBySessionID(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 155, found.Score)
	assert.Equal(t, 50.0, found.CompletionPercent)
}

func TestGameSessionRepository_SaveState(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(db)
	SeedTestData(t, db)
	repo := NewGameSessionRepository(db)
	ctx := context.Background()

	session := CreateTestSession(1, 1)
	err := repo.Create(ctx, session)
	require.NoError(t, err)

	// 保存引擎状态快照
	err = repo.SaveState(ctx, session.SessionID, `{"score":120}`, 120)
	require.NoError(t, err)

	found, err := repo.FindBySessionID(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, `{"score":120}`, found.EngineState)
	assert.Equal(t, 120, found.Score)
}

func TestGameSessionRepository_FindActiveByUserID(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(db)
	SeedTestData(t, db)
	repo := NewGameSessionRepository(db)
	ctx := context.Background()

	// 没有会话时返回nil而非错误
	found, err := repo.FindActiveByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, found)

	session := CreateTestSession(1, 1)
	err = repo.Create(ctx, session)
	require.NoError(t, err)

	found, err = repo.FindActiveByUserID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, session.SessionID, found.SessionID)

	// 结束后不再是活跃会话
	err = repo.EndSession(ctx, session.SessionID, models.SessionStatusCompleted)
	require.NoError(t, err)

	found, err = repo.FindActiveByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestGameSessionRepository_EndSession(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(db)
	SeedTestData(t, db)
	repo := NewGameSessionRepository(db)
	ctx := context.Background()

	session := CreateTestSession(1, 1)
	err := repo.Create(ctx, session)
	require.NoError(t, err)

	err = repo.EndSession(ctx, session.SessionID, models.SessionStatusAbandoned)
	require.NoError(t, err)

	found, err := repo.FindBySessionID(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusAbandoned, found.Status)
	assert.NotNil(t, found.EndedAt)
}

func TestGameSessionRepository_FindByUserID(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(db)
	SeedTestData(t, db)
	repo := NewGameSessionRepository(db)
	ctx := context.Background()

	// 创建3个会话
	for i := 0; i < 3; i++ {
		session := CreateTestSession(1, 1)
		session.SessionID = session.SessionID + "_" + string(rune('a'+i))
		err := repo.Create(ctx, session)
		require.NoError(t, err)
	}
	// 其他学员的会话不应出现
	other := CreateTestSession(2, 1)
	other.SessionID = other.SessionID + "_other"
	err := repo.Create(ctx, other)
	require.NoError(t, err)

	p := NewPagination(1, 2)
	sessions, err := repo.FindByUserID(ctx, 1, p)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
	assert.Equal(t, int64(3), p.Total)
}

func TestGameSessionRepository_Actions(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(db)
	SeedTestData(t, db)
	repo := NewGameSessionRepository(db)
	ctx := context.Background()

	session := CreateTestSession(1, 1)
	err := repo.Create(ctx, session)
	require.NoError(t, err)

	// 追加动作日志
	actions := []*models.GameAction{
		{SessionID: session.SessionID, ActionType: "excavate", GridX: 1, GridY: 1, ToolID: "trowel"},
		{SessionID: session.SessionID, ActionType: "change_tool", ToolID: "soft_brush"},
		{SessionID: session.SessionID, ActionType: "entry", Detail: models.JSONMap{"type": "photo"}},
	}
	for _, a := range actions {
		err = repo.AppendAction(ctx, a)
		require.NoError(t, err)
	}

	found, err := repo.FindActions(ctx, session.SessionID)
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, "excavate", found[0].ActionType)
	assert.Equal(t, "change_tool", found[1].ActionType)
	assert.Equal(t, "entry", found[2].ActionType)
}

func TestGameSessionRepository_CleanupExpiredSessions(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(db)
	SeedTestData(t, db)
	repo := NewGameSessionRepository(db)
	ctx := context.Background()

	session := CreateTestSession(1, 1)
	err := repo.Create(ctx, session)
	require.NoError(t, err)

	// 过期时间在创建之前，不应清理
	count, err := repo.CleanupExpiredSessions(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)

	// 过期时间在创建之后，应标记为放弃
	count, err = repo.CleanupExpiredSessions(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	found, err := repo.FindBySessionID(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusAbandoned, found.Status)
}
