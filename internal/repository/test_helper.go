package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/dig-game/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB 为测试设置内存数据库
func SetupTestDB(t *testing.T) *gorm.DB {
	// 使用内存数据库进行测试（更快，不需要文件系统，在所有环境中都能工作）
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		// 学员系统
		&models.User{},
		&models.UserGameProgress{},

		// 遗址内容
		&models.Site{},
		&models.SiteArtifact{},

		// 会话系统
		&models.GameSession{},
		&models.GameAction{},
	)
	require.NoError(t, err)

	return db
}

// CleanupTestDB 清理测试数据库
func CleanupTestDB(db *gorm.DB) {
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// SeedTestData 创建测试数据
func SeedTestData(t *testing.T, db *gorm.DB) {
	// 创建测试学员
	users := []models.User{
		{
			Username: "student1",
			Email:    "student1@example.com",
			Nickname: "测试学员1",
			Status:   "active",
		},
		{
			Username: "student2",
			Email:    "student2@example.com",
			Nickname: "测试学员2",
			Status:   "active",
		},
	}
	err := db.Create(&users).Error
	require.NoError(t, err)

	// 创建测试遗址（级联创建文物）
	sites := []models.Site{
		{
			Name:            "南海一号沉船",
			Period:          "南宋",
			Location:        "广东阳江海域",
			Description:     "宋代远洋贸易商船遗址",
			GridWidth:       6,
			GridHeight:      5,
			Difficulty:      "beginner",
			Status:          models.SiteStatusActive,
			Visibility:      60,
			CurrentStrength: 3,
			Temperature:     16,
			DepthMeters:     24,
			SedimentType:    "silt",
			TimeBudget:      45,
			Artifacts: []models.SiteArtifact{
				{Name: "青瓷碗", Category: "pottery", Era: "南宋", GridX: 1, GridY: 1, BurialDepth: 0.5, Condition: "good"},
				{Name: "铁锚", Category: "tool", Era: "南宋", GridX: 3, GridY: 2, BurialDepth: 0.7, Condition: "poor"},
				{Name: "金腰带", Category: "ornament", Era: "南宋", GridX: 4, GridY: 4, BurialDepth: 0.6, Condition: "excellent"},
			},
		},
		{
			Name:       "草稿遗址",
			GridWidth:  4,
			GridHeight: 4,
			Difficulty: "advanced",
			Status:     models.SiteStatusDraft,
		},
	}
	err = db.Create(&sites).Error
	require.NoError(t, err)
}

// CreateTestSession 创建测试会话
func CreateTestSession(userID, siteID uint) *models.GameSession {
	return &models.GameSession{
		UserID:     userID,
		SiteID:     siteID,
		SessionID:  "test_session_" + time.Now().Format("20060102150405.000000"),
		Difficulty: "beginner",
		Status:     models.SessionStatusActive,
		StartedAt:  time.Now(),
	}
}

// AssertGameSession 验证会话
func AssertGameSession(t *testing.T, expected, actual *models.GameSession) {
	assert.Equal(t, expected.SessionID, actual.SessionID)
	assert.Equal(t, expected.UserID, actual.UserID)
	assert.Equal(t, expected.SiteID, actual.SiteID)
	assert.Equal(t, expected.Status, actual.Status)
}
