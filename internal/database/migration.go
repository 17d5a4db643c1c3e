package database

import (
	"fmt"

	"github.com/wfunc/dig-game/internal/logger"
	"github.com/wfunc/dig-game/internal/models"
	"go.uber.org/zap"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// 定义需要迁移的模型
	migrationModels := []interface{}{
		// 学员相关
		&models.User{},
		&models.UserGameProgress{},

		// 遗址内容
		&models.Site{},
		&models.SiteArtifact{},

		// 挖掘会话
		&models.GameSession{},
		&models.GameAction{},
	}

	// 执行迁移
	for _, model := range migrationModels {
		if err := DB.AutoMigrate(model); err != nil {
			logger.Error("表迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err))
			return fmt.Errorf("迁移 %T 失败: %w", model, err)
		}
	}

	logger.Info("数据库迁移完成", zap.Int("models", len(migrationModels)))
	return nil
}
