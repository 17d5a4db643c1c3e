package models

import (
	"time"
)

// 会话状态
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusAbandoned = "abandoned"
)

// GameSession 挖掘会话表
type GameSession struct {
	BaseModel
	UserID            uint       `gorm:"not null;index" json:"user_id"`
	SiteID            uint       `gorm:"not null;index" json:"site_id"`
	SessionID         string     `gorm:"uniqueIndex;size:64;not null" json:"session_id"`
	Difficulty        string     `gorm:"size:20;not null" json:"difficulty"`
	Status            string     `gorm:"size:20;default:'active'" json:"status"` // active, completed, abandoned
	StartedAt         time.Time  `json:"started_at"`
	EndedAt           *time.Time `json:"ended_at,omitempty"`
	Score             int        `gorm:"default:0" json:"score"`
	MaxScore          int        `gorm:"default:0" json:"max_score"`
	CompletionPercent float64    `gorm:"default:0" json:"completion_percent"`
	EngineState       string     `gorm:"type:text" json:"-"` // JSON格式的引擎状态（仅在持久化边界序列化）
	ReportData        JSONMap    `gorm:"type:json" json:"report_data,omitempty"`

	// 关联（注意：不直接嵌入 User，避免循环依赖）
	Site Site `gorm:"foreignKey:SiteID" json:"site,omitempty"`
}

// GameAction 会话动作日志表（只追加）
type GameAction struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SessionID  string    `gorm:"index;size:64;not null" json:"session_id"`
	ActionType string    `gorm:"size:30;not null" json:"action_type"` // excavate, document, change_tool, entry, complete, abandon
	GridX      int       `json:"grid_x"`
	GridY      int       `json:"grid_y"`
	ToolID     string    `gorm:"size:50" json:"tool_id"`
	ScoreDelta int       `json:"score_delta"`
	Detail     JSONMap   `gorm:"type:json" json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName 指定表名
func (GameSession) TableName() string {
	return "game_sessions"
}

// TableName 指定表名
func (GameAction) TableName() string {
	return "game_actions"
}

// IsActive 检查会话是否进行中
func (s *GameSession) IsActive() bool {
	return s.Status == SessionStatusActive
}
