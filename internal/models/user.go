package models

import (
	"time"

	"gorm.io/gorm"
)

// User 学员基础信息表
type User struct {
	BaseModel
	Username    string     `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Nickname    string     `gorm:"size:100" json:"nickname"`
	Email       string     `gorm:"uniqueIndex;size:100" json:"email"`
	Avatar      string     `gorm:"size:255" json:"avatar"`
	Status      string     `gorm:"size:20;default:'active'" json:"status"` // active, frozen, banned
	Level       int        `gorm:"default:1" json:"level"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	// 关联（注意：不直接嵌入进度记录，避免循环依赖）
	// 查询时使用 Preload("Progress") 来加载
	Progress []UserGameProgress `gorm:"foreignKey:UserID" json:"-"`
}

// UserGameProgress 学员每种游戏类型的最佳成绩记录表
type UserGameProgress struct {
	BaseModel
	UserID       uint      `gorm:"not null;index:idx_user_game,unique" json:"user_id"`
	GameType     string    `gorm:"size:50;not null;index:idx_user_game,unique" json:"game_type"` // excavation, identification...
	BestScore    int       `gorm:"default:0" json:"best_score"`
	TimesPlayed  int       `gorm:"default:0" json:"times_played"`
	LastPlayedAt time.Time `json:"last_played_at"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// TableName 指定表名
func (UserGameProgress) TableName() string {
	return "user_game_progress"
}

// BeforeCreate 创建前的钩子
func (u *User) BeforeCreate(tx *gorm.DB) error {
	// 设置默认昵称
	if u.Nickname == "" {
		u.Nickname = u.Username
	}
	// 设置默认状态
	if u.Status == "" {
		u.Status = "active"
	}
	return nil
}

// IsActive 检查学员是否激活
func (u *User) IsActive() bool {
	return u.Status == "active"
}
