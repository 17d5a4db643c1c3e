package models

// 遗址状态
const (
	SiteStatusActive   = "active"   // 开放中
	SiteStatusDraft    = "draft"    // 草稿
	SiteStatusDisabled = "disabled" // 已停用
)

// Site 考古遗址表（由内容作者创建，引擎只读）
type Site struct {
	BaseModel
	Name        string  `gorm:"size:100;not null" json:"name"`
	Period      string  `gorm:"size:100" json:"period"`   // 历史时期
	Location    string  `gorm:"size:200" json:"location"` // 地理位置
	Description string  `gorm:"size:1000" json:"description"`
	GridWidth   int     `gorm:"not null" json:"grid_width"`
	GridHeight  int     `gorm:"not null" json:"grid_height"`
	Difficulty  string  `gorm:"size:20;default:'beginner'" json:"difficulty"` // beginner, intermediate, advanced
	Status      string  `gorm:"size:20;default:'active'" json:"status"`       // active, draft, disabled

	// 环境条件
	Visibility      int     `gorm:"default:80" json:"visibility"`       // 0-100
	CurrentStrength int     `gorm:"default:3" json:"current_strength"`  // 0-10（水流强度）
	Temperature     float64 `gorm:"default:20" json:"temperature"`      // 摄氏度
	DepthMeters     float64 `gorm:"default:0" json:"depth_meters"`      // 遗址深度（米）
	SedimentType    string  `gorm:"size:50" json:"sediment_type"`       // sand, silt, clay...
	TimeBudget      int     `gorm:"default:60" json:"time_budget"`      // 分钟

	// 关联
	Artifacts []SiteArtifact `gorm:"foreignKey:SiteID" json:"artifacts,omitempty"`
}

// SiteArtifact 遗址文物埋藏表（真实埋藏位置，对玩家隐藏）
type SiteArtifact struct {
	BaseModel
	SiteID      uint    `gorm:"not null;index" json:"site_id"`
	Name        string  `gorm:"size:100;not null" json:"name"`
	Category    string  `gorm:"size:50" json:"category"` // pottery, tool, ornament...
	Era         string  `gorm:"size:100" json:"era"`
	Description string  `gorm:"size:500" json:"description"`
	GridX       int     `gorm:"not null" json:"grid_x"`
	GridY       int     `gorm:"not null" json:"grid_y"`
	BurialDepth float64 `gorm:"not null" json:"burial_depth"`           // 0-1
	Condition   string  `gorm:"size:20;default:'good'" json:"condition"` // excellent, good, fair, poor
}

// TableName 指定表名
func (Site) TableName() string {
	return "sites"
}

// TableName 指定表名
func (SiteArtifact) TableName() string {
	return "site_artifacts"
}

// IsActive 检查遗址是否可用
func (s *Site) IsActive() bool {
	return s.Status == SiteStatusActive
}
