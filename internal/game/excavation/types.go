package excavation

import (
	"time"
)

// Difficulty 难度等级
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"     // 初级
	DifficultyIntermediate Difficulty = "intermediate" // 中级
	DifficultyAdvanced     Difficulty = "advanced"     // 高级
)

// ValidDifficulty 检查难度等级是否有效
func ValidDifficulty(d Difficulty) bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	default:
		return false
	}
}

// Condition 文物保存状况
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

// Environment 遗址环境条件
type Environment struct {
	Visibility        int     `json:"visibility"`          // 0-100
	CurrentStrength   int     `json:"current_strength"`    // 0-10
	Temperature       float64 `json:"temperature"`         // 摄氏度
	DepthMeters       float64 `json:"depth_meters"`        // 遗址深度（米）
	SedimentType      string  `json:"sediment_type"`       // 沉积物类型
	TimeBudgetMinutes int     `json:"time_budget_minutes"` // 时间预算
}

// GridCell 网格单元
type GridCell struct {
	X           int     `json:"x"`
	Y           int     `json:"y"`
	Excavated   bool    `json:"excavated"`
	Depth       float64 `json:"depth"` // 累计挖掘深度 0-1，单调不减
	HasArtifact bool    `json:"has_artifact"`
	ArtifactID  uint    `json:"artifact_id,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

// ArtifactSpec 文物描述（布局生成器的输入）
type ArtifactSpec struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Condition Condition `json:"condition"`
	BaseDepth float64   `json:"base_depth"` // 作者设定的埋藏深度 0-1
}

// ArtifactPlacement 会话布局中的文物埋藏（每会话随机化，不跨会话共享）
type ArtifactPlacement struct {
	ArtifactID uint       `json:"artifact_id"`
	Name       string     `json:"name"`
	Condition  Condition  `json:"condition"`
	X          int        `json:"x"`
	Y          int        `json:"y"`
	Depth      float64    `json:"depth"` // 发现所需深度 [0.3, 0.95]
	Discovered bool       `json:"discovered"`
	FoundAt    *time.Time `json:"found_at,omitempty"`
}

// EntryType 记录类型
type EntryType string

const (
	EntryDiscovery   EntryType = "discovery"
	EntryMeasurement EntryType = "measurement"
	EntryPhoto       EntryType = "photo"
	EntryNote        EntryType = "note"
	EntrySample      EntryType = "sample"
)

// ValidEntryType 检查记录类型是否有效
func ValidEntryType(t EntryType) bool {
	switch t {
	case EntryDiscovery, EntryMeasurement, EntryPhoto, EntryNote, EntrySample:
		return true
	default:
		return false
	}
}

// DocumentationEntry 记录日志条目（只追加）
type DocumentationEntry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	X          int       `json:"x"`
	Y          int       `json:"y"`
	Type       EntryType `json:"type"`
	Content    string    `json:"content"`
	ArtifactID uint      `json:"artifact_id,omitempty"`
	IsRequired bool      `json:"is_required"`
	IsComplete bool      `json:"is_complete"`
}

// QuestType 记录任务类型
type QuestType string

const (
	QuestTakePhotos         QuestType = "take_photos"
	QuestRecordMeasurements QuestType = "record_measurements"
	QuestDocumentArtifacts  QuestType = "document_artifacts"
	QuestWriteFieldNotes    QuestType = "write_field_notes"
	QuestExcavateGrid       QuestType = "excavate_grid"
)

// Quest 记录任务（会话期间只增不删）
type Quest struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Type      QuestType `json:"type"`
	Target    int       `json:"target"`
	Current   int       `json:"current"` // 完成后不会超过 Target
	Completed bool      `json:"completed"`
	Reward    int       `json:"reward"`
}

// ViolationType 规程违规类型
type ViolationType string

const (
	ViolationImproperTool  ViolationType = "improper_tool"
	ViolationMissingDoc    ViolationType = "missing_documentation"
	ViolationRushed        ViolationType = "rushed_excavation"
	ViolationContamination ViolationType = "contamination"
	ViolationDamage        ViolationType = "damage"
)

// Severity 违规严重程度
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// PenaltyFor 返回严重程度对应的罚分
func PenaltyFor(s Severity) int {
	switch s {
	case SeveritySevere:
		return 20
	case SeverityModerate:
		return 10
	default:
		return 5
	}
}

// Violation 规程违规记录（只追加；罚分不扣减运行分数，仅用于合规度计算）
type Violation struct {
	ID          string        `json:"id"`
	Timestamp   time.Time     `json:"timestamp"`
	Type        ViolationType `json:"type"`
	Severity    Severity      `json:"severity"`
	Description string        `json:"description"`
	Penalty     int           `json:"penalty"`
}

// SiteSpec 遗址描述（引擎的只读输入）
type SiteSpec struct {
	ID          uint
	Name        string
	GridWidth   int
	GridHeight  int
	Environment Environment
	Artifacts   []ArtifactSpec
}

// GameplayConfig 玩法配置（会话启动时传入，统一有无任务/时限的变体）
type GameplayConfig struct {
	QuestsEnabled    bool   `json:"quests_enabled"`
	TimeLimitEnabled bool   `json:"time_limit_enabled"`
	DefaultTool      string `json:"default_tool"`
}

// DefaultGameplayConfig 默认玩法配置
func DefaultGameplayConfig() GameplayConfig {
	return GameplayConfig{
		QuestsEnabled:    true,
		TimeLimitEnabled: false,
		DefaultTool:      "trowel",
	}
}

// State 会话引擎状态（显式类型化结构，仅在持久化边界序列化）
type State struct {
	SiteID      uint                 `json:"site_id"`
	Difficulty  Difficulty           `json:"difficulty"`
	Environment Environment          `json:"environment"`
	GridWidth   int                  `json:"grid_width"`
	GridHeight  int                  `json:"grid_height"`
	Grid        []GridCell           `json:"grid"` // 按 y*width+x 索引，宽×高固定
	Layout      []ArtifactPlacement  `json:"layout"`
	CurrentTool string               `json:"current_tool"`
	Entries     []DocumentationEntry `json:"entries"`
	Quests      []Quest              `json:"quests"`
	Violations  []Violation          `json:"violations"`
	Score       int                  `json:"score"`
	MaxScore    int                  `json:"max_score"`
	StartedAt   time.Time            `json:"started_at"`
	TimeFlagged bool                 `json:"time_flagged"` // 超时违规只记一次
}

// InBounds 检查坐标是否在网格内
func (s *State) InBounds(x, y int) bool {
	return x >= 0 && x < s.GridWidth && y >= 0 && y < s.GridHeight
}

// CellAt 返回指定坐标的网格单元
func (s *State) CellAt(x, y int) *GridCell {
	if !s.InBounds(x, y) {
		return nil
	}
	return &s.Grid[y*s.GridWidth+x]
}

// PlacementAt 返回指定坐标的文物埋藏（无则返回nil）
func (s *State) PlacementAt(x, y int) *ArtifactPlacement {
	for i := range s.Layout {
		if s.Layout[i].X == x && s.Layout[i].Y == y {
			return &s.Layout[i]
		}
	}
	return nil
}

// ExcavatedCells 统计已挖掘单元数
func (s *State) ExcavatedCells() int {
	count := 0
	for i := range s.Grid {
		if s.Grid[i].Excavated {
			count++
		}
	}
	return count
}

// DiscoveredArtifacts 统计已发现文物数
func (s *State) DiscoveredArtifacts() int {
	count := 0
	for i := range s.Layout {
		if s.Layout[i].Discovered {
			count++
		}
	}
	return count
}

// ActionOutcome 单次动作的结果
type ActionOutcome struct {
	Cell            GridCell    `json:"cell"`
	Discoveries     []string    `json:"discoveries"`      // 本次发现的文物名称
	Violations      []Violation `json:"violations"`       // 本次新增的违规
	QuestsCompleted []string    `json:"quests_completed"` // 本次完成的任务标题
	ScoreDelta      int         `json:"score_delta"`
	Messages        []string    `json:"messages"`
}

// DocumentationOutcome 添加记录条目的结果
type DocumentationOutcome struct {
	Entry           DocumentationEntry `json:"entry"`
	QuestsCompleted []string           `json:"quests_completed"`
	BonusScore      int                `json:"bonus_score"`
	Violations      []Violation        `json:"violations"`
}

// FinalReport 结算报告
type FinalReport struct {
	SiteName             string      `json:"site_name"`
	CompletionPercent    float64     `json:"completion_percent"`
	ArtifactsFound       int         `json:"artifacts_found"`
	TotalArtifacts       int         `json:"total_artifacts"`
	DocumentationQuality float64     `json:"documentation_quality"`
	ProtocolCompliance   float64     `json:"protocol_compliance"`
	OverallScore         int         `json:"overall_score"`
	FinalScore           int         `json:"final_score"`
	Recommendations      []string    `json:"recommendations"`
	DigitalReport        string      `json:"digital_report"`
	Violations           []Violation `json:"violations"`
}
