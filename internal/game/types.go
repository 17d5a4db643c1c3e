package game

import (
	"time"

	"github.com/wfunc/dig-game/internal/game/excavation"
)

// StartSessionRequest 开始会话请求
type StartSessionRequest struct {
	SiteID     uint   `json:"site_id" binding:"required"`
	Difficulty string `json:"difficulty"` // 为空时取遗址默认难度
}

// ActionRequest 挖掘/记录动作请求
type ActionRequest struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	ToolID string `json:"tool_id"` // 为空时使用当前工具
}

// ChangeToolRequest 切换工具请求
type ChangeToolRequest struct {
	ToolID string `json:"tool_id" binding:"required"`
}

// EntryRequest 添加记录条目请求
type EntryRequest struct {
	Type       string `json:"type" binding:"required"` // discovery, measurement, photo, note, sample
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Content    string `json:"content"`
	ArtifactID uint   `json:"artifact_id"`
}

// CellView 网格单元视图（不泄露未发现的埋藏信息）
type CellView struct {
	X           int     `json:"x"`
	Y           int     `json:"y"`
	Excavated   bool    `json:"excavated"`
	Depth       float64 `json:"depth"`
	HasArtifact bool    `json:"has_artifact"` // 仅已发现的文物可见
	ArtifactID  uint    `json:"artifact_id,omitempty"`
}

// DiscoveryView 已发现文物视图
type DiscoveryView struct {
	ArtifactID uint       `json:"artifact_id"`
	Name       string     `json:"name"`
	Condition  string     `json:"condition"`
	X          int        `json:"x"`
	Y          int        `json:"y"`
	FoundAt    *time.Time `json:"found_at,omitempty"`
}

// SessionStateResponse 会话状态响应（玩家视角）
type SessionStateResponse struct {
	SessionID       string                           `json:"session_id"`
	SiteID          uint                             `json:"site_id"`
	SiteName        string                           `json:"site_name"`
	Difficulty      string                           `json:"difficulty"`
	Status          string                           `json:"status"`
	Environment     excavation.Environment           `json:"environment"`
	GridWidth       int                              `json:"grid_width"`
	GridHeight      int                              `json:"grid_height"`
	Grid            []CellView                       `json:"grid"`
	CurrentTool     string                           `json:"current_tool"`
	Discoveries     []DiscoveryView                  `json:"discoveries"`
	TotalArtifacts  int                              `json:"total_artifacts"`
	Entries         []excavation.DocumentationEntry  `json:"entries"`
	Quests          []excavation.Quest               `json:"quests"`
	Violations      []excavation.Violation           `json:"violations"`
	Score           int                              `json:"score"`
	MaxScore        int                              `json:"max_score"`
	StartedAt       time.Time                        `json:"started_at"`
}

// ActionResponse 动作结果响应
type ActionResponse struct {
	Cell            CellView               `json:"cell"`
	Discoveries     []DiscoveryView        `json:"discoveries"`
	Violations      []excavation.Violation `json:"violations"`
	QuestsCompleted []string               `json:"quests_completed"`
	ScoreDelta      int                    `json:"score_delta"`
	Score           int                    `json:"score"`
	Messages        []string               `json:"messages"`
}

// EntryResponse 记录条目响应
type EntryResponse struct {
	Entry           excavation.DocumentationEntry `json:"entry"`
	QuestsCompleted []string                      `json:"quests_completed"`
	BonusScore      int                           `json:"bonus_score"`
	Violations      []excavation.Violation        `json:"violations"`
	Score           int                           `json:"score"`
}

// ReportResponse 结算报告响应
type ReportResponse struct {
	SessionID string                  `json:"session_id"`
	Report    *excavation.FinalReport `json:"report"`
	Score     int                     `json:"score"`
	MaxScore  int                     `json:"max_score"`
	BestScore int                     `json:"best_score"`
}

// ToolView 工具视图
type ToolView struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Effectiveness float64 `json:"effectiveness"`
}

// cellView 构造单元视图。文物信息只有在对应文物已被发现时才暴露。
func cellView(s *excavation.State, cell *excavation.GridCell) CellView {
	v := CellView{
		X:         cell.X,
		Y:         cell.Y,
		Excavated: cell.Excavated,
		Depth:     cell.Depth,
	}
	if cell.HasArtifact {
		if p := s.PlacementAt(cell.X, cell.Y); p != nil && p.Discovered {
			v.HasArtifact = true
			v.ArtifactID = p.ArtifactID
		}
	}
	return v
}

// discoveryViews 已发现文物列表
func discoveryViews(s *excavation.State) []DiscoveryView {
	var out []DiscoveryView
	for i := range s.Layout {
		p := &s.Layout[i]
		if !p.Discovered {
			continue
		}
		out = append(out, DiscoveryView{
			ArtifactID: p.ArtifactID,
			Name:       p.Name,
			Condition:  string(p.Condition),
			X:          p.X,
			Y:          p.Y,
			FoundAt:    p.FoundAt,
		})
	}
	return out
}

// stateView 构造玩家视角的会话状态
func stateView(sessionID, siteName, status string, s *excavation.State) *SessionStateResponse {
	grid := make([]CellView, 0, len(s.Grid))
	for i := range s.Grid {
		grid = append(grid, cellView(s, &s.Grid[i]))
	}
	return &SessionStateResponse{
		SessionID:      sessionID,
		SiteID:         s.SiteID,
		SiteName:       siteName,
		Difficulty:     string(s.Difficulty),
		Status:         status,
		Environment:    s.Environment,
		GridWidth:      s.GridWidth,
		GridHeight:     s.GridHeight,
		Grid:           grid,
		CurrentTool:    s.CurrentTool,
		Discoveries:    discoveryViews(s),
		TotalArtifacts: len(s.Layout),
		Entries:        s.Entries,
		Quests:         s.Quests,
		Violations:     s.Violations,
		Score:          s.Score,
		MaxScore:       s.MaxScore,
		StartedAt:      s.StartedAt,
	}
}
