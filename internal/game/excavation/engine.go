package excavation

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	mrand "math/rand"
	"time"
)

var (
	// ErrUnknownTool 未知工具
	ErrUnknownTool = errors.New("未知的工具")
	// ErrOutOfRange 坐标越界
	ErrOutOfRange = errors.New("坐标超出网格范围")
	// ErrInvalidDifficulty 未知难度
	ErrInvalidDifficulty = errors.New("无效的难度等级")
	// ErrInvalidEntryType 未知记录类型
	ErrInvalidEntryType = errors.New("无效的记录类型")
)

const (
	progressBase   = 0.1  // 单次挖掘基础进度
	progressFloor  = 0.01 // 单次进度下限
	excavatedDepth = 0.3  // 深度超过该值视为已挖掘
	docBonus       = 10   // 在已挖掘单元正确使用记录工具的奖励分
)

// Engine 发掘会话引擎。无内部可变状态，所有方法操作传入的State，
// 便于在持久化边界整体序列化。
type Engine struct {
	tools *Registry
	cfg   GameplayConfig
	now   func() time.Time
}

// NewEngine 创建引擎
func NewEngine(tools *Registry, cfg GameplayConfig) *Engine {
	if tools == nil {
		tools = DefaultRegistry()
	}
	return &Engine{tools: tools, cfg: cfg, now: time.Now}
}

// SetClock 注入时钟（测试用）
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Tools 返回工具目录
func (e *Engine) Tools() *Registry {
	return e.tools
}

// NewSession 创建会话初始状态。布局每会话独立随机化。
func (e *Engine) NewSession(site SiteSpec, difficulty Difficulty, rng *mrand.Rand) (*State, error) {
	if !ValidDifficulty(difficulty) {
		return nil, ErrInvalidDifficulty
	}
	defaultTool := e.cfg.DefaultTool
	if _, ok := e.tools.Get(defaultTool); !ok {
		defaultTool = "trowel"
	}

	layout, err := NewGenerator(rng).Generate(site.GridWidth, site.GridHeight, site.Artifacts)
	if err != nil {
		return nil, err
	}

	grid := make([]GridCell, site.GridWidth*site.GridHeight)
	for y := 0; y < site.GridHeight; y++ {
		for x := 0; x < site.GridWidth; x++ {
			grid[y*site.GridWidth+x] = GridCell{X: x, Y: y}
		}
	}
	for _, p := range layout {
		cell := &grid[p.Y*site.GridWidth+p.X]
		cell.HasArtifact = true
		cell.ArtifactID = p.ArtifactID
	}

	state := &State{
		SiteID:      site.ID,
		Difficulty:  difficulty,
		Environment: site.Environment,
		GridWidth:   site.GridWidth,
		GridHeight:  site.GridHeight,
		Grid:        grid,
		Layout:      layout,
		CurrentTool: defaultTool,
		StartedAt:   e.now(),
	}
	if e.cfg.QuestsEnabled {
		state.Quests = GenerateQuests(difficulty, len(site.Artifacts), len(grid))
	}
	state.MaxScore = e.maxScore(state)
	return state, nil
}

// maxScore 理论满分：全部文物按最优条件发现的得分之和，加任务奖励
func (e *Engine) maxScore(s *State) int {
	total := 0
	for i := range s.Layout {
		total += discoveryScore(&s.Layout[i], s.Environment, true)
	}
	for i := range s.Quests {
		total += s.Quests[i].Reward
	}
	return total
}

// ChangeTool 切换当前工具
func (e *Engine) ChangeTool(s *State, toolID string) error {
	if _, ok := e.tools.Get(toolID); !ok {
		return ErrUnknownTool
	}
	s.CurrentTool = toolID
	return nil
}

// ApplyAction 在指定单元使用工具。工具不适用只记录违规，动作本身仍然执行：
// 挖掘类工具推进深度并可能触发发现，记录类工具在已挖掘单元上加奖励分。
func (e *Engine) ApplyAction(s *State, x, y int, toolID string) (*ActionOutcome, error) {
	tool, ok := e.tools.Get(toolID)
	if !ok {
		return nil, ErrUnknownTool
	}
	cell := s.CellAt(x, y)
	if cell == nil {
		return nil, ErrOutOfRange
	}

	artifact := s.PlacementAt(x, y)
	forExcavation := !tool.IsDocumentation()
	check := CheckToolUse(tool, forExcavation, cell, s.Environment, artifact)

	outcome := &ActionOutcome{}
	if !check.Valid {
		v := e.addViolation(s, ViolationImproperTool, SeverityModerate, check.Reason)
		outcome.Violations = append(outcome.Violations, v)
	}

	if forExcavation {
		e.excavate(s, cell, tool, artifact, check.Valid, outcome)
	} else if cell.Excavated {
		s.Score += docBonus
		outcome.ScoreDelta += docBonus
		outcome.Messages = append(outcome.Messages, fmt.Sprintf("在 (%d,%d) 完成现场记录", x, y))
	}

	e.checkTimeBudget(s, outcome)
	outcome.Cell = *cell
	return outcome, nil
}

// excavate 推进单元深度并处理发现
func (e *Engine) excavate(s *State, cell *GridCell, tool *Tool, artifact *ArtifactPlacement, validUse bool, outcome *ActionOutcome) {
	progress := e.progressFor(tool, cell, s.Environment)
	cell.Depth = math.Min(1.0, cell.Depth+progress)
	if cell.Depth > excavatedDepth && !cell.Excavated {
		cell.Excavated = true
		if e.cfg.QuestsEnabled {
			done, bonus := advanceQuests(s, QuestExcavateGrid, s.ExcavatedCells())
			s.Score += bonus
			outcome.ScoreDelta += bonus
			outcome.QuestsCompleted = append(outcome.QuestsCompleted, done...)
		}
	}

	if artifact != nil && !artifact.Discovered && cell.Depth >= artifact.Depth {
		now := e.now()
		artifact.Discovered = true
		artifact.FoundAt = &now

		score := discoveryScore(artifact, s.Environment, validUse)
		s.Score += score
		outcome.ScoreDelta += score
		outcome.Discoveries = append(outcome.Discoveries, artifact.Name)
		outcome.Messages = append(outcome.Messages, fmt.Sprintf("发现文物: %s（+%d分）", artifact.Name, score))

		// 硬毛刷挖出脆弱文物视为造成损伤
		if tool.Category == CategoryBrush && tool.HasTag("hard") && artifact.Condition == ConditionPoor {
			v := e.addViolation(s, ViolationDamage, SeveritySevere,
				fmt.Sprintf("使用硬毛刷致使文物 %s 受损", artifact.Name))
			outcome.Violations = append(outcome.Violations, v)
		}
	}
}

// progressFor 单次挖掘进度
// 进度 = 效率 × 基础值 × 能见度系数 × 水流系数，手铲×1.2，毛刷×0.8，下限0.01
func (e *Engine) progressFor(tool *Tool, cell *GridCell, env Environment) float64 {
	currentFactor := math.Max(0.3, 1.0-float64(env.CurrentStrength)/10.0)
	p := tool.Effectiveness * progressBase * (float64(env.Visibility) / 100.0) * currentFactor
	switch tool.Category {
	case CategoryTrowel:
		p *= 1.2
	case CategoryBrush:
		p *= 0.8
	}
	if p < progressFloor {
		p = progressFloor
	}
	return p
}

// discoveryScore 文物发现得分
func discoveryScore(a *ArtifactPlacement, env Environment, validTool bool) int {
	score := 100
	if validTool {
		score += 25
	}
	switch a.Condition {
	case ConditionExcellent:
		score += 50
	case ConditionGood:
		score += 30
	case ConditionFair:
		score += 15
	case ConditionPoor:
		score += 5
	}
	if env.Visibility < 50 {
		score += 20
	}
	if env.CurrentStrength > 5 {
		score += 15
	}
	if env.DepthMeters > 20 {
		score += 10
	}
	return score
}

// AddDocumentation 添加记录条目。条目创建即完成，只追加不修改。
func (e *Engine) AddDocumentation(s *State, entryType EntryType, x, y int, content string, artifactID uint) (*DocumentationOutcome, error) {
	if !ValidEntryType(entryType) {
		return nil, ErrInvalidEntryType
	}
	cell := s.CellAt(x, y)
	if cell == nil {
		return nil, ErrOutOfRange
	}

	entry := DocumentationEntry{
		ID:         newID(),
		Timestamp:  e.now(),
		X:          x,
		Y:          y,
		Type:       entryType,
		Content:    content,
		ArtifactID: artifactID,
		IsRequired: entryType == EntryDiscovery || entryType == EntryPhoto || entryType == EntryMeasurement,
		IsComplete: true,
	}
	s.Entries = append(s.Entries, entry)

	outcome := &DocumentationOutcome{Entry: entry}

	// 在未挖掘单元取样视为污染样本
	if entryType == EntrySample && !cell.Excavated {
		v := e.addViolation(s, ViolationContamination, SeverityMinor,
			fmt.Sprintf("在未挖掘单元 (%d,%d) 取样，样本已污染", x, y))
		outcome.Violations = append(outcome.Violations, v)
	}

	if e.cfg.QuestsEnabled {
		done, bonus := advanceQuests(s, questTypeForEntry(&entry), -1)
		s.Score += bonus
		outcome.BonusScore = bonus
		outcome.QuestsCompleted = done
	}
	return outcome, nil
}

// checkTimeBudget 超出时间预算记一次轻微违规
func (e *Engine) checkTimeBudget(s *State, outcome *ActionOutcome) {
	if !e.cfg.TimeLimitEnabled || s.TimeFlagged || s.Environment.TimeBudgetMinutes <= 0 {
		return
	}
	elapsed := e.now().Sub(s.StartedAt)
	if elapsed > time.Duration(s.Environment.TimeBudgetMinutes)*time.Minute {
		s.TimeFlagged = true
		v := e.addViolation(s, ViolationRushed, SeverityMinor, "超出时间预算，发掘过于仓促")
		if outcome != nil {
			outcome.Violations = append(outcome.Violations, v)
		}
	}
}

// Complete 结束会话：补记缺失记录的违规并生成结算报告
func (e *Engine) Complete(s *State, siteName string) *FinalReport {
	for i := range s.Layout {
		p := &s.Layout[i]
		if p.Discovered && !hasDiscoveryEntry(s, p.ArtifactID) {
			e.addViolation(s, ViolationMissingDoc, SeverityMinor,
				fmt.Sprintf("文物 %s 缺少发现记录", p.Name))
		}
	}
	return BuildReport(s, siteName)
}

// hasDiscoveryEntry 是否存在指定文物的发现记录
func hasDiscoveryEntry(s *State, artifactID uint) bool {
	for i := range s.Entries {
		if s.Entries[i].Type == EntryDiscovery && s.Entries[i].ArtifactID == artifactID {
			return true
		}
	}
	return false
}

// addViolation 追加一条违规记录
func (e *Engine) addViolation(s *State, vt ViolationType, sev Severity, desc string) Violation {
	v := Violation{
		ID:          newID(),
		Timestamp:   e.now(),
		Type:        vt,
		Severity:    sev,
		Description: desc,
		Penalty:     PenaltyFor(sev),
	}
	s.Violations = append(s.Violations, v)
	return v
}

// newID 生成短随机ID
func newID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
