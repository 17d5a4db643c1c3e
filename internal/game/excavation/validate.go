package excavation

// ToolCheck 工具适用性判定结果
type ToolCheck struct {
	Valid  bool
	Reason string // 不适用时的原因（规则按顺序检查，只取第一条命中的）
}

// CheckToolUse 检查工具在当前条件下是否适用。
// forExcavation 表示动作意图为挖掘；记录类工具的动作意图恒为记录。
// artifact 为目标单元上的文物埋藏，无则传nil。
// 判定不阻止动作执行，仅决定是否记录违规。
func CheckToolUse(tool *Tool, forExcavation bool, cell *GridCell, env Environment, artifact *ArtifactPlacement) ToolCheck {
	if tool.IsDocumentation() && !forExcavation && !cell.Excavated {
		return ToolCheck{Reason: "该区域尚未挖掘，请先挖掘再记录"}
	}
	if forExcavation && tool.IsDocumentation() {
		return ToolCheck{Reason: "记录工具不能用于挖掘"}
	}
	if forExcavation && tool.Category == CategorySieve {
		return ToolCheck{Reason: "筛子用于处理已挖出的沉积物，不能直接挖掘"}
	}
	if tool.Category == CategoryCamera && env.Visibility < 30 {
		return ToolCheck{Reason: "能见度过低，无法拍摄"}
	}
	if tool.Category == CategoryBrush && env.CurrentStrength > 6 {
		return ToolCheck{Reason: "水流过强，不适合使用毛刷"}
	}
	if tool.Category == CategoryBrush && tool.HasTag("hard") && artifact != nil &&
		(artifact.Condition == ConditionPoor || artifact.Condition == ConditionFair) {
		return ToolCheck{Reason: "文物保存状况脆弱，硬毛刷可能造成损伤"}
	}
	return ToolCheck{Valid: true}
}
