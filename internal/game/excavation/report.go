package excavation

import (
	"fmt"
	"math"
	"strings"
)

// BuildReport 生成结算报告。
// 完成度 = 已挖掘单元/总单元；记录质量 = 覆盖的必要记录类型/3；
// 合规度按违规严重程度扣减；综合分按 30/40/20/10 加权。
func BuildReport(s *State, siteName string) *FinalReport {
	totalCells := len(s.Grid)
	completion := 0.0
	if totalCells > 0 {
		completion = float64(s.ExcavatedCells()) / float64(totalCells) * 100
	}

	docQuality := documentationQuality(s)
	compliance := protocolCompliance(s)

	found := s.DiscoveredArtifacts()
	total := len(s.Layout)
	artifactPercent := 100.0
	if total > 0 {
		artifactPercent = float64(found) / float64(total) * 100
	}

	overall := int(math.Round(0.3*completion + 0.4*artifactPercent + 0.2*docQuality + 0.1*compliance))

	report := &FinalReport{
		SiteName:             siteName,
		CompletionPercent:    completion,
		ArtifactsFound:       found,
		TotalArtifacts:       total,
		DocumentationQuality: docQuality,
		ProtocolCompliance:   compliance,
		OverallScore:         overall,
		FinalScore:           s.Score,
		Violations:           s.Violations,
	}
	report.Recommendations = recommendations(report)
	report.DigitalReport = renderDigitalReport(s, report)
	return report
}

// documentationQuality 必要记录类型（发现/照片/测量）的覆盖比例
func documentationQuality(s *State) float64 {
	covered := make(map[EntryType]bool, 3)
	for i := range s.Entries {
		switch s.Entries[i].Type {
		case EntryDiscovery, EntryPhoto, EntryMeasurement:
			covered[s.Entries[i].Type] = true
		}
	}
	return float64(len(covered)) / 3.0 * 100
}

// protocolCompliance 合规度：严重-30、中等-15、轻微-5，下限0
func protocolCompliance(s *State) float64 {
	score := 100.0
	for i := range s.Violations {
		switch s.Violations[i].Severity {
		case SeveritySevere:
			score -= 30
		case SeverityModerate:
			score -= 15
		default:
			score -= 5
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

// recommendations 根据指标生成改进建议
func recommendations(r *FinalReport) []string {
	var recs []string
	if r.CompletionPercent < 70 {
		recs = append(recs, "扩大发掘范围，覆盖更多网格单元")
	}
	if r.DocumentationQuality < 80 {
		recs = append(recs, "完善现场记录，确保发现、照片和测量数据齐全")
	}
	if r.ProtocolCompliance < 90 {
		recs = append(recs, "注意规程合规，根据环境条件选择合适的工具")
	}
	if r.ArtifactsFound < r.TotalArtifacts {
		recs = append(recs, "仍有文物未被发现，建议对未挖掘区域继续作业")
	}
	return recs
}

// renderDigitalReport 渲染文本版发掘报告
func renderDigitalReport(s *State, r *FinalReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "===== 发掘报告：%s =====\n\n", r.SiteName)
	fmt.Fprintf(&b, "难度等级: %s\n", s.Difficulty)
	fmt.Fprintf(&b, "发掘完成度: %.1f%%\n", r.CompletionPercent)
	fmt.Fprintf(&b, "文物发现: %d / %d\n", r.ArtifactsFound, r.TotalArtifacts)
	fmt.Fprintf(&b, "记录质量: %.1f%%\n", r.DocumentationQuality)
	fmt.Fprintf(&b, "规程合规度: %.1f%%\n", r.ProtocolCompliance)
	fmt.Fprintf(&b, "综合评分: %d\n", r.OverallScore)
	fmt.Fprintf(&b, "会话得分: %d / %d\n", r.FinalScore, s.MaxScore)

	fmt.Fprintf(&b, "\n--- 环境条件 ---\n")
	fmt.Fprintf(&b, "能见度: %d  水流强度: %d  水温: %.1f°C\n",
		s.Environment.Visibility, s.Environment.CurrentStrength, s.Environment.Temperature)
	fmt.Fprintf(&b, "深度: %.1f米  沉积物: %s\n", s.Environment.DepthMeters, s.Environment.SedimentType)

	if len(s.Entries) > 0 {
		fmt.Fprintf(&b, "\n--- 现场记录（%d条）---\n", len(s.Entries))
		for i := range s.Entries {
			e := &s.Entries[i]
			fmt.Fprintf(&b, "[%s] (%d,%d) %s: %s\n",
				e.Timestamp.Format("15:04:05"), e.X, e.Y, e.Type, e.Content)
		}
	}

	if len(s.Violations) > 0 {
		fmt.Fprintf(&b, "\n--- 规程违规（%d条）---\n", len(s.Violations))
		for i := range s.Violations {
			v := &s.Violations[i]
			fmt.Fprintf(&b, "[%s] %s: %s\n", v.Severity, v.Type, v.Description)
		}
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintf(&b, "\n--- 改进建议 ---\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&b, "· %s\n", rec)
		}
	}
	return b.String()
}
