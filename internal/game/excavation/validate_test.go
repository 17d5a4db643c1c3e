package excavation

import "testing"

func TestCheckToolUse(t *testing.T) {
	reg := DefaultRegistry()
	calmEnv := Environment{Visibility: 80, CurrentStrength: 2}

	tool := func(id string) *Tool {
		tl, ok := reg.Get(id)
		if !ok {
			t.Fatalf("工具目录缺少 %s", id)
		}
		return tl
	}

	tests := []struct {
		name          string
		toolID        string
		forExcavation bool
		cell          GridCell
		env           Environment
		artifact      *ArtifactPlacement
		wantValid     bool
	}{
		{
			name:          "手铲正常挖掘",
			toolID:        "trowel",
			forExcavation: true,
			env:           calmEnv,
			wantValid:     true,
		},
		{
			name:      "相机记录未挖掘区域",
			toolID:    "camera",
			cell:      GridCell{Excavated: false},
			env:       calmEnv,
			wantValid: false,
		},
		{
			name:      "相机记录已挖掘区域",
			toolID:    "camera",
			cell:      GridCell{Excavated: true},
			env:       calmEnv,
			wantValid: true,
		},
		{
			name:          "记录工具用于挖掘",
			toolID:        "measuring_tape",
			forExcavation: true,
			cell:          GridCell{Excavated: true},
			env:           calmEnv,
			wantValid:     false,
		},
		{
			name:          "筛子直接挖掘",
			toolID:        "sieve",
			forExcavation: true,
			env:           calmEnv,
			wantValid:     false,
		},
		{
			name:      "能见度过低拍照",
			toolID:    "camera",
			cell:      GridCell{Excavated: true},
			env:       Environment{Visibility: 20, CurrentStrength: 2},
			wantValid: false,
		},
		{
			name:          "强水流使用毛刷",
			toolID:        "soft_brush",
			forExcavation: true,
			env:           Environment{Visibility: 80, CurrentStrength: 7},
			wantValid:     false,
		},
		{
			name:          "临界水流使用毛刷",
			toolID:        "soft_brush",
			forExcavation: true,
			env:           Environment{Visibility: 80, CurrentStrength: 6},
			wantValid:     true,
		},
		{
			name:          "硬毛刷碰脆弱文物",
			toolID:        "hard_brush",
			forExcavation: true,
			env:           calmEnv,
			artifact:      &ArtifactPlacement{Condition: ConditionPoor},
			wantValid:     false,
		},
		{
			name:          "硬毛刷碰一般文物",
			toolID:        "hard_brush",
			forExcavation: true,
			env:           calmEnv,
			artifact:      &ArtifactPlacement{Condition: ConditionFair},
			wantValid:     false,
		},
		{
			name:          "硬毛刷碰完好文物",
			toolID:        "hard_brush",
			forExcavation: true,
			env:           calmEnv,
			artifact:      &ArtifactPlacement{Condition: ConditionExcellent},
			wantValid:     true,
		},
		{
			name:          "软毛刷碰脆弱文物",
			toolID:        "soft_brush",
			forExcavation: true,
			env:           calmEnv,
			artifact:      &ArtifactPlacement{Condition: ConditionPoor},
			wantValid:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell := tt.cell
			check := CheckToolUse(tool(tt.toolID), tt.forExcavation, &cell, tt.env, tt.artifact)
			if check.Valid != tt.wantValid {
				t.Errorf("期望 valid=%v，实际 valid=%v（原因: %s）", tt.wantValid, check.Valid, check.Reason)
			}
			if !check.Valid && check.Reason == "" {
				t.Error("不适用判定应给出原因")
			}
		})
	}
}
