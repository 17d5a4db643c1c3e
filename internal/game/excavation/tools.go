package excavation

// ToolCategory 工具类别
type ToolCategory string

const (
	CategoryBrush         ToolCategory = "brush"
	CategoryTrowel        ToolCategory = "trowel"
	CategorySieve         ToolCategory = "sieve"
	CategoryProbe         ToolCategory = "probe"
	CategoryCamera        ToolCategory = "camera"
	CategoryMeasuringTape ToolCategory = "measuring_tape"
)

// Tool 发掘工具定义
type Tool struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Category      ToolCategory `json:"category"`
	Effectiveness float64      `json:"effectiveness"` // 0-1
	Tags          []string     `json:"tags,omitempty"`
}

// IsDocumentation 是否为记录类工具（不能挖掘）
func (t *Tool) IsDocumentation() bool {
	return t.Category == CategoryCamera || t.Category == CategoryMeasuringTape
}

// HasTag 检查工具标签
func (t *Tool) HasTag(tag string) bool {
	for _, v := range t.Tags {
		if v == tag {
			return true
		}
	}
	return false
}

// Registry 工具目录（只读，按ID查找）
type Registry struct {
	tools map[string]*Tool
	order []string
}

// NewRegistry 创建工具目录
func NewRegistry(tools ...*Tool) *Registry {
	r := &Registry{tools: make(map[string]*Tool, len(tools))}
	for _, t := range tools {
		if _, ok := r.tools[t.ID]; ok {
			continue
		}
		r.tools[t.ID] = t
		r.order = append(r.order, t.ID)
	}
	return r
}

// Get 按ID查找工具
func (r *Registry) Get(id string) (*Tool, bool) {
	t, ok := r.tools[id]
	return t, ok
}

// List 按注册顺序返回全部工具
func (r *Registry) List() []*Tool {
	out := make([]*Tool, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.tools[id])
	}
	return out
}

// DefaultRegistry 默认工具目录
func DefaultRegistry() *Registry {
	return NewRegistry(
		&Tool{ID: "trowel", Name: "手铲", Category: CategoryTrowel, Effectiveness: 0.9},
		&Tool{ID: "soft_brush", Name: "软毛刷", Category: CategoryBrush, Effectiveness: 0.4, Tags: []string{"delicate"}},
		&Tool{ID: "hard_brush", Name: "硬毛刷", Category: CategoryBrush, Effectiveness: 0.6, Tags: []string{"hard"}},
		&Tool{ID: "probe", Name: "探针", Category: CategoryProbe, Effectiveness: 0.7},
		&Tool{ID: "sieve", Name: "筛子", Category: CategorySieve, Effectiveness: 0.5, Tags: []string{"processing"}},
		&Tool{ID: "camera", Name: "相机", Category: CategoryCamera, Effectiveness: 1.0},
		&Tool{ID: "measuring_tape", Name: "卷尺", Category: CategoryMeasuringTape, Effectiveness: 1.0},
	)
}
