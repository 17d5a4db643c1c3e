package excavation

import (
	"fmt"
	"math/rand"
)

const (
	maxPlaceAttempts = 100  // 拒绝采样上限，超过后线性扫描兜底
	minBurialDepth   = 0.3  // 埋藏深度下限
	maxBurialDepth   = 0.95 // 埋藏深度上限
	depthJitter      = 0.15 // 深度随机偏移幅度
)

// Generator 会话布局生成器。每个会话独立随机化文物位置与深度，
// 注入随机源以便测试复现。
type Generator struct {
	rng *rand.Rand
}

// NewGenerator 创建布局生成器
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Generate 为一次会话生成文物布局。每个单元最多一件文物；
// 随机采样碰撞超过上限时退化为线性扫描找空位。
func (g *Generator) Generate(width, height int, artifacts []ArtifactSpec) ([]ArtifactPlacement, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("非法网格尺寸: %dx%d", width, height)
	}
	if len(artifacts) > width*height {
		return nil, fmt.Errorf("文物数量 %d 超过网格容量 %d", len(artifacts), width*height)
	}

	occupied := make(map[int]bool, len(artifacts))
	placements := make([]ArtifactPlacement, 0, len(artifacts))
	for _, a := range artifacts {
		x, y, ok := g.pickCell(width, height, occupied)
		if !ok {
			// 容量已校验，线性扫描必定能找到空位
			return nil, fmt.Errorf("无法为文物 %s 找到空位", a.Name)
		}
		occupied[y*width+x] = true
		placements = append(placements, ArtifactPlacement{
			ArtifactID: a.ID,
			Name:       a.Name,
			Condition:  a.Condition,
			X:          x,
			Y:          y,
			Depth:      g.jitterDepth(a.BaseDepth),
		})
	}
	return placements, nil
}

// pickCell 拒绝采样选一个未占用单元，失败后线性扫描
func (g *Generator) pickCell(width, height int, occupied map[int]bool) (int, int, bool) {
	for i := 0; i < maxPlaceAttempts; i++ {
		x := g.rng.Intn(width)
		y := g.rng.Intn(height)
		if !occupied[y*width+x] {
			return x, y, true
		}
	}
	for idx := 0; idx < width*height; idx++ {
		if !occupied[idx] {
			return idx % width, idx / width, true
		}
	}
	return 0, 0, false
}

// jitterDepth 在作者设定深度上加随机偏移并收敛到有效区间
func (g *Generator) jitterDepth(base float64) float64 {
	d := base + (g.rng.Float64()*2-1)*depthJitter
	if d < minBurialDepth {
		d = minBurialDepth
	}
	if d > maxBurialDepth {
		d = maxBurialDepth
	}
	return d
}
