package game

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionPhase 会话生命周期阶段
type SessionPhase string

const (
	PhaseActive    SessionPhase = "active"    // 发掘进行中
	PhaseCompleted SessionPhase = "completed" // 已结算
	PhaseAbandoned SessionPhase = "abandoned" // 已放弃
)

// 生命周期事件
const (
	EventAction   = "action"   // 挖掘/记录/换工具
	EventComplete = "complete" // 结算
	EventAbandon  = "abandon"  // 放弃
)

// phaseTransition 阶段转换定义
type phaseTransition struct {
	From  SessionPhase
	Event string
	To    SessionPhase
}

// 转换规则表。动作事件是自转换，只有进行中的会话允许。
var phaseTransitions = []phaseTransition{
	{From: PhaseActive, Event: EventAction, To: PhaseActive},
	{From: PhaseActive, Event: EventComplete, To: PhaseCompleted},
	{From: PhaseActive, Event: EventAbandon, To: PhaseAbandoned},
}

// Lifecycle 会话生命周期状态机。终态不可再转换。
type Lifecycle struct {
	mu         sync.RWMutex
	sessionID  string
	phase      SessionPhase
	lastUpdate time.Time
	logger     *zap.Logger

	onChange func(from, to SessionPhase)
}

// NewLifecycle 创建生命周期状态机
func NewLifecycle(sessionID string, phase SessionPhase, logger *zap.Logger) *Lifecycle {
	return &Lifecycle{
		sessionID:  sessionID,
		phase:      phase,
		lastUpdate: time.Now(),
		logger:     logger,
	}
}

// Phase 当前阶段
func (l *Lifecycle) Phase() SessionPhase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.phase
}

// LastUpdate 最后转换时间
func (l *Lifecycle) LastUpdate() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastUpdate
}

// OnChange 设置阶段变更回调
func (l *Lifecycle) OnChange(fn func(from, to SessionPhase)) {
	l.onChange = fn
}

// CanTrigger 检查事件在当前阶段是否允许
func (l *Lifecycle) CanTrigger(event string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.find(event) != nil
}

// Trigger 触发事件，非法转换返回错误
func (l *Lifecycle) Trigger(event string) error {
	l.mu.Lock()
	t := l.find(event)
	if t == nil {
		phase := l.phase
		l.mu.Unlock()
		return fmt.Errorf("非法的会话转换: 阶段=%s, 事件=%s", phase, event)
	}

	from := l.phase
	l.phase = t.To
	l.lastUpdate = time.Now()
	l.mu.Unlock()

	if from != t.To {
		l.logger.Info("会话阶段转换",
			zap.String("session_id", l.sessionID),
			zap.String("from", string(from)),
			zap.String("to", string(t.To)),
			zap.String("event", event))
		if l.onChange != nil {
			l.onChange(from, t.To)
		}
	}
	return nil
}

// find 查找当前阶段下匹配的转换（调用方持锁）
func (l *Lifecycle) find(event string) *phaseTransition {
	for i := range phaseTransitions {
		if phaseTransitions[i].From == l.phase && phaseTransitions[i].Event == event {
			return &phaseTransitions[i]
		}
	}
	return nil
}
