package game

import (
	"sync"
	"time"

	"github.com/wfunc/dig-game/internal/game/excavation"
	"go.uber.org/zap"
)

// liveSession 内存中的活跃会话
type liveSession struct {
	state      *excavation.State
	lifecycle  *Lifecycle
	lastAccess time.Time
}

// SessionCache 活跃会话缓存。引擎状态以数据库为准，缓存只是避免
// 每次请求都反序列化；未命中时由服务层从持久化状态重建。
type SessionCache struct {
	mu       sync.RWMutex
	sessions map[string]*liveSession
	timeout  time.Duration
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSessionCache 创建会话缓存并启动后台清理
func NewSessionCache(timeout time.Duration, logger *zap.Logger) *SessionCache {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	c := &SessionCache{
		sessions: make(map[string]*liveSession),
		timeout:  timeout,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
	go c.evictLoop()
	return c
}

// Get 按会话ID取缓存，命中时刷新访问时间
func (c *SessionCache) Get(sessionID string) (*excavation.State, *Lifecycle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[sessionID]
	if !ok {
		return nil, nil, false
	}
	s.lastAccess = time.Now()
	return s.state, s.lifecycle, true
}

// Put 写入缓存
func (c *SessionCache) Put(sessionID string, state *excavation.State, lifecycle *Lifecycle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[sessionID] = &liveSession{
		state:      state,
		lifecycle:  lifecycle,
		lastAccess: time.Now(),
	}
}

// Remove 移除缓存（会话结束时调用）
func (c *SessionCache) Remove(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, sessionID)
}

// Len 当前缓存数量
func (c *SessionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// Stop 停止后台清理
func (c *SessionCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}

// evictLoop 定期清理长时间未访问的会话
func (c *SessionCache) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictStale()
		case <-c.stopCh:
			return
		}
	}
}

// evictStale 淘汰超时会话
func (c *SessionCache) evictStale() {
	cutoff := time.Now().Add(-c.timeout)

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, s := range c.sessions {
		if s.lastAccess.Before(cutoff) {
			delete(c.sessions, id)
			c.logger.Info("淘汰闲置会话缓存", zap.String("session_id", id))
		}
	}
}
