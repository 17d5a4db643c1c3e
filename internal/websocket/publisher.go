package websocket

import (
	"encoding/json"

	"github.com/wfunc/dig-game/internal/game"
	"go.uber.org/zap"
)

// EventPublisher 将发掘会话事件推送给订阅的WebSocket客户端
type EventPublisher struct {
	hub    *Hub
	logger *zap.Logger
}

// NewEventPublisher 创建事件推送器
func NewEventPublisher(hub *Hub, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{
		hub:    hub,
		logger: logger,
	}
}

// Publish 实现game.EventPublisher接口，把会话事件转发到对应的WebSocket会话
func (p *EventPublisher) Publish(sessionID string, event *game.SessionEvent) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		p.logger.Error("序列化会话事件失败",
			zap.String("session_id", sessionID),
			zap.String("type", event.Type),
			zap.Error(err))
		return
	}

	msg := &Message{
		Type:      event.Type,
		SessionID: sessionID,
		Data:      data,
		Timestamp: event.Timestamp.Unix(),
	}

	if err := p.hub.SendToSession(sessionID, msg); err != nil {
		// 没有订阅客户端不是错误，HTTP轮询仍能获取完整状态
		p.logger.Debug("会话事件无订阅客户端",
			zap.String("session_id", sessionID),
			zap.String("type", event.Type))
	}
}
