package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/dig-game/internal/game"
	"go.uber.org/zap"
)

// newTestClient 构造不带真实连接的测试客户端
func newTestClient(hub *Hub, userID uint, sessionID string) *Client {
	return &Client{
		ID:        "client-" + sessionID,
		UserID:    userID,
		Hub:       hub,
		Send:      make(chan []byte, 16),
		SessionID: sessionID,
	}
}

// 测试客户端注册与注销
func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient(hub, 1, "sess-1")

	hub.registerClient(client)
	assert.Equal(t, 1, hub.GetOnlineCount())
	assert.Contains(t, hub.GetOnlineUsers(), uint(1))

	// 注册时应收到连接成功消息
	select {
	case raw := <-client.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, MessageTypeConnected, msg.Type)
	case <-time.After(time.Second):
		t.Fatal("未收到连接成功消息")
	}

	hub.unregisterClient(client)
	assert.Equal(t, 0, hub.GetOnlineCount())
	assert.Empty(t, hub.GetOnlineUsers())
}

// 测试按会话定向推送
func TestHubSendToSession(t *testing.T) {
	hub := NewHub(zap.NewNop())
	subscribed := newTestClient(hub, 1, "sess-a")
	other := newTestClient(hub, 2, "sess-b")
	hub.registerClient(subscribed)
	hub.registerClient(other)
	// 清空连接成功消息
	<-subscribed.Send
	<-other.Send

	msg := &Message{
		Type:      MessageTypeDiscovery,
		SessionID: "sess-a",
		Data:      json.RawMessage(`{"artifact_id":"art-1"}`),
		Timestamp: time.Now().Unix(),
	}
	require.NoError(t, hub.SendToSession("sess-a", msg))

	select {
	case raw := <-subscribed.Send:
		var got Message
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, MessageTypeDiscovery, got.Type)
		assert.Equal(t, "sess-a", got.SessionID)
	case <-time.After(time.Second):
		t.Fatal("订阅客户端未收到消息")
	}

	// 其他会话的客户端不应收到消息
	assert.Len(t, other.Send, 0)

	// 没有订阅客户端的会话返回错误
	assert.ErrorIs(t, hub.SendToSession("sess-missing", msg), ErrSessionNotFound)
}

// 测试按用户推送
func TestHubSendToUser(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient(hub, 7, "sess-u")
	hub.registerClient(client)
	<-client.Send

	msg := &Message{Type: MessageTypePing, Timestamp: time.Now().Unix()}
	require.NoError(t, hub.SendToUser(7, msg))
	assert.Len(t, client.Send, 1)

	// 未连接的用户返回错误
	assert.ErrorIs(t, hub.SendToUser(99, msg), ErrUserNotConnected)
}

// 测试事件推送器转发会话事件
func TestEventPublisherPublish(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient(hub, 1, "sess-pub")
	hub.registerClient(client)
	<-client.Send

	pub := NewEventPublisher(hub, zap.NewNop())
	pub.Publish("sess-pub", &game.SessionEvent{
		Type:      "quest_completed",
		SessionID: "sess-pub",
		Data:      map[string]string{"quest_id": "quest_photos"},
		Timestamp: time.Now(),
	})

	select {
	case raw := <-client.Send:
		var got Message
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "quest_completed", got.Type)
		assert.Equal(t, "sess-pub", got.SessionID)
		assert.Contains(t, string(got.Data), "quest_photos")
	case <-time.After(time.Second):
		t.Fatal("未收到事件推送")
	}
}
