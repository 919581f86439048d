package model

import "time"

// EventType 消息变更事件类型
type EventType string

const (
	EventMessageCreated EventType = "message.created"
	EventMessageRead    EventType = "message.read"
)

// MessageEvent 由 messages 表触发器发出的变更通知
type MessageEvent struct {
	Type           EventType `json:"type"`
	MessageID      int64     `json:"message_id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	ReceiverID     int64     `json:"receiver_id"`
	Content        string    `json:"content,omitempty"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

// Recipients 返回需要收到该事件的用户
// 新消息推给接收方，已读回执推给发送方
func (e *MessageEvent) Recipients() []int64 {
	switch e.Type {
	case EventMessageCreated:
		return []int64{e.ReceiverID}
	case EventMessageRead:
		return []int64{e.SenderID}
	default:
		return nil
	}
}
