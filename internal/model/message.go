package model

import "time"

// Message 消息模型，创建后仅 Read 可变
type Message struct {
	ID             int64     `json:"id" db:"id"`
	ConversationID int64     `json:"conversation_id" db:"conversation_id"`
	SenderID       int64     `json:"sender_id" db:"sender_id"`
	ReceiverID     int64     `json:"receiver_id" db:"receiver_id"`
	Content        string    `json:"content" db:"content"`
	Read           bool      `json:"read" db:"read"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`

	// 关联查询填充
	Sender   *User `json:"sender,omitempty" db:"-"`
	Receiver *User `json:"receiver,omitempty" db:"-"`
}

// NewMessage 待写入的消息
type NewMessage struct {
	ConversationID int64
	SenderID       int64
	ReceiverID     int64
	Content        string
}
