package model

import (
	"time"

	"sudooom.im.campus/internal/presence"
)

// NormalizePair 返回 (小, 大) 顺序的用户对
func NormalizePair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// ConversationRow get_user_conversations 返回的一行
type ConversationRow struct {
	ConversationID    int64
	OtherUserID       int64
	OtherUsername     string
	OtherRole         Role
	OtherLastActivity *time.Time
	LastMessage       *string
	LastMessageTime   *time.Time
	UnreadCount       int64
}

// ConversationSummary 会话列表项，每次请求重新计算
type ConversationSummary struct {
	ConversationID  int64             `json:"id"`
	OtherUser       User              `json:"other_user"`
	OtherPresence   presence.Presence `json:"other_presence"`
	LastMessage     string            `json:"last_message"`
	LastMessageTime *time.Time        `json:"last_message_time"`
	UnreadCount     int64             `json:"unread_count"`
}
