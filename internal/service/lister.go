package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"sudooom.im.campus/internal/model"
	"sudooom.im.campus/internal/presence"
)

// ConversationLister 会话列表
type ConversationLister struct {
	conversations ConversationStore
	now           func() time.Time
	logger        *slog.Logger
}

// NewConversationLister 创建会话列表构建器
func NewConversationLister(conversations ConversationStore) *ConversationLister {
	return &ConversationLister{
		conversations: conversations,
		now:           time.Now,
		logger:        slog.Default(),
	}
}

// List 返回 userID 参与的全部会话，最近活跃的排在前面
// 无消息的会话 LastMessage 为空串、LastMessageTime 为 nil，排在最后
func (l *ConversationLister) List(ctx context.Context, userID int64) ([]*model.ConversationSummary, error) {
	rows, err := l.conversations.ListSummaries(ctx, userID)
	if err != nil {
		l.logger.Error("list conversations failed", "userId", userID, "error", err)
		return nil, storageError(err)
	}

	now := l.now()
	summaries := make([]*model.ConversationSummary, 0, len(rows))
	for _, row := range rows {
		summary := &model.ConversationSummary{
			ConversationID: row.ConversationID,
			OtherUser: model.User{
				ID:           row.OtherUserID,
				Username:     row.OtherUsername,
				Role:         row.OtherRole,
				LastActivity: row.OtherLastActivity,
			},
			OtherPresence:   presence.Estimate(row.OtherLastActivity, now),
			LastMessageTime: row.LastMessageTime,
			UnreadCount:     row.UnreadCount,
		}
		if row.LastMessage != nil {
			summary.LastMessage = *row.LastMessage
		}
		summaries = append(summaries, summary)
	}

	// 数据库函数的顺序不作为约定，这里重新排序
	sort.SliceStable(summaries, func(i, j int) bool {
		return newerFirst(summaries[i], summaries[j])
	})
	return summaries, nil
}

func newerFirst(a, b *model.ConversationSummary) bool {
	switch {
	case a.LastMessageTime == nil && b.LastMessageTime == nil:
		return a.ConversationID > b.ConversationID
	case a.LastMessageTime == nil:
		return false
	case b.LastMessageTime == nil:
		return true
	case a.LastMessageTime.Equal(*b.LastMessageTime):
		return a.ConversationID > b.ConversationID
	default:
		return a.LastMessageTime.After(*b.LastMessageTime)
	}
}
