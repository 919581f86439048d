package service

import (
	"context"
	"log/slog"

	apperrors "sudooom.im.campus/shared/errors"
)

// ReadState 已读状态
type ReadState struct {
	conversations ConversationStore
	messages      MessageStore
	logger        *slog.Logger
}

// NewReadState 创建已读状态跟踪
func NewReadState(conversations ConversationStore, messages MessageStore) *ReadState {
	return &ReadState{
		conversations: conversations,
		messages:      messages,
		logger:        slog.Default(),
	}
}

// MarkRead 将会话中发给 userID 的未读消息标记为已读，重复调用无副作用
func (r *ReadState) MarkRead(ctx context.Context, conversationID, userID int64) error {
	if err := validateID("conversation id", conversationID); err != nil {
		return err
	}

	ok, err := r.conversations.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		r.logger.Error("check participant failed", "conversationId", conversationID, "userId", userID, "error", err)
		return storageError(err)
	}
	if !ok {
		return apperrors.ErrNotAuthorized
	}

	n, err := r.messages.MarkRead(ctx, conversationID, userID)
	if err != nil {
		r.logger.Error("mark read failed", "conversationId", conversationID, "userId", userID, "error", err)
		return storageError(err)
	}

	if n > 0 {
		r.logger.Debug("messages marked read", "conversationId", conversationID, "userId", userID, "count", n)
	}
	return nil
}

// UnreadCount 用户在所有会话中的未读消息数
func (r *ReadState) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	count, err := r.messages.CountUnread(ctx, userID)
	if err != nil {
		r.logger.Error("count unread failed", "userId", userID, "error", err)
		return 0, storageError(err)
	}
	return count, nil
}
