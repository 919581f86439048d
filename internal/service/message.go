package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"sudooom.im.campus/internal/model"
	"sudooom.im.campus/internal/repository"
	apperrors "sudooom.im.campus/shared/errors"
)

var (
	errEmptyContent   = apperrors.ErrInvalidParams.WithMessage("message content must not be empty")
	errInvalidContent = apperrors.ErrInvalidParams.WithMessage("message content contains invalid characters")
)

// validateContent 内容不能为空白，且必须是不含 NUL 的合法 UTF-8
func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errEmptyContent
	}
	if !utf8.ValidString(content) || strings.ContainsRune(content, 0) {
		return errInvalidContent
	}
	return nil
}

// MessageAccessor 消息写入与历史读取
type MessageAccessor struct {
	conversations ConversationStore
	messages      MessageStore
	logger        *slog.Logger
}

// NewMessageAccessor 创建消息访问器
func NewMessageAccessor(conversations ConversationStore, messages MessageStore) *MessageAccessor {
	return &MessageAccessor{
		conversations: conversations,
		messages:      messages,
		logger:        slog.Default(),
	}
}

// Append 追加一条消息，发送方与接收方都必须是会话参与者
func (a *MessageAccessor) Append(ctx context.Context, conversationID, senderID, receiverID int64, content string) (*model.Message, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	if err := validateID("conversation id", conversationID); err != nil {
		return nil, err
	}
	if senderID == receiverID {
		return nil, apperrors.ErrInvalidParticipant
	}

	if err := a.requireParticipant(ctx, conversationID, senderID); err != nil {
		return nil, err
	}
	ok, err := a.isParticipant(ctx, conversationID, receiverID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrInvalidParticipant
	}

	msg, err := a.messages.Create(ctx, &model.NewMessage{
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Content:        content,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return nil, apperrors.ErrNotAuthorized
		}
		if errors.Is(err, repository.ErrInvalidContent) {
			return nil, errInvalidContent
		}
		a.logger.Error("append message failed", "conversationId", conversationID, "senderId", senderID, "error", err)
		return nil, storageError(err)
	}

	a.logger.Debug("message appended", "messageId", msg.ID, "conversationId", conversationID)
	return msg, nil
}

// List 返回会话全部历史，按创建时间升序，同一时间按 ID 升序
func (a *MessageAccessor) List(ctx context.Context, conversationID, requestingUserID int64) ([]*model.Message, error) {
	if err := validateID("conversation id", conversationID); err != nil {
		return nil, err
	}
	if err := a.requireParticipant(ctx, conversationID, requestingUserID); err != nil {
		return nil, err
	}

	messages, err := a.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		a.logger.Error("list messages failed", "conversationId", conversationID, "error", err)
		return nil, storageError(err)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

// requireParticipant 非参与者返回 NotAuthorized
func (a *MessageAccessor) requireParticipant(ctx context.Context, conversationID, userID int64) error {
	ok, err := a.isParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrNotAuthorized
	}
	return nil
}

func (a *MessageAccessor) isParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	ok, err := a.conversations.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		a.logger.Error("check participant failed", "conversationId", conversationID, "userId", userID, "error", err)
		return false, storageError(err)
	}
	return ok, nil
}
