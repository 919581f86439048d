package service

import (
	"context"
	"log/slog"

	"sudooom.im.campus/internal/model"
)

// MessagingService 网关使用的消息服务门面
type MessagingService struct {
	users     UserStore
	directory *Directory
	messages  *MessageAccessor
	reads     *ReadState
	lister    *ConversationLister
	logger    *slog.Logger
}

// NewMessagingService 创建消息服务
func NewMessagingService(users UserStore, conversations ConversationStore, messages MessageStore) *MessagingService {
	return &MessagingService{
		users:     users,
		directory: NewDirectory(users, conversations),
		messages:  NewMessageAccessor(conversations, messages),
		reads:     NewReadState(conversations, messages),
		lister:    NewConversationLister(conversations),
		logger:    slog.Default(),
	}
}

// SendMessage 发送消息，首次联系时创建会话
func (s *MessagingService) SendMessage(ctx context.Context, senderID, receiverID int64, content string) (*model.Message, error) {
	// 先校验内容，避免为空消息创建会话
	if err := validateContent(content); err != nil {
		return nil, err
	}

	p, err := s.directory.Open(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}

	msg, err := s.messages.Append(ctx, p.ConversationID, senderID, receiverID, content)
	if err != nil {
		return nil, err
	}
	msg.Sender, msg.Receiver = p.First, p.Second

	s.logger.Info("message sent", "messageId", msg.ID, "conversationId", msg.ConversationID, "senderId", senderID)
	return msg, nil
}

// Messages 会话历史
func (s *MessagingService) Messages(ctx context.Context, conversationID, userID int64) ([]*model.Message, error) {
	return s.messages.List(ctx, conversationID, userID)
}

// MarkRead 标记会话已读
func (s *MessagingService) MarkRead(ctx context.Context, conversationID, userID int64) error {
	return s.reads.MarkRead(ctx, conversationID, userID)
}

// UnreadCount 未读总数
func (s *MessagingService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.reads.UnreadCount(ctx, userID)
}

// Conversations 会话列表
func (s *MessagingService) Conversations(ctx context.Context, userID int64) ([]*model.ConversationSummary, error) {
	return s.lister.List(ctx, userID)
}

// Contacts 除自己以外的全部用户，用于发起新会话
func (s *MessagingService) Contacts(ctx context.Context, userID int64) ([]*model.User, error) {
	users, err := s.users.ListOthers(ctx, userID)
	if err != nil {
		s.logger.Error("list contacts failed", "userId", userID, "error", err)
		return nil, storageError(err)
	}
	return users, nil
}
