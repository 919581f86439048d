package service

import (
	"context"
	"time"

	"sudooom.im.campus/internal/model"
	"sudooom.im.campus/internal/repository"
	apperrors "sudooom.im.campus/shared/errors"
)

// UserStore 用户存储
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ListOthers(ctx context.Context, excludeID int64) ([]*model.User, error)
	TouchLastActivity(ctx context.Context, id int64, at time.Time) error
}

// AccountStore 认证使用的用户存储，Create 遇到重名返回 repository.ErrUsernameExists
type AccountStore interface {
	UserStore
	Create(ctx context.Context, user *model.User) error
}

// ConversationStore 会话存储
// GetOrCreate 必须依赖存储层对无序用户对的唯一约束实现原子性
type ConversationStore interface {
	GetOrCreate(ctx context.Context, low, high int64) (int64, error)
	IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error)
	ListSummaries(ctx context.Context, userID int64) ([]model.ConversationRow, error)
}

// MessageStore 消息存储，Create 返回时写入必须已对后续读取可见
type MessageStore interface {
	Create(ctx context.Context, msg *model.NewMessage) (*model.Message, error)
	ListByConversation(ctx context.Context, conversationID int64) ([]*model.Message, error)
	MarkRead(ctx context.Context, conversationID, receiverID int64) (int64, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
}

// TokenStore 登录 Token 登记
type TokenStore interface {
	SaveToken(ctx context.Context, info *repository.TokenInfo, accessToken string, expiration time.Duration) error
	DeleteToken(ctx context.Context, accessToken string) error
}

// ActivityThrottler 活跃时间写入节流
type ActivityThrottler interface {
	Acquire(ctx context.Context, userID int64, interval time.Duration) (bool, error)
}

// storageError 将驱动层错误统一为 StorageUnavailable，原始错误仅保留在 Err 中
func storageError(err error) error {
	return apperrors.ErrStorageUnavailable.Wrap(err)
}

func validateID(name string, id int64) error {
	if id <= 0 {
		return apperrors.ErrInvalidParams.WithMessage(name + " must be a positive integer")
	}
	return nil
}
