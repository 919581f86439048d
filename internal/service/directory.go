package service

import (
	"context"
	"errors"
	"log/slog"

	"sudooom.im.campus/internal/model"
	"sudooom.im.campus/internal/repository"
	apperrors "sudooom.im.campus/shared/errors"
)

// Participants 会话及双方用户，First 对应调用方传入的第一个用户
type Participants struct {
	ConversationID int64
	First          *model.User
	Second         *model.User
}

// Directory 会话目录，为一对无序用户解析唯一的会话
type Directory struct {
	users         UserStore
	conversations ConversationStore
	logger        *slog.Logger
}

// NewDirectory 创建会话目录
func NewDirectory(users UserStore, conversations ConversationStore) *Directory {
	return &Directory{
		users:         users,
		conversations: conversations,
		logger:        slog.Default(),
	}
}

// GetOrCreate 获取或创建 a 与 b 之间的会话，(a, b) 与 (b, a) 返回同一 ID
func (d *Directory) GetOrCreate(ctx context.Context, a, b int64) (int64, error) {
	p, err := d.Open(ctx, a, b)
	if err != nil {
		return 0, err
	}
	return p.ConversationID, nil
}

// Open 与 GetOrCreate 相同，同时返回双方用户
func (d *Directory) Open(ctx context.Context, a, b int64) (*Participants, error) {
	if err := validateID("user id", a); err != nil {
		return nil, err
	}
	if err := validateID("user id", b); err != nil {
		return nil, err
	}
	if a == b {
		return nil, apperrors.ErrInvalidParticipant.WithMessage("cannot start a conversation with yourself")
	}

	first, err := d.lookup(ctx, a)
	if err != nil {
		return nil, err
	}
	second, err := d.lookup(ctx, b)
	if err != nil {
		return nil, err
	}

	low, high := model.NormalizePair(a, b)
	id, err := d.conversations.GetOrCreate(ctx, low, high)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidParticipant) {
			return nil, apperrors.ErrInvalidParticipant
		}
		d.logger.Error("get or create conversation failed", "userLow", low, "userHigh", high, "error", err)
		return nil, storageError(err)
	}

	return &Participants{ConversationID: id, First: first, Second: second}, nil
}

func (d *Directory) lookup(ctx context.Context, id int64) (*model.User, error) {
	user, err := d.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidParticipant
		}
		d.logger.Error("load participant failed", "userId", id, "error", err)
		return nil, storageError(err)
	}
	return user, nil
}
