package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.im.campus/internal/model"
	"sudooom.im.campus/internal/repository"
	apperrors "sudooom.im.campus/shared/errors"
)

func setupConversation(t *testing.T) (*memStore, int64) {
	t.Helper()
	store := newMemStore(newUser(1, "alice"), newUser(2, "bob"), newUser(3, "mallory"))
	id, err := store.GetOrCreate(context.Background(), 1, 2)
	require.NoError(t, err)
	return store, id
}

func TestMessageAccessor_Append(t *testing.T) {
	store, convID := setupConversation(t)
	accessor := NewMessageAccessor(store, store)

	msg, err := accessor.Append(context.Background(), convID, 1, 2, "hello")
	require.NoError(t, err)

	assert.Positive(t, msg.ID)
	assert.Equal(t, convID, msg.ConversationID)
	assert.Equal(t, "hello", msg.Content)
	assert.False(t, msg.Read)
	assert.False(t, msg.CreatedAt.IsZero())

	// 写入后立即可读
	history, err := accessor.List(context.Background(), convID, 2)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, msg.ID, history[0].ID)
}

func TestMessageAccessor_Append_EmptyContent(t *testing.T) {
	store, convID := setupConversation(t)
	accessor := NewMessageAccessor(store, store)

	for _, content := range []string{"", "   ", "\n\t "} {
		_, err := accessor.Append(context.Background(), convID, 1, 2, content)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParams), "content %q", content)
	}
	assert.Empty(t, store.messages)
}

func TestMessageAccessor_Append_InvalidContent(t *testing.T) {
	store, convID := setupConversation(t)
	accessor := NewMessageAccessor(store, store)

	for _, content := range []string{"hi\x00there", "\x00", "bad \xff bytes"} {
		_, err := accessor.Append(context.Background(), convID, 1, 2, content)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParams), "content %q", content)
		assert.Equal(t, "message content contains invalid characters", apperrors.GetMessage(err))
	}
	assert.Empty(t, store.messages)

	// 多字节 UTF-8 正常写入
	msg, err := accessor.Append(context.Background(), convID, 1, 2, "你好 👋")
	require.NoError(t, err)
	assert.Equal(t, "你好 👋", msg.Content)
}

// rejectingMessages 模拟数据库按编码或 CHECK 约束拒绝内容
type rejectingMessages struct {
	*memStore
}

func (rejectingMessages) Create(context.Context, *model.NewMessage) (*model.Message, error) {
	return nil, repository.ErrInvalidContent
}

func TestMessageAccessor_Append_RejectedByDatabase(t *testing.T) {
	store, convID := setupConversation(t)
	accessor := NewMessageAccessor(store, rejectingMessages{store})

	_, err := accessor.Append(context.Background(), convID, 1, 2, "hello")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParams))
	assert.False(t, apperrors.Is(err, apperrors.ErrStorageUnavailable))
}

func TestMessageAccessor_Append_Participants(t *testing.T) {
	store, convID := setupConversation(t)
	accessor := NewMessageAccessor(store, store)
	ctx := context.Background()

	_, err := accessor.Append(ctx, convID, 3, 2, "let me in")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotAuthorized))

	_, err = accessor.Append(ctx, convID, 1, 3, "wrong receiver")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParticipant))

	_, err = accessor.Append(ctx, convID, 1, 1, "to myself")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParticipant))

	_, err = accessor.Append(ctx, 0, 1, 2, "no conversation")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParams))

	assert.Empty(t, store.messages)
}

func TestMessageAccessor_List_NotAuthorized(t *testing.T) {
	store, convID := setupConversation(t)
	accessor := NewMessageAccessor(store, store)

	_, err := accessor.List(context.Background(), convID, 3)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotAuthorized))

	_, err = accessor.List(context.Background(), convID+100, 1)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotAuthorized))
}

func TestMessageAccessor_List_Ordering(t *testing.T) {
	store, convID := setupConversation(t)
	accessor := NewMessageAccessor(store, store)

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	// 存储返回乱序，且有相同时间戳
	store.messages = []*model.Message{
		{ID: 4, ConversationID: convID, SenderID: 1, ReceiverID: 2, Content: "d", CreatedAt: base.Add(2 * time.Second)},
		{ID: 3, ConversationID: convID, SenderID: 2, ReceiverID: 1, Content: "c", CreatedAt: base.Add(time.Second)},
		{ID: 2, ConversationID: convID, SenderID: 1, ReceiverID: 2, Content: "b", CreatedAt: base.Add(time.Second)},
		{ID: 1, ConversationID: convID, SenderID: 1, ReceiverID: 2, Content: "a", CreatedAt: base},
	}

	history, err := accessor.List(context.Background(), convID, 1)
	require.NoError(t, err)

	got := make([]int64, 0, len(history))
	for i, m := range history {
		got = append(got, m.ID)
		if i > 0 {
			assert.False(t, m.CreatedAt.Before(history[i-1].CreatedAt))
		}
	}
	assert.Equal(t, []int64{1, 2, 3, 4}, got)
}

func TestMessageAccessor_StorageUnavailable(t *testing.T) {
	store, convID := setupConversation(t)
	accessor := NewMessageAccessor(store, store)
	store.fail(errors.New("pq: too many connections"))

	_, err := accessor.Append(context.Background(), convID, 1, 2, "hello")
	assert.True(t, apperrors.Is(err, apperrors.ErrStorageUnavailable))

	_, err = accessor.List(context.Background(), convID, 1)
	assert.True(t, apperrors.Is(err, apperrors.ErrStorageUnavailable))
}
