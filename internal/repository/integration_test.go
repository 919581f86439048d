package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.im.campus/internal/model"
	sharedConfig "sudooom.im.campus/shared/config"
)

// setupDB 连接测试数据库并应用 schema，不可用时跳过
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		sharedConfig.GetEnv("POSTGRES_USER", "postgres"),
		sharedConfig.GetEnv("POSTGRES_PASSWORD", "password"),
		sharedConfig.GetEnv("POSTGRES_HOST", "localhost"),
		sharedConfig.GetEnv("POSTGRES_PORT", "5432"),
		sharedConfig.GetEnv("POSTGRES_DB", "campus_test"),
	)

	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("跳过集成测试: 无法连接数据库: %v", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		t.Skipf("跳过集成测试: 数据库 ping 失败: %v", err)
	}

	schema, err := os.ReadFile("../../migrations/001_messaging.sql")
	require.NoError(t, err)
	_, err = db.Exec(ctx, string(schema))
	require.NoError(t, err)

	t.Cleanup(db.Close)
	return db
}

// setupRedis 连接测试 Redis，不可用时跳过
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()

	rdb := redis.NewClient(&redis.Options{
		Addr:     sharedConfig.GetEnv("REDIS_HOST", "localhost") + ":" + sharedConfig.GetEnv("REDIS_PORT", "6379"),
		Password: sharedConfig.GetEnv("REDIS_PASSWORD", ""),
		DB:       15,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		rdb.Close()
		t.Skipf("跳过集成测试: Redis 不可用: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func createUser(t *testing.T, repo *UserRepository, prefix string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano()),
		PasswordHash: "x",
		Role:         model.RoleStudent,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestUserRepository_Integration(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	user := createUser(t, repo, "alice")

	got, err := repo.GetByUsername(ctx, user.Username)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Nil(t, got.LastActivity)

	err = repo.Create(ctx, &model.User{Username: user.Username, PasswordHash: "x", Role: model.RoleStudent})
	assert.ErrorIs(t, err, ErrUsernameExists)

	_, err = repo.GetByID(ctx, -1)
	assert.ErrorIs(t, err, ErrUserNotFound)

	at := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.TouchLastActivity(ctx, user.ID, at))
	// 更早的时间不会覆盖
	require.NoError(t, repo.TouchLastActivity(ctx, user.ID, at.Add(-time.Hour)))

	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastActivity)
	assert.True(t, at.Equal(*got.LastActivity))

	others, err := repo.ListOthers(ctx, user.ID)
	require.NoError(t, err)
	for _, o := range others {
		assert.NotEqual(t, user.ID, o.ID)
	}
}

func TestMessagingFlow_Integration(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	conversations := NewConversationRepository(db)
	messages := NewMessageRepository(db)

	a := createUser(t, users, "a")
	b := createUser(t, users, "b")
	low, high := model.NormalizePair(a.ID, b.ID)

	// 并发首次创建只产生一个会话
	const callers = 8
	ids := make([]int64, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := conversations.GetOrCreate(ctx, low, high)
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	convID := ids[0]

	ok, err := conversations.IsParticipant(ctx, convID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = conversations.GetOrCreate(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, ErrInvalidParticipant)
	_, err = conversations.GetOrCreate(ctx, a.ID, 1<<60)
	assert.ErrorIs(t, err, ErrInvalidParticipant)

	first, err := messages.Create(ctx, &model.NewMessage{ConversationID: convID, SenderID: a.ID, ReceiverID: b.ID, Content: "hello"})
	require.NoError(t, err)
	assert.False(t, first.Read)
	second, err := messages.Create(ctx, &model.NewMessage{ConversationID: convID, SenderID: b.ID, ReceiverID: a.ID, Content: "hi"})
	require.NoError(t, err)

	// NUL 字节与纯空白内容由数据库拒绝
	for _, content := range []string{"hi\x00there", "   "} {
		_, err = messages.Create(ctx, &model.NewMessage{ConversationID: convID, SenderID: a.ID, ReceiverID: b.ID, Content: content})
		assert.ErrorIs(t, err, ErrInvalidContent, "content %q", content)
	}

	history, err := messages.ListByConversation(ctx, convID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.ID, history[0].ID)
	assert.Equal(t, second.ID, history[1].ID)
	assert.Equal(t, a.Username, history[0].Sender.Username)

	unread, err := messages.CountUnread(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	rows, err := conversations.ListSummaries(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, a.ID, rows[0].OtherUserID)
	require.NotNil(t, rows[0].LastMessage)
	assert.Equal(t, "hi", *rows[0].LastMessage)
	assert.Equal(t, int64(1), rows[0].UnreadCount)

	n, err := messages.MarkRead(ctx, convID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = messages.MarkRead(ctx, convID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	unread, err = messages.CountUnread(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}

func TestTokenRepository_Integration(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()
	repo := NewTokenRepository(rdb)

	token := fmt.Sprintf("token-%d", time.Now().UnixNano())
	info := &TokenInfo{UserID: 7, Username: "alice", Role: "student"}
	require.NoError(t, repo.SaveToken(ctx, info, token, time.Minute))

	got, err := repo.GetUserInfoByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, info, got)

	require.NoError(t, repo.DeleteToken(ctx, token))
	got, err = repo.GetUserInfoByToken(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestActivityThrottle_Integration(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()
	throttle := NewActivityThrottle(rdb)
	userID := time.Now().UnixNano()

	ok, err := throttle.Acquire(ctx, userID, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = throttle.Acquire(ctx, userID, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRateLimiter_Integration(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()
	limiter := NewRateLimiter(rdb, 3, time.Minute)
	fixed := time.Now()
	limiter.now = func() time.Time { return fixed }
	key := fmt.Sprintf("test-%d", time.Now().UnixNano())

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
