package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sudooom.im.campus/internal/model"
)

var (
	ErrInvalidParticipant   = errors.New("invalid conversation participant")
	ErrConversationNotFound = errors.New("conversation not found")
)

// ConversationRepository 会话数据访问
// 获取或创建、会话列表聚合均交给数据库函数完成
type ConversationRepository struct {
	db *pgxpool.Pool
}

// NewConversationRepository 创建会话仓库
func NewConversationRepository(db *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// GetOrCreate 获取或创建 (low, high) 用户对的会话
func (r *ConversationRepository) GetOrCreate(ctx context.Context, low, high int64) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `SELECT get_or_create_conversation($1, $2)`, low, high).Scan(&id)
	if err == nil {
		return id, nil
	}

	switch pgCode(err) {
	case pgForeignKeyViolation, pgInvalidParameter, pgCheckViolation:
		return 0, ErrInvalidParticipant
	case pgUniqueViolation:
		// 唯一约束冲突说明对方已创建成功，回读即可
		return r.getByPair(ctx, low, high)
	default:
		return 0, err
	}
}

func (r *ConversationRepository) getByPair(ctx context.Context, low, high int64) (int64, error) {
	low, high = model.NormalizePair(low, high)

	var id int64
	err := r.db.QueryRow(ctx,
		`SELECT id FROM conversations WHERE user_low = $1 AND user_high = $2`,
		low, high,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrConversationNotFound
	}
	return id, err
}

// IsParticipant 判断用户是否为会话参与者
func (r *ConversationRepository) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM conversation_participants
			WHERE conversation_id = $1 AND user_id = $2
		)
	`
	err := r.db.QueryRow(ctx, query, conversationID, userID).Scan(&exists)
	return exists, err
}

// ListSummaries 调用 get_user_conversations 返回原始聚合行
func (r *ConversationRepository) ListSummaries(ctx context.Context, userID int64) ([]model.ConversationRow, error) {
	query := `
		SELECT conversation_id, other_user_id, other_username, other_user_role,
		       other_user_last_activity, last_message, last_message_time, unread_count
		FROM get_user_conversations($1)
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]model.ConversationRow, 0)
	for rows.Next() {
		var (
			row  model.ConversationRow
			role string
		)
		if err := rows.Scan(
			&row.ConversationID,
			&row.OtherUserID,
			&row.OtherUsername,
			&role,
			&row.OtherLastActivity,
			&row.LastMessage,
			&row.LastMessageTime,
			&row.UnreadCount,
		); err != nil {
			return nil, err
		}
		row.OtherRole = model.Role(role)
		result = append(result, row)
	}
	return result, rows.Err()
}
