package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"sudooom.im.campus/internal/model"
)

// MessageRepository 消息仓库
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository 创建消息仓库
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create 写入消息，时间戳与已读状态由数据库赋值
// 返回时事务已提交，后续查询立即可见
func (r *MessageRepository) Create(ctx context.Context, msg *model.NewMessage) (*model.Message, error) {
	query := `
		INSERT INTO messages (conversation_id, sender_id, receiver_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, read, created_at
	`

	created := &model.Message{
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		ReceiverID:     msg.ReceiverID,
		Content:        msg.Content,
	}
	err := r.db.QueryRow(ctx, query,
		msg.ConversationID,
		msg.SenderID,
		msg.ReceiverID,
		msg.Content,
	).Scan(&created.ID, &created.Read, &created.CreatedAt)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return nil, ErrConversationNotFound
		}
		if isInvalidContent(err) {
			return nil, ErrInvalidContent
		}
		return nil, err
	}

	return created, nil
}

// ListByConversation 按创建时间升序返回会话全部消息，同一时间按 ID 排序
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID int64) ([]*model.Message, error) {
	query := `
		SELECT m.id, m.conversation_id, m.sender_id, m.receiver_id, m.content, m.read, m.created_at,
		       s.username, s.role, s.university_id, s.last_activity,
		       rc.username, rc.role, rc.university_id, rc.last_activity
		FROM messages m
		JOIN users s ON s.id = m.sender_id
		JOIN users rc ON rc.id = m.receiver_id
		WHERE m.conversation_id = $1
		ORDER BY m.created_at ASC, m.id ASC
	`

	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]*model.Message, 0)
	for rows.Next() {
		var (
			msg                      model.Message
			sender, receiver         model.User
			senderRole, receiverRole string
		)
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.SenderID,
			&msg.ReceiverID,
			&msg.Content,
			&msg.Read,
			&msg.CreatedAt,
			&sender.Username,
			&senderRole,
			&sender.UniversityID,
			&sender.LastActivity,
			&receiver.Username,
			&receiverRole,
			&receiver.UniversityID,
			&receiver.LastActivity,
		); err != nil {
			return nil, err
		}
		sender.ID, sender.Role = msg.SenderID, model.Role(senderRole)
		receiver.ID, receiver.Role = msg.ReceiverID, model.Role(receiverRole)
		msg.Sender, msg.Receiver = &sender, &receiver
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// MarkRead 将会话中发给 receiverID 的未读消息置为已读，返回受影响行数
func (r *MessageRepository) MarkRead(ctx context.Context, conversationID, receiverID int64) (int64, error) {
	query := `
		UPDATE messages SET read = TRUE
		WHERE conversation_id = $1 AND receiver_id = $2 AND read = FALSE
	`
	result, err := r.db.Exec(ctx, query, conversationID, receiverID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// CountUnread 统计用户全部未读消息数
func (r *MessageRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND read = FALSE`,
		userID,
	).Scan(&count)
	return count, err
}
