package gateway

import (
	"time"

	"sudooom.im.campus/internal/model"
	"sudooom.im.campus/internal/presence"
)

// GraphQL 对象按 map 输出，字段名与 schema 一一对应

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func presenceView(p presence.Presence) map[string]interface{} {
	return map[string]interface{}{
		"status": string(p.Status),
		"label":  p.Label,
	}
}

func userView(u *model.User, now time.Time) map[string]interface{} {
	if u == nil {
		return nil
	}
	return map[string]interface{}{
		"id":            u.ID,
		"username":      u.Username,
		"role":          string(u.Role),
		"university_id": u.UniversityID,
		"last_seen":     formatTime(u.LastActivity),
		"presence":      presenceView(presence.Estimate(u.LastActivity, now)),
	}
}

func usersView(users []*model.User, now time.Time) []interface{} {
	out := make([]interface{}, 0, len(users))
	for _, u := range users {
		out = append(out, userView(u, now))
	}
	return out
}

func messageView(m *model.Message, now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"id":              m.ID,
		"conversation_id": m.ConversationID,
		"sender_id":       m.SenderID,
		"receiver_id":     m.ReceiverID,
		"sender":          userView(m.Sender, now),
		"receiver":        userView(m.Receiver, now),
		"content":         m.Content,
		"read":            m.Read,
		"created_at":      formatTime(&m.CreatedAt),
	}
}

func messagesView(messages []*model.Message, now time.Time) []interface{} {
	out := make([]interface{}, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageView(m, now))
	}
	return out
}

func conversationsView(summaries []*model.ConversationSummary) []interface{} {
	out := make([]interface{}, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, map[string]interface{}{
			"id": s.ConversationID,
			"other_user": map[string]interface{}{
				"id":        s.OtherUser.ID,
				"username":  s.OtherUser.Username,
				"role":      string(s.OtherUser.Role),
				"last_seen": formatTime(s.OtherUser.LastActivity),
				"presence":  presenceView(s.OtherPresence),
			},
			"last_message":      s.LastMessage,
			"last_message_time": formatTime(s.LastMessageTime),
			"unread_count":      s.UnreadCount,
		})
	}
	return out
}
