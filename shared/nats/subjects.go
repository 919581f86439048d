package nats

import "strconv"

// NATS Subject 常量定义
const (
	// SubjectUserPrefix 用户收件箱前缀
	// 完整格式: campus.chat.user.{user_id}
	SubjectUserPrefix = "campus.chat.user."

	// SubjectUserWildcard 订阅全部用户事件
	SubjectUserWildcard = SubjectUserPrefix + "*"

	// HeaderMsgID JetStream 去重用消息头
	HeaderMsgID = "Nats-Msg-Id"

	// HeaderEventType 事件类型消息头
	HeaderEventType = "Campus-Event"
)

// BuildUserSubject 构建用户事件 Subject
func BuildUserSubject(userID int64) string {
	return SubjectUserPrefix + strconv.FormatInt(userID, 10)
}
