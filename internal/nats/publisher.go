package nats

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"sudooom.im.campus/internal/model"
	sharedNats "sudooom.im.campus/shared/nats"
)

// Conn 发布所需的连接能力
type Conn interface {
	PublishMsg(m *nats.Msg) error
}

// EventPublisher 把消息变更事件推送到用户 Subject
type EventPublisher struct {
	nc     Conn
	logger *slog.Logger
}

// NewEventPublisher 创建事件发布器
func NewEventPublisher(nc Conn) *EventPublisher {
	return &EventPublisher{
		nc:     nc,
		logger: slog.Default(),
	}
}

// PublishToUser 推送事件到指定用户，msgID 写入 Nats-Msg-Id 用于去重
func (p *EventPublisher) PublishToUser(userID int64, msgID string, event *model.MessageEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event", "messageId", event.MessageID, "error", err)
		return err
	}

	msg := nats.NewMsg(sharedNats.BuildUserSubject(userID))
	msg.Header.Set(sharedNats.HeaderMsgID, msgID)
	msg.Header.Set(sharedNats.HeaderEventType, string(event.Type))
	msg.Data = data

	if err := p.nc.PublishMsg(msg); err != nil {
		p.logger.Error("Failed to publish event", "userId", userID, "subject", msg.Subject, "error", err)
		return err
	}

	p.logger.Debug("Published event", "userId", userID, "type", event.Type, "messageId", event.MessageID)
	return nil
}
