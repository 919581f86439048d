package nats

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.im.campus/internal/model"
)

type recordingConn struct {
	msgs []*nats.Msg
	err  error
}

func (c *recordingConn) PublishMsg(m *nats.Msg) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, m)
	return nil
}

func TestEventPublisher_PublishToUser(t *testing.T) {
	conn := &recordingConn{}
	p := NewEventPublisher(conn)

	event := &model.MessageEvent{
		Type:           model.EventMessageCreated,
		MessageID:      9,
		ConversationID: 3,
		SenderID:       1,
		ReceiverID:     2,
		Content:        "hello",
		CreatedAt:      time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishToUser(2, "123456789", event))
	require.Len(t, conn.msgs, 1)

	msg := conn.msgs[0]
	assert.Equal(t, "campus.chat.user.2", msg.Subject)
	assert.Equal(t, "123456789", msg.Header.Get("Nats-Msg-Id"))
	assert.Equal(t, "message.created", msg.Header.Get("Campus-Event"))

	var decoded model.MessageEvent
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, *event, decoded)
}

func TestEventPublisher_PublishError(t *testing.T) {
	p := NewEventPublisher(&recordingConn{err: errors.New("nats: connection closed")})

	err := p.PublishToUser(2, "1", &model.MessageEvent{Type: model.EventMessageRead})
	assert.Error(t, err)
}
