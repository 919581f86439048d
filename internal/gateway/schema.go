package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/graphql-go/graphql"

	"sudooom.im.campus/internal/model"
	"sudooom.im.campus/internal/session"
	apperrors "sudooom.im.campus/shared/errors"
)

// MessagingService 网关依赖的消息能力
type MessagingService interface {
	SendMessage(ctx context.Context, senderID, receiverID int64, content string) (*model.Message, error)
	Messages(ctx context.Context, conversationID, userID int64) ([]*model.Message, error)
	MarkRead(ctx context.Context, conversationID, userID int64) error
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	Conversations(ctx context.Context, userID int64) ([]*model.ConversationSummary, error)
	Contacts(ctx context.Context, userID int64) ([]*model.User, error)
}

type resolvers struct {
	svc    MessagingService
	now    func() time.Time
	logger *slog.Logger
}

// authed 要求调用方已认证，并把错误转换为对外格式
func (r *resolvers) authed(field string, fn func(p graphql.ResolveParams, id *session.Identity) (interface{}, error)) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		id, ok := session.FromContext(p.Context)
		if !ok {
			return nil, fromAppError(apperrors.ErrUnauthenticated)
		}

		result, err := fn(p, id)
		if err != nil {
			pub := normalize(err)
			if internal(pub.code) {
				r.logger.Error("graphql resolver failed", "field", field, "userId", id.ID, "error", err)
			}
			return nil, pub
		}
		return result, nil
	}
}

func nonNull(t graphql.Output) graphql.Output {
	return graphql.NewNonNull(t)
}

func listOf(t graphql.Output) graphql.Output {
	return graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t)))
}

// NewSchema 构建消息相关的 GraphQL schema
func NewSchema(svc MessagingService) (graphql.Schema, error) {
	return newSchema(&resolvers{svc: svc, now: time.Now, logger: slog.Default()})
}

func newSchema(r *resolvers) (graphql.Schema, error) {
	presenceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Presence",
		Fields: graphql.Fields{
			"status": &graphql.Field{Type: nonNull(graphql.String)},
			"label":  &graphql.Field{Type: nonNull(graphql.String)},
		},
	})

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: nonNull(graphql.Int)},
			"username":      &graphql.Field{Type: nonNull(graphql.String)},
			"role":          &graphql.Field{Type: nonNull(graphql.String)},
			"university_id": &graphql.Field{Type: graphql.String},
			"last_seen":     &graphql.Field{Type: nonNull(graphql.String)},
			"presence":      &graphql.Field{Type: nonNull(presenceType)},
		},
	})

	conversationUserType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ConversationUser",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: nonNull(graphql.Int)},
			"username":  &graphql.Field{Type: nonNull(graphql.String)},
			"role":      &graphql.Field{Type: nonNull(graphql.String)},
			"last_seen": &graphql.Field{Type: nonNull(graphql.String)},
			"presence":  &graphql.Field{Type: nonNull(presenceType)},
		},
	})

	conversationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Conversation",
		Fields: graphql.Fields{
			"id":                &graphql.Field{Type: nonNull(graphql.Int)},
			"other_user":        &graphql.Field{Type: nonNull(conversationUserType)},
			"last_message":      &graphql.Field{Type: nonNull(graphql.String)},
			"last_message_time": &graphql.Field{Type: nonNull(graphql.String)},
			"unread_count":      &graphql.Field{Type: nonNull(graphql.Int)},
		},
	})

	messageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Message",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: nonNull(graphql.Int)},
			"conversation_id": &graphql.Field{Type: nonNull(graphql.Int)},
			"sender_id":       &graphql.Field{Type: nonNull(graphql.Int)},
			"receiver_id":     &graphql.Field{Type: nonNull(graphql.Int)},
			"sender":          &graphql.Field{Type: nonNull(userType)},
			"receiver":        &graphql.Field{Type: nonNull(userType)},
			"content":         &graphql.Field{Type: nonNull(graphql.String)},
			"read":            &graphql.Field{Type: nonNull(graphql.Boolean)},
			"created_at":      &graphql.Field{Type: nonNull(graphql.String)},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"conversations": &graphql.Field{
				Type: listOf(conversationType),
				Resolve: r.authed("conversations", func(p graphql.ResolveParams, id *session.Identity) (interface{}, error) {
					summaries, err := r.svc.Conversations(p.Context, id.ID)
					if err != nil {
						return nil, err
					}
					return conversationsView(summaries), nil
				}),
			},
			"messages": &graphql.Field{
				Type: listOf(messageType),
				Args: graphql.FieldConfigArgument{
					"conversationId": &graphql.ArgumentConfig{Type: nonNull(graphql.Int)},
				},
				Resolve: r.authed("messages", func(p graphql.ResolveParams, id *session.Identity) (interface{}, error) {
					conversationID, _ := p.Args["conversationId"].(int)
					messages, err := r.svc.Messages(p.Context, int64(conversationID), id.ID)
					if err != nil {
						return nil, err
					}
					return messagesView(messages, r.now()), nil
				}),
			},
			"unreadMessageCount": &graphql.Field{
				Type: nonNull(graphql.Int),
				Resolve: r.authed("unreadMessageCount", func(p graphql.ResolveParams, id *session.Identity) (interface{}, error) {
					return r.svc.UnreadCount(p.Context, id.ID)
				}),
			},
			"allUsers": &graphql.Field{
				Type: listOf(userType),
				Resolve: r.authed("allUsers", func(p graphql.ResolveParams, id *session.Identity) (interface{}, error) {
					users, err := r.svc.Contacts(p.Context, id.ID)
					if err != nil {
						return nil, err
					}
					return usersView(users, r.now()), nil
				}),
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"sendMessage": &graphql.Field{
				Type: nonNull(messageType),
				Args: graphql.FieldConfigArgument{
					"receiver_id": &graphql.ArgumentConfig{Type: nonNull(graphql.Int)},
					"content":     &graphql.ArgumentConfig{Type: nonNull(graphql.String)},
				},
				Resolve: r.authed("sendMessage", func(p graphql.ResolveParams, id *session.Identity) (interface{}, error) {
					receiverID, _ := p.Args["receiver_id"].(int)
					content, _ := p.Args["content"].(string)
					msg, err := r.svc.SendMessage(p.Context, id.ID, int64(receiverID), content)
					if err != nil {
						return nil, err
					}
					return messageView(msg, r.now()), nil
				}),
			},
			"markMessagesAsRead": &graphql.Field{
				Type: nonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"conversation_id": &graphql.ArgumentConfig{Type: nonNull(graphql.Int)},
				},
				Resolve: r.authed("markMessagesAsRead", func(p graphql.ResolveParams, id *session.Identity) (interface{}, error) {
					conversationID, _ := p.Args["conversation_id"].(int)
					if err := r.svc.MarkRead(p.Context, int64(conversationID), id.ID); err != nil {
						return nil, err
					}
					return true, nil
				}),
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}
