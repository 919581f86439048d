package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var errNotListening = errors.New("source is not listening")

// Source 数据库变更通知来源
type Source interface {
	Listen(ctx context.Context, channel string) error
	WaitForNotification(ctx context.Context) (string, error)
	Close(ctx context.Context) error
}

// PGSource 通过独占的 PostgreSQL 连接执行 LISTEN
type PGSource struct {
	dsn  string
	conn *pgx.Conn
}

// NewPGSource 创建 PostgreSQL 通知来源
func NewPGSource(dsn string) *PGSource {
	return &PGSource{dsn: dsn}
}

// Listen 建立连接并订阅频道，已有连接会先关闭
func (s *PGSource) Listen(ctx context.Context, channel string) error {
	if s.conn != nil {
		_ = s.Close(ctx)
	}

	conn, err := pgx.Connect(ctx, s.dsn)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		_ = conn.Close(ctx)
		return fmt.Errorf("failed to listen on %s: %w", channel, err)
	}

	s.conn = conn
	return nil
}

// WaitForNotification 阻塞直到收到通知，返回 payload
func (s *PGSource) WaitForNotification(ctx context.Context) (string, error) {
	if s.conn == nil {
		return "", errNotListening
	}
	n, err := s.conn.WaitForNotification(ctx)
	if err != nil {
		return "", err
	}
	return n.Payload, nil
}

// Close 关闭连接
func (s *PGSource) Close(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close(ctx)
	s.conn = nil
	return err
}
