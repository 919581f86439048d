// Package relay 把数据库触发器发出的消息变更通知转发到 NATS
package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"sudooom.im.campus/internal/model"
	"sudooom.im.campus/shared/snowflake"
)

// Publisher 按用户推送事件
type Publisher interface {
	PublishToUser(userID int64, msgID string, event *model.MessageEvent) error
}

// Options 转发参数
type Options struct {
	Channel    string
	Workers    int
	BufferSize int
	RetryWait  time.Duration
}

// Stats 转发计数
type Stats struct {
	Received  int64 `json:"received"`
	Published int64 `json:"published"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
}

// Relay 监听通知并由工作协程并发发布
type Relay struct {
	source    Source
	publisher Publisher
	ids       *snowflake.Node
	opts      Options
	logger    *slog.Logger

	received  atomic.Int64
	published atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// New 创建 Relay
func New(source Source, publisher Publisher, ids *snowflake.Node, opts Options) *Relay {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 256
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 2 * time.Second
	}
	return &Relay{
		source:    source,
		publisher: publisher,
		ids:       ids,
		opts:      opts,
		logger:    slog.Default(),
	}
}

// Run 阻塞直到 ctx 结束，期间断线会自动重新 LISTEN
// 重连间隙内产生的通知会丢失，订阅方需以存储为准
func (r *Relay) Run(ctx context.Context) error {
	events := make(chan *model.MessageEvent, r.opts.BufferSize)

	var wg sync.WaitGroup
	for i := 0; i < r.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.worker(events)
		}()
	}

	r.consume(ctx, events)

	close(events)
	wg.Wait()

	if err := r.source.Close(context.Background()); err != nil {
		r.logger.Warn("Failed to close notification source", "error", err)
	}
	r.logger.Info("Relay stopped", "stats", r.Stats())
	return nil
}

// Stats 返回当前计数
func (r *Relay) Stats() Stats {
	return Stats{
		Received:  r.received.Load(),
		Published: r.published.Load(),
		Failed:    r.failed.Load(),
		Dropped:   r.dropped.Load(),
	}
}

func (r *Relay) consume(ctx context.Context, events chan<- *model.MessageEvent) {
	for {
		if err := r.source.Listen(ctx, r.opts.Channel); err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Warn("Failed to listen for notifications", "channel", r.opts.Channel, "error", err)
			if !r.pause(ctx) {
				return
			}
			continue
		}
		r.logger.Info("Listening for notifications", "channel", r.opts.Channel)

		for {
			payload, err := r.source.WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				r.logger.Warn("Notification stream interrupted", "error", err)
				break
			}
			r.dispatch(ctx, payload, events)
		}

		if !r.pause(ctx) {
			return
		}
	}
}

// dispatch 解析通知并放入队列，ctx 结束时放弃
func (r *Relay) dispatch(ctx context.Context, payload string, events chan<- *model.MessageEvent) {
	r.received.Add(1)

	var event model.MessageEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		r.dropped.Add(1)
		r.logger.Warn("Invalid notification payload", "error", err)
		return
	}
	if len(event.Recipients()) == 0 {
		r.dropped.Add(1)
		r.logger.Debug("Ignoring notification", "type", event.Type)
		return
	}

	select {
	case events <- &event:
	case <-ctx.Done():
		r.dropped.Add(1)
	}
}

func (r *Relay) worker(events <-chan *model.MessageEvent) {
	for event := range events {
		for _, userID := range event.Recipients() {
			msgID := r.ids.Generate().String()
			if err := r.publisher.PublishToUser(userID, msgID, event); err != nil {
				r.failed.Add(1)
				continue
			}
			r.published.Add(1)
		}
	}
}

func (r *Relay) pause(ctx context.Context) bool {
	timer := time.NewTimer(r.opts.RetryWait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
