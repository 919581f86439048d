package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sudooom.im.campus/internal/health"
	imNats "sudooom.im.campus/internal/nats"
	"sudooom.im.campus/internal/relay"
	"sudooom.im.campus/shared/snowflake"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Forward message change notifications from PostgreSQL to NATS",
	RunE:  runRelay,
}

func runRelay(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 连接 NATS
	natsClient, err := imNats.NewClient(cfg.NATS)
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	defer natsClient.Close()
	logger.Info("Connected to NATS", "url", cfg.NATS.URL)

	// 连接池仅用于健康检查，LISTEN 使用独立连接
	db, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)

	ids, err := snowflake.NewNode(cfg.Relay.NodeID)
	if err != nil {
		return err
	}

	rl := relay.New(
		relay.NewPGSource(cfg.Database.DSN()),
		imNats.NewEventPublisher(natsClient.Conn()),
		ids,
		relay.Options{
			Channel:    cfg.Relay.Channel,
			Workers:    cfg.Relay.Workers,
			BufferSize: cfg.Relay.BufferSize,
			RetryWait:  cfg.Relay.RetryWait,
		},
	)

	// 启动健康检查 HTTP 服务
	healthServer := newHealthServer(cfg.Relay.HealthPort, health.NewChecker(db, nil, natsClient), rl)
	go func() {
		logger.Info("Health check server started", "addr", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed", "error", err)
		}
	}()

	logger.Info("Relay started", "channel", cfg.Relay.Channel, "workers", cfg.Relay.Workers)
	if err := rl.Run(ctx); err != nil {
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return healthServer.Shutdown(shutdownCtx)
}

// newHealthServer 健康检查与转发计数
func newHealthServer(port int, checker *health.Checker, rl *relay.Relay) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/health", checker)
	mux.HandleFunc("/ready", checker.Ready)
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rl.Stats())
	})

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
