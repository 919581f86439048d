package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sudooom.im.campus/internal/gateway"
	"sudooom.im.campus/internal/handler"
	"sudooom.im.campus/internal/health"
	"sudooom.im.campus/internal/repository"
	"sudooom.im.campus/internal/router"
	"sudooom.im.campus/internal/service"
	"sudooom.im.campus/internal/session"
	"sudooom.im.campus/shared/jwt"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the GraphQL gateway and auth API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 连接数据库
	db, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)

	// 连接 Redis
	redisClient := connectRedis(cfg.Redis)
	defer redisClient.Close()
	logger.Info("Connected to Redis", "addr", cfg.Redis.Addr())

	// 初始化 JWT 服务
	jwtService := jwt.NewService(cfg.JWT.SecretKey, cfg.JWT.AccessExpire, cfg.JWT.RefreshExpire)

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	tokenRepo := repository.NewTokenRepository(redisClient)

	// 初始化 Service
	activityService := service.NewActivityService(userRepo, repository.NewActivityThrottle(redisClient), cfg.Presence.TouchInterval)
	authService := service.NewAuthService(userRepo, tokenRepo, activityService, jwtService)
	messagingService := service.NewMessagingService(userRepo, conversationRepo, messageRepo)

	// 初始化 Handler
	gatewayHandler, err := gateway.NewHandler(messagingService, cfg.App.RequestTimeout)
	if err != nil {
		return fmt.Errorf("build graphql schema: %w", err)
	}
	checker := health.NewChecker(db, redisClient, nil)

	r := router.SetupRouter(cfg, router.Dependencies{
		Resolver:    session.NewTokenResolver(jwtService, tokenRepo),
		Activity:    activityService,
		Limiter:     repository.NewRateLimiter(redisClient, cfg.RateLimit.RequestsPerMinute, time.Minute),
		Gateway:     gatewayHandler,
		AuthHandler: handler.NewAuthHandler(authService),
		Health:      checker,
		Ready:       checker.Ready,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Campus server started", "addr", server.Addr, "mode", cfg.App.Mode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 优雅退出
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
	return nil
}
