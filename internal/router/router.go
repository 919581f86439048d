package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"sudooom.im.campus/internal/config"
	"sudooom.im.campus/internal/gateway"
	"sudooom.im.campus/internal/handler"
	"sudooom.im.campus/internal/middleware"
	"sudooom.im.campus/internal/session"
)

// Dependencies 路由所需的组件
type Dependencies struct {
	Resolver    session.Resolver
	Activity    middleware.ActivityToucher
	Limiter     middleware.Limiter
	Gateway     *gateway.Handler
	AuthHandler *handler.AuthHandler
	Health      http.Handler
	Ready       http.HandlerFunc
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	// 设置 Gin 模式
	gin.SetMode(cfg.App.Mode)

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(slog.Default()))
	r.Use(middleware.CORS(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowCredentials,
	))

	// 探针不限流
	if deps.Health != nil {
		r.GET("/health", gin.WrapH(deps.Health))
	}
	if deps.Ready != nil {
		r.GET("/ready", gin.WrapF(deps.Ready))
	}

	api := r.Group("/api")
	if cfg.RateLimit.Enabled && deps.Limiter != nil {
		api.Use(middleware.RateLimit(deps.Limiter))
	}
	api.Use(middleware.Session(deps.Resolver, deps.Activity))
	{
		// GraphQL 入口，认证在 resolver 内判断
		api.POST("/graphql", deps.Gateway.Serve)
		api.GET("/graphql", deps.Gateway.Serve)

		auth := api.Group("/v1/auth")
		{
			auth.POST("/register", deps.AuthHandler.Register)
			auth.POST("/login", deps.AuthHandler.Login)
			auth.POST("/refresh", deps.AuthHandler.Refresh)
			auth.POST("/logout", middleware.RequireIdentity(), deps.AuthHandler.Logout)
		}
	}

	return r
}
