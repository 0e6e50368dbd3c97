package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"peerlearn.app/server/common/id"
	"peerlearn.app/server/common/logger"
	"peerlearn.app/server/common/otel"
	"peerlearn.app/server/core/config"
	"peerlearn.app/server/core/db"
	"peerlearn.app/server/internal/http/dto"
	"peerlearn.app/server/internal/http/handler"
	"peerlearn.app/server/internal/http/middleware"
	httprouter "peerlearn.app/server/internal/http/router"
	"peerlearn.app/server/internal/queue"
	"peerlearn.app/server/internal/service"
	"peerlearn.app/server/internal/storage"
	"peerlearn.app/server/internal/store"
	"peerlearn.app/server/internal/token"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider when enabled)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "peerlearn server starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(cfg.NodeID); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	if err := database.Migrate(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to apply migrations", "error", err)
		os.Exit(1)
	}

	otpProducer, err := newOtpProducer(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to set up otp delivery", "error", err)
		os.Exit(1)
	}
	defer otpProducer.Close()

	avatars, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		slog.ErrorContext(ctx, "failed to set up avatar storage", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "avatar storage ready", "type", cfg.Storage.Type)

	services := service.NewServices(
		store.NewStores(database.Conn()),
		service.NewTxRunner(database),
		token.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		avatars,
		otpProducer,
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services, database)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

// newOtpProducer publishes to Redis when configured. Without Redis, codes
// are logged, and only outside production.
func newOtpProducer(ctx context.Context, cfg config.Config) (queue.Producer, error) {
	if !cfg.OTP.Enabled() {
		slog.WarnContext(ctx, "REDIS_URL not set, otp codes will only be logged")
		return queue.NewLogProducer(slog.Default(), !cfg.IsProduction()), nil
	}

	redisOpts, err := redis.ParseURL(cfg.OTP.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	slog.InfoContext(ctx, "redis connected", "stream", cfg.OTP.Stream)

	return queue.NewRedisProducer(redisClient, cfg.OTP.Stream, slog.Default()), nil
}

func setupRouter(cfg config.Config, services *service.Services, database *db.DB) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger sees the final status
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.ClientURL))
	router.Use(middleware.Errors())

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		Cookie: handler.CookieConfig{
			Name:   cfg.Auth.CookieName,
			Domain: cfg.Auth.CookieDomain,
			Secure: cfg.IsProduction(),
		},
		AvatarLinks: dto.AvatarLinks{PublicURL: cfg.Storage.PublicURL},
		Health:      database,
	})

	return router
}

const banner = `
 ___              _                       
| _ \___ ___ _ _ | |   ___ __ _ _ _ _ _  
|  _/ -_) -_) '_|| |__/ -_) _' | '_| ' \ 
|_| \___\___|_|  |____\___\__,_|_| |_||_|
`
