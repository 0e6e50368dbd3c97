package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"peerlearn.app/server/common/logger"
	"peerlearn.app/server/common/otel"
	"peerlearn.app/server/core/config"
	"peerlearn.app/server/internal/queue"
	"peerlearn.app/server/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger.Setup(cfg)

	slog.InfoContext(ctx, "otp worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.OTP.Group,
		"consumer_name", cfg.OTP.Consumer)

	redisOpts, err := redis.ParseURL(cfg.OTP.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.OTP.Stream)

	consumer, err := queue.NewRedisConsumer(ctx, redisClient, queue.ConsumerConfig{
		Stream:       cfg.OTP.Stream,
		Group:        cfg.OTP.Group,
		Consumer:     cfg.OTP.Consumer,
		DLQStream:    cfg.OTP.DLQStream,
		BatchSize:    10,
		Block:        5 * time.Second,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	mailer := worker.LogMailer{From: cfg.OTP.MailFrom, IncludeCode: !cfg.IsProduction()}
	w := worker.New(consumer, mailer, worker.Config{MaxAttempts: cfg.OTP.MaxAttempts})

	// Codes live five minutes, so stuck deliveries are reclaimed quickly.
	reclaimer := worker.NewRedisReclaimer(redisClient, worker.RedisReclaimerConfig{
		Stream:    cfg.OTP.Stream,
		Group:     cfg.OTP.Group,
		Consumer:  cfg.OTP.Consumer + "-reclaimer",
		MinIdle:   30 * time.Second,
		Interval:  15 * time.Second,
		BatchSize: 10,
	}, consumer, w.ProcessMessage)

	errCh := make(chan error, 2)
	go func() {
		errCh <- w.Run(ctx)
	}()
	go func() {
		reclaimer.Run(ctx)
		errCh <- nil
	}()

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	reclaimer.Stop()
	w.Stop()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
 ___              _                        __      __       _
| _ \___ ___ _ _ | |   ___ __ _ _ _ _ _    \ \    / /__ _ _| |_____ _ _
|  _/ -_) -_) '_|| |__/ -_) _' | '_| ' \    \ \/\/ / _ \ '_| / / -_) '_|
|_| \___\___|_|  |____\___\__,_|_| |_||_|    \_/\_/\___/_| |_\_\___|_|
`
