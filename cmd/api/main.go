package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/mealmind/nutrition-coach/internal/api/router"
	appconfig "github.com/mealmind/nutrition-coach/internal/config"
	"github.com/mealmind/nutrition-coach/internal/conversation"
	"github.com/mealmind/nutrition-coach/internal/observability/metrics"
	"github.com/mealmind/nutrition-coach/internal/plan"
	"github.com/mealmind/nutrition-coach/internal/webchat"
	"github.com/mealmind/nutrition-coach/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting nutrition-coach API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"provider", cfg.LLMProvider,
	)

	llm, modelID := buildProvider(cfg, logger)

	var deduper conversation.TurnDeduper
	if cfg.DedupeEnabled {
		if cfg.RedisAddr != "" {
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
			})
			deduper = conversation.NewRedisDeduper(client, cfg.DedupeTTL)
			logger.Info("turn de-duplication enabled", "backend", "redis", "addr", cfg.RedisAddr)
		} else {
			deduper = conversation.NewMemoryDeduper(cfg.DedupeTTL)
			logger.Info("turn de-duplication enabled", "backend", "memory")
		}
	}

	planner := plan.NewAsyncTrigger(logger, &plan.LogTrigger{Logger: logger}, 64)
	defer planner.Stop()

	engine := conversation.NewEngine(conversation.EngineOptions{
		Logger:          logger,
		LLM:             llm,
		Deduper:         deduper,
		Planner:         planner,
		ModelID:         modelID,
		ProviderTimeout: cfg.ProviderTimeout,
	})

	// Drop sessions abandoned mid-conversation.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if n := engine.Sessions().PruneIdle(cfg.SessionIdleTimeout); n > 0 {
				logger.Info("pruned idle sessions", "count", n)
			}
		}
	}()

	r := router.New(&router.Config{
		Logger:              logger,
		ConversationHandler: conversation.NewHandler(engine, logger),
		WebchatHandler:      webchat.NewHandler(engine, logger),
		MetricsHandler:      metrics.Handler(),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerSecond:  cfg.RateLimitPerSecond,
		RateLimitBurst:      cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited")
}

// buildProvider selects the response provider. "none" runs every turn
// on the deterministic fallback responder, which keeps local
// development free of API keys.
func buildProvider(cfg *appconfig.Config, logger *logging.Logger) (conversation.LLMClient, string) {
	switch cfg.LLMProvider {
	case "gemini":
		client, err := conversation.NewGeminiLLMClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to create gemini client, using deterministic responder", "error", err)
			return nil, ""
		}
		return client, cfg.GeminiModelID
	case "bedrock":
		opts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.AWSRegion),
		}
		if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
			opts = append(opts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
			))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
		if err != nil {
			logger.Error("failed to load AWS config, using deterministic responder", "error", err)
			return nil, ""
		}
		client := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
			if cfg.AWSEndpointOverride != "" {
				o.BaseEndpoint = &cfg.AWSEndpointOverride
			}
		})
		return conversation.NewBedrockLLMClient(client), cfg.BedrockModelID
	case "none":
		return nil, ""
	default:
		logger.Warn("unknown LLM provider, using deterministic responder", "provider", cfg.LLMProvider)
		return nil, ""
	}
}
