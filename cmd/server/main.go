package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/creastat/aura"
	"github.com/creastat/aura/chat"
	"github.com/creastat/aura/config"
	"github.com/creastat/aura/httpserver"
	"github.com/creastat/aura/journal"
	"github.com/creastat/aura/llm"
	"github.com/creastat/aura/ratelimit"
	"github.com/creastat/aura/scheduler"
	"github.com/creastat/aura/session"
	"github.com/creastat/aura/supabase"
	"github.com/creastat/aura/turnlock"
	"github.com/creastat/aura/vectorstore"
	"github.com/creastat/aura/vectorstore/qdrant"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg)
	log.Info().Str("state_store", cfg.StateStore).Msg("Starting Bible Aura service")

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := supabase.New(supabase.Config{
		URL:      cfg.SupabaseURL,
		APIKey:   cfg.SupabaseKey,
		CacheTTL: cfg.SupabaseCacheTTL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Supabase client")
	}
	defer store.Close()

	var redisClient redis.UniversalClient
	if cfg.Store() == aura.StoreTypeRedis {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid REDIS_URL")
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to ping Redis")
		}
		log.Info().Msg("Redis connection established")
	}

	limiter, err := ratelimit.NewLimiter(cfg.Store(),
		ratelimit.WithMaxRequests(cfg.RateLimitRequests),
		ratelimit.WithWindow(cfg.RateLimitWindow),
		ratelimit.WithRedisClient(redisClient),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create rate limiter")
	}
	defer limiter.Close()

	locker, err := turnlock.NewLocker(cfg.Store(),
		turnlock.WithRedisClient(redisClient),
		turnlock.WithExpiry(cfg.TurnLockExpiry),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create turn locker")
	}

	sessions, err := session.NewStore(cfg.Store(),
		session.WithRedisClient(redisClient),
		session.WithRedisTTL(cfg.SessionTTL),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create session store")
	}
	defer sessions.Close()

	llmClient := llm.NewOpenAI(llm.Config{
		APIKey:         cfg.AIAPIKey,
		BaseURL:        cfg.AIBaseURL,
		Model:          cfg.AIModel,
		EmbeddingModel: cfg.EmbeddingModel,
		MaxTokens:      cfg.AIMaxTokens,
		Temperature:    cfg.AITemperature,
	})

	pipelineOpts := []chat.Option{
		chat.WithTimeout(cfg.AITimeout),
		chat.WithTokenLimit(cfg.AIPromptTokenLimit),
		chat.WithModel(llmClient.Model()),
	}

	if cfg.ScriptureEnabled() {
		verses, err := qdrant.New(qdrant.Config{
			URL:            cfg.QdrantURL,
			CollectionName: cfg.QdrantCollection,
			APIKey:         cfg.QdrantAPIKey,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Qdrant client")
		}
		defer verses.Close()

		pipelineOpts = append(pipelineOpts, chat.WithRetriever(&vectorstore.Retriever{
			Embedder: llmClient,
			Store:    verses,
			Limit:    cfg.ScripturePassages,
			Filter: vectorstore.SearchFilter{
				Translation: cfg.BibleTranslation,
				MinScore:    cfg.ScriptureMinScore,
			},
		}))
		log.Info().Str("collection", cfg.QdrantCollection).Msg("Scripture grounding enabled")
	}

	pipeline, err := chat.New(store, llmClient, limiter, locker, sessions, pipelineOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create chat pipeline")
	}

	sched := scheduler.New()
	if sweeper, ok := limiter.(ratelimit.Sweeper); ok {
		if err := sched.AddSweep(sweeper); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule rate limit sweep")
		}
	}
	sched.Start()
	defer sched.Stop()

	server := httpserver.New(httpserver.Config{
		Port:            cfg.HTTPPort,
		RequestTimeout:  cfg.RequestTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, httpserver.Dependencies{
		Chat:     pipeline,
		Auth:     store,
		Profiles: store,
		Journal:  journal.NewAssistant(llmClient),
	})

	if err := server.Start(ctx); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		return
	}
	log.Info().Msg("Server exited")
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	zerolog.DefaultContextLogger = &log.Logger
}
