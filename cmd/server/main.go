package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"odras.app/odras/common/id"
	"odras.app/odras/common/llm"
	"odras.app/odras/common/logger"
	"odras.app/odras/common/otel"
	"odras.app/odras/core/config"
	"odras.app/odras/core/db"
	"odras.app/odras/internal/capture"
	"odras.app/odras/internal/das"
	"odras.app/odras/internal/http/handler"
	"odras.app/odras/internal/http/middleware"
	httprouter "odras.app/odras/internal/http/router"
	"odras.app/odras/internal/knowledge"
	"odras.app/odras/internal/pipeline"
	"odras.app/odras/internal/queue"
	"odras.app/odras/internal/routing"
	"odras.app/odras/internal/store"
	"odras.app/odras/internal/thread"
	"odras.app/odras/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
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

	slog.InfoContext(ctx, "odras starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
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

	redisOpts, err := redis.ParseURL(cfg.Queue.RedisURL)
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
	slog.InfoContext(ctx, "redis connected", "key", cfg.Queue.Key)

	threadStore := thread.NewPostgresStore(database.Pool())

	engines := []routing.Engine{
		{Name: "postgres", Threads: threadStore},
	}
	if cfg.ArangoDB.Enabled() {
		arango, err := thread.NewArangoStore(ctx, cfg.ArangoDB)
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to arangodb", "error", err)
			os.Exit(1)
		}
		engines = append(engines, routing.Engine{Name: "arangodb", Threads: arango})
		slog.InfoContext(ctx, "arangodb fallback engine enabled")
	}

	var search knowledge.Search
	if cfg.Typesense.Enabled() {
		search, err = knowledge.NewTypesenseSearch(ctx, cfg.Typesense, slog.Default())
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to typesense", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "typesense connected", "collection", cfg.Typesense.Collection)
	}

	var assistant *das.Assistant
	if cfg.OpenAI.Enabled() {
		llmClient, err := llm.New(llm.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to initialize llm client", "error", err)
			os.Exit(1)
		}
		assistant = das.NewAssistant(llmClient, threadStore, search, slog.Default())
		slog.InfoContext(ctx, "das assistant enabled", "model", llmClient.Model())
	}

	eventQueue := queue.NewRedisQueue(redisClient, cfg.Queue.Key, slog.Default())
	capturer := capture.New(eventQueue, slog.Default())
	eventRouter := routing.New(engines, slog.Default())
	bgWorker := worker.New(eventQueue, eventRouter, worker.Config{
		PopTimeout:   cfg.Worker.PopTimeout,
		IdleInterval: cfg.Worker.IdleInterval,
		ErrorBackoff: cfg.Worker.ErrorBackoff,
	}, slog.Default())

	pipe := pipeline.New(capturer, eventQueue, eventRouter, bgWorker, slog.Default())
	pipe.Start(ctx)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, pipe, database, threadStore, search, assistant)
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

	pipe.Shutdown(shutdownCtx)

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, pipe *pipeline.Pipeline, database *db.DB, threads *thread.PostgresStore, search knowledge.Search, assistant *das.Assistant) *gin.Engine {
	router := gin.New()

	users := store.NewUserStore(database.Pool())
	patterns := middleware.NewTable(middleware.DefaultPatterns())

	// Order matters: OTel opens the span first, Recovery catches panics,
	// Logger then sees trace context, auth resolves the actor, and capture
	// observes completed requests last.
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.OptionalAuth(users))
	router.Use(middleware.EventCapture(pipe.Capturer(), patterns, slog.Default()))

	httprouter.SetupRoutes(router, httprouter.Handlers{
		Projects:  handler.NewProjectHandler(store.NewProjectStore(database.Pool())),
		Ontology:  handler.NewOntologyHandler(),
		Files:     handler.NewFileHandler(store.NewFileStore(database.Pool())),
		Knowledge: handler.NewKnowledgeHandler(store.NewKnowledgeStore(database.Pool()), search, assistant),
		Workflows: handler.NewWorkflowHandler(),
		DAS:       handler.NewDASHandler(assistant, threads),
		Events:    handler.NewEventsHandler(pipe),
	})

	return router
}
