package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"chat-notifier/internal/api"
	"chat-notifier/internal/auth"
	"chat-notifier/internal/config"
	"chat-notifier/internal/db"
	"chat-notifier/internal/handlers"
	"chat-notifier/internal/logger"
	"chat-notifier/internal/middleware"
	"chat-notifier/internal/notifications"
	"chat-notifier/internal/observability"
	"chat-notifier/internal/poller"
	"chat-notifier/internal/rabbitmq"
	"chat-notifier/internal/repositories"
	"chat-notifier/internal/telemetry"
	"chat-notifier/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		logger.New(logger.Options{ServiceName: "chat-notifier"}).Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg := logger.New(logger.Options{
		ServiceName: cfg.Tracing.ServiceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "notifier stopped with error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TracingConfig{
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.App.Env,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = multierr.Append(err, shutdownTracing(shutdownCtx))
	}()

	repo, closeRepo, err := openStateRepo(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, closeRepo()) }()

	selfID := cfg.API.UserID
	if selfID == "" {
		selfID, err = api.SubjectFromToken(cfg.API.Token)
		if err != nil {
			return err
		}
	}
	client, err := api.NewClient(cfg.API.BaseURL, api.StaticToken(cfg.API.Token), cfg.API.Timeout)
	if err != nil {
		return err
	}

	publisher := rabbitmq.NewPublisher(ctx, cfg.AMQP.URL, cfg.AMQP.Exchange, logg)
	defer func() { err = multierr.Append(err, publisher.Close()) }()
	observability.SetPublisher(publisher)
	audit := telemetry.NewAuditEmitter(publisher, "audit.notifier", cfg.Tracing.ServiceName, cfg.App.Env, logg)

	svc := notifications.New(ctx, client, repo, notifications.Options{
		SelfID:        selfID,
		MessageWindow: cfg.Poll.MessageWindow,
		InviteWindow:  cfg.Poll.InviteWindow,
		UnreadCap:     cfg.Poll.UnreadCap,
		FanOut:        cfg.Poll.FanOut,
		FullEvery:     cfg.Poll.DirectoryFullTick,
	}, logg)
	defer svc.Close()

	hub := ws.NewHub(logg)
	unsubscribe := svc.Subscribe(hub.Broadcast)
	defer unsubscribe()

	if !cfg.App.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	router.Use(middleware.RequestID())
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "amqp": rabbitmq.PublisherMode(publisher)})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	verifier := auth.NewVerifier(cfg.JWT.Secret, selfID)
	if !verifier.Enabled() {
		logg.Warn(ctx, "SUPABASE_JWT_SECRET unset, routes are unauthenticated and bound to loopback", nil)
	}
	authed := router.Group("/", middleware.AuthMiddleware(verifier))
	handlers.NewNotificationHandler(svc, audit).RegisterRoutes(authed)
	handlers.RegisterDebugRoutes(authed, svc, audit, cfg.App.Debug)
	authed.GET("/ws", ws.NewHandler(hub, svc, cfg.App.AllowedOrigins).Handle)

	p, err := poller.New(poller.Params{
		Logger: logg,
		Target: svc,
		Schedule: poller.Schedule{
			ChannelInterval: cfg.Poll.ChannelInterval,
			InitialDelay:    cfg.Poll.InitialDelay,
			InviteInterval:  cfg.Poll.InviteInterval,
			ActiveInterval:  cfg.Poll.ActiveInterval,
		},
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.Run(gctx)
	})
	g.Go(func() error {
		logg.Info(gctx, "notifier listening on "+server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStateRepo(ctx context.Context, cfg *config.Config) (repositories.StateRepository, func() error, error) {
	switch cfg.State.Backend {
	case config.BackendMemory:
		return repositories.NewMemoryStateRepo(), func() error { return nil }, nil
	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		return repositories.NewRedisStateRepo(client, cfg.Redis.KeyPrefix), client.Close, nil
	default:
		conn, err := db.Connect(ctx, cfg.State.Driver, cfg.State.DSN)
		if err != nil {
			return nil, nil, err
		}
		return repositories.NewStateRepo(conn), conn.Close, nil
	}
}
