package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Skotchmaster/taskboard/internal/attachments"
	"github.com/Skotchmaster/taskboard/internal/config"
	"github.com/Skotchmaster/taskboard/internal/db"
	"github.com/Skotchmaster/taskboard/internal/events"
	"github.com/Skotchmaster/taskboard/internal/hash"
	"github.com/Skotchmaster/taskboard/internal/httpserver"
	"github.com/Skotchmaster/taskboard/internal/logging"
	"github.com/Skotchmaster/taskboard/internal/middleware/auth"
	"github.com/Skotchmaster/taskboard/internal/middleware/metrics"
	"github.com/Skotchmaster/taskboard/internal/repo"
	"github.com/Skotchmaster/taskboard/internal/service"
	"github.com/Skotchmaster/taskboard/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close(gdb)

	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	codec, err := tokens.NewCodec([]byte(cfg.JWTSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	publisher := events.New(cfg.KafkaBrokers)
	defer publisher.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg, "taskboard")

	gormRepo := repo.New(gdb)
	store := attachments.New(cfg.UploadDir)
	guard := &service.Guard{Repo: gormRepo}

	authSvc := &service.AuthService{
		Repo:      gormRepo,
		Tokens:    codec,
		Passwords: hash.Bcrypt{},
		Digests:   hash.SHA256{},
		Events:    publisher,
	}

	if cfg.SeedUsername != "" {
		seedCtx := logging.IntoContext(context.Background(), logger)
		created, err := authSvc.EnsureUser(seedCtx, cfg.SeedUsername, cfg.SeedPassword)
		if err != nil {
			log.Fatalf("seed user: %v", err)
		}
		if created {
			logger.Info("seed_user_created", "username", cfg.SeedUsername)
		}
	}

	e := httpserver.New(&httpserver.Deps{
		Logger:            logger,
		Metrics:           m,
		Gatherer:          reg,
		AuthHandler:       &httpserver.AuthHTTP{Svc: authSvc, Metrics: m},
		ProjectHandler:    &httpserver.ProjectHTTP{Svc: &service.ProjectService{Repo: gormRepo, Guard: guard, Events: publisher, Attachments: store}},
		TaskHandler:       &httpserver.TaskHTTP{Svc: &service.TaskService{Repo: gormRepo, Guard: guard, Events: publisher, Attachments: store}},
		AttachmentHandler: &httpserver.AttachmentHTTP{Guard: guard, Store: store, Events: publisher, MaxBytes: cfg.MaxUploadBytes},
		Auth:              auth.NewBearerAuth(codec),
		MaxUploadBytes:    cfg.MaxUploadBytes,
		Ready:             func(ctx context.Context) error { return db.Ping(ctx, gdb) },
	})
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 30 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	go func() {
		logger.Info("http_server_started", "addr", cfg.HTTPAddr)
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
