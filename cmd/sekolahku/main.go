package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/sekolahku/sekolahku/internal/app"
	"github.com/sekolahku/sekolahku/internal/attendance"
	"github.com/sekolahku/sekolahku/internal/auth"
	"github.com/sekolahku/sekolahku/internal/classes"
	"github.com/sekolahku/sekolahku/internal/gradebook"
	"github.com/sekolahku/sekolahku/internal/observability"
	"github.com/sekolahku/sekolahku/internal/platform/cache"
	"github.com/sekolahku/sekolahku/internal/platform/db"
	"github.com/sekolahku/sekolahku/internal/rbac"
	"github.com/sekolahku/sekolahku/internal/shared"
	"github.com/sekolahku/sekolahku/internal/students"
	"github.com/sekolahku/sekolahku/internal/timetable"
	"github.com/sekolahku/sekolahku/internal/users"
	"github.com/sekolahku/sekolahku/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	registry := rbac.NewRegistry()
	if err := registry.Validate(); err != nil {
		logger.Error("permission registry", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "sekolahku_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)

	rbacService := rbac.NewService(dbpool, registry, auditLogger, logger)
	identityStore := rbac.NewPGIdentityStore(dbpool)
	resolver := rbac.NewResolver(identityStore, registry, logger)
	rbacMiddleware := rbac.Middleware{Resolver: resolver, Registry: registry, Logger: logger}

	go func() {
		bootCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := rbacService.EnsureSuperAdminRole(bootCtx); err != nil {
			logger.Error("ensure super-admin role", slog.Any("error", err))
		}
	}()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, rbacMiddleware)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	rolesHandler := rbac.NewRolesHandler(logger, rbacService, rbacMiddleware)
	permissionsHandler := rbac.NewPermissionsHandler(rbacService, rbacMiddleware)

	classesRepo := classes.NewRepository(dbpool)
	classesService := classes.NewService(classesRepo)
	classesHandler := classes.NewHandler(logger, classesService, rbacMiddleware)

	studentsRepo := students.NewRepository(dbpool)
	studentsService := students.NewService(studentsRepo)
	studentsHandler := students.NewHandler(logger, studentsService, rbacMiddleware)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	statsCache := attendance.NewStatsCache(cfg.StatsCacheTTL)
	attendanceRepo := attendance.NewRepository(dbpool)
	attendanceService := attendance.NewService(attendanceRepo, statsCache, logger).
		WithSummaryQueue(func(ctx context.Context, date string) error {
			_, err := jobClient.EnqueueAttendanceSummary(ctx, date)
			return err
		})
	attendanceHandler := attendance.NewHandler(logger, attendanceService, rbacMiddleware)

	go func() {
		ticker := time.NewTicker(cfg.StatsCacheTTL)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				statsCache.Sweep()
			}
		}
	}()

	gradebookRepo := gradebook.NewRepository(dbpool)
	gradebookService := gradebook.NewService(gradebookRepo)
	gradebookHandler := gradebook.NewHandler(logger, gradebookService, rbacMiddleware)

	timetableRepo := timetable.NewRepository(dbpool)
	timetableService := timetable.NewService(timetableRepo)
	timetableHandler := timetable.NewHandler(logger, timetableService, rbacMiddleware)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		RolesHandler:       rolesHandler,
		PermissionsHandler: permissionsHandler,
		ClassesHandler:     classesHandler,
		StudentsHandler:    studentsHandler,
		AttendanceHandler:  attendanceHandler,
		GradebookHandler:   gradebookHandler,
		TimetableHandler:   timetableHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
