package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"inventory-service/internal/api"
	"inventory-service/internal/auth"
	"inventory-service/internal/config"
	"inventory-service/internal/inventory"
	"inventory-service/internal/logger"
	"inventory-service/internal/storage"
	"inventory-service/internal/store"
)

const (
	defaultAppName  = "InventoryService"
	shutdownTimeout = 30 * time.Second
)

// backend is what the service needs from a persistence implementation.
type backend interface {
	store.CategoryStorer
	store.ProductStorer
	store.UserStorer
	Migrate(ctx context.Context) error
	PingContext(ctx context.Context) error
	Close() error
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found or failed to load, relying on system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Error loading configuration: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("FATAL: Error creating logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)
	zl = zl.With(zap.String("service", defaultAppName))
	zl.Info("configuration loaded",
		zap.String("app_env", cfg.AppEnv),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("storage_backend", cfg.Storage.Backend))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		os.Exit(failed(zl, stop, err))
	}
	zl.Info("service shutdown sequence finished")
}

// failed logs err and releases what deferred calls would have released, since
// os.Exit skips them. It returns the process exit code.
func failed(zl *zap.Logger, stop context.CancelFunc, err error) int {
	zl.Error("service stopped with error", zap.Error(err))
	stop()
	_ = zl.Sync()
	return 1
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	db, err := openBackend(ctx, cfg.Database, zl)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			zl.Warn("error closing database", zap.Error(err))
		}
	}()

	bucket, closeBucket, err := openBucket(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeBucket(); err != nil {
			zl.Warn("error closing bucket", zap.Error(err))
		}
	}()

	products := inventory.NewService(db, db, bucket, storage.SortBy(cfg.Storage.ListSort), zl)
	accounts := auth.NewService(db, auth.NewMailer(cfg.Mail, zl), auth.Options{
		ResetSecret:  cfg.Auth.ResetTokenSecret,
		ResetTTL:     cfg.Auth.ResetTokenTTL,
		PublicOrigin: cfg.Auth.PublicOrigin,
	}, zl)
	sessions := auth.NewSessions(cfg.Auth.SessionSecret, cfg.IsProduction())

	// --- HTTP ---
	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter, zl)
	registerHealthCheck(httpRouter, zl, db)
	api.NewHTTPHandler(products, accounts, sessions, zl, cfg.HttpServer.MaxUploadBytes).RegisterRoutes(httpRouter)
	if local, ok := bucket.(*storage.LocalBucket); ok {
		api.MountBucket(httpRouter, local.Name(), local.Root())
		zl.Info("serving local bucket", zap.String("bucket", local.Name()), zap.String("dir", local.Root()))
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	// --- gRPC ---
	if cfg.GrpcServer.AuthToken == "" {
		zl.Warn("GRPC_AUTH_TOKEN is empty, every inventory gRPC call will be rejected")
	}
	grpcServer := setupGRPCServer(zl, api.NewGRPCHandler(products, zl), cfg.GrpcServer.AuthToken)
	grpcListener, err := net.Listen("tcp", cfg.GrpcServer.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC on %s: %w", cfg.GrpcServer.Addr(), err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zl.Info("HTTP server listening", zap.String("port", cfg.HttpServer.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		zl.Info("HTTP server has stopped")
		return nil
	})
	g.Go(func() error {
		zl.Info("gRPC server listening", zap.String("addr", cfg.GrpcServer.Addr()))
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("gRPC server: %w", err)
		}
		zl.Info("gRPC server has stopped")
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zl.Info("starting graceful shutdown")
		shutdown(zl, httpServer, grpcServer)
		return nil
	})
	return g.Wait()
}

func openBackend(ctx context.Context, cfg config.DatabaseConfig, zl *zap.Logger) (backend, error) {
	var db backend
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		gdb, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		db = store.NewGormStore(gdb)
	default:
		sqlDB, err := sql.Open("postgres", cfg.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database connection: %w", err)
		}
		db = store.NewPostgresStore(sqlDB)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		zl.Info("database schema applied")
	}
	zl.Info("database connection established", zap.String("driver", cfg.Driver))
	return db, nil
}

func openBucket(cfg config.StorageConfig) (storage.Bucket, func() error, error) {
	switch strings.ToLower(cfg.Backend) {
	case "sftp":
		bucket, err := storage.DialSFTP(cfg.SFTP, cfg.Bucket, cfg.PublicBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return bucket, bucket.Close, nil
	default:
		bucket, err := storage.NewLocalBucket(cfg.LocalDir, cfg.Bucket, cfg.PublicBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return bucket, func() error { return nil }, nil
	}
}

func setupBaseMiddleware(router *chi.Mux, zl *zap.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(zl.Named("access")))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
}

// requestLogger logs one line per request.
func requestLogger(zl *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				zl.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func registerHealthCheck(router *chi.Mux, zl *zap.Logger, db backend) {
	healthPath := "/api/v1/healthz"
	router.Get(healthPath, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		dbStatus := "healthy"
		if err := db.PingContext(ctx); err != nil {
			dbStatus = "unhealthy"
			zl.Warn("health check DB ping failed", zap.Error(err))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK) // Always 200, but payload indicates detailed status
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "healthy",
			"serviceName": defaultAppName,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"database":    dbStatus,
		})
	})
}

func setupGRPCServer(zl *zap.Logger, handler *api.GRPCHandler, authToken string) *grpc.Server {
	s := grpc.NewServer(grpc.UnaryInterceptor(api.TokenAuthInterceptor(authToken)))

	api.RegisterInventoryServiceServer(s, handler)
	grpc_health_v1.RegisterHealthServer(s, health.NewServer())
	reflection.Register(s)
	zl.Info("gRPC services registered", zap.Strings("services", []string{
		api.InventoryServiceDesc.ServiceName, "grpc.health.v1.Health", "reflection",
	}))
	return s
}

func shutdown(zl *zap.Logger, httpServer *http.Server, grpcServer *grpc.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	stoppedGrpc := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	if err := httpServer.Shutdown(ctx); err != nil {
		zl.Warn("HTTP server graceful shutdown failed", zap.Error(err))
	}

	select {
	case <-stoppedGrpc:
	case <-ctx.Done():
		zl.Warn("gRPC server graceful shutdown timed out, forcing stop", zap.Error(ctx.Err()))
		grpcServer.Stop()
	}
}
