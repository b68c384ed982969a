package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/ward/internal/config"
	"github.com/ehr/ward/internal/domain/clinician"
	"github.com/ehr/ward/internal/domain/dashboard"
	"github.com/ehr/ward/internal/domain/evolution"
	"github.com/ehr/ward/internal/domain/lab"
	"github.com/ehr/ward/internal/domain/patient"
	"github.com/ehr/ward/internal/domain/prescription"
	"github.com/ehr/ward/internal/domain/scheduling"
	"github.com/ehr/ward/internal/domain/ward"
	"github.com/ehr/ward/internal/platform/assistant"
	"github.com/ehr/ward/internal/platform/auth"
	"github.com/ehr/ward/internal/platform/blobstore"
	"github.com/ehr/ward/internal/platform/cache"
	"github.com/ehr/ward/internal/platform/db"
	"github.com/ehr/ward/internal/platform/export"
	"github.com/ehr/ward/internal/platform/middleware"
	"github.com/ehr/ward/internal/platform/reporting"
	"github.com/ehr/ward/internal/platform/validate"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "ward-server",
		Short: "Ward clinical record API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(bedsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the ward API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withPool(func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool) error {
				count, err := db.NewMigrator(pool, dir).Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Printf("Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withPool(func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool) error {
				statuses, err := db.NewMigrator(pool, dir).Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				printStatus(cmd.OutOrStdout(), statuses)
				return nil
			})
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func printStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func bedsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "beds",
		Short: "Manage the bed pool",
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Create beds 1..count that do not exist yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				logger := newLogger(cfg.Env, os.Stderr)
				svc, err := buildServices(cfg, pool, nil, nil, logger)
				if err != nil {
					return err
				}
				n, err := svc.ward.Seed(ctx, count)
				if err != nil {
					return fmt.Errorf("seed failed: %w", err)
				}
				fmt.Printf("Created %d bed(s); pool is 1..%d.\n", n, count)
				return nil
			})
		},
	}
	seedCmd.Flags().Int("count", 10, "Number of beds in the ward")
	cmd.AddCommand(seedCmd)

	return cmd
}

// withPool loads config and opens a pool for a one-shot command.
func withPool(fn func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}

func newLogger(env string, out io.Writer) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

// services holds every domain service the server wires together.
type services struct {
	patients      *patient.Service
	evolutions    *evolution.Service
	labs          *lab.Service
	scheduling    *scheduling.Service
	ward          *ward.Service
	prescriptions *prescription.Service
	clinicians    *clinician.Service
	dashboard     *dashboard.Service
}

func buildServices(cfg *config.Config, pool *pgxpool.Pool, blobs blobstore.BlobStore, store cache.Store, logger zerolog.Logger) (*services, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if blobs == nil {
		blobs = blobstore.NewInMemoryBlobStore(cfg.AttachmentBaseURL)
	}

	s := &services{
		patients:   patient.NewService(patient.NewRepo(pool)),
		evolutions: evolution.NewService(evolution.NewRepo(pool)),
		labs:       lab.NewService(lab.NewRepo(pool), blobs),
		scheduling: scheduling.NewService(scheduling.NewAppointmentRepo(pool), loc),
		clinicians: clinician.NewService(clinician.NewRepo(pool)),
	}
	s.ward = ward.NewService(ward.NewBedRepo(pool), ward.NewHistoryRepo(pool), db.NewTransactor(pool),
		s.patients, s.evolutions, s.labs, logger)
	if store != nil {
		s.ward.SetCache(store, cfg.BedCacheTTL)
	}
	s.patients.SetBoard(s.ward)
	s.prescriptions = prescription.NewService(prescription.NewRepo(pool), s.patients, s.ward, s.clinicians)
	s.dashboard = dashboard.NewService(s.patients, s.ward, s.scheduling, s.evolutions, s.labs, s.prescriptions)
	return s, nil
}

// newCache returns the Redis store when REDIS_URL is set and an in-process
// store otherwise.
func newCache(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	if cfg.RedisURL == "" {
		return cache.NewMemoryStore(), nil
	}
	return cache.NewRedisStore(ctx, cfg.RedisURL, "ward:")
}

func newBlobStore(cfg *config.Config) (blobstore.BlobStore, error) {
	if cfg.AttachmentDir == "" {
		return blobstore.NewInMemoryBlobStore(cfg.AttachmentBaseURL), nil
	}
	return blobstore.NewDirBlobStore(cfg.AttachmentDir, cfg.AttachmentBaseURL)
}

// newAssistant returns an assistant that only serves fallbacks when no
// text-generation endpoint is configured.
func newAssistant(cfg *config.Config, logger zerolog.Logger) *assistant.Assistant {
	if !cfg.AssistantEnabled() {
		return assistant.New(nil, logger)
	}
	gen := assistant.NewGeminiClient(cfg.AssistantURL, cfg.AssistantAPIKey, cfg.AssistantModel, cfg.AssistantTimeout)
	return assistant.New(gen, logger)
}

func authMiddleware(cfg *config.Config) echo.MiddlewareFunc {
	if cfg.IsDev() && cfg.AuthSigningKey == "" {
		return auth.DevAuthMiddleware()
	}
	return auth.JWTMiddleware(auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		SigningKey: []byte(cfg.AuthSigningKey),
		Skipper:    auth.AuthSkipper,
	})
}

func rateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rl.RequestsPerSecond = cfg.RateLimitRPS
	}
	if cfg.RateLimitBurst > 0 {
		rl.BurstSize = cfg.RateLimitBurst
	}
	return rl
}

// newServer builds the echo instance with global middleware and the health
// check. API routes hang off the returned group.
func newServer(cfg *config.Config, logger zerolog.Logger) (*echo.Echo, *echo.Group) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.Sanitize(logger))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(authMiddleware(cfg))
	e.Use(middleware.RateLimit(rateLimitConfig(cfg)))

	// Public paths are listed in auth.AuthSkipper.
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})

	apiV1 := e.Group("/api/v1", middleware.Audit(logger))
	return e, apiV1
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Env, os.Stdout)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	store, err := newCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	blobs, err := newBlobStore(cfg)
	if err != nil {
		return fmt.Errorf("open attachment store: %w", err)
	}

	svc, err := buildServices(cfg, pool, blobs, store, logger)
	if err != nil {
		return err
	}
	asst := newAssistant(cfg, logger)
	if !cfg.AssistantEnabled() {
		logger.Warn().Msg("text generation not configured; assistant serves fallbacks")
	}

	e, apiV1 := newServer(cfg, logger)
	e.GET("/health/db", db.HealthHandler(pool))

	patient.NewHandler(svc.patients, asst).RegisterRoutes(apiV1)
	evolution.NewHandler(svc.evolutions, asst).RegisterRoutes(apiV1)
	lab.NewHandler(svc.labs, asst).RegisterRoutes(apiV1)
	scheduling.NewHandler(svc.scheduling).RegisterRoutes(apiV1)
	ward.NewHandler(svc.ward).RegisterRoutes(apiV1)
	prescription.NewHandler(svc.prescriptions).RegisterRoutes(apiV1)
	clinician.NewHandler(svc.clinicians).RegisterRoutes(apiV1)
	dashboard.NewHandler(svc.dashboard).RegisterRoutes(apiV1)
	reporting.NewHandler(pool).RegisterRoutes(apiV1)
	export.NewHandler(svc.labs, svc.ward).RegisterRoutes(apiV1)
	blobstore.NewBlobHandler(blobs).RegisterRoutes(apiV1.Group("", auth.RequireRole(auth.RoleClinician)))

	addr := ":" + cfg.Port
	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
