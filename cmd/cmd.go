package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rxtrack-backend/internal/config"
	"rxtrack-backend/internal/handlers"
	"rxtrack-backend/internal/repository"
	"rxtrack-backend/internal/services"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	if cfg.Auth.UsesDefaultJWTSecret() {
		log.Warn().Msg("auth.jwt_secret is the built-in default; set a real secret before exposing the server")
	}

	// Initialize repositories
	prescriptionRepo := repository.NewPrescriptionRepository()
	notificationRepo := repository.NewNotificationRepository()
	pharmacyRepo := repository.NewPharmacyRepository(cfg.Pharmacies)
	deviceRepo := repository.NewDeviceRepository()

	// Initialize services
	submitter, err := newSubmitter(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create submitter")
	}

	wsHub := services.NewWSHub()
	sinks := services.MultiSink{wsHub}
	var pushSink *services.AsyncSink
	if cfg.APNs.Enabled {
		pusher, err := services.NewAPNsPusher(
			cfg.APNs.CertificatePath,
			cfg.APNs.Password,
			cfg.APNs.Topic,
			cfg.APNs.Production,
			deviceRepo,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create APNs pusher")
		}
		// Apple round-trips stay off the request path
		pushSink = services.NewAsyncSink(pusher)
		sinks = append(sinks, pushSink)
		log.Info().Str("topic", cfg.APNs.Topic).Bool("production", cfg.APNs.Production).Msg("APNs push enabled")
	}

	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	prescriptionService := services.NewPrescriptionService(
		prescriptionRepo,
		notificationRepo,
		pharmacyRepo,
		submitter,
		services.WithNotificationSink(sinks),
		services.WithDeliveryLead(cfg.Delivery.LeadTime),
	)

	// Setup router
	router := handlers.NewRouter(handlers.RouterDeps{
		AuthService:         authService,
		PrescriptionService: prescriptionService,
		Hub:                 wsHub,
		Devices:             deviceRepo,
		IntegrationKey:      cfg.Integration.APIKey,
		AllowedOrigins:      cfg.Server.AllowedOrigins,
		MaxImageSize:        cfg.Submission.MaxImageSize,
		SubmitTimeout:       cfg.Submission.Timeout,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Str("submission", cfg.Submission.Backend).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are not closed by Shutdown
	wsHub.Close()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if pushSink != nil {
		pushSink.Wait()
	}

	log.Info().Msg("Server exited")
}

// newSubmitter picks the submission backend from config
func newSubmitter(cfg *config.Config) (services.Submitter, error) {
	switch cfg.Submission.Backend {
	case config.SubmissionS3:
		return services.NewS3Submitter(
			context.Background(),
			cfg.AWS.Region,
			cfg.AWS.S3Bucket,
			cfg.AWS.AccessKey,
			cfg.AWS.SecretKey,
			cfg.AWS.Endpoint,
		)
	default:
		return services.NewDelaySubmitter(cfg.Submission.Delay), nil
	}
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
