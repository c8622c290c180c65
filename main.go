package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nup_registration/config"
	"nup_registration/handlers"
	"nup_registration/services"
	"nup_registration/utils"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.JWTSecretKey == "" {
		cfg.JWTSecretKey = "change-me-nup-session-secret"
		log.Warn("JWT_SECRET_KEY not set, using default session secret. Set it in production.")
	}

	attachments := services.NewAttachmentStore(cfg.UploadDir)
	store, closeStore := newSessionStore(ctx, cfg, attachments)
	defer closeStore()
	go sweepAttachments(ctx, attachments, store, cfg.AttachmentSweepInterval)

	receipts, err := newReceiptSink(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create receipt store: %v", err)
	}

	transport, closeTransport := newTransport(cfg)
	defer closeTransport()

	var notifier services.Notifier
	if cfg.DiscordWebhookID != "" && cfg.DiscordWebhookToken != "" {
		discord, err := services.NewDiscordNotifier(cfg.DiscordWebhookID, cfg.DiscordWebhookToken)
		if err != nil {
			log.Fatalf("Failed to create Discord notifier: %v", err)
		}
		notifier = discord
	}

	submissions := services.NewSubmissionService(
		services.NewFormValidator(),
		services.NewAttachmentEncoder(attachments),
		services.SubmissionConfig{
			Transport: transport,
			Receipts:  receipts,
			Notifier:  notifier,
		},
	)
	tokens := services.NewJWTService(cfg.JWTSecretKey, cfg.SessionTTL)

	nupHandler := handlers.NewNUPHandler(
		store,
		services.NewIdentifierGenerator(cfg.Location()),
		services.NewFormService(),
		attachments,
		submissions,
		tokens,
		receipts,
	)

	e := newServer(nupHandler, tokens)

	go func() {
		log.Infof("NUP registration service listening on :%s", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.DeliveryTimeout+5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}

func newServer(nupHandler *handlers.NUPHandler, tokens *services.JWTService) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = utils.NewValidator()
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("100M"))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(log.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
			} else {
				entry.Info("request")
			}
			return nil
		},
	}))

	handlers.RegisterRoutes(e, nupHandler, tokens)

	return e
}

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func newSessionStore(ctx context.Context, cfg *config.Config, attachments *services.AttachmentStore) (services.SessionStore, func()) {
	if cfg.RedisURL != "" {
		store, err := services.NewRedisSessionStore(ctx, cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		log.Info("Using Redis session store")
		return store, func() { store.Close() }
	}

	store := services.NewMemorySessionStore(cfg.SessionTTL)
	store.OnExpire(func(sessionID string) {
		if err := attachments.Remove(sessionID); err != nil {
			log.WithError(err).WithField("session", sessionID).Warn("Failed to remove attachments of expired session")
		}
	})
	return store, store.Close
}

// sweepAttachments periodically drops the uploads of sessions that no longer
// exist. Redis expires sessions without telling us, so this is the only
// cleanup there.
func sweepAttachments(ctx context.Context, attachments *services.AttachmentStore, store services.SessionStore, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := attachments.Sweep(ctx, store)
			if err != nil {
				log.WithError(err).Warn("Attachment sweep failed")
				continue
			}
			if removed > 0 {
				log.WithField("sessions", removed).Info("Removed attachments of expired sessions")
			}
		}
	}
}

func newReceiptSink(ctx context.Context, cfg *config.Config) (services.ReceiptSink, error) {
	switch cfg.ReceiptBackend {
	case "oss":
		return services.NewOSSService(cfg.OSSEndpoint, cfg.OSSAccessKeyID, cfg.OSSAccessKeySecret, cfg.OSSBucketName)
	case "minio":
		return services.NewMinioService(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	default:
		return services.NewLocalReceiptStore(cfg.ReceiptDir)
	}
}

// newTransport builds the three delivery strategies against the configured
// web app. It returns a nil transport when the endpoint is still the placeholder.
func newTransport(cfg *config.Config) (services.Transport, func()) {
	if !cfg.EndpointConfigured() {
		log.Warn("SHEETS_WEBAPP_URL not set, submissions will not be sent to Google Sheets")
		return nil, func() {}
	}

	client := services.NewWebAppClient(cfg.DeliveryTimeout)
	blind := &services.BlindTransport{Endpoint: cfg.SheetsWebAppURL, Client: client}

	var beacon services.Beacon
	closeBeacon := func() {}
	if cfg.NATSUrl != "" {
		natsService, err := services.NewNATSService(cfg.NATSUrl, cfg.BeaconSubject)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		beacon, closeBeacon = natsService, natsService.Close
	} else {
		queue := services.NewQueueBeacon(blind, cfg.BeaconQueueSize, cfg.DeliveryTimeout)
		beacon, closeBeacon = queue, queue.Close
	}

	return &services.EscalatingTransport{
		Readable: &services.ReadableTransport{Endpoint: cfg.SheetsWebAppURL, Client: client},
		Blind:    blind,
		Beacon:   &services.BeaconTransport{Beacon: beacon},
	}, closeBeacon
}
