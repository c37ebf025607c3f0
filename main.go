package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	appcheckout "github.com/edge-gallery/storefront/internal/application/checkout"
	artdomain "github.com/edge-gallery/storefront/internal/domain/artwork"
	checkoutdomain "github.com/edge-gallery/storefront/internal/domain/checkout"
	orderdomain "github.com/edge-gallery/storefront/internal/domain/order"
	domoutbox "github.com/edge-gallery/storefront/internal/domain/outbox"
	"github.com/edge-gallery/storefront/internal/infrastructure/event"
	"github.com/edge-gallery/storefront/internal/infrastructure/httptransport"
	"github.com/edge-gallery/storefront/internal/infrastructure/memory"
	infraobs "github.com/edge-gallery/storefront/internal/infrastructure/observability"
	"github.com/edge-gallery/storefront/internal/infrastructure/observability/oteltrace"
	"github.com/edge-gallery/storefront/internal/infrastructure/observability/prometrics"
	"github.com/edge-gallery/storefront/internal/infrastructure/observability/zaplogger"
	"github.com/edge-gallery/storefront/internal/infrastructure/postgres"
	"github.com/edge-gallery/storefront/internal/infrastructure/redisdedup"
	"github.com/edge-gallery/storefront/internal/infrastructure/smtpmail"
	"github.com/edge-gallery/storefront/internal/infrastructure/stripeclient"
	"github.com/edge-gallery/storefront/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	serviceName := getenvDefault("SERVICE_NAME", "storefront")
	env := getenvDefault("ENV", "dev")

	baseLogger := zaplogger.New(
		observability.F("service", serviceName),
		observability.F("env", env),
	)
	if s, ok := baseLogger.(interface{ Sync() error }); ok {
		defer func() { _ = s.Sync() }()
	}

	metrics := prometrics.New("", "")
	tel := infraobs.New(
		oteltrace.New(serviceName),
		baseLogger,
		map[observability.MetricKey]observability.Counter{
			observability.MUsecaseRequests:  metrics.Counter(observability.MUsecaseRequests, "Total number of use case invocations.", "use_case", "outcome"),
			observability.MHTTPRequests:     metrics.Counter(observability.MHTTPRequests, "Total number of HTTP requests.", "method", "route", "status"),
			observability.MExternalRequests: metrics.Counter(observability.MExternalRequests, "Total number of outbound provider calls.", "peer", "endpoint", "outcome"),
			observability.MStockShortfalls:  metrics.Counter(observability.MStockShortfalls, "Count of stock decrements that clamped at zero.", "outcome"),
			observability.MFulfillments:     metrics.Counter(observability.MFulfillments, "Count of fulfilled checkout sessions.", "guest"),
		},
		map[observability.MetricKey]observability.Histogram{
			observability.MUsecaseDuration:         metrics.Histogram(observability.MUsecaseDuration, "Duration of use case execution in seconds.", prometheus.DefBuckets, "use_case"),
			observability.MHTTPRequestDuration:     metrics.Histogram(observability.MHTTPRequestDuration, "Duration of HTTP requests in seconds.", prometheus.DefBuckets, "method", "route", "status"),
			observability.MExternalRequestDuration: metrics.Histogram(observability.MExternalRequestDuration, "Duration of outbound provider calls in seconds.", prometheus.DefBuckets, "peer", "endpoint"),
		},
	)
	systemLogger := tel.Logger().With(observability.F("component", "main"))

	artworks, orders, processed, cleanups := buildStores(systemLogger)
	defer func() {
		for _, fn := range cleanups {
			fn()
		}
	}()

	provider := stripeclient.New(os.Getenv("STRIPE_SECRET_KEY"), os.Getenv("STRIPE_WEBHOOK_SECRET"))

	mailer := smtpmail.New(smtpmail.Config{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     getenvInt("SMTP_PORT", 587),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
		Enabled:  os.Getenv("SMTP_ENABLED") == "true",
	})

	bus := event.NewBus(tel.Logger())
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	fulfillments := tel.Metrics().Counter(observability.MFulfillments)
	bus.Subscribe("checkout.fulfilled", func(ctx context.Context, e domoutbox.Event) error {
		fe, ok := e.(checkoutdomain.FulfilledEvent)
		if !ok {
			return nil
		}
		fulfillments.Add(1, observability.L("guest", strconv.FormatBool(fe.Guest)))
		systemLogger.Info("checkout_fulfilled",
			observability.F("session_id", fe.SessionID),
			observability.F("artwork_ids", fe.ArtworkIDs),
			observability.F("amount_cents", fe.AmountCents),
			observability.F("guest", fe.Guest),
		)
		return nil
	})

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		forwarder := event.NewKafkaForwarder(
			strings.Split(brokers, ","),
			getenvDefault("KAFKA_TOPIC", "storefront.checkout.fulfilled"),
			tel.Logger(),
		)
		defer forwarder.Close()
		bus.Subscribe("checkout.fulfilled", forwarder.Handle)
	}

	checkoutService := appcheckout.NewService(appcheckout.Config{
		Provider:      provider,
		Verifier:      provider,
		Artworks:      artworks,
		Orders:        orders,
		Notifier:      mailer,
		Processed:     processed,
		Publisher:     bus,
		ClientURL:     getenvDefault("CLIENT_URL", "http://localhost:3000"),
		Observability: tel,
	})

	handler := httptransport.NewHandler(checkoutService, artworks, orders, tel)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    getenvDefault("ADDR", ":8080"),
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		systemLogger.Info("http_server_start",
			observability.F("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				observability.F("error", err.Error()),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			observability.F("error", err.Error()),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}
}

// buildStores wires postgres-backed repositories when PG_HOST is set and
// falls back to in-memory stores otherwise. The dedup store follows the same
// pattern keyed on REDIS_ADDR.
func buildStores(logger observability.Logger) (artdomain.Repository, orderdomain.Repository, appcheckout.ProcessedEventStore, []func()) {
	var cleanups []func()
	var artworks artdomain.Repository
	var orders orderdomain.Repository

	if pgHost := os.Getenv("PG_HOST"); pgHost != "" {
		db, err := postgres.Connect(&postgres.Credentials{
			Host:     pgHost,
			Port:     getenvInt("PG_PORT", 5432),
			User:     getenvDefault("PG_USER", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			DBName:   getenvDefault("PG_DBNAME", "storefront"),
		})
		if err != nil {
			logger.Error("postgres_connect_failed", observability.F("error", err.Error()))
			os.Exit(1)
		}
		migrationsDir := getenvDefault("MIGRATIONS_DIR", "internal/infrastructure/postgres/migrations")
		if merr := postgres.RunMigrations(db, migrationsDir); merr != nil {
			logger.Error("postgres_migrations_failed", observability.F("error", merr.Error()))
			os.Exit(1)
		}
		cleanups = append(cleanups, func() { _ = db.Close() })
		artworks = postgres.NewArtworkRepository(db)
		orders = postgres.NewOrderRepository(db)
		logger.Info("postgres_storage_ready", observability.F("host", pgHost))
	} else {
		memArtworks := memory.NewArtworkRepository()
		seedArtworks(memArtworks, logger)
		artworks = memArtworks
		orders = memory.NewOrderRepository()
		logger.Info("memory_storage_ready")
	}

	var processed appcheckout.ProcessedEventStore
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		cleanups = append(cleanups, func() { _ = client.Close() })
		processed = redisdedup.New(client)
		logger.Info("redis_dedup_ready", observability.F("addr", addr))
	} else {
		processed = memory.NewProcessedEventStore()
	}

	return artworks, orders, processed, cleanups
}

// seedArtworks loads a small demo catalogue so the memory-backed setup is
// usable out of the box.
func seedArtworks(repo *memory.ArtworkRepository, logger observability.Logger) {
	seeds := []struct {
		id       int64
		name     string
		price    float64
		quantity int
	}{
		{1, "Tidal Study", 120.00, 3},
		{2, "Blue Interval", 80.00, 1},
		{3, "Quiet Harbour", 210.50, 2},
	}
	ctx := context.Background()
	for _, s := range seeds {
		a, err := artdomain.New(s.id, s.name, s.price, s.quantity)
		if err != nil {
			logger.Warn("seed_artwork_skipped", observability.F("id", s.id), observability.F("error", err.Error()))
			continue
		}
		_ = repo.Put(ctx, a)
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
