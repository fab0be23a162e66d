// cmd/stayease/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stayease/internal/api"
	"stayease/internal/app"
	"stayease/internal/booking"
	"stayease/internal/catalog"
	awsutil "stayease/internal/common/aws"
	"stayease/internal/common/camunda"
	"stayease/internal/common/config"
	"stayease/internal/common/database"
	"stayease/internal/common/logger"
	"stayease/internal/common/observability"
	"stayease/internal/events"
	"stayease/internal/filter"
	"stayease/internal/kvstore"
	"stayease/internal/search"
	notifybooking "stayease/internal/workers/booking/notify-booking"
	"stayease/pkg/catalogfile"

	"go.uber.org/zap"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	if err := run(cfg, log); err != nil {
		zapLog.Fatal("stayease stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx := context.Background()
	log.Info("starting stayease", map[string]interface{}{"environment": cfg.App.Environment})

	obs, err := observability.New(observability.Options{
		ServiceName:    cfg.Observability.ServiceName,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
	})
	if err != nil {
		log.Warn("observability partially disabled", map[string]interface{}{"error": err.Error()})
	}

	// --- Persisted values ---
	var store kvstore.Store
	var closeStore func() error
	err = retryWithBackoff(func() error {
		var err error
		store, closeStore, err = kvstore.Open(ctx, cfg, log)
		return err
	}, 10, 2*time.Second, log, "store connection")
	if err != nil {
		return err
	}
	defer closeStore()

	ready := map[string]kvstore.Pinger{}
	if p, ok := store.(kvstore.Pinger); ok {
		ready["store"] = p
	}

	// --- Catalog ---
	cat, err := loadCatalog(cfg, log)
	if err != nil {
		return err
	}

	deps := app.Deps{
		Catalog:       cat,
		Store:         store,
		Observability: obs,
	}

	// --- Search mirror ---
	if cfg.Search.Backend == config.SearchBackendElasticsearch {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			return err
		}
		ready["elasticsearch"] = es

		sc := search.New(es.Client, cfg.Search.Index, log)
		if cfg.Search.IndexOnStart {
			if err := indexCatalog(ctx, sc, cat); err != nil {
				return err
			}
		}
		deps.Searcher = timeoutSearcher{Client: sc, timeout: config.GetDuration(cfg.Search.Timeout)}
	}

	// --- Booking confirmation process ---
	var notifyWorker *camunda.Worker
	if cfg.Camunda.Enabled {
		var zc *camunda.Client
		err = retryWithBackoff(func() error {
			var err error
			zc, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      10 * time.Second,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, log, "Zeebe client initialization")
		if err != nil {
			return err
		}
		defer zc.Close()
		log.Info("Zeebe client connected", map[string]interface{}{"gateway": cfg.Camunda.BrokerAddress})

		deps.Submitter = booking.NewProcessSubmitter(zc, cfg.Camunda.BookingProcessID, log)

		if config.IsWorkerEnabled(cfg, notifybooking.TaskType) {
			handler, err := newNotifyHandler(ctx, cfg, log)
			if err != nil {
				return err
			}
			notifyWorker = camunda.StartWorker(zc.GetClient(), notifybooking.TaskType,
				config.GetWorkerConfig(cfg, notifybooking.TaskType), handler.Handle, log)
		}
	}

	// --- Booking events ---
	if cfg.Events.Enabled {
		var pub *events.Publisher
		err = retryWithBackoff(func() error {
			var err error
			pub, err = events.Dial(cfg.Events, log)
			return err
		}, 10, 2*time.Second, log, "RabbitMQ connection")
		if err != nil {
			return err
		}
		defer pub.Close()
		ready["rabbitmq"] = pub
		log.Info("booking events enabled", map[string]interface{}{
			"exchange":   cfg.Events.Exchange,
			"routingKey": cfg.Events.RoutingKey,
		})

		next := deps.Submitter
		if next == nil {
			next = booking.NewSimulatedSubmitter(log)
		}
		deps.Submitter = events.NewSubmitter(next, pub, log)
	}

	// --- Application ---
	ctrl, err := app.New(ctx, cfg, deps, log)
	if err != nil {
		return err
	}

	router := api.NewRouter(cfg, api.RouterDeps{
		Controller:    ctrl,
		Observability: obs,
		Ready:         ready,
	}, log)

	srv := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.HTTP.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.HTTP.WriteTimeout),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", map[string]interface{}{"address": cfg.HTTP.Address})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("shutting down", map[string]interface{}{"signal": sig.String()})
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	notifyWorker.Stop()
	if err := ctrl.Shutdown(shutdownCtx); err != nil {
		log.Warn("pending tasks did not finish", map[string]interface{}{"error": err.Error()})
	}
	if obs != nil {
		if err := obs.Shutdown(shutdownCtx); err != nil {
			log.Warn("observability shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}

	log.Info("stayease stopped", nil)
	return nil
}

func loadCatalog(cfg *config.Config, log logger.Logger) (*catalog.Catalog, error) {
	if cfg.Catalog.SeedPath == "" {
		c := catalog.Generate()
		log.Info("using generated catalog", map[string]interface{}{"listings": c.Len()})
		return c, nil
	}
	c, err := catalogfile.LoadCatalog(cfg.Catalog.SeedPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog seed %s: %w", cfg.Catalog.SeedPath, err)
	}
	log.Info("loaded catalog seed", map[string]interface{}{"path": cfg.Catalog.SeedPath, "listings": c.Len()})
	return c, nil
}

func indexCatalog(ctx context.Context, sc *search.Client, cat *catalog.Catalog) error {
	if err := sc.EnsureIndex(ctx); err != nil {
		return err
	}
	return sc.IndexCatalog(ctx, cat.All())
}

// timeoutSearcher bounds every query by search.timeout.
type timeoutSearcher struct {
	*search.Client
	timeout time.Duration
}

func (s timeoutSearcher) Search(ctx context.Context, c filter.Criteria) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.Client.Search(ctx, c)
}

func newNotifyHandler(ctx context.Context, cfg *config.Config, log logger.Logger) (*notifybooking.Handler, error) {
	wcfg := notifybooking.LoadConfig(cfg.Notifications, config.GetWorkerConfig(cfg, notifybooking.TaskType))

	var sesSvc notifybooking.SESService
	var snsSvc notifybooking.SNSService
	if wcfg.EmailEnabled {
		c, err := awsutil.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		sesSvc = c
	}
	if wcfg.SMSEnabled {
		c, err := awsutil.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		snsSvc = c
	}
	return notifybooking.NewHandler(wcfg, sesSvc, snsSvc, log), nil
}
