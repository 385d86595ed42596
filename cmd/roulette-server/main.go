// cmd/roulette-server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	"lunch-roulette/internal/api"
	"lunch-roulette/internal/common/camunda"
	"lunch-roulette/internal/common/config"
	"lunch-roulette/internal/common/database"
	"lunch-roulette/internal/common/logger"
	"lunch-roulette/internal/common/observability"
	"lunch-roulette/internal/providers/google"
	"lunch-roulette/internal/providers/kakao"
	"lunch-roulette/internal/recommendation"
	"lunch-roulette/pkg/registry"

	epd "lunch-roulette/internal/workers/recommendation/enrich-place-details"
	prw "lunch-roulette/internal/workers/recommendation/prepare-roulette-wheel"
	snp "lunch-roulette/internal/workers/recommendation/search-nearby-places"
	sdp "lunch-roulette/internal/workers/recommendation/select-direct-place"
	sr "lunch-roulette/internal/workers/recommendation/spin-roulette"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "console", "")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	log.Info("starting lunch roulette", map[string]interface{}{
		"environment": cfg.App.Environment,
		"address":     cfg.Server.Address,
		"store":       cfg.Session.Store,
	})

	obs := observability.New(cfg.App.Name, cfg.Tracing.JaegerEndpoint)
	defer obs.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Session store ---
	var store recommendation.Store
	ttl := config.GetDuration(cfg.Session.TTL)
	switch cfg.Session.Store {
	case "redis":
		rdb := database.NewRedis(cfg.Redis)
		defer rdb.Close()
		if err := rdb.Ping(ctx); err != nil {
			zapLog.Fatal("redis unavailable", zap.Error(err))
		}
		store = recommendation.NewRedisStore(rdb.Client, ttl)
		log.Info("redis session store connected", map[string]interface{}{"address": cfg.Redis.Address})
	default:
		store = recommendation.NewMemoryStore(ttl)
	}

	// --- Upstream providers ---
	kakaoClient := kakao.NewClient(kakao.ConfigFrom(cfg.APIs.Kakao), log)
	breakers := map[string]api.BreakerStater{"kakao": kakaoClient}

	selector := recommendation.NewSelector(nil)
	opts := recommendation.ServiceOptions{
		Searcher:      kakaoClient,
		Store:         store,
		Aggregator:    recommendation.NewAggregator(cfg.Recommendation.DefaultCategory, cfg.Recommendation.MaxConcurrentSearches),
		Selector:      selector,
		DefaultRadius: cfg.Recommendation.DefaultRadius,
		Logger:        log,
		Observability: obs,
	}
	if cfg.APIs.Google.APIKey != "" {
		googleClient := google.NewClient(google.ConfigFrom(cfg.APIs.Google), log)
		opts.Enricher = googleClient
		breakers["google"] = googleClient
	} else {
		log.Warn("google api key not set, place details disabled", nil)
	}

	svc, err := recommendation.NewService(opts)
	if err != nil {
		zapLog.Fatal("recommendation service setup failed", zap.Error(err))
	}

	// --- Job workers ---
	var zeebe *camunda.Client
	var jobWorkers []worker.JobWorker
	if cfg.Camunda.Enabled {
		zeebe, jobWorkers, err = startWorkers(ctx, cfg, svc, selector, log, obs)
		if err != nil {
			zapLog.Fatal("job workers failed to start", zap.Error(err))
		}
	}

	// --- HTTP API ---
	handler := api.NewHandler(svc, api.CatalogFromConfig(cfg), breakers, log)
	server := &http.Server{
		Addr: cfg.Server.Address,
		Handler: api.NewRouter(handler, api.MiddlewareConfig{
			CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
			RateLimitRequests:  cfg.Server.RateLimitRequests,
			RateLimitWindow:    config.GetDuration(cfg.Server.RateLimitWindow),
		}),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		log.Info("http server listening", map[string]interface{}{"address": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", map[string]interface{}{"error": err})
			stop()
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	log.Info("shutdown signal received", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", map[string]interface{}{"error": err})
	}
	for _, jw := range jobWorkers {
		jw.Close()
		jw.AwaitClose()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			log.Error("error closing zeebe client", map[string]interface{}{"error": err})
		}
	}

	log.Info("lunch roulette stopped", nil)
}

// startWorkers connects to the broker and opens one job worker per
// recommendation activity enabled in config.
func startWorkers(ctx context.Context, cfg *config.Config, svc *recommendation.Service, selector *recommendation.Selector, log logger.Logger, obs *observability.Observability) (*camunda.Client, []worker.JobWorker, error) {
	reg, err := registry.Default()
	if err != nil {
		return nil, nil, err
	}

	client, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	}, log)
	if err != nil {
		return nil, nil, err
	}
	log.Info("zeebe client connected", map[string]interface{}{"broker": cfg.Camunda.BrokerAddress})

	zb := client.GetClient()
	var started []worker.JobWorker
	open := func(taskType string, handler worker.JobHandler) {
		if jw := camunda.StartWorker(zb, taskType, config.GetWorkerConfig(cfg, taskType), handler, log); jw != nil {
			started = append(started, jw)
		}
	}

	wc := config.GetWorkerConfig(cfg, snp.TaskType)
	open(snp.TaskType, snp.NewHandler(snp.LoadConfig(wc), svc, reg, log, obs).Handle)

	wc = config.GetWorkerConfig(cfg, sdp.TaskType)
	open(sdp.TaskType, sdp.NewHandler(sdp.LoadConfig(wc), selector, reg, log, obs).Handle)

	wc = config.GetWorkerConfig(cfg, prw.TaskType)
	open(prw.TaskType, prw.NewHandler(prw.LoadConfig(wc), selector, reg, log, obs).Handle)

	wc = config.GetWorkerConfig(cfg, sr.TaskType)
	open(sr.TaskType, sr.NewHandler(sr.LoadConfig(wc), selector, reg, log, obs).Handle)

	wc = config.GetWorkerConfig(cfg, epd.TaskType)
	open(epd.TaskType, epd.NewHandler(epd.LoadConfig(wc), svc, reg, log, obs).Handle)

	log.Info("job workers registered", map[string]interface{}{"count": len(started)})
	return client, started, nil
}
