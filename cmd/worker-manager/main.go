// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"coaching-workers/internal/common/camunda"
	"coaching-workers/internal/common/config"
	"coaching-workers/internal/common/database"
	"coaching-workers/internal/common/logger"
	"coaching-workers/internal/common/observability"
	"coaching-workers/internal/store/directory"
	"coaching-workers/internal/store/evaluations"
	"coaching-workers/internal/synthesis"
	"coaching-workers/internal/trend"

	gat "coaching-workers/internal/workers/analysis/generate-aggregate-trend"
	gt "coaching-workers/internal/workers/analysis/generate-trend"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	tracing, err := observability.NewTracing(cfg.App.Name, os.Getenv("JAEGER_ENDPOINT"))
	if err != nil {
		zapLog.Warn("tracing init failed, continuing without traces", zap.Error(err))
	} else {
		defer tracing.Shutdown()
	}

	ctx := context.Background()

	// --- Init Camunda Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      time.Duration(cfg.Camunda.Timeout) * time.Millisecond,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Camunda client initialization")

	if err != nil {
		zapLog.Fatal("camunda client failed after retries", zap.Error(err))
	}
	zapLog.Info("Camunda client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Select the evaluation store backend ---
	var evalStore trend.EvaluationStore
	switch cfg.Analysis.EvaluationSource {
	case "elasticsearch":
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
		evalStore = evaluations.NewElasticsearchStore(esClient.Client, cfg.Database.Elasticsearch.Index)

	default:
		evalStore = evaluations.NewPostgresStore(pg.DB)
	}
	zapLog.Info("evaluation store selected", zap.String("source", cfg.Analysis.EvaluationSource))

	// --- Build the trend engine ---
	synthClient := synthesis.NewClient(&synthesis.Config{
		BaseURL: cfg.APIs.Synthesis.BaseURL,
		APIKey:  cfg.APIs.Synthesis.APIKey,
		Timeout: time.Duration(cfg.APIs.Synthesis.Timeout) * time.Millisecond,
	}, log)

	repDirectory := directory.NewPostgresDirectory(pg.DB)
	trendCache := trend.NewCache(redis.Client, cfg.Analysis.AggregateCacheTTLDuration(), log)
	orchestrator := trend.NewOrchestrator(evalStore, repDirectory, synthClient, trendCache, cfg.Analysis, log)

	// --- Register Analysis Workers ---
	var workers []*camunda.CamundaWorker

	if wcfg := cfg.Workers[gt.TaskType]; wcfg.Enabled {
		handler := gt.NewHandler(gt.ConfigFromWorker(wcfg), orchestrator, log)
		workers = append(workers, camunda.NewWorker(
			camundaClient.GetClient(), gt.TaskType, wcfg.MaxJobsActive,
			time.Duration(wcfg.Timeout)*time.Millisecond, handler, obs, zapLog,
		))
	}

	if wcfg := cfg.Workers[gat.TaskType]; wcfg.Enabled {
		handler := gat.NewHandler(gat.ConfigFromWorker(wcfg), orchestrator, log)
		workers = append(workers, camunda.NewWorker(
			camundaClient.GetClient(), gat.TaskType, wcfg.MaxJobsActive,
			time.Duration(wcfg.Timeout)*time.Millisecond, handler, obs, zapLog,
		))
	}

	zapLog.Info("All workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	for _, w := range workers {
		w.Stop(shutdownCtx)
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Camunda client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
