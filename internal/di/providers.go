package di

import (
	"fmt"
	"net"
	"strconv"

	domrepo "FlowSentry/internal/domain/repository"
	"FlowSentry/internal/handler/api"
	mid "FlowSentry/internal/middleware"
	internalrepo "FlowSentry/internal/repository"
	"FlowSentry/internal/service/alertqueue"
	icache "FlowSentry/internal/service/cache"
	"FlowSentry/internal/service/resultcache"
	"FlowSentry/internal/services/botwatch"
	"FlowSentry/internal/services/scoring"
	"FlowSentry/internal/usecase"
	pkgcache "FlowSentry/pkg/cache"
	pkgch "FlowSentry/pkg/clickhouse"
	"FlowSentry/pkg/config"
	xhttp "FlowSentry/pkg/http"
	pkgkafka "FlowSentry/pkg/kafka"
	applogger "FlowSentry/pkg/logger"
	"FlowSentry/pkg/metrics"
	"FlowSentry/pkg/queue"
	"FlowSentry/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a read-only ClickHouse client. The market
// tables belong to the ingestion platform; no schema is created here.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideMarketStore creates the ClickHouse-backed market data reader.
func ProvideMarketStore(chClient *pkgch.Client, l *applogger.Logger) domrepo.MarketStore {
	store := internalrepo.NewCHMarketStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideKafkaProducer creates a Kafka producer for the results topic.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideResultPublisher creates the Kafka results publisher.
func ProvideResultPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.ResultPublisher {
	return internalrepo.NewKafkaResultPublisher(producer, cfg.Kafka.ResultsTopic)
}

// ProvideKafkaConsumer creates the closed-candle event consumer.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideCache creates the shared cache service: Redis-backed when enabled,
// in-memory otherwise.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix("flowsentry"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(rc), nil
}

// ProvideResultStore creates the last-good result retention layer.
func ProvideResultStore(c pkgcache.Service, cfg *config.Config) domrepo.ResultStore {
	return resultcache.New(c, cfg.Redis.ResultTTL)
}

// ProvideAlertSink creates the Redis alert queue producer, or a disabled sink
// when Redis is off.
func ProvideAlertSink(cfg *config.Config, l *applogger.Logger) domrepo.AlertSink {
	if !cfg.Redis.Enabled {
		return alertqueue.New(nil)
	}
	cli := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	q := queue.NewRedisPublisher(l, cli,
		queue.WithKeyPrefix("flowsentry:"+cfg.Redis.AlertQueue),
	)
	return alertqueue.New(q)
}

// ProvideAggregator wires the five scorers into the aggregator.
func ProvideAggregator(cfg *config.Config) *usecase.SignalAggregator {
	eng := cfg.Engine
	return usecase.NewSignalAggregator(
		eng,
		scoring.NewInstitutionalAnalyzer(eng),
		scoring.NewVolumeLegitimacyScorer(eng),
		scoring.NewPriceActionQualityScorer(eng),
		scoring.NewOrderBookManipulationScorer(eng),
		botwatch.NewClassifier(eng),
	)
}

// ProvidePipeline creates the three-layer confirmation pipeline.
func ProvidePipeline(
	cfg *config.Config,
	store domrepo.MarketStore,
	agg *usecase.SignalAggregator,
	l *applogger.Logger,
) *usecase.ConfirmationPipeline {
	return usecase.NewConfirmationPipeline(cfg.Engine, store, agg, l)
}

// ProvideStreamHandler creates the WebSocket result stream.
func ProvideStreamHandler(l *applogger.Logger) *api.StreamHandler {
	return api.NewStreamHandler(l)
}

// ProvideScheduler creates the per-symbol evaluation scheduler, fanning
// results out to the stream on top of the store/publisher/alert paths.
func ProvideScheduler(
	pipeline *usecase.ConfirmationPipeline,
	results domrepo.ResultStore,
	pub domrepo.ResultPublisher,
	alerts domrepo.AlertSink,
	m domrepo.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
	stream *api.StreamHandler,
) *mid.Scheduler {
	return mid.NewScheduler(
		pipeline, results, pub, alerts, m,
		cfg.Engine.Pipeline.EvalTimeout, l,
		mid.WithNotifier(stream.Broadcast),
	)
}

// ProvideCandleCloseHandler registers the closed-candle Kafka handler.
func ProvideCandleCloseHandler(
	sched *mid.Scheduler,
	m domrepo.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.CandleCloseHandler {
	return usecase.NewCandleCloseHandler(
		cfg.Kafka.CandlesTopic,
		cfg.Engine.Pipeline.ShortTF,
		cfg.Symbols,
		sched,
		m,
		l,
	)
}

// ProvideAnalysisHandler creates the HTTP API handler with response caching.
func ProvideAnalysisHandler(
	l *applogger.Logger,
	store domrepo.MarketStore,
	agg *usecase.SignalAggregator,
	pipeline *usecase.ConfirmationPipeline,
	results domrepo.ResultStore,
	cfg *config.Config,
) *api.AnalysisHandler {
	h := api.NewAnalysisHandler(l, store, agg, pipeline, results)
	if cfg.Redis.Enabled {
		h.SetCache(icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
	} else {
		h.SetCache(icache.NewTTLCache())
	}
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	sched *mid.Scheduler,
	consumer *pkgkafka.Consumer,
	kh *usecase.CandleCloseHandler,
	chClient *pkgch.Client,
	pub domrepo.ResultPublisher,
	analysis *api.AnalysisHandler,
	stream *api.StreamHandler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, l, sched, consumer, kh, chClient,
		xhttp.Handler(analysis), xhttp.Handler(stream))
	app.AddCloser(pub.Close)
	return app
}
