package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/0x6flab/namegenerator"
	"github.com/absmach/fedprox/party"
	"github.com/absmach/fedprox/party/api"
	"github.com/absmach/fedprox/party/middleware"
	"github.com/absmach/fedprox/pkg/checkpoint"
	"github.com/absmach/fedprox/pkg/dataset"
	"github.com/absmach/fedprox/pkg/fedprox"
	"github.com/absmach/fedprox/pkg/jaeger"
	"github.com/absmach/fedprox/pkg/model"
	"github.com/absmach/fedprox/pkg/mqtt"
	"github.com/absmach/fedprox/pkg/privacy"
	"github.com/absmach/fedprox/pkg/prometheus"
	"github.com/absmach/fedprox/pkg/server"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

const (
	svcName             = "party"
	defHTTPPort         = "7071"
	envPrefixHTTP       = "PARTY_HTTP_"
	envPrefixMQTT       = "PARTY_MQTT_"
	envPrefixModel      = "PARTY_MODEL_"
	envPrefixPrivacy    = "PARTY_DP_"
	envPrefixCheckpoint = "PARTY_CHECKPOINT_"
	pathEnv             = ".env"
	disconnectTimeout   = 5 * time.Second
)

type envConfig struct {
	LogLevel           string        `env:"PARTY_LOG_LEVEL"           envDefault:"info"`
	InstanceID         string        `env:"PARTY_INSTANCE_ID"`
	PartyID            string        `env:"PARTY_ID"`
	Federation         string        `env:"PARTY_FEDERATION"          envDefault:"default"`
	Strategy           string        `env:"PARTY_STRATEGY"            envDefault:"fed_prox"`
	DataPath           string        `env:"PARTY_DATA_PATH"`
	DataStoreURL       string        `env:"PARTY_DATA_STORE_URL"`
	SyntheticSamples   int           `env:"PARTY_SYNTHETIC_SAMPLES"   envDefault:"512"`
	BatchSize          int           `env:"PARTY_BATCH_SIZE"          envDefault:"32"`
	Epochs             int           `env:"PARTY_EPOCHS"              envDefault:"0"`
	Shuffle            bool          `env:"PARTY_SHUFFLE"             envDefault:"true"`
	ShuffleSeed        uint64        `env:"PARTY_SHUFFLE_SEED"        envDefault:"0"`
	MQTTEnabled        bool          `env:"PARTY_MQTT_ENABLED"        envDefault:"true"`
	LivelinessInterval time.Duration `env:"PARTY_LIVELINESS_INTERVAL" envDefault:"10s"`
	OTELURL            url.URL       `env:"PARTY_OTEL_URL"`
	TraceRatio         float64       `env:"PARTY_TRACE_RATIO"         envDefault:"0"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	if cfg.PartyID == "" {
		cfg.PartyID = namegenerator.NewGenerator().Generate()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler).With(slog.String("party_id", cfg.PartyID))
	slog.SetDefault(logger)

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		sdktp, err := jaeger.NewProvider(ctx, svcName, cfg.OTELURL, cfg.InstanceID, cfg.TraceRatio)
		if err != nil {
			logger.Error("failed to initialize opentelemetry", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := sdktp.Shutdown(ctx); err != nil {
				logger.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	tracer := tp.Tracer(svcName)

	modelCfg := model.Config{}
	if err := env.ParseWithOptions(&modelCfg, env.Options{Prefix: envPrefixModel}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s model configuration : %s", svcName, err.Error()))

		return
	}
	m, err := model.FromConfig(modelCfg)
	if err != nil {
		logger.Error("failed to build model", slog.Any("error", err))

		return
	}

	strategy, err := fedprox.New(cfg.Strategy, m, fedprox.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create local training strategy", slog.Any("error", err))

		return
	}

	dpCfg := privacy.Config{}
	if err := env.ParseWithOptions(&dpCfg, env.Options{Prefix: envPrefixPrivacy}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s privacy configuration : %s", svcName, err.Error()))

		return
	}
	hook, err := privacy.NewStrategy(dpCfg)
	if err != nil {
		logger.Error("failed to create privacy strategy", slog.Any("error", err))

		return
	}

	ckptCfg := checkpoint.Config{}
	if err := env.ParseWithOptions(&ckptCfg, env.Options{Prefix: envPrefixCheckpoint}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s checkpoint configuration : %s", svcName, err.Error()))

		return
	}
	checkpoints, closer, err := checkpoint.NewRepository(ckptCfg)
	if err != nil {
		logger.Error("failed to open checkpoint repository", slog.Any("error", err))

		return
	}
	if closer != nil {
		defer closer.Close()
	}

	svc := party.NewService(cfg.PartyID, strategy, hook, sourceFactory(cfg, modelCfg.Features), checkpoints, logger)
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	samples, loss := prometheus.MakeTrainingMetrics(svcName)
	svc = middleware.Metrics(counter, latency, samples, loss, svc)

	if cfg.MQTTEnabled {
		mqttCfg := mqtt.Config{
			WillTopic:   party.AliveTopic(cfg.Federation),
			WillPayload: party.OfflinePayload(cfg.PartyID),
		}
		if err := env.ParseWithOptions(&mqttCfg, env.Options{Prefix: envPrefixMQTT}); err != nil {
			logger.Error(fmt.Sprintf("failed to load %s MQTT configuration : %s", svcName, err.Error()))

			return
		}
		pubsub, err := mqtt.NewPubSub(cfg.PartyID, mqttCfg, logger)
		if err != nil {
			logger.Error("failed to initialize mqtt pubsub", slog.String("error", err.Error()))

			return
		}
		defer func() {
			dctx, dcancel := context.WithTimeout(context.Background(), disconnectTimeout)
			defer dcancel()
			if err := pubsub.Disconnect(dctx); err != nil {
				logger.Error("failed to disconnect from mqtt broker", slog.Any("error", err))
			}
		}()

		agent := party.NewAgent(cfg.PartyID, cfg.Federation, cfg.LivelinessInterval, svc, pubsub, logger)
		g.Go(func() error {
			return agent.Run(ctx)
		})
	}

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))

		return
	}

	hs := server.NewHTTPServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, logger, svcName, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}
}

func sourceFactory(cfg envConfig, features int) party.SourceFactory {
	opts := []dataset.Option{
		dataset.WithBatchSize(cfg.BatchSize),
		dataset.WithEpochs(cfg.Epochs),
	}
	if cfg.Shuffle {
		opts = append(opts, dataset.WithShuffle(cfg.ShuffleSeed))
	}

	switch {
	case cfg.DataPath != "":
		return party.FileSource(cfg.DataPath, opts...)
	case cfg.DataStoreURL != "":
		return party.StoreSource(&http.Client{Timeout: 30 * time.Second}, cfg.DataStoreURL, opts...)
	default:
		return party.SyntheticSource(cfg.PartyID, cfg.SyntheticSamples, features, opts...)
	}
}
