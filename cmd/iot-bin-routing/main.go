package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"syscall"
	"time"

	"github.com/diwise/iot-bin-routing/internal/pkg/application/binregistry"
	"github.com/diwise/iot-bin-routing/internal/pkg/application/binstore"
	"github.com/diwise/iot-bin-routing/internal/pkg/application/events"
	"github.com/diwise/iot-bin-routing/internal/pkg/application/planner"
	"github.com/diwise/iot-bin-routing/internal/pkg/application/routing"
	"github.com/diwise/iot-bin-routing/internal/pkg/application/webevents"
	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/directions"
	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/repositories"
	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/repositories/redisstore"
	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/router"
	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/tracing"
	"github.com/diwise/iot-bin-routing/internal/pkg/presentation/api"
	"github.com/diwise/iot-bin-routing/internal/pkg/presentation/gui"
	"github.com/diwise/iot-bin-routing/pkg/client"
	"github.com/diwise/messaging-golang/pkg/messaging"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const serviceName string = "iot-bin-routing"

type flagType int
type flagMap map[flagType]string

const (
	listenAddress flagType = iota
	servicePort
	configurationFile
	binsFile
	storageType
	redisAddr
	redisPassword
	redisDB
	binsApiUrl
	directionsToken
)

func defaultFlags() flagMap {
	return flagMap{
		listenAddress: "0.0.0.0",
		servicePort:   "8080",

		configurationFile: "/opt/diwise/config/config.yaml",
		binsFile:          "/opt/diwise/config/bins.csv",

		storageType:   "sqlite",
		redisAddr:     "localhost:6379",
		redisPassword: "",
		redisDB:       "0",

		binsApiUrl:      "",
		directionsToken: "",
	}
}

func main() {
	envErr := godotenv.Load()

	serviceVersion := version()
	ctx, logger := logging.NewLogger(context.Background(), serviceName, serviceVersion)
	logger.Info().Msg("starting up ...")

	if envErr != nil {
		logger.Debug().Msg("no .env file found, using environment variables")
	}

	flags := parseExternalConfig(logger, defaultFlags())

	cleanup, err := tracing.Init(ctx, logger, serviceName, serviceVersion)
	exitIf(err, logger, "failed to init tracing")
	defer cleanup()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgFile, err := os.Open(flags[configurationFile])
	exitIf(err, logger, "could not open configuration file")

	cfg, err := parseConfigFile(cfgFile)
	cfgFile.Close()
	exitIf(err, logger, "could not parse configuration file")

	repo, err := newBinRepository(ctx, logger, flags)
	exitIf(err, logger, "could not create or connect to bin storage")

	messenger, err := messaging.Initialize(messaging.LoadConfiguration(serviceName, logger))
	exitIf(err, logger, "failed to init messenger")
	defer messenger.Close()

	registry := binregistry.New(repo, messenger)

	if bins, err := os.Open(flags[binsFile]); err == nil {
		err = binregistry.Seed(ctx, registry, bins)
		bins.Close()
		exitIf(err, logger, "failed to seed bins")
	} else {
		logger.Info().Str("file", flags[binsFile]).Msg("no bins file found, nothing to seed")
	}

	binregistry.RegisterTopicMessageHandlers(messenger, registry)

	web := webevents.New()
	defer web.Shutdown()

	p, err := newPlanner(ctx, flags, cfg, web)
	exitIf(err, logger, "failed to create planner")

	p.RegisterTopicMessageHandlers(messenger)

	srv := &http.Server{
		Addr:              flags[listenAddress] + ":" + flags[servicePort],
		Handler:           setupRouter(logger, registry, p, web),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("starting to listen for connections")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("failed to start request router")
			stop()
		}
	}()

	p.Start(ctx)

	<-ctx.Done()
	logger.Info().Msg("shutting down ...")

	p.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shut down http server")
	}
}

func newBinRepository(ctx context.Context, log zerolog.Logger, flags flagMap) (repositories.BinRepository, error) {
	switch flags[storageType] {
	case "redis":
		db, err := strconv.Atoi(flags[redisDB])
		if err != nil {
			return nil, err
		}
		return redisstore.New(ctx, log, redisstore.Config{
			Addr:     flags[redisAddr],
			Password: flags[redisPassword],
			DB:       db,
		})
	case "postgres":
		return database.New(database.NewPostgreSQLConnector(log, database.LoadConfigFromEnv(log)))
	default:
		return database.New(database.NewSQLiteConnector(log))
	}
}

func newPlanner(ctx context.Context, flags flagMap, cfg *appConfig, web webevents.WebEvents) (*planner.Planner, error) {
	url := flags[binsApiUrl]
	if url == "" {
		url = "http://localhost:" + flags[servicePort]
	}

	interval, err := cfg.interval()
	if err != nil {
		return nil, err
	}

	store, err := binstore.New(client.NewBinsClient(url), interval)
	if err != nil {
		return nil, err
	}

	opts, err := cfg.routingOptions()
	if err != nil {
		return nil, err
	}

	route := routing.New(directions.New(cfg.directionsConfig(flags[directionsToken])), opts...)

	sender, err := events.New(cfg.eventsConfig())
	if err != nil {
		return nil, err
	}

	plannerCfg, err := cfg.plannerConfig()
	if err != nil {
		return nil, err
	}

	return planner.New(ctx, store, route, sender, web, plannerCfg)
}

func parseExternalConfig(log zerolog.Logger, flags flagMap) flagMap {
	// Allow environment variables to override certain defaults
	envOrDef := env.GetVariableOrDefault

	flags[listenAddress] = envOrDef(log, "LISTEN_ADDRESS", flags[listenAddress])
	flags[servicePort] = envOrDef(log, "SERVICE_PORT", flags[servicePort])
	flags[configurationFile] = envOrDef(log, "CONFIG_FILE", flags[configurationFile])
	flags[binsFile] = envOrDef(log, "BINS_FILE", flags[binsFile])
	flags[storageType] = envOrDef(log, "BIN_STORAGE", flags[storageType])
	flags[redisAddr] = envOrDef(log, "REDIS_ADDR", flags[redisAddr])
	flags[redisPassword] = envOrDef(log, "REDIS_PASSWORD", flags[redisPassword])
	flags[redisDB] = envOrDef(log, "REDIS_DB", flags[redisDB])
	flags[binsApiUrl] = envOrDef(log, "BINS_API_URL", flags[binsApiUrl])
	flags[directionsToken] = envOrDef(log, "MAPBOX_ACCESS_TOKEN", flags[directionsToken])

	apply := func(f flagType) func(string) error {
		return func(value string) error {
			flags[f] = value
			return nil
		}
	}

	// Allow command line arguments to override defaults and environment variables
	flag.Func("config", "planner configuration file", apply(configurationFile))
	flag.Func("bins", "bins to seed the registry with", apply(binsFile))
	flag.Func("storage", "bin storage to use (sqlite, postgres or redis)", apply(storageType))
	flag.Func("bins-api", "url of the bins api to poll", apply(binsApiUrl))
	flag.Parse()

	return flags
}

func setupRouter(log zerolog.Logger, registry binregistry.BinRegistry, p *planner.Planner, web webevents.WebEvents) *chi.Mux {
	r := router.New(serviceName)
	api.RegisterHandlers(log, r, registry, p, web)
	gui.RegisterHandlers(log, r, p)
	return r
}

func version() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	buildSettings := buildInfo.Settings
	infoMap := map[string]string{}
	for _, s := range buildSettings {
		infoMap[s.Key] = s.Value
	}

	sha := infoMap["vcs.revision"]
	if infoMap["vcs.modified"] == "true" {
		sha += "+"
	}

	return sha
}

func exitIf(err error, logger zerolog.Logger, msg string) {
	if err != nil {
		logger.Error().Err(err).Msg(msg)
		time.Sleep(2 * time.Second)
		os.Exit(1)
	}
}
