package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	"alertbridge/internal/api"
	"alertbridge/internal/classifier"
	"alertbridge/internal/config"
	"alertbridge/internal/constants"
	"alertbridge/internal/cursor"
	"alertbridge/internal/logger"
	"alertbridge/internal/metadata"
	"alertbridge/internal/poller"
	"alertbridge/internal/slack"
	"alertbridge/internal/ticket"
	"alertbridge/internal/tracker"
	"alertbridge/pkg/bootstrap"
	"alertbridge/pkg/circuitbreaker"
	"alertbridge/pkg/health"
	"alertbridge/pkg/metrics"
	"alertbridge/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	dbConnector    *bootstrap.DatabaseConnector
	redis          *redis.Client
	postgres       *sql.DB
	jira           *tracker.Client
	resolver       *metadata.Resolver
	poller         *poller.Poller
	health         *health.CheckerRegistry
	tracerProvider *tracing.TracerProvider
	server         *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
		health:      health.NewCheckerRegistry(),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	metrics.Register()

	tp, err := tracing.Init(ctx, a.Config.Tracing, constants.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := a.InitBroker(); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	a.initTracker()

	if err := a.initPoller(); err != nil {
		return fmt.Errorf("failed to initialize poller: %w", err)
	}

	a.initServer()
	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	rdb, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		return err
	}
	a.redis = rdb
	if rdb != nil {
		a.health.Register(health.NewRedisChecker(rdb))
	}

	db, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}
	a.postgres = db
	if db != nil {
		a.health.Register(health.NewPostgreSQLChecker(db))
	}
	return nil
}

func (a *App) initTracker() {
	jiraCfg := a.Config.Jira

	opts := []tracker.Option{}
	if a.Config.CircuitBreaker.Enabled {
		opts = append(opts, tracker.WithCircuitBreaker(circuitbreaker.NewWrapper(a.breakerConfig("jira"))))
		a.Logger.Infow("Circuit breaker enabled for Jira client")
	}

	a.jira = tracker.NewClient(tracker.Config{
		BaseURL:  jiraCfg.BaseURL,
		Email:    jiraCfg.Email,
		APIToken: jiraCfg.APIToken,
		Timeout:  jiraCfg.Timeout(),
	}, opts...)

	a.resolver = metadata.NewResolver(a.jira, metadata.Config{
		ProjectKey:    jiraCfg.ProjectKey,
		IssueType:     jiraCfg.IssueType,
		CategoryField: jiraCfg.CategoryField,
	}, a.Logger)
}

func (a *App) breakerConfig(name string) circuitbreaker.Config {
	cbCfg := a.Config.CircuitBreaker
	cfg := circuitbreaker.DefaultConfig(name)
	if cbCfg.MaxRequests > 0 {
		cfg.MaxRequests = cbCfg.MaxRequests
	}
	if cbCfg.Interval > 0 {
		cfg.Interval = cbCfg.Interval
	}
	if cbCfg.Timeout > 0 {
		cfg.Timeout = cbCfg.Timeout
	}
	if cbCfg.FailureRatio > 0 {
		cfg.FailureRatio = cbCfg.FailureRatio
	}
	if cbCfg.MinRequests > 0 {
		cfg.MinRequests = cbCfg.MinRequests
	}
	cfg.IsSuccessful = tracker.IsBreakerSuccess
	cfg.OnStateChange = func(name string, from, to gobreaker.State) {
		a.Logger.Warnw("Circuit breaker state changed",
			"name", name,
			"from", from.String(),
			"to", to.String(),
		)
	}
	return cfg
}

func (a *App) initPoller() error {
	store, err := cursor.NewStore(a.Config.Cursor, cursor.Deps{Redis: a.redis, Postgres: a.postgres}, a.Logger)
	if err != nil {
		return err
	}

	decider, err := classifier.New(a.Config.Classifier.SuppressRules, a.Config.Jira.DefaultPriority)
	if err != nil {
		return err
	}

	jiraCfg := a.Config.Jira
	synth := ticket.NewSynthesizer(a.jira, a.resolver, ticket.Config{
		ProjectKey:    jiraCfg.ProjectKey,
		IssueType:     jiraCfg.IssueType,
		CategoryField: jiraCfg.CategoryField,
		PriorityID:    jiraCfg.PriorityID,
		CategoryID:    jiraCfg.CategoryID,
	}, a.Logger)

	a.poller = poller.New(poller.Config{
		ChannelID:     a.Config.Slack.ChannelID,
		HistoryLimit:  a.Config.Slack.HistoryLimit,
		Interval:      a.Config.Poller.Interval(),
		Backfill:      a.Config.Poller.Backfill(),
		CycleTimeout:  a.Config.Poller.CycleTimeout(),
		CategoryLabel: jiraCfg.CategoryDefault,
	}, slack.NewClient(a.Config.Slack, a.Logger), store, decider, synth, a.Publisher, a.Logger)

	a.health.Register(a.poller.HealthChecker())
	return nil
}

func (a *App) initServer() {
	handler := api.NewHandler(a.resolver, a.poller, a.health, a.Logger)
	router := api.NewRouter(handler, api.Options{
		ServiceName: constants.ServiceName,
		Tracing:     a.Config.Tracing.Enabled,
		RateLimit:   a.Config.Server.RateLimit,
	})

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  a.Config.Server.ReadTimeout(),
		WriteTimeout: a.Config.Server.WriteTimeout(),
	}
}

// Run serves HTTP and polls until ctx is canceled or either side fails,
// then releases everything once the poll loop has drained.
func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.poller.Run(gCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	runErr := g.Wait()
	if err := a.Shutdown(context.Background()); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

func (a *App) Shutdown(ctx context.Context) error {
	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.server != nil {
			shutdownCtx, cancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
			defer cancel()
			if err := a.server.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("HTTP server shutdown error: %w", err))
			}
		}

		if a.tracerProvider != nil {
			if err := a.tracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
			}
		}

		errs = append(errs, a.dbConnector.ShutdownDatabases(a.redis, a.postgres)...)
		return errs
	}

	return a.Base.Shutdown(ctx, additionalShutdown)
}
