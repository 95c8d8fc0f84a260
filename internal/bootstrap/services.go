package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/target/opsrelay/config"
	"github.com/target/opsrelay/internal/adapters/cloudwatch"
	"github.com/target/opsrelay/internal/adapters/codecommit"
	"github.com/target/opsrelay/internal/adapters/codedeploy"
	"github.com/target/opsrelay/internal/adapters/codepipeline"
	"github.com/target/opsrelay/internal/adapters/ec2"
	"github.com/target/opsrelay/internal/adapters/elasticsearch"
	"github.com/target/opsrelay/internal/core"
	"github.com/target/opsrelay/internal/data"
	"github.com/target/opsrelay/internal/domain/model"
	"github.com/target/opsrelay/internal/observability/notify/chatwork"
	"github.com/target/opsrelay/internal/observability/notify/slack"
	"github.com/target/opsrelay/internal/observability/notify/sns"
	"github.com/target/opsrelay/internal/observability/statsd"
	"github.com/target/opsrelay/internal/service"
	"github.com/target/opsrelay/internal/service/notifier"
)

// ServiceContainer holds everything one invocation needs.
type ServiceContainer struct {
	Dispatcher *service.Dispatcher
	Invocation *service.Invocation
	Runs       core.RunRepository
	Metrics    *statsd.Client
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config *config.AppConfig
	Logger *slog.Logger
	AWS    AWSClients

	RedisClient redis.UniversalClient // Optional: enables the target lease
	DB          *sql.DB               // Optional: enables run history
	Clock       core.Clock            // Optional: defaults to RealClock
	HTTPClient  *http.Client          // Optional: shared by chat sinks
}

// BuildServices wires adapters, the invocation and every workflow. Workflows
// whose settings are incomplete are left unwired; the dispatcher reports them
// as configuration errors only when selected.
func BuildServices(deps ServiceDeps) (*ServiceContainer, error) {
	if deps.Config == nil {
		return nil, errors.New("config is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	metrics := buildMetrics(logger, cfg.Observability)

	logAppender, err := buildLogAppender(deps, logger, metrics)
	if err != nil {
		return nil, err
	}

	reconciler := service.NewReconcileService(service.ReconcileServiceOptions{
		Clock:            deps.Clock,
		Log:              logAppender,
		Logger:           logger,
		Metrics:          metrics,
		MaxProbeFailures: cfg.Reconcile.MaxProbeFailures,
		LogEvery:         cfg.Reconcile.LogEvery,
	})

	pipeline := codepipeline.NewClient(deps.AWS.Pipeline, cfg.Deploy.ApprovalStage, cfg.Deploy.ApprovalAction)
	reporter := service.NewJobResultReporter(service.JobResultReporterOptions{
		Control: pipeline,
		Log:     logAppender,
		Logger:  logger,
		Metrics: metrics,
	})

	notifications := notifier.NewService(notifier.Options{
		Sinks:   buildSinks(logger, cfg, deps),
		Timeout: cfg.Notifications.Timeout,
		Log:     logAppender,
		Logger:  logger,
		Metrics: metrics,
	})

	invOpts := service.InvocationOptions{
		Reconciler:  reconciler,
		Reporter:    reporter,
		Notifier:    notifications,
		Log:         logAppender,
		Clock:       deps.Clock,
		Logger:      logger,
		LeaseMargin: cfg.Lease.Margin,
		LeasePrefix: cfg.Lease.Prefix,
	}
	var runs core.RunRepository
	if deps.RedisClient != nil {
		invOpts.Lease = data.NewRedisLeaseRepo(deps.RedisClient)
	}
	if deps.DB != nil {
		runs = data.NewRunRepo(deps.DB)
		invOpts.Runs = runs
	}
	inv, err := service.NewInvocation(invOpts)
	if err != nil {
		return nil, fmt.Errorf("create invocation: %w", err)
	}

	dispatcherOpts := service.DispatcherOptions{Config: cfg, Invocation: inv}
	if err := wireWorkflows(&dispatcherOpts, deps, inv, pipeline, logger); err != nil {
		return nil, err
	}
	dispatcher, err := service.NewDispatcher(dispatcherOpts)
	if err != nil {
		return nil, fmt.Errorf("create dispatcher: %w", err)
	}

	return &ServiceContainer{
		Dispatcher: dispatcher,
		Invocation: inv,
		Runs:       runs,
		Metrics:    metrics,
	}, nil
}

func wireWorkflows(
	opts *service.DispatcherOptions,
	deps ServiceDeps,
	inv *service.Invocation,
	approvals core.ApprovalLookup,
	logger *slog.Logger,
) error {
	cfg := deps.Config

	if cfg.Deploy.Validate() == nil {
		wf, err := service.NewDeployWorkflow(service.DeployWorkflowOptions{
			Invocation: inv,
			Probes:     codedeploy.Factory(deps.AWS.Deploy),
			Approvals:  approvals,
			Deploy:     cfg.Deploy,
			Reconcile:  cfg.Reconcile,
		})
		if err != nil {
			return fmt.Errorf("create deploy workflow: %w", err)
		}
		opts.Deploy = wf
	}

	if cfg.Instance.Validate() == nil {
		wf, err := service.NewInstanceWorkflow(service.InstanceWorkflowOptions{
			Invocation:  inv,
			Controller:  ec2.NewController(deps.AWS.EC2),
			StateProbe:  ec2.StateProbes(deps.AWS.EC2),
			HealthProbe: ec2.HealthProbes(deps.AWS.EC2),
			Reconcile:   cfg.Reconcile,
		})
		if err != nil {
			return fmt.Errorf("create instance workflow: %w", err)
		}
		opts.Instances = wf
	}

	if cfg.Domain.Validate() == nil {
		wf, err := service.NewDomainWorkflow(service.DomainWorkflowOptions{
			Invocation:  inv,
			Manager:     elasticsearch.NewManager(deps.AWS.Elasticsearch),
			ConfigProbe: elasticsearch.ConfigProbes(deps.AWS.Elasticsearch),
			Domain:      cfg.Domain,
			Reconcile:   cfg.Reconcile,
		})
		if err != nil {
			return fmt.Errorf("create domain workflow: %w", err)
		}
		opts.Domains = wf
	}

	if cfg.VCS.Validate() == nil {
		wf, err := service.NewVCSWorkflow(service.VCSWorkflowOptions{
			Invocation: inv,
			Commits:    codecommit.NewLookup(deps.AWS.Commits),
			VCS:        cfg.VCS,
		})
		if err != nil {
			return fmt.Errorf("create vcs workflow: %w", err)
		}
		opts.VCS = wf
	}

	logger.Debug("workflows wired",
		"deploy", opts.Deploy != nil,
		"instance", opts.Instances != nil,
		"domain", opts.Domains != nil,
		"vcs", opts.VCS != nil,
	)
	return nil
}

func buildLogAppender(deps ServiceDeps, logger *slog.Logger, metrics statsd.Sink) (*service.LogAppender, error) {
	cfg := deps.Config
	opts := service.LogAppenderOptions{
		Logger:  logger,
		Clock:   deps.Clock,
		Metrics: metrics,
	}
	// An incomplete stream address falls back to the process log; the dispatcher
	// reports the missing setting once the invocation is recorded.
	if !cfg.Logs.FallbackOnly && cfg.Logs.Validate() == nil && deps.AWS.Logs != nil {
		opts.Backend = cloudwatch.NewBackend(deps.AWS.Logs)
		opts.Stream = model.LogStream{Group: cfg.Logs.Group, Stream: cfg.Logs.Stream, Region: cfg.Region}
	}
	appender, err := service.NewLogAppender(opts)
	if err != nil {
		return nil, fmt.Errorf("create log appender: %w", err)
	}
	return appender, nil
}

// buildMetrics returns a StatsD client; a disabled client discards metrics.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityConfig) *statsd.Client {
	client, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.Metrics.IsEnabled(),
		Address: cfg.Metrics.StatsdAddress,
		Prefix:  cfg.Metrics.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		client, _ = statsd.NewClient(statsd.Config{Prefix: cfg.Metrics.Prefix, Logger: logger})
	}
	return client
}

func buildSinks(logger *slog.Logger, cfg *config.AppConfig, deps ServiceDeps) []notifier.SinkRegistration {
	n := cfg.Notifications
	var sinks []notifier.SinkRegistration

	if n.Chat.Enabled {
		client, err := chatwork.NewClient(chatwork.Config{
			BaseURL:     n.Chat.URL,
			Room:        n.Chat.Room,
			Token:       n.Chat.Token,
			TokenHeader: n.Chat.TokenHeader,
			Timeout:     n.Timeout,
			Client:      deps.HTTPClient,
		})
		if err != nil {
			logger.Warn("chat notifications disabled", "error", err)
		} else {
			sinks = append(sinks, notifier.SinkRegistration{Name: "chatwork", Sink: client})
		}
	}

	if n.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: n.Slack.WebhookURL,
			Channel:    n.Slack.Channel,
			Username:   n.Slack.Username,
			Timeout:    n.Timeout,
			Client:     deps.HTTPClient,
		})
		if err != nil {
			logger.Warn("slack notifications disabled", "error", err)
		} else {
			sinks = append(sinks, notifier.SinkRegistration{Name: "slack", Sink: client})
		}
	}

	if n.SNS.Enabled && deps.AWS.SNS != nil {
		pub, err := sns.NewPublisher(sns.Config{
			API:          deps.AWS.SNS,
			TopicARN:     n.SNS.TopicARN,
			Subject:      n.SNS.Subject,
			FailuresOnly: n.SNS.FailuresOnly,
		})
		if err != nil {
			logger.Warn("sns notifications disabled", "error", err)
		} else {
			sinks = append(sinks, notifier.SinkRegistration{Name: "sns", Sink: pub})
		}
	}

	return sinks
}

// App owns the connections opened for one process.
type App struct {
	*ServiceContainer
	DB     *sql.DB
	Redis  redis.UniversalClient
	logger *slog.Logger
}

// prepareHistory runs startup migrations when configured. It returns nil,
// closing db, when the schema could not be brought up to date.
func prepareHistory(ctx context.Context, db *sql.DB, cfg config.DBConfig, logger *slog.Logger) *sql.DB {
	if !cfg.RunMigrationsOnStart {
		return db
	}
	if _, err := RunMigrations(ctx, db, logger); err != nil {
		logger.Warn("run history migrations failed; continuing without it", "error", err)
		if closeErr := db.Close(); closeErr != nil {
			logger.Warn("db close failed", "error", closeErr)
		}
		return nil
	}
	return db
}

// Open connects the optional stores and builds the service graph. Lease and
// history stores are best-effort: a connection or migration failure is logged and the
// invocation proceeds without them.
func Open(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*App, error) {
	clients, err := NewAWSClients(ctx, cfg.Region)
	if err != nil {
		return nil, err
	}

	app := &App{logger: logger}
	if cfg.Lease.Enabled {
		client, redisErr := ConnectRedis(ctx, cfg.Lease.Redis, logger)
		if redisErr != nil {
			logger.Warn("target lease unavailable; continuing without it", "error", redisErr)
		} else {
			app.Redis = client
		}
	}
	if cfg.History.Enabled {
		db, dbErr := ConnectDB(ctx, cfg.History.Postgres, logger)
		if dbErr != nil {
			logger.Warn("run history unavailable; continuing without it", "error", dbErr)
		} else {
			app.DB = prepareHistory(ctx, db, cfg.History.Postgres, logger)
		}
	}

	svc, err := BuildServices(ServiceDeps{
		Config:      cfg,
		Logger:      logger,
		AWS:         clients,
		RedisClient: app.Redis,
		DB:          app.DB,
	})
	if err != nil {
		app.Close()
		return nil, err
	}
	app.ServiceContainer = svc
	return app, nil
}

// Close flushes metrics and releases connections.
func (a *App) Close() {
	if a.ServiceContainer != nil && a.Metrics != nil {
		if err := a.Metrics.Close(); err != nil {
			a.logger.Warn("statsd close failed", "error", err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.logger.Warn("redis close failed", "error", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.logger.Warn("database close failed", "error", err)
		}
	}
}
