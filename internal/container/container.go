// Package container wires the callhub-mcp services using go.uber.org/dig.
package container

import (
	"go.uber.org/dig"

	"github.com/callhubmcp/callhubmcp/internal/account"
	"github.com/callhubmcp/callhubmcp/internal/activation"
	"github.com/callhubmcp/callhubmcp/internal/api"
	"github.com/callhubmcp/callhubmcp/internal/callhub"
	"github.com/callhubmcp/callhubmcp/internal/config"
	"github.com/callhubmcp/callhubmcp/internal/notify"
	"github.com/callhubmcp/callhubmcp/internal/progress"
	"github.com/callhubmcp/callhubmcp/internal/tools"
)

// Container holds the resolved service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	resolver    *account.Resolver
	service     *callhub.Service
	store       *activation.Store
	runner      *activation.Runner
	exporter    *activation.Exporter
	scheduler   *activation.Scheduler
	broadcaster *progress.Broadcaster
	driver      activation.PageDriver
	registry    *tools.Registry
}

func (c *Container) Resolver() *account.Resolver        { return c.resolver }
func (c *Container) Service() *callhub.Service          { return c.service }
func (c *Container) Store() *activation.Store           { return c.store }
func (c *Container) Runner() *activation.Runner         { return c.runner }
func (c *Container) Exporter() *activation.Exporter     { return c.exporter }
func (c *Container) Scheduler() *activation.Scheduler   { return c.scheduler }
func (c *Container) Broadcaster() *progress.Broadcaster { return c.broadcaster }
func (c *Container) Tools() *tools.Registry             { return c.registry }

// Close releases held resources, notably the headless browser.
func (c *Container) Close() error {
	if c.driver != nil {
		return c.driver.Close()
	}
	return nil
}

// New builds and wires all services from cfg.
func New(cfg *config.Config) (*Container, error) {
	d := dig.New()

	providers := []any{
		func() *config.Config { return cfg },
		newResolver,
		newEnvFile,
		newRetryPolicy,
		api.NewClient,
		callhub.NewService,
		newStore,
		newDriver,
		progress.NewBroadcaster,
		newNotifier,
		newRunner,
		activation.NewExporter,
		newScheduler,
		newToolRegistry,
	}
	for _, p := range providers {
		if err := d.Provide(p); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		resolver *account.Resolver,
		service *callhub.Service,
		store *activation.Store,
		runner *activation.Runner,
		exporter *activation.Exporter,
		scheduler *activation.Scheduler,
		broadcaster *progress.Broadcaster,
		driver activation.PageDriver,
		registry *tools.Registry,
	) {
		result = &Container{
			resolver:    resolver,
			service:     service,
			store:       store,
			runner:      runner,
			exporter:    exporter,
			scheduler:   scheduler,
			broadcaster: broadcaster,
			driver:      driver,
			registry:    registry,
		}
	})
	return result, err
}

func newResolver() *account.Resolver {
	return account.NewResolver()
}

func newEnvFile() *account.EnvFile {
	return account.NewEnvFile(config.DotenvPath())
}

func newRetryPolicy(cfg *config.Config) api.RetryPolicy {
	return api.RetryPolicy{
		MaxRetries:     cfg.Retry.MaxRetries,
		InitialBackoff: cfg.Retry.InitialBackoffDuration(),
		MaxBackoff:     cfg.Retry.MaxBackoffDuration(),
		BackoffFactor:  cfg.Retry.BackoffFactor,
	}
}

func newStore(cfg *config.Config) *activation.Store {
	return activation.NewStore(cfg.Activation.StateDir)
}

func newDriver(cfg *config.Config) activation.PageDriver {
	return activation.NewChromeDriver(cfg.Activation.RecordTimeout())
}

func newNotifier(cfg *config.Config) activation.Notifier {
	return notify.NewSlackNotifier(cfg.Notify.SlackWebhookURL)
}

func newRunner(
	store *activation.Store,
	driver activation.PageDriver,
	bc *progress.Broadcaster,
	notifier activation.Notifier,
	cfg *config.Config,
) *activation.Runner {
	return activation.NewRunner(store, driver, bc, notifier, cfg.Activation.LogDir)
}

func newScheduler(
	store *activation.Store,
	runner *activation.Runner,
	resolver *account.Resolver,
	cfg *config.Config,
) *activation.Scheduler {
	return activation.NewScheduler(store, runner, resolver,
		cfg.Activation.RetrySchedule, cfg.Activation.PasswordEnv)
}

func newToolRegistry(
	resolver *account.Resolver,
	env *account.EnvFile,
	service *callhub.Service,
	store *activation.Store,
	runner *activation.Runner,
	exporter *activation.Exporter,
) *tools.Registry {
	return &tools.Registry{
		Resolver: resolver,
		Env:      env,
		Service:  service,
		Store:    store,
		Runner:   runner,
		Exporter: exporter,
	}
}
