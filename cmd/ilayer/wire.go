package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/intelligence-layer/internal/adapters/driven/aleph"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driven/argilla"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driven/config/file"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driven/metrics"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driven/tracing"
	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/cli"
	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
	"github.com/custodia-labs/intelligence-layer/internal/core/services"
	"github.com/custodia-labs/intelligence-layer/internal/logger"
)

// application holds everything main needs after wiring.
type application struct {
	ctx      context.Context
	services cli.Services
	closers  []func() error
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("shutdown: %v", err)
		}
	}
}

// repositories bundles the storage backend's repositories.
type repositories struct {
	datasets    driven.DatasetRepository
	runs        driven.RunRepository
	evaluations driven.AsyncEvaluationRepository
}

// wire builds the services from stored settings and environment overrides.
// Services that need an unconfigured API are left nil; the commands using
// them report that they are not configured.
func wire(ctx context.Context) (*application, error) {
	app := &application{ctx: ctx}

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	env, err := file.LoadEnv()
	if err != nil {
		return nil, err
	}
	if err := env.Apply(settings); err != nil {
		return nil, err
	}

	shutdown, err := tracing.Setup(ctx, settings.Tracing)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, func() error { return shutdown(context.Background()) })
	if settings.Tracing.IsConfigured() {
		app.ctx = services.ContextWithTracer(ctx, tracing.NewOTelTracer(nil))
	}

	recorder := metrics.NewPrometheusRecorder(nil)

	repos, closeRepos, err := openRepositories(settings.Storage)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeRepos)

	app.services = cli.Services{
		Settings: settingsService,
		Datasets: services.NewDatasetService(repos.datasets),
		Metrics:  recorder.HTTPHandler(),
	}

	if !settings.Model.IsConfigured() {
		logger.Debug("Model API token not set; model commands are disabled")
		return app, nil
	}
	if err := wireModelServices(ctx, app, settings, repos, recorder); err != nil {
		if errors.Is(err, context.Canceled) {
			app.close()
			return nil, err
		}
		// settings and config commands must keep working so the user can fix this.
		logger.Warn("Model commands are disabled: %v", err)
	}
	return app, nil
}

// wireModelServices sets the model, keyword and evaluation services. On
// error app.services is left without them.
func wireModelServices(
	ctx context.Context,
	app *application,
	settings *domain.AppSettings,
	repos repositories,
	recorder *metrics.PrometheusRecorder,
) error {
	client, err := aleph.NewClient(aleph.Config{Token: settings.Model.Token, BaseURL: settings.Model.BaseURL})
	if err != nil {
		return err
	}
	limited := aleph.NewLimitedConcurrencyClient(client, aleph.LimitedConfig{
		MaxConcurrency:    settings.Model.MaxConcurrency,
		RequestsPerSecond: settings.Model.RequestsPerSecond,
	})

	extract, stopWatch, err := newKeywordExtract(ctx, settings.Model.DefaultModel, limited)
	if err != nil {
		return err
	}
	if stopWatch != nil {
		app.closers = append(app.closers, stopWatch)
	}

	modelService := services.NewModelService(limited, settings.Model.DefaultModel)
	modelService.SetMetrics(recorder)

	runner := services.NewRunner(repos.datasets, repos.runs, nil)
	runner.SetMetrics(recorder)
	runner.SetConcurrency(settings.Model.MaxConcurrency)
	evaluator := services.NewEvaluator(repos.datasets, repos.runs, repos.evaluations)
	evaluator.SetMetrics(recorder)

	argillaEvaluator, err := newArgillaEvaluator(settings.Argilla, repos)
	if err != nil {
		return err
	}
	if argillaEvaluator != nil {
		argillaEvaluator.SetMetrics(recorder)
	}

	app.services.Model = modelService
	app.services.Keywords = extract
	app.services.Evaluations = services.NewEvaluationService(
		extract, runner, evaluator, argillaEvaluator, repos.runs, repos.evaluations)
	return nil
}

func openRepositories(settings domain.StorageSettings) (repositories, func() error, error) {
	if settings.Backend == domain.StorageMemory {
		return repositories{
			datasets:    memory.NewDatasetRepository(),
			runs:        memory.NewRunRepository(),
			evaluations: memory.NewEvaluationRepository(),
		}, func() error { return nil }, nil
	}

	store, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		return repositories{}, nil, fmt.Errorf("opening repository: %w", err)
	}
	logger.Debug("Using SQLite repository at %s", store.Path())
	return repositories{
		datasets:    store.DatasetRepository(),
		runs:        store.RunRepository(),
		evaluations: store.EvaluationRepository(),
	}, store.Close, nil
}

// newKeywordExtract builds keyword extraction with instructions from
// ~/.ilayer/prompts. Edits to the prompt files are picked up while the
// process runs, which matters for mcp serve and browse.
func newKeywordExtract(
	ctx context.Context, model string, client driven.ModelClient,
) (*services.KeywordExtract, func() error, error) {
	control, err := services.NewControlModel(model, client)
	if err != nil {
		return nil, nil, err
	}

	prompts, err := file.NewPromptStore("", services.KeywordPromptDefaults())
	if err != nil {
		return nil, nil, err
	}
	instructions, err := services.KeywordInstructionsFromStore(prompts)
	if err != nil {
		logger.Warn("Using built-in keyword instructions: %v", err)
		return services.NewKeywordExtract(control), nil, nil
	}
	extract := services.NewKeywordExtract(control, services.WithKeywordInstructions(instructions))

	stop, err := prompts.Watch(ctx, func() {
		reloaded, err := services.KeywordInstructionsFromStore(prompts)
		if err != nil {
			logger.Warn("Keeping previous keyword instructions: %v", err)
			return
		}
		extract.SetInstructions(reloaded)
	})
	if err != nil {
		logger.Debug("Prompt changes will not be picked up: %v", err)
		return extract, nil, nil
	}
	return extract, stop, nil
}

// newArgillaEvaluator returns nil when Argilla is not configured. The
// workspace is created on the first submission, not here.
func newArgillaEvaluator(settings domain.ArgillaSettings, repos repositories) (*services.ArgillaEvaluator, error) {
	if !settings.IsConfigured() {
		logger.Debug("Argilla API key not set; human evaluation is disabled")
		return nil, nil
	}

	client, err := argilla.NewClientFromSettings(settings)
	if err != nil {
		return nil, err
	}
	return services.NewArgillaEvaluator(
		repos.datasets, repos.runs, repos.evaluations, client, settings.Workspace), nil
}
