// Package bootstrap wires configuration, logging, storage, the extraction
// provider and the similarity index into a running HTTP server.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"trulogo-server-go/internal/core/providers/extractor"
	"trulogo-server-go/internal/domain/assess"
	"trulogo-server-go/internal/domain/corpus"
	"trulogo-server-go/internal/domain/heatmap"
	"trulogo-server-go/internal/domain/index"
	platformconfig "trulogo-server-go/internal/platform/config"
	platformerrors "trulogo-server-go/internal/platform/errors"
	platformstorage "trulogo-server-go/internal/platform/storage"
	httptransport "trulogo-server-go/internal/transport/http"
	httpanalyze "trulogo-server-go/internal/transport/http/analyze"
	httpdashboard "trulogo-server-go/internal/transport/http/dashboard"
	"trulogo-server-go/internal/utils"

	// Provider registration.
	_ "trulogo-server-go/internal/core/providers/extractor/local"
	_ "trulogo-server-go/internal/core/providers/extractor/openai"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	config     *platformconfig.Config
	configPath string
	logger     *utils.Logger
	store      *platformstorage.ScanStore
	index      *index.Index
	provider   extractor.Provider
	assessor   *assess.Service
}

// Run starts the whole service lifecycle: init graph, HTTP server, graceful
// shutdown.
func Run(ctx context.Context) error {
	state := &appState{}

	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		return err
	}

	logger := state.logger
	logBootstrapGraph(logger, steps)

	defer func() {
		if state.provider != nil {
			if err := state.provider.Cleanup(); err != nil {
				logger.WarnTag("BOOT", "extractor cleanup failed: %v", err)
			}
		}
		if state.store != nil {
			if err := state.store.Close(); err != nil {
				logger.WarnTag("BOOT", "scan store close failed: %v", err)
			}
		}
		logger.Close()
	}()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	if err := waitForShutdown(signalCtx, cancel, logger, group); err != nil {
		return err
	}

	logger.InfoTag("BOOT", "server stopped cleanly")
	return nil
}

// InitGraph lists the init steps in dependency order.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init",
			Title:     "Initialise logging",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "storage:open-scan-store",
			Title:     "Open scan store",
			DependsOn: []string{"config:load", "logging:init"},
			Kind:      platformerrors.KindStorage,
			Execute:   openScanStoreStep,
		},
		{
			ID:        "extractor:init-provider",
			Title:     "Initialise extraction provider",
			DependsOn: []string{"config:load", "logging:init"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initExtractorStep,
		},
		{
			ID:        "corpus:seed-index",
			Title:     "Seed similarity index",
			DependsOn: []string{"extractor:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   seedCorpusStep,
		},
		{
			ID:        "assess:init-service",
			Title:     "Initialise assessment service",
			DependsOn: []string{"storage:open-scan-store", "corpus:seed-index"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initAssessStep,
		},
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "execute init steps",
			"nil bootstrap state")
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(platformerrors.KindBootstrap, step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep))
			}
		}
		if step.Execute == nil {
			return platformerrors.New(platformerrors.KindBootstrap, step.ID,
				"missing execute function")
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}
			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

func logBootstrapGraph(logger *utils.Logger, steps []initStep) {
	if logger == nil {
		return
	}
	logger.InfoTag("BOOT", "initialisation sequence")
	for _, step := range steps {
		logger.InfoTag("BOOT", "  %s: %s", step.ID, step.Title)
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	cfg, path, err := platformconfig.Load("")
	if err != nil {
		return err
	}
	state.config = cfg
	state.configPath = path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "logging:init",
			"config not loaded")
	}

	logger, err := utils.NewLogger(&utils.LogCfg{
		LogLevel: state.config.Log.Level,
		LogDir:   state.config.Log.Dir,
		LogFile:  state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init",
			"failed to initialise logger", err)
	}

	state.logger = logger
	utils.DefaultLogger = logger

	source := state.configPath
	if source == "" {
		source = "built-in defaults"
	}
	logger.InfoTag("BOOT", "logging ready [%s], config from %s", state.config.Log.Level, source)
	return nil
}

func openScanStoreStep(_ context.Context, state *appState) error {
	store, err := platformstorage.OpenScanStore(state.config.Storage.ScanDB)
	if err != nil {
		return err
	}
	state.store = store
	state.logger.InfoTag("STORE", "scan store ready at %s", state.config.Storage.ScanDB)
	return nil
}

func initExtractorStep(_ context.Context, state *appState) error {
	cfg := state.config.Extractor
	providerCfg, ok := cfg.Providers[cfg.Selected]
	if !ok {
		return platformerrors.New(platformerrors.KindConfig, "extractor:init-provider",
			fmt.Sprintf("no provider configured for %q", cfg.Selected))
	}

	provider, err := extractor.Create(&extractor.Config{
		Type:            providerCfg.Type,
		ModelName:       providerCfg.ModelName,
		VisualModelName: providerCfg.VisualModelName,
		BaseURL:         providerCfg.BaseURL,
		APIKey:          providerCfg.APIKey,
		Dimensions:      providerCfg.Dimensions,
	}, state.logger)
	if err != nil {
		return err
	}

	switch state.config.Cache.Type {
	case "memory":
		provider = extractor.NewCached(provider, extractor.NewMemoryCache())
	case "redis":
		provider = extractor.NewCached(provider, extractor.NewRedisCache(extractor.RedisCacheConfig{
			Addr:     state.config.Cache.Redis.Addr,
			Password: state.config.Cache.Redis.Password,
			DB:       state.config.Cache.Redis.DB,
			Prefix:   state.config.Cache.Redis.Prefix,
			TTL:      state.config.Cache.Redis.TTL,
		}))
	}

	state.provider = extractor.Limited(provider, int64(cfg.MaxConcurrent))
	state.logger.InfoTag("EXTRACT", "extractor %q ready (cache: %s)",
		cfg.Selected, cacheLabel(state.config.Cache.Type))
	return nil
}

func cacheLabel(cacheType string) string {
	if cacheType == "" || cacheType == "none" {
		return "disabled"
	}
	return cacheType
}

func seedCorpusStep(ctx context.Context, state *appState) error {
	state.index = index.New()

	trademarks := corpus.DefaultTrademarks
	if manifest := state.config.Corpus.Manifest; manifest != "" {
		loaded, err := corpus.LoadManifest(manifest)
		if err != nil {
			return err
		}
		trademarks = loaded.Trademarks
	}

	seeder := corpus.NewSeeder(state.provider, state.index, state.logger)
	return seeder.Seed(ctx, trademarks)
}

func initAssessStep(_ context.Context, state *appState) error {
	assessor, err := assess.NewService(assess.Deps{
		Extractor: state.provider,
		Searcher:  state.index,
		Recorder:  state.store,
		Heatmap:   heatmap.Render,
		Logger:    state.logger,
		TopK:      state.config.Index.TopK,
	})
	if err != nil {
		return err
	}
	state.assessor = assessor
	return nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) error {
	config := state.config
	logger := state.logger

	httpRouter, err := httptransport.Build(httptransport.Options{
		Config: config,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	router := httpRouter.Engine

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			httptransport.RespondError(c, http.StatusNotFound, "api not found")
			return
		}
		c.File(config.Web.StaticDir + "/index.html")
	})

	analyzeService, err := httpanalyze.NewService(state.assessor, logger)
	if err != nil {
		return err
	}
	dashboardService, err := httpdashboard.NewService(state.store, logger)
	if err != nil {
		return err
	}

	if err := analyzeService.Register(groupCtx, httpRouter.API); err != nil {
		return err
	}
	if err := dashboardService.Register(groupCtx, httpRouter.API); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Server.IP, config.Server.Port),
		Handler: router,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "server listening on http://%s", httpServer.Addr)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "server shutdown failed: %v", err)
			} else {
				logger.InfoTag("HTTP", "server shut down gracefully")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "server failed: %v", err)
			return err
		}
		return nil
	})

	return nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *utils.Logger,
	g *errgroup.Group,
) error {
	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case <-ctx.Done():
		logger.InfoTag("BOOT", "received %v, shutting down", context.Cause(ctx))
		cancel()

		select {
		case err := <-done:
			if err != nil {
				logger.ErrorTag("BOOT", "error during shutdown: %v", err)
				return err
			}
			logger.InfoTag("BOOT", "all services stopped")
		case <-time.After(15 * time.Second):
			logger.ErrorTag("BOOT", "shutdown timed out, exiting")
			return errors.New("shutdown timed out")
		}
	case err := <-done:
		if err != nil {
			logger.ErrorTag("BOOT", "service failed: %v", err)
			return err
		}
	}
	return nil
}
