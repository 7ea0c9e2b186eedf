// Package app wires configuration, storage, the NSE client and services into
// one App shared by the HTTP server and the MCP tool surface.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/nsechat/internal/cache"
	"github.com/bobmcallan/nsechat/internal/clients/nse"
	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/interfaces"
	"github.com/bobmcallan/nsechat/internal/models"
	"github.com/bobmcallan/nsechat/internal/services/classify"
	"github.com/bobmcallan/nsechat/internal/services/quote"
	"github.com/bobmcallan/nsechat/internal/services/refresh"
	"github.com/bobmcallan/nsechat/internal/services/search"
	"github.com/bobmcallan/nsechat/internal/storage"
)

// refreshDrainTimeout bounds how long Close waits for a background refresh.
const refreshDrainTimeout = 10 * time.Second

// App holds all initialized services, clients, and the MCP server.
type App struct {
	Config          *common.Config
	Logger          *common.Logger
	Store           interfaces.MetadataStore
	Cache           interfaces.ResponseCache
	NSEClient       interfaces.NSEClient
	SearchService   interfaces.SearchService
	ClassifyService interfaces.ClassificationService
	RefreshService  *refresh.Service
	QuoteService    interfaces.QuoteService
	MCPServer       *server.MCPServer
	StartupTime     time.Time

	scheduler *Scheduler
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp loads configuration and initializes storage, clients, services and
// the MCP server. configPath may be empty, in which case NSECHAT_CONFIG, then
// nsechat.toml next to the binary, then config/nsechat.toml are tried.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("NSECHAT_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "nsechat.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/nsechat.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative paths to the binary directory
	if config.Storage.Badger.Path != "" && !filepath.IsAbs(config.Storage.Badger.Path) {
		config.Storage.Badger.Path = filepath.Join(binDir, config.Storage.Badger.Path)
	}
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	a, err := NewAppWithConfig(context.Background(), config, logger)
	if err != nil {
		return nil, err
	}
	a.StartupTime = startupStart

	logger.Info().
		Str("config", configPath).
		Str("storage", config.StorageAddress()).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// NewAppWithConfig connects the configured backends and builds the App.
// An unreachable response cache is logged and replaced by a no-op cache;
// an unreachable metadata store is fatal.
func NewAppWithConfig(ctx context.Context, config *common.Config, logger *common.Logger) (*App, error) {
	store, err := storage.NewMetadataStore(ctx, logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var rc interfaces.ResponseCache = cache.NoopCache{}
	if c, err := cache.New(ctx, logger, config.Cache); err != nil {
		logger.Warn().Err(err).Msg("Response cache unavailable - continuing without it")
	} else {
		rc = c
	}

	nseClient := nse.NewClientFromConfig(config.Clients.NSE, logger, rc)

	a := New(config, logger, store, nseClient)
	a.Cache = rc
	return a, nil
}

// New builds services over an existing store and NSE client and registers the MCP tools.
func New(config *common.Config, logger *common.Logger, store interfaces.MetadataStore, nseClient interfaces.NSEClient) *App {
	mcpServer := server.NewMCPServer(
		"nsechat",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	a := &App{
		Config:          config,
		Logger:          logger,
		Store:           store,
		Cache:           cache.NoopCache{},
		NSEClient:       nseClient,
		SearchService:   search.NewService(store, logger, config.Search),
		ClassifyService: classify.NewService(store, logger),
		RefreshService:  refresh.NewService(nseClient, store, logger, config.Refresh),
		QuoteService:    quote.NewService(nseClient, logger),
		MCPServer:       mcpServer,
		StartupTime:     time.Now(),
	}

	a.registerTools()
	return a
}

// registerTools registers all MCP tools on the App's MCPServer.
func (a *App) registerTools() {
	s := a.MCPServer
	logger := a.Logger

	s.AddTool(createGetCurrentDateTimeTool(), handleGetCurrentDateTime(a.QuoteService))
	s.AddTool(createGetMarketStatusTool(), handleGetMarketStatus(a.QuoteService))
	s.AddTool(createGetStockPriceTool(), handleGetStockPrice(a.QuoteService))
	s.AddTool(createGetStockHistoryTool(), handleGetStockHistory(a.QuoteService))
	s.AddTool(createGet52WeekHighTool(), handleGet52WeekHigh(a.QuoteService))
	s.AddTool(createGet52WeekLowTool(), handleGet52WeekLow(a.QuoteService))
	s.AddTool(createGetVolumeGainersTool(), handleGetVolumeGainers(a.QuoteService))
	s.AddTool(createSearchCompanyTool(), handleSearchCompany(a.SearchService, logger))
	s.AddTool(createSearchSectorOrIndustryTool(), handleSearchSectorOrIndustry(a.SearchService, logger))
	s.AddTool(createListClassificationLabelsTool(), handleListClassificationLabels(a.ClassifyService, logger))
	s.AddTool(createTopCompaniesInTool(), handleTopCompaniesIn(a.ClassifyService, logger))
	s.AddTool(createGetCorporateFilingsTool(), handleGetCorporateFilings(a.QuoteService))
	s.AddTool(createRefreshMetadataTool(), handleRefreshMetadata(a.RefreshService, logger))
}

// StartScheduler launches the cron-driven refresh when refresh.schedule is set.
func (a *App) StartScheduler() error {
	spec := a.Config.Refresh.Schedule
	if spec == "" {
		a.Logger.Info().Msg("Refresh scheduler: disabled (no schedule configured)")
		return nil
	}
	s, err := NewScheduler(spec, a.RefreshService, a.Logger)
	if err != nil {
		return err
	}
	s.Start()
	a.scheduler = s
	return nil
}

// StartupRefresh triggers a background refresh when refresh.on_startup is set
// or the metadata store is empty. It returns the run ID, or "" when none started.
func (a *App) StartupRefresh(ctx context.Context) string {
	reason := ""
	if a.Config.Refresh.OnStartup {
		reason = "configured"
	} else if n, err := a.Store.Count(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("Startup refresh: could not count metadata rows")
		return ""
	} else if n == 0 {
		reason = "empty store"
	}
	if reason == "" {
		return ""
	}

	id, err := a.RefreshService.TriggerAsync(models.RefreshTriggerStartup)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Startup refresh: not started")
		return ""
	}
	a.Logger.Info().Str("run_id", id).Str("reason", reason).Msg("Startup refresh: started")
	return id
}

// Close releases all resources held by the App.
// Shutdown order: stop scheduler, drain refresh, close cache, close storage.
func (a *App) Close() {
	if a.scheduler != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		a.scheduler.Stop(ctx)
		cancel()
		a.scheduler = nil
	}

	if a.RefreshService != nil && a.RefreshService.Running() {
		done := make(chan struct{})
		go func() {
			a.RefreshService.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(refreshDrainTimeout):
			a.Logger.Warn().Dur("waited", refreshDrainTimeout).Msg("Refresh still running at shutdown")
		}
	}

	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close response cache")
		}
		a.Cache = nil
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close metadata store")
		}
		a.Store = nil
	}
}
