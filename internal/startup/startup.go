package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"snapspot/internal/logging"

	"github.com/caarlos0/env/v11"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	MediaDir    string `env:"MEDIA_DIR"    envDefault:"/media"`
	CacheDir    string `env:"CACHE_DIR"    envDefault:"/cache"`
	DatabaseDir string `env:"DATABASE_DIR" envDefault:"/database"`
	Port        string `env:"PORT"         envDefault:"8080"`

	PlacesBaseURL      string  `env:"PLACES_BASE_URL"      envDefault:"https://maps.googleapis.com/maps/api/place"`
	PlacesAPIKey       string  `env:"PLACES_API_KEY"`
	PlacesRadiusMeters int     `env:"PLACES_RADIUS_METERS" envDefault:"500"`
	PlacesKeyword      string  `env:"PLACES_KEYWORD"`
	PlacesMaxResults   int     `env:"PLACES_MAX_RESULTS"   envDefault:"10"`
	PlacesRateLimit    float64 `env:"PLACES_RATE_LIMIT"    envDefault:"5"`

	DeviceTimeout   time.Duration `env:"DEVICE_TIMEOUT"   envDefault:"5s"`
	DeviceLatitude  *float64      `env:"DEVICE_LATITUDE"`
	DeviceLongitude *float64      `env:"DEVICE_LONGITUDE"`

	AssetMaxAttempts int           `env:"ASSET_MAX_ATTEMPTS" envDefault:"5"`
	AssetBackoffStep time.Duration `env:"ASSET_BACKOFF_STEP" envDefault:"200ms"`

	PrefetchTimeout time.Duration `env:"PREFETCH_TIMEOUT" envDefault:"10s"`
	SuggestionWait  time.Duration `env:"SUGGESTION_WAIT"  envDefault:"1500ms"`

	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"60s"`
	TempMaxAge    time.Duration `env:"TEMP_MAX_AGE"   envDefault:"5m"`

	IndexInterval time.Duration `env:"INDEX_INTERVAL" envDefault:"30m"`
	IndexWorkers  int           `env:"INDEX_WORKERS"  envDefault:"0"`

	PreviewSize int  `env:"PREVIEW_SIZE" envDefault:"1280"`
	VipsEnabled bool `env:"VIPS_ENABLED" envDefault:"true"`

	LogHealthChecks bool `env:"LOG_HEALTH_CHECKS" envDefault:"true"`

	MemoryLimit int64   `env:"MEMORY_LIMIT"`
	MemoryRatio float64 `env:"MEMORY_RATIO" envDefault:"0.85"`

	// Derived paths
	DatabasePath string `env:"-"`
	PreviewDir   string `env:"-"`

	// Set when PreviewDir is writable
	PreviewsEnabled bool `env:"-"`
}

// HasDeviceFix reports whether a fixed device position was configured.
func (c *Config) HasDeviceFix() bool {
	return c.DeviceLatitude != nil && c.DeviceLongitude != nil
}

// ParseConfig reads an optional .env file and then the environment. It
// performs no directory setup and logs nothing.
func ParseConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logging.Warn("Failed to load .env file: %v", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if (c.DeviceLatitude == nil) != (c.DeviceLongitude == nil) {
		return fmt.Errorf("DEVICE_LATITUDE and DEVICE_LONGITUDE must be set together")
	}
	if c.HasDeviceFix() {
		if *c.DeviceLatitude < -90 || *c.DeviceLatitude > 90 {
			return fmt.Errorf("DEVICE_LATITUDE out of range: %v", *c.DeviceLatitude)
		}
		if *c.DeviceLongitude < -180 || *c.DeviceLongitude > 180 {
			return fmt.Errorf("DEVICE_LONGITUDE out of range: %v", *c.DeviceLongitude)
		}
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %v", c.SweepInterval)
	}
	if c.TempMaxAge <= 0 {
		return fmt.Errorf("TEMP_MAX_AGE must be positive, got %v", c.TempMaxAge)
	}
	if c.IndexInterval <= 0 {
		return fmt.Errorf("INDEX_INTERVAL must be positive, got %v", c.IndexInterval)
	}
	return nil
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	config, err := ParseConfig()
	if err != nil {
		return nil, err
	}

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  MEDIA_DIR:            %s", config.MediaDir)
	logging.Info("  CACHE_DIR:            %s", config.CacheDir)
	logging.Info("  DATABASE_DIR:         %s", config.DatabaseDir)
	logging.Info("  PORT:                 %s", config.Port)
	logging.Info("  PLACES_BASE_URL:      %s", config.PlacesBaseURL)
	logging.Info("  PLACES_API_KEY:       %s", maskSecret(config.PlacesAPIKey))
	logging.Info("  PLACES_RADIUS_METERS: %d", config.PlacesRadiusMeters)
	logging.Info("  PLACES_RATE_LIMIT:    %v/s", config.PlacesRateLimit)
	logging.Info("  DEVICE_TIMEOUT:       %v", config.DeviceTimeout)
	logging.Info("  ASSET_MAX_ATTEMPTS:   %d", config.AssetMaxAttempts)
	logging.Info("  PREFETCH_TIMEOUT:     %v", config.PrefetchTimeout)
	logging.Info("  SUGGESTION_WAIT:      %v", config.SuggestionWait)
	logging.Info("  SWEEP_INTERVAL:       %v", config.SweepInterval)
	logging.Info("  TEMP_MAX_AGE:         %v", config.TempMaxAge)
	logging.Info("  INDEX_INTERVAL:       %v", config.IndexInterval)
	logging.Info("  VIPS_ENABLED:         %v", config.VipsEnabled)
	logging.Info("  LOG_LEVEL:            %s", logging.GetLevel())

	if err := config.Prepare(); err != nil {
		return nil, err
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:        ENABLED (required)")
	logging.Info("    Previews:        %s", enabledString(config.PreviewsEnabled))
	logging.Info("    Place search:    %s", enabledString(config.PlacesAPIKey != ""))
	logging.Info("    Fixed position:  %s", enabledString(config.HasDeviceFix()))

	return config, nil
}

// Prepare makes the directories absolute, creates them and derives the
// database and preview paths. LoadConfig calls it; commands that skip the
// banner call it after ParseConfig.
func (c *Config) Prepare() error {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	for _, dir := range []struct {
		name string
		path *string
	}{
		{"media", &c.MediaDir},
		{"cache", &c.CacheDir},
		{"database", &c.DatabaseDir},
	} {
		abs, err := filepath.Abs(*dir.path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s directory path: %w", dir.name, err)
		}
		*dir.path = abs
		logging.Info("  %s directory (absolute): %s", capitalize(dir.name), abs)
	}

	// a missing media mount is not fatal
	if err := ensureDirectory(c.MediaDir, "media"); err != nil {
		logging.Warn("  Media directory issue: %v", err)
	}

	c.DatabasePath = filepath.Join(c.DatabaseDir, "snapspot.db")
	c.PreviewDir = filepath.Join(c.CacheDir, "previews")

	if err := ensureDirectory(c.DatabaseDir, "database"); err != nil {
		return fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(c.DatabaseDir); err != nil {
		return fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	c.PreviewsEnabled = setupOptionalDir(c.PreviewDir, "previews")
	return nil
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func maskSecret(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 4:
		return "****"
	default:
		return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogPreviewInit logs preview renderer setup
func LogPreviewInit(enabled, vips bool) {
	if !enabled {
		logging.Info("  Previews disabled (cache directory not writable)")
		return
	}
	if vips {
		logging.Info("  [OK] Previews rendered with libvips")
	} else {
		logging.Info("  [OK] Previews rendered with pure Go decoder")
	}
}

// PipelineInfo summarizes the wired pipeline for the startup log.
type PipelineInfo struct {
	DeviceMode      string
	PlaceSearch     bool
	DeviceTimeout   time.Duration
	PrefetchTimeout time.Duration
	SweepInterval   time.Duration
	TempMaxAge      time.Duration
}

// LogPipelineInit logs the location pipeline configuration
func LogPipelineInit(info PipelineInfo) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("PIPELINE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Resolution chain: override -> asset metadata -> device sensor")
	logging.Info("  Device sensor:    %s (timeout %v)", info.DeviceMode, info.DeviceTimeout)
	if info.PlaceSearch {
		logging.Info("  Place search:     prefetch timeout %v", info.PrefetchTimeout)
	} else {
		logging.Warn("  Place search:     no API key, suggestions will be unavailable")
	}
	logging.Info("  Temp janitor:     every %v, max age %v", info.SweepInterval, info.TempMaxAge)
}

// LogIndexerInit logs indexer initialization
func LogIndexerInit(interval time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("INDEXER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Index interval: %v", interval)
	logging.Info("  Starting indexer...")
}

// LogIndexerStarted logs successful indexer start
func LogIndexerStarted() {
	logging.Info("  [OK] Indexer started")
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes, grouped by prefix, at debug level
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	if logHealthChecks {
		logging.Info("  Health check logging: ON")
	} else {
		logging.Info("  Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api", config.Port)
	logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.Port)
	logging.Info("    Health:        http://0.0.0.0:%s/health", config.Port)
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

func printBanner() {
	banner := `
------------------------------------------------------------
   _____                  _____             _
  / ___/____  ____ _____ / ___/____  ____  | |_
  \__ \/ __ \/ __ '/ __ \\__ \/ __ \/ __ \ | __|
 ___/ / / / / /_/ / /_/ /__/ / /_/ / /_/ / | |_
/____/_/ /_/\__,_/ .___/____/ .___/\____/   \__|
                /_/        /_/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}
