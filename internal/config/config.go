package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr      string
	AuthToken string
}

// Config holds all runtime configuration options for the daemon.
type Config struct {
	Server ServerConfig

	// WorkspaceDir roots both the database and the per-track sidecar
	// folders.
	WorkspaceDir  string
	Mode          string
	LogLevel      string
	DefaultAgent  string
	ShutdownGrace time.Duration
}

const (
	defaultAddr          = "127.0.0.1:7080"
	defaultLogLevel      = "info"
	defaultMode          = "mcp"
	defaultShutdownGrace = 5 * time.Second
)

// getEnvString returns the environment variable value or default
func getEnvString(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvDuration returns the environment variable as duration or default
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// Parse parses command line flags and environment variables into Config.
// Priority: CLI flags > Environment variables > .env file > defaults
func Parse() (*Config, error) {
	// Load .env file if exists (silent fail if not present)
	// Check multiple locations: current directory, then config directory
	envFiles := []string{".env"}
	if configDir, err := os.UserConfigDir(); err == nil {
		envFiles = append(envFiles, filepath.Join(configDir, "postcal", ".env"))
	}
	_ = godotenv.Load(envFiles...) // Ignore error - file is optional

	cfg := &Config{
		Server: ServerConfig{
			Addr:      getEnvString("POSTCAL_ADDR", defaultAddr),
			AuthToken: getEnvString("POSTCAL_AUTH_TOKEN", ""),
		},
		WorkspaceDir:  getEnvString("POSTCAL_WORKSPACE_DIR", ""),
		Mode:          getEnvString("POSTCAL_MODE", defaultMode),
		LogLevel:      getEnvString("POSTCAL_LOG_LEVEL", defaultLogLevel),
		DefaultAgent:  getEnvString("POSTCAL_DEFAULT_AGENT", ""),
		ShutdownGrace: getEnvDuration("POSTCAL_SHUTDOWN_GRACE", defaultShutdownGrace),
	}

	// Define CLI flags (these will override environment variables)
	var addr, mode, logLevel, workspaceDir, defaultAgent string
	var shutdownGrace time.Duration

	flag.StringVar(&addr, "addr", "", "HTTP listen address (overrides env)")
	flag.StringVar(&workspaceDir, "workspace-dir", "", "Directory for the database and sidecar folders")
	flag.StringVar(&mode, "mode", "", "Run mode: mcp, http or both")
	flag.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&defaultAgent, "default-agent", "", "Agent assigned to events when none is given")
	flag.DurationVar(&shutdownGrace, "shutdown-grace", 0, "Grace period when shutting down")

	flag.Parse()

	if addr != "" {
		cfg.Server.Addr = addr
	}
	if mode != "" {
		cfg.Mode = mode
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if workspaceDir != "" {
		cfg.WorkspaceDir = workspaceDir
	}
	if defaultAgent != "" {
		cfg.DefaultAgent = defaultAgent
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "shutdown-grace" {
			cfg.ShutdownGrace = shutdownGrace
		}
	})

	switch strings.ToLower(cfg.Mode) {
	case "mcp", "http", "both":
		cfg.Mode = strings.ToLower(cfg.Mode)
	default:
		return nil, fmt.Errorf("invalid mode %q: must be mcp, http or both", cfg.Mode)
	}

	// Resolve workspace dir if not set
	if cfg.WorkspaceDir == "" {
		dir, err := defaultWorkspaceDir()
		if err != nil {
			return nil, fmt.Errorf("resolve default workspace dir: %w", err)
		}
		cfg.WorkspaceDir = dir
	}

	return cfg, nil
}

func defaultWorkspaceDir() (string, error) {
	baseDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(baseDir, "postcal")
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", err
	}
	return path, nil
}
