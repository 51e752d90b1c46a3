// Package config loads mdsplit settings from defaults, an optional YAML
// file and MDSPLIT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/mdsplit/internal/chunker"
)

// EnvPrefix prefixes every environment override, e.g. MDSPLIT_FLAT_MAX_CHUNK_SIZE.
const EnvPrefix = "MDSPLIT"

type Config struct {
	Port string `mapstructure:"port" yaml:"port"`

	// Auth
	APIKey string `mapstructure:"api_key" yaml:"api_key"`

	// Worker pool
	WorkerCount       int `mapstructure:"worker_count" yaml:"worker_count"`
	MaxQueueSize      int `mapstructure:"max_queue_size" yaml:"max_queue_size"`
	MaxConcurrentDocs int `mapstructure:"max_concurrent_docs" yaml:"max_concurrent_docs"`

	// Upload limits
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`

	// Job state
	JobTTL time.Duration `mapstructure:"job_ttl" yaml:"job_ttl"`

	// Chunking defaults
	Flat chunker.Config `mapstructure:"flat" yaml:"flat"`
	Tree chunker.Config `mapstructure:"tree" yaml:"tree"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Port:              "8090",
		WorkerCount:       4,
		MaxQueueSize:      100,
		MaxConcurrentDocs: 8,
		MaxUploadBytes:    52428800, // 50MB
		JobTTL:            time.Hour,
		Flat:              chunker.DefaultFlatConfig(),
		Tree:              chunker.DefaultTreeConfig(),
	}
}

// ValidateChunking checks both chunking profiles.
func (c *Config) ValidateChunking() error {
	if err := c.Flat.Validate(); err != nil {
		return fmt.Errorf("flat: %w", err)
	}
	if err := c.Tree.Validate(); err != nil {
		return fmt.Errorf("tree: %w", err)
	}
	return nil
}

// Validate checks everything the server needs.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%s_API_KEY is required", EnvPrefix)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("worker_count must be positive, got %d", c.WorkerCount)
	}
	if c.MaxQueueSize <= 0 {
		return fmt.Errorf("max_queue_size must be positive, got %d", c.MaxQueueSize)
	}
	if c.MaxConcurrentDocs <= 0 {
		return fmt.Errorf("max_concurrent_docs must be positive, got %d", c.MaxConcurrentDocs)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.JobTTL <= 0 {
		return fmt.Errorf("job_ttl must be positive, got %s", c.JobTTL)
	}
	return c.ValidateChunking()
}

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v         *viper.Viper
	logger    *slog.Logger
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager loads the initial configuration. cfgFile may be empty, in
// which case ./mdsplit.yaml and $HOME/.mdsplit/mdsplit.yaml are tried and
// a missing file is not an error.
func NewManager(cfgFile string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cm := &Manager{
		v:      viper.New(),
		logger: logger,
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

func (cm *Manager) initViper(cfgFile string) error {
	v := cm.v
	d := DefaultConfig()
	v.SetDefault("port", d.Port)
	v.SetDefault("api_key", d.APIKey)
	v.SetDefault("worker_count", d.WorkerCount)
	v.SetDefault("max_queue_size", d.MaxQueueSize)
	v.SetDefault("max_concurrent_docs", d.MaxConcurrentDocs)
	v.SetDefault("max_upload_bytes", d.MaxUploadBytes)
	v.SetDefault("job_ttl", d.JobTTL)
	for prefix, c := range map[string]chunker.Config{"flat": d.Flat, "tree": d.Tree} {
		v.SetDefault(prefix+".max_chunk_size", c.MaxChunkSize)
		v.SetDefault(prefix+".min_chunk_size", c.MinChunkSize)
		v.SetDefault(prefix+".overlap_size", c.OverlapSize)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("mdsplit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.mdsplit")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	return nil
}

func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFileUsed returns the path of the loaded config file, or "".
func (cm *Manager) ConfigFileUsed() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig reloads the file whenever it changes. A reload that fails to
// parse or validate is logged and the previous configuration stays.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err == nil {
			err = cfg.ValidateChunking()
		}
		if err != nil {
			cm.logger.Warn("config reload rejected", "file", e.Name, "error", err)
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		cm.logger.Info("config reloaded", "file", e.Name)
		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

// WriteDefault writes the default configuration to path.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	header := []byte(`# mdsplit configuration
# Every key can be overridden with an MDSPLIT_ environment variable,
# e.g. MDSPLIT_TREE_MAX_CHUNK_SIZE=800.

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
