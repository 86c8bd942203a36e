package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dshills/codeweave/internal/chunker"
	"github.com/dshills/codeweave/internal/delimiter"
	"github.com/dshills/codeweave/internal/semantic"
)

// Environment variables that override file settings.
const (
	EnvDBPath        = "CODEWEAVE_DB_PATH"
	EnvLogLevel      = "CODEWEAVE_LOG_LEVEL"
	EnvMaxChunks     = "CODEWEAVE_MAX_CHUNKS"
	EnvMaxFileSizeMB = "CODEWEAVE_MAX_FILE_SIZE_MB"
	EnvChunkTimeout  = "CODEWEAVE_CHUNK_TIMEOUT"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = "codeweave.yaml"

// Config holds all codeweave configuration.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Indexer    IndexerConfig    `yaml:"indexer"`
	Search     SearchConfig     `yaml:"search"`
	Watcher    WatcherConfig    `yaml:"watcher"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// StorageConfig configures the chunk database.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// ChunkerConfig configures chunking limits and per-language extensions.
type ChunkerConfig struct {
	MaxChunks     int     `yaml:"max_chunks"`
	MaxFileSizeMB float64 `yaml:"max_file_size_mb"`
	ChunkTimeout  string  `yaml:"chunk_timeout"`
	MaxASTDepth   int     `yaml:"max_ast_depth"`

	// Extensions maps file extensions (without the dot) to language names.
	Extensions map[string]string `yaml:"extensions,omitempty"`

	// Delimiters adds patterns per language, tried before the built-ins.
	Delimiters map[string][]DelimiterConfig `yaml:"delimiters,omitempty"`
}

// DelimiterConfig is the YAML form of a delimiter pattern.
type DelimiterConfig struct {
	Kind       string   `yaml:"kind"`
	Starts     []string `yaml:"starts"`
	Ends       []string `yaml:"ends,omitempty"`
	AnyEnd     bool     `yaml:"any_end,omitempty"`
	Priority   *int     `yaml:"priority,omitempty"`
	Inclusive  *bool    `yaml:"inclusive,omitempty"`
	WholeLines *bool    `yaml:"whole_lines,omitempty"`
	Nestable   *bool    `yaml:"nestable,omitempty"`
}

// ClassifierConfig configures node classification.
type ClassifierConfig struct {
	CacheSize           int     `yaml:"cache_size"`
	ImportanceThreshold float64 `yaml:"importance_threshold"`

	// Overrides maps language -> node type -> category name.
	Overrides map[string]map[string]string `yaml:"overrides,omitempty"`
}

// IndexerConfig configures repository indexing.
type IndexerConfig struct {
	Workers       int      `yaml:"workers"`
	BatchSize     int      `yaml:"batch_size"`
	IncludeTests  bool     `yaml:"include_tests"`
	IncludeVendor bool     `yaml:"include_vendor"`
	ExcludeDirs   []string `yaml:"exclude_dirs,omitempty"`
}

// SearchConfig configures the keyword search query cache.
type SearchConfig struct {
	CacheSize int    `yaml:"cache_size"` // 0 disables caching
	CacheTTL  string `yaml:"cache_ttl"`
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	Debounce string `yaml:"debounce"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			DBPath: "~/.codeweave/index.db",
		},
		Chunker: ChunkerConfig{
			MaxChunks:     chunker.DefaultMaxChunks,
			MaxFileSizeMB: chunker.DefaultMaxFileSizeMB,
			ChunkTimeout:  chunker.DefaultChunkTimeout.String(),
			MaxASTDepth:   chunker.DefaultMaxASTDepth,
		},
		Classifier: ClassifierConfig{
			CacheSize:           4096,
			ImportanceThreshold: chunker.DefaultImportanceThreshold,
		},
		Indexer: IndexerConfig{
			Workers:      runtime.NumCPU(),
			BatchSize:    20,
			IncludeTests: true,
			ExcludeDirs:  []string{"node_modules", "target", "dist", "build", "__pycache__"},
		},
		Search: SearchConfig{
			CacheSize: 1000,
			CacheTTL:  "1h",
		},
		Watcher: WatcherConfig{
			Debounce: "500ms",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	applyDefaults(cfg)
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault tries ./codeweave.yaml, then ~/.config/codeweave/config.yaml.
// It returns the path used, or "" when neither exists.
func LoadDefault() (*Config, string, error) {
	candidates := []string{DefaultFileName}
	if userPath, err := DefaultUserConfigPath(); err == nil {
		candidates = append(candidates, userPath)
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			cfg, err := Load(p)
			return cfg, p, err
		}
	}
	cfg, err := Load("")
	return cfg, "", err
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// DefaultUserConfigPath returns ~/.config/codeweave/config.yaml.
func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "codeweave", "config.yaml"), nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func applyDefaults(c *Config) {
	d := DefaultConfig()
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = d.Storage.DBPath
	}
	if c.Chunker.MaxChunks <= 0 {
		c.Chunker.MaxChunks = d.Chunker.MaxChunks
	}
	if c.Chunker.MaxFileSizeMB <= 0 {
		c.Chunker.MaxFileSizeMB = d.Chunker.MaxFileSizeMB
	}
	if c.Chunker.ChunkTimeout == "" {
		c.Chunker.ChunkTimeout = d.Chunker.ChunkTimeout
	}
	if c.Chunker.MaxASTDepth <= 0 {
		c.Chunker.MaxASTDepth = d.Chunker.MaxASTDepth
	}
	if c.Classifier.CacheSize < 0 {
		c.Classifier.CacheSize = 0
	}
	if c.Classifier.ImportanceThreshold <= 0 {
		c.Classifier.ImportanceThreshold = d.Classifier.ImportanceThreshold
	}
	if c.Indexer.Workers <= 0 {
		c.Indexer.Workers = d.Indexer.Workers
	}
	if c.Indexer.BatchSize <= 0 {
		c.Indexer.BatchSize = d.Indexer.BatchSize
	}
	if c.Search.CacheSize < 0 {
		c.Search.CacheSize = 0
	}
	if c.Search.CacheTTL == "" {
		c.Search.CacheTTL = d.Search.CacheTTL
	}
	if c.Watcher.Debounce == "" {
		c.Watcher.Debounce = d.Watcher.Debounce
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv(EnvMaxChunks); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid %s %q: must be a positive integer", EnvMaxChunks, v)
		}
		c.Chunker.MaxChunks = n
	}
	if v := os.Getenv(EnvMaxFileSizeMB); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid %s %q: must be a positive number", EnvMaxFileSizeMB, v)
		}
		c.Chunker.MaxFileSizeMB = f
	}
	if v := os.Getenv(EnvChunkTimeout); v != "" {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvChunkTimeout, v, err)
		}
		c.Chunker.ChunkTimeout = v
	}
	return nil
}

// ValidLogLevels lists the accepted logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Chunker.ChunkTimeout); err != nil {
		return fmt.Errorf("invalid chunker.chunk_timeout %q: %w", c.Chunker.ChunkTimeout, err)
	}
	if _, err := time.ParseDuration(c.Search.CacheTTL); err != nil {
		return fmt.Errorf("invalid search.cache_ttl %q: %w", c.Search.CacheTTL, err)
	}
	if _, err := time.ParseDuration(c.Watcher.Debounce); err != nil {
		return fmt.Errorf("invalid watcher.debounce %q: %w", c.Watcher.Debounce, err)
	}
	valid := false
	for _, l := range ValidLogLevels {
		if c.Logging.Level == l {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid logging.level %q (valid: %v)", c.Logging.Level, ValidLogLevels)
	}
	if _, err := c.Chunker.Patterns(); err != nil {
		return err
	}
	if c.Classifier.ImportanceThreshold > 1 {
		return fmt.Errorf("invalid classifier.importance_threshold %v (must be at most 1)", c.Classifier.ImportanceThreshold)
	}
	if _, err := c.Classifier.Registry(); err != nil {
		return err
	}
	return nil
}

// GetChunkTimeout returns the per-file chunking timeout.
func (c *ChunkerConfig) GetChunkTimeout() time.Duration {
	d, err := time.ParseDuration(c.ChunkTimeout)
	if err != nil {
		return chunker.DefaultChunkTimeout
	}
	return d
}

// GetCacheTTL returns how long cached search responses stay valid.
func (c *SearchConfig) GetCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return time.Hour
	}
	return d
}

// GetDebounce returns the watcher debounce interval.
func (c *WatcherConfig) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Debounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// Patterns converts the configured delimiters into patterns keyed by
// lower-cased language.
func (c *ChunkerConfig) Patterns() (map[string][]delimiter.Pattern, error) {
	if len(c.Delimiters) == 0 {
		return nil, nil
	}
	out := make(map[string][]delimiter.Pattern, len(c.Delimiters))
	for lang, defs := range c.Delimiters {
		for i, d := range defs {
			kind, ok := delimiter.ParseKind(d.Kind)
			if !ok {
				return nil, fmt.Errorf("chunker.delimiters.%s[%d]: unknown kind %q", lang, i, d.Kind)
			}
			if len(d.Starts) == 0 {
				return nil, fmt.Errorf("chunker.delimiters.%s[%d]: starts is required", lang, i)
			}
			if !d.AnyEnd && len(d.Ends) == 0 {
				return nil, fmt.Errorf("chunker.delimiters.%s[%d]: ends or any_end is required", lang, i)
			}
			key := strings.ToLower(lang)
			out[key] = append(out[key], delimiter.Pattern{
				Starts:         d.Starts,
				Ends:           d.Ends,
				AnyEnd:         d.AnyEnd,
				Kind:           kind,
				Priority:       d.Priority,
				Inclusive:      d.Inclusive,
				TakeWholeLines: d.WholeLines,
				Nestable:       d.Nestable,
			})
		}
	}
	return out, nil
}

// Governor builds the chunking limits and custom delimiters.
func (c *Config) Governor() (chunker.Governor, error) {
	patterns, err := c.Chunker.Patterns()
	if err != nil {
		return chunker.Governor{}, err
	}
	return chunker.Governor{
		MaxChunks:           c.Chunker.MaxChunks,
		MaxFileSizeMB:       c.Chunker.MaxFileSizeMB,
		ChunkTimeout:        c.Chunker.GetChunkTimeout(),
		MaxASTDepth:         c.Chunker.MaxASTDepth,
		CustomDelimiters:    patterns,
		ImportanceThreshold: c.Classifier.ImportanceThreshold,
	}, nil
}

// Registry builds the override registry: the built-in overrides plus the
// configured ones. The registry is not frozen.
func (c *ClassifierConfig) Registry() (*semantic.Registry, error) {
	reg := semantic.NewDefaultRegistry()
	for lang, table := range c.Overrides {
		for nodeType, name := range table {
			cat, err := semantic.ParseCategory(name)
			if err != nil {
				return nil, fmt.Errorf("classifier.overrides.%s.%s: %w", lang, nodeType, err)
			}
			if err := reg.Register(lang, nodeType, cat); err != nil {
				return nil, err
			}
		}
	}
	return reg, nil
}
