package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lawnald/counselrank/internal/domain"
	"github.com/lawnald/counselrank/internal/domain/profile"
	"github.com/lawnald/counselrank/internal/domain/rank"
)

// Config holds the counselrank service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Logging    LoggingConfig    `yaml:"logging"`
	Auth       AuthConfig       `yaml:"auth"`
	Redis      RedisConfig      `yaml:"redis"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Index      IndexConfig      `yaml:"index"`
	Presence   PresenceConfig   `yaml:"presence"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Taxonomy   TaxonomyConfig   `yaml:"taxonomy"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings for admin routes.
type AuthConfig struct {
	AdminAPIKeys []string `yaml:"admin_api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// RedisConfig holds the optional Redis connection. When Addrs is empty the
// service runs without the embedding cache and with in-memory presence.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a Redis backend is configured.
func (r RedisConfig) Enabled() bool { return len(r.Addrs) > 0 }

// OpenAIConfig holds credentials for the OpenAI-compatible API serving both
// the embedder and the classifier.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// EmbeddingConfig holds embedding model settings.
type EmbeddingConfig struct {
	Model         string `yaml:"model"`
	Dimensions    int    `yaml:"dimensions"`
	MaxInputChars int    `yaml:"max_input_chars"`
	TimeoutSec    int    `yaml:"timeout_sec"`
}

// ClassifierConfig holds query classification model settings.
type ClassifierConfig struct {
	Model      string `yaml:"model"`
	MaxTokens  int    `yaml:"max_tokens"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// CatalogConfig locates the professional catalog file.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// IndexConfig holds index build settings.
type IndexConfig struct {
	SnapshotPath string `yaml:"snapshot_path"`
	// MaxProfessionals caps a full rebuild to bound embedding cost. 0 = no cap.
	MaxProfessionals int `yaml:"max_professionals"`
	// RebuildConcurrency bounds parallel embedding calls during a rebuild.
	RebuildConcurrency int `yaml:"rebuild_concurrency"`
	// ContentTypes is the allow-list of content types eligible for indexing.
	ContentTypes []string `yaml:"content_types"`
}

// PresenceConfig holds presence tracker settings.
type PresenceConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// ScoringConfig holds the fusion weights and content type weighting.
type ScoringConfig struct {
	Weights        rank.Weights       `yaml:"weights"`
	ContentWeights map[string]float64 `yaml:"content_weights"`
}

// TaxonomyEntry is one configured practice domain.
type TaxonomyEntry struct {
	Tags     []string `yaml:"tags"`
	Keywords []string `yaml:"keywords"`
}

// TaxonomyConfig maps domain names to tags and keywords. Empty = built-in default.
type TaxonomyConfig map[string]TaxonomyEntry

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Redis.ReadinessTimeout <= 0 {
		c.Redis.ReadinessTimeout = 10
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.MaxInputChars <= 0 {
		c.Embedding.MaxInputChars = 8000
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 15
	}
	if c.Classifier.Model == "" {
		c.Classifier.Model = "gpt-4o-mini"
	}
	if c.Classifier.MaxTokens <= 0 {
		c.Classifier.MaxTokens = 1000
	}
	if c.Classifier.TimeoutSec <= 0 {
		c.Classifier.TimeoutSec = 20
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "data/lawyers.json"
	}
	if c.Index.SnapshotPath == "" {
		c.Index.SnapshotPath = "data/index.snapshot"
	}
	if c.Index.MaxProfessionals < 0 {
		c.Index.MaxProfessionals = 0
	}
	if c.Index.RebuildConcurrency <= 0 {
		c.Index.RebuildConcurrency = 4
	}
	if len(c.Index.ContentTypes) == 0 {
		c.Index.ContentTypes = []string{"case", "column", "blog", "youtube"}
	}
	if c.Presence.KeyPrefix == "" {
		c.Presence.KeyPrefix = "counselrank:presence:"
	}
	if (c.Scoring.Weights == rank.Weights{}) {
		c.Scoring.Weights = rank.DefaultWeights()
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if err := c.Scoring.Weights.Validate(); err != nil {
		return fmt.Errorf("scoring.weights: %w", err)
	}
	for name, w := range c.Scoring.ContentWeights {
		if w < 0 {
			return fmt.Errorf("scoring.content_weights.%s must be non-negative, got %v", name, w)
		}
	}
	return nil
}

// BuildTaxonomy converts the configured taxonomy, falling back to the
// built-in legal practice taxonomy when none is configured.
func (c *Config) BuildTaxonomy() domain.Taxonomy {
	if len(c.Taxonomy) == 0 {
		return domain.DefaultTaxonomy()
	}
	t := make(domain.Taxonomy, len(c.Taxonomy))
	for name, e := range c.Taxonomy {
		t[name] = domain.DomainMapping{Tags: e.Tags, Keywords: e.Keywords}
	}
	if _, ok := t[domain.FallbackDomain]; !ok {
		t[domain.FallbackDomain] = domain.DomainMapping{}
	}
	return t
}

// BuildContentWeights converts the configured content weighting, falling back
// to the built-in defaults when none is configured.
func (c *Config) BuildContentWeights() rank.ContentTypeWeights {
	if len(c.Scoring.ContentWeights) == 0 {
		return rank.DefaultContentTypeWeights()
	}
	w := make(rank.ContentTypeWeights, len(c.Scoring.ContentWeights))
	for name, v := range c.Scoring.ContentWeights {
		w[profile.ContentType(name)] = v
	}
	return w
}

// IndexableContentTypes converts the configured allow-list.
func (c *Config) IndexableContentTypes() map[profile.ContentType]bool {
	allow := make(map[profile.ContentType]bool, len(c.Index.ContentTypes))
	for _, t := range c.Index.ContentTypes {
		allow[profile.ContentType(t)] = true
	}
	return allow
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
