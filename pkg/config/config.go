// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for the index
// build, the corpus and extractor collaborators, the catalog, and every backing
// service (Postgres, Kafka, Redis) plus logging and metrics.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Index     IndexConfig     `yaml:"index"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Search    SearchConfig    `yaml:"search"`
	Server    ServerConfig    `yaml:"server"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// IndexConfig controls where the flat index files live and how they are built.
type IndexConfig struct {
	Name     string `yaml:"name"`
	DataDir  string `yaml:"dataDir"`
	Resident bool   `yaml:"resident"`
	// Workers > 1 extracts terms in parallel during the forward pass.
	Workers       int `yaml:"workers"`
	BatchSize     int `yaml:"batchSize"`
	ReadCacheSize int `yaml:"readCacheSize"`
	ProgressEvery int `yaml:"progressEvery"`
}

// CorpusConfig names the corpus file and its format ("cacm" or "lines").
type CorpusConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

// ExtractorConfig selects the term extractor ("whitespace", "simple",
// "porter"). An empty stopword list keeps the built-in set.
type ExtractorConfig struct {
	Name      string   `yaml:"name"`
	Stopwords []string `yaml:"stopwords"`
}

// CatalogConfig selects where index tables are persisted: "file" or
// "postgres".
type CatalogConfig struct {
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
}

// SearchConfig controls ranking limits and the default model.
type SearchConfig struct {
	Model        string        `yaml:"model"`
	DefaultLimit int           `yaml:"defaultLimit"`
	MaxResults   int           `yaml:"maxResults"`
	CacheEnabled bool          `yaml:"cacheEnabled"`
	Timeout      time.Duration `yaml:"timeout"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled bool        `yaml:"enabled"`
	Brokers []string    `yaml:"brokers"`
	Topics  KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	IndexComplete string `yaml:"indexComplete"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values, or an error if the result is not usable.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the index cannot run with.
func (c *Config) Validate() error {
	if c.Index.Name == "" {
		return fmt.Errorf("index.name must not be empty")
	}
	if strings.ContainsAny(c.Index.Name, `/\`) {
		return fmt.Errorf("index.name %q must not contain path separators", c.Index.Name)
	}
	if c.Index.DataDir == "" {
		return fmt.Errorf("index.dataDir must not be empty")
	}
	if c.Index.Workers < 1 {
		return fmt.Errorf("index.workers must be at least 1, got %d", c.Index.Workers)
	}
	switch c.Catalog.Backend {
	case "file", "postgres":
	default:
		return fmt.Errorf("catalog.backend must be file or postgres, got %q", c.Catalog.Backend)
	}
	if c.Search.DefaultLimit < 1 || c.Search.MaxResults < c.Search.DefaultLimit {
		return fmt.Errorf("search limits invalid: default %d, max %d", c.Search.DefaultLimit, c.Search.MaxResults)
	}
	return nil
}

// defaultConfig returns a Config with defaults for local development.
func defaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Name:          "Index",
			DataDir:       "data",
			Workers:       1,
			BatchSize:     256,
			ReadCacheSize: 1024,
			ProgressEvery: 1000,
		},
		Corpus: CorpusConfig{
			Path:   "cacm/cacm.all",
			Format: "cacm",
		},
		Extractor: ExtractorConfig{
			Name: "porter",
		},
		Catalog: CatalogConfig{
			Backend: "file",
			Dir:     "data",
		},
		Search: SearchConfig{
			Model:        "bm25",
			DefaultLimit: 10,
			MaxResults:   100,
			CacheEnabled: true,
			Timeout:      5 * time.Second,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "tfindex",
			User:            "tfindex",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topics: KafkaTopics{
				IndexComplete: "index.complete",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads TFX_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TFX_INDEX_NAME"); v != "" {
		cfg.Index.Name = v
	}
	if v := os.Getenv("TFX_INDEX_DATA_DIR"); v != "" {
		cfg.Index.DataDir = v
	}
	if v := os.Getenv("TFX_INDEX_RESIDENT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Index.Resident = b
		}
	}
	if v := os.Getenv("TFX_INDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.Workers = n
		}
	}
	if v := os.Getenv("TFX_CORPUS_PATH"); v != "" {
		cfg.Corpus.Path = v
	}
	if v := os.Getenv("TFX_CORPUS_FORMAT"); v != "" {
		cfg.Corpus.Format = v
	}
	if v := os.Getenv("TFX_EXTRACTOR"); v != "" {
		cfg.Extractor.Name = v
	}
	if v := os.Getenv("TFX_CATALOG_BACKEND"); v != "" {
		cfg.Catalog.Backend = v
	}
	if v := os.Getenv("TFX_CATALOG_DIR"); v != "" {
		cfg.Catalog.Dir = v
	}
	if v := os.Getenv("TFX_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TFX_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("TFX_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("TFX_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("TFX_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("TFX_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("TFX_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
		cfg.Kafka.Enabled = true
	}
	if v := os.Getenv("TFX_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TFX_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("TFX_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TFX_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
