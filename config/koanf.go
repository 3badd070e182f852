package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/AbdelrahmanSuliman/Graduation-Project/model"
)

// DefaultConfigPaths are tried in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/spectacular/config.yaml",
}

const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			RequestTimeout:  30 * time.Second,
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxUploadBytes:  10 << 20,
		},
		Model: ModelConfig{
			ArtifactPath:    "hybrid_glasses_model.json",
			Hyperparameters: model.DefaultHyperparameters(),
		},
		Catalog: CatalogConfig{
			Source: CatalogSourceStatic,
			Size:   50,
			Redis: RedisConfig{
				Addr:        "127.0.0.1:6379",
				KeyPrefix:   "glasses",
				DialTimeout: 5 * time.Second,
			},
		},
		Ranking: RankingConfig{
			TopK:      5,
			ChunkSize: 64,
		},
		Classifier: ClassifierConfig{
			Endpoint: "http://127.0.0.1:8080/predictions/face-shape",
			Timeout:  10 * time.Second,
			Breaker: BreakerConfig{
				MaxRequests:  3,
				Interval:     time.Minute,
				Timeout:      30 * time.Second,
				MinRequests:  5,
				FailureRatio: 0.6,
			},
		},
		CORS: CORSConfig{
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			AllowCredentials: true,
		},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Requests: 60,
			Window:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// Load reads configuration from defaults, the file named by CONFIG_PATH (or the first
// of DefaultConfigPaths that exists) and environment variables, in that order.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit YAML path; an empty path skips the file layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"cors.allowed_origins",
	"model.hyperparameters.mlp_layers",
}

// processSliceFields turns comma-separated env values into lists.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"server_host":              "server.host",
	"server_port":              "server.port",
	"request_timeout":          "server.request_timeout",
	"shutdown_timeout":         "server.shutdown_timeout",
	"max_upload_bytes":         "server.max_upload_bytes",
	"model_path":               "model.artifact_path",
	"model_num_items":          "model.hyperparameters.num_items",
	"model_factor_num":         "model.hyperparameters.factor_num",
	"model_mlp_layers":         "model.hyperparameters.mlp_layers",
	"catalog_source":           "catalog.source",
	"catalog_size":             "catalog.size",
	"catalog_path":             "catalog.path",
	"redis_addr":               "catalog.redis.addr",
	"redis_password":           "catalog.redis.password",
	"redis_db":                 "catalog.redis.db",
	"redis_key_prefix":         "catalog.redis.key_prefix",
	"top_k":                    "ranking.top_k",
	"ranking_chunk_size":       "ranking.chunk_size",
	"ranking_workers":          "ranking.workers",
	"ranking_filter_expr":      "ranking.filter_expr",
	"pipeline_path":            "ranking.pipeline_path",
	"classifier_url":           "classifier.endpoint",
	"classifier_timeout":       "classifier.timeout",
	"classifier_token":         "classifier.token",
	"classifier_breaker_reset": "classifier.breaker.timeout",
	"cors_origins":             "cors.allowed_origins",
	"rate_limit_enabled":       "rate_limit.enabled",
	"rate_limit_requests":      "rate_limit.requests",
	"rate_limit_window":        "rate_limit.window",
	"log_level":                "logging.level",
	"log_format":               "logging.format",
	"log_caller":               "logging.caller",
}

// envTransformFunc maps known environment variables to config paths.
// Unknown variables are skipped.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
