package config

import (
	"time"

	"github.com/AbdelrahmanSuliman/Graduation-Project/model"
)

// Config is the full server configuration.
// Load fills it from struct defaults, an optional YAML file and the environment.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Model      ModelConfig      `koanf:"model"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Ranking    RankingConfig    `koanf:"ranking"`
	Classifier ClassifierConfig `koanf:"classifier"`
	CORS       CORSConfig       `koanf:"cors"`
	RateLimit  RateLimitConfig  `koanf:"rate_limit"`
	Logging    LoggingConfig    `koanf:"logging"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	RequestTimeout  time.Duration `koanf:"request_timeout" validate:"gt=0"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	// MaxUploadBytes caps the multipart body of /recommend and /classify-face.
	MaxUploadBytes int64 `koanf:"max_upload_bytes" validate:"gt=0"`
}

type ModelConfig struct {
	ArtifactPath string `koanf:"artifact_path" validate:"required"`
	// Hyperparameters the server expects; the artifact must match them exactly.
	Hyperparameters model.Hyperparameters `koanf:"hyperparameters"`
}

const (
	CatalogSourceStatic = "static"
	CatalogSourceFile   = "file"
	CatalogSourceRedis  = "redis"
)

type CatalogConfig struct {
	Source string `koanf:"source" validate:"oneof=static file redis"`
	// Size is the number of items for the static and redis sources.
	Size  int         `koanf:"size" validate:"gt=0"`
	Path  string      `koanf:"path"`
	Redis RedisConfig `koanf:"redis"`
}

type RedisConfig struct {
	Addr        string        `koanf:"addr"`
	Password    string        `koanf:"password"`
	DB          int           `koanf:"db" validate:"gte=0"`
	KeyPrefix   string        `koanf:"key_prefix" validate:"required"`
	DialTimeout time.Duration `koanf:"dial_timeout" validate:"gte=0"`
}

type RankingConfig struct {
	TopK      int `koanf:"top_k" validate:"gt=0"`
	ChunkSize int `koanf:"chunk_size" validate:"gt=0"`
	// Workers <= 0 means GOMAXPROCS.
	Workers int `koanf:"workers"`
	// FilterExpr is an optional CEL expression; items for which it is false are dropped before truncation.
	FilterExpr string `koanf:"filter_expr"`
	// PipelinePath points to a YAML or JSON pipeline that replaces the default one.
	PipelinePath string `koanf:"pipeline_path"`
}

type ClassifierConfig struct {
	Endpoint string        `koanf:"endpoint" validate:"required,url"`
	Timeout  time.Duration `koanf:"timeout" validate:"gt=0"`
	Token    string        `koanf:"token"`
	Breaker  BreakerConfig `koanf:"breaker"`
}

type BreakerConfig struct {
	MaxRequests  uint32        `koanf:"max_requests" validate:"gt=0"`
	Interval     time.Duration `koanf:"interval" validate:"gte=0"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
	MinRequests  uint32        `koanf:"min_requests" validate:"gt=0"`
	FailureRatio float64       `koanf:"failure_ratio" validate:"gt=0,lte=1"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowCredentials bool     `koanf:"allow_credentials"`
}

type RateLimitConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Requests int           `koanf:"requests" validate:"gt=0"`
	Window   time.Duration `koanf:"window" validate:"gt=0"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}
