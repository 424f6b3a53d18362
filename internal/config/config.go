package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Media   MediaConfig
	CORS    CORSConfig
	Log     LogConfig
	Tracing TracingConfig
	Metrics MetricsConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"API_PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"0s"` // 0 disables; long streams must not be cut
	IdleTimeout     time.Duration `envconfig:"API_IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
}

type StorageConfig struct {
	Driver                string        `envconfig:"STORAGE_DRIVER" default:"minio" validate:"oneof=minio s3"`
	Bucket                string        `envconfig:"STORAGE_BUCKET" default:"media" validate:"required"`
	ConnectTimeout        time.Duration `envconfig:"STORAGE_CONNECT_TIMEOUT" default:"5s"`
	ResponseHeaderTimeout time.Duration `envconfig:"STORAGE_RESPONSE_HEADER_TIMEOUT" default:"15s"`
	MinIO                 MinIOConfig
	S3                    S3Config
}

type MinIOConfig struct {
	Endpoint       string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	PublicEndpoint string `envconfig:"MINIO_PUBLIC_ENDPOINT"`
	AccessKey      string `envconfig:"MINIO_ACCESS_KEY" default:"minioadmin"`
	SecretKey      string `envconfig:"MINIO_SECRET_KEY" default:"minioadmin"`
	Region         string `envconfig:"MINIO_REGION"`
	UseSSL         bool   `envconfig:"MINIO_USE_SSL" default:"false"`
}

// S3Config targets AWS S3, or Cloudflare R2 when AccountID is set.
type S3Config struct {
	Endpoint     string `envconfig:"S3_ENDPOINT"`
	AccountID    string `envconfig:"R2_ACCOUNT_ID"`
	Region       string `envconfig:"S3_REGION" default:"auto"`
	AccessKey    string `envconfig:"S3_ACCESS_KEY_ID"`
	SecretKey    string `envconfig:"S3_SECRET_ACCESS_KEY"`
	UsePathStyle bool   `envconfig:"S3_USE_PATH_STYLE" default:"false"`
}

type MediaConfig struct {
	Prefix               string `envconfig:"MEDIA_PREFIX" default:"videos/"`
	CacheMaxAge          int    `envconfig:"MEDIA_CACHE_MAX_AGE" default:"3600" validate:"min=0"`
	StrictRanges         bool   `envconfig:"MEDIA_STRICT_RANGES" default:"false"`
	PresignMinExpiry     uint64 `envconfig:"PRESIGN_MIN_EXPIRY" default:"60" validate:"min=1"`
	PresignMaxExpiry     uint64 `envconfig:"PRESIGN_MAX_EXPIRY" default:"3600" validate:"gtefield=PresignMinExpiry,max=604800"`
	PresignDefaultExpiry uint64 `envconfig:"PRESIGN_DEFAULT_EXPIRY" default:"600" validate:"gtefield=PresignMinExpiry,ltefield=PresignMaxExpiry"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	MaxAge         int      `envconfig:"CORS_MAX_AGE" default:"300" validate:"min=0"`
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
}

type TracingConfig struct {
	Enabled     bool    `envconfig:"OTEL_TRACING_ENABLED" default:"false"`
	Endpoint    string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	SampleRatio float64 `envconfig:"OTEL_TRACES_SAMPLER_RATIO" default:"1.0" validate:"min=0,max=1"`
	ServiceName string  `envconfig:"OTEL_SERVICE_NAME" default:"mediagate"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Port    int    `envconfig:"METRICS_PORT" default:"0" validate:"min=0,max=65535"` // 0 serves /metrics on the API port
	Path    string `envconfig:"METRICS_PATH" default:"/metrics" validate:"startswith=/"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and cross-field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Media.Prefix != "" && !strings.HasSuffix(c.Media.Prefix, "/") {
		return fmt.Errorf("invalid config: MEDIA_PREFIX %q must end with /", c.Media.Prefix)
	}
	if c.Metrics.Enabled && c.Metrics.Port != 0 && c.Metrics.Port == c.Server.Port {
		return fmt.Errorf("invalid config: METRICS_PORT must differ from API_PORT")
	}
	if c.Storage.Driver == "s3" {
		if c.Storage.S3.AccessKey == "" || c.Storage.S3.SecretKey == "" {
			return fmt.Errorf("invalid config: S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required for the s3 driver")
		}
	}
	return nil
}
