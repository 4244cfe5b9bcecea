package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/hszk-dev/recipebox/internal/domain/model"
)

type Config struct {
	Server     ServerConfig
	Worker     WorkerConfig
	Catalog    CatalogConfig
	ImageCache ImageCacheConfig
	RabbitMQ   RabbitMQConfig
	Redis      RedisConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"API_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
	// WarmOnRefresh publishes thumbnail warm tasks after each catalog refresh.
	WarmOnRefresh bool `envconfig:"API_WARM_ON_REFRESH" default:"true"`
	// RefreshOnStart loads the normal catalog once at startup.
	RefreshOnStart bool `envconfig:"API_REFRESH_ON_START" default:"true"`
}

type WorkerConfig struct {
	MaxRetries      int           `envconfig:"WORKER_MAX_RETRIES" default:"3"`
	LockTTL         time.Duration `envconfig:"WORKER_LOCK_TTL" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"WORKER_SHUTDOWN_TIMEOUT" default:"30s"`
}

type CatalogConfig struct {
	NormalURL    string        `envconfig:"CATALOG_URL_NORMAL" default:"https://d3jbb8n5wk0qxi.cloudfront.net/recipes.json"`
	MalformedURL string        `envconfig:"CATALOG_URL_MALFORMED" default:"https://d3jbb8n5wk0qxi.cloudfront.net/recipes-malformed.json"`
	EmptyURL     string        `envconfig:"CATALOG_URL_EMPTY" default:"https://d3jbb8n5wk0qxi.cloudfront.net/recipes-empty.json"`
	Timeout      time.Duration `envconfig:"CATALOG_TIMEOUT" default:"30s"`
	UserAgent    string        `envconfig:"CATALOG_USER_AGENT" default:"recipebox/0.1"`
	MaxBytes     int64         `envconfig:"CATALOG_MAX_BYTES" default:"10485760"`
}

// Endpoints maps each selector to its configured URL.
func (c CatalogConfig) Endpoints() map[model.Endpoint]string {
	return map[model.Endpoint]string{
		model.EndpointNormal:    c.NormalURL,
		model.EndpointMalformed: c.MalformedURL,
		model.EndpointEmpty:     c.EmptyURL,
	}
}

type ImageCacheConfig struct {
	// Dir defaults to <user cache dir>/recipebox/ImageCache when empty.
	Dir           string        `envconfig:"IMAGE_CACHE_DIR"`
	FetchTimeout  time.Duration `envconfig:"IMAGE_FETCH_TIMEOUT" default:"60s"`
	WriteWorkers  int           `envconfig:"IMAGE_CACHE_WRITE_WORKERS" default:"2"`
	WriteQueue    int           `envconfig:"IMAGE_CACHE_WRITE_QUEUE" default:"64"`
	DedupInFlight bool          `envconfig:"IMAGE_CACHE_DEDUP" default:"true"`
	MaxBytes      int64         `envconfig:"IMAGE_MAX_BYTES" default:"20971520"`
}

// ResolvedDir returns Dir, or the per-user cache location when Dir is empty.
func (c ImageCacheConfig) ResolvedDir() string {
	if c.Dir != "" {
		return c.Dir
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "recipebox", "ImageCache")
}

type RabbitMQConfig struct {
	Host     string `envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port     int    `envconfig:"RABBITMQ_PORT" default:"5672"`
	User     string `envconfig:"RABBITMQ_USER" default:"recipebox"`
	Password string `envconfig:"RABBITMQ_PASSWORD" default:"recipebox"`
	VHost    string `envconfig:"RABBITMQ_VHOST" default:"/"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d%s",
		c.User, c.Password, c.Host, c.Port, c.VHost,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
