package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"regenerate-thumbnails/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/wb-go/wbf/retry"
)

const (
	StorageFS    = "fs"
	StorageMinIO = "minio"
)

type Config struct {
	Env     string        `yaml:"env" env:"ENV" env-default:"local"`
	Utility UtilityConfig `yaml:"utility"`
	Images  ImagesConfig  `yaml:"images"`
	Storage StorageConfig `yaml:"storage"`
	DB      DBConfig      `yaml:"db"`
	Minio   MinioConfig   `yaml:"minio"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Server  ServerConfig  `yaml:"server"`
	Retry   RetryConfig   `yaml:"retry"`
}

type UtilityConfig struct {
	ID string `yaml:"id" env:"REGEN_UTILITY_ID" env-default:"regenerate-thumbnails" validate:"required,max=191"`
}

type ImagesConfig struct {
	Sizes             string  `yaml:"sizes" env:"REGEN_IMAGE_SIZES" env-default:"thumbnail:150x150:crop,medium:300x300,medium_large:768x0,large:1024x1024"`
	JPEGQuality       int     `yaml:"jpeg_quality" env:"REGEN_JPEG_QUALITY" env-default:"82" validate:"min=1,max=100"`
	WatermarkText     string  `yaml:"watermark_text" env:"REGEN_WATERMARK_TEXT"`
	WatermarkOpacity  float64 `yaml:"watermark_opacity" env:"REGEN_WATERMARK_OPACITY" env-default:"0.5" validate:"gt=0,lte=1"`
	WatermarkPosition string  `yaml:"watermark_position" env:"REGEN_WATERMARK_POSITION" env-default:"bottom-right" validate:"oneof=top-left top-right bottom-left bottom-right center"`
}

type StorageConfig struct {
	Backend    string `yaml:"backend" env:"REGEN_STORAGE_BACKEND" env-default:"fs" validate:"oneof=fs minio"`
	UploadRoot string `yaml:"upload_root" env:"REGEN_UPLOAD_ROOT" env-default:"./uploads"`
}

type DBConfig struct {
	Host            string        `yaml:"host" env:"DB_HOST" env-default:"localhost" validate:"required"`
	Port            int           `yaml:"port" env:"DB_PORT" env-default:"5432" validate:"min=1,max=65535"`
	User            string        `yaml:"user" env:"DB_USER" env-default:"postgres" validate:"required"`
	Password        string        `yaml:"password" env:"DB_PASSWORD"`
	Name            string        `yaml:"name" env:"DB_NAME" env-default:"media" validate:"required"`
	SSLMode         string        `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"30m"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET" env-default:"uploads"`
	Prefix    string `yaml:"prefix" env:"MINIO_PREFIX"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
}

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	EventsTopic string   `yaml:"events_topic" env:"REGEN_EVENTS_TOPIC" env-default:"thumbnails-regenerated"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"SERVER_ADDR" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"30m"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type RetryConfig struct {
	Attempts int           `yaml:"attempts" env:"RETRY_ATTEMPTS" env-default:"3" validate:"min=1"`
	Delay    time.Duration `yaml:"delay" env:"RETRY_DELAY" env-default:"200ms"`
	Backoff  float64       `yaml:"backoff" env:"RETRY_BACKOFF" env-default:"2"`
}

// MustLoad reads CONFIG_PATH when set, otherwise the environment only.
// A .env file in the working directory is honoured in both cases.
func MustLoad() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Storage.Backend == StorageMinIO && (c.Minio.Endpoint == "" || c.Minio.Bucket == "") {
		return errors.New("invalid config: minio endpoint and bucket are required for the minio backend")
	}
	if c.Storage.Backend == StorageFS && c.Storage.UploadRoot == "" {
		return errors.New("invalid config: upload root is required for the fs backend")
	}

	if _, err := c.Images.ImageSizes(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

func (c *Config) DBDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}

func (c *Config) DefaultRetryStrategy() retry.Strategy {
	return retry.Strategy{
		Attempts: c.Retry.Attempts,
		Delay:    c.Retry.Delay,
		Backoff:  c.Retry.Backoff,
	}
}

func (c *Config) EventsEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

func (c ImagesConfig) ImageSizes() ([]domain.ImageSize, error) {
	return ParseImageSizes(c.Sizes)
}

// ParseImageSizes parses "name:WIDTHxHEIGHT[:crop][:watermark],...".
// A zero dimension leaves that side unconstrained.
func ParseImageSizes(raw string) ([]domain.ImageSize, error) {
	var sizes []domain.ImageSize
	seen := make(map[string]struct{})

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid size format '%s', expected 'name:widthxheight'", entry)
		}

		name := strings.TrimSpace(parts[0])
		if name == "" {
			return nil, fmt.Errorf("missing size name in '%s'", entry)
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("duplicate size name '%s'", name)
		}
		seen[name] = struct{}{}

		dims := strings.Split(strings.TrimSpace(parts[1]), "x")
		if len(dims) != 2 {
			return nil, fmt.Errorf("invalid dimensions '%s', expected 'widthxheight'", parts[1])
		}

		width, err := strconv.Atoi(strings.TrimSpace(dims[0]))
		if err != nil || width < 0 {
			return nil, fmt.Errorf("invalid width in '%s'", entry)
		}
		height, err := strconv.Atoi(strings.TrimSpace(dims[1]))
		if err != nil || height < 0 {
			return nil, fmt.Errorf("invalid height in '%s'", entry)
		}
		if width == 0 && height == 0 {
			return nil, fmt.Errorf("size '%s' needs a width or a height", name)
		}

		size := domain.ImageSize{Name: name, Width: width, Height: height}
		for _, flag := range parts[2:] {
			switch strings.TrimSpace(flag) {
			case "crop":
				size.Crop = true
			case "watermark":
				size.Watermark = true
			default:
				return nil, fmt.Errorf("unknown flag '%s' in '%s'", flag, entry)
			}
		}

		sizes = append(sizes, size)
	}

	if len(sizes) == 0 {
		return nil, errors.New("no image sizes configured")
	}

	return sizes, nil
}
