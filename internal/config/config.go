package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	Env             string `yaml:"env"`
	ShutdownTimeout int    `yaml:"shutdown_timeout"` // seconds
}

type DatabaseConfig struct {
	Driver      string `yaml:"driver"` // postgres, sqlite
	DSN         string `yaml:"url"`
	AutoMigrate bool   `yaml:"auto_migrate"`
	LogQueries  bool   `yaml:"log_queries"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
	TTL    int    `yaml:"ttl"` // minutes
}

type StorageConfig struct {
	Type       string `yaml:"type"`        // local, s3, cloudflare_r2
	BasePath   string `yaml:"base_path"`   // For local storage
	BaseURL    string `yaml:"base_url"`    // Public URL base
	Bucket     string `yaml:"bucket"`      // For S3/R2
	Region     string `yaml:"region"`      // For S3
	AccessKey  string `yaml:"access_key"`  // For S3/R2
	SecretKey  string `yaml:"secret_key"`  // For S3/R2
	Endpoint   string `yaml:"endpoint"`    // For R2 or custom S3
	UseSSL     bool   `yaml:"use_ssl"`     // For S3/R2
	PublicRead bool   `yaml:"public_read"` // Make files public
}

type UploadConfig struct {
	Music             KindRules `yaml:"music"`
	Video             KindRules `yaml:"video"`
	Thumbnail         KindRules `yaml:"thumbnail"`
	DuplicateWindow   int       `yaml:"duplicate_window"`   // seconds
	StagingTTL        int       `yaml:"staging_ttl"`        // minutes
	JanitorInterval   int       `yaml:"janitor_interval"`   // seconds
	MaxMultipartBytes int64     `yaml:"max_multipart_size"` // bytes kept in memory while parsing forms
}

type ThumbnailConfig struct {
	Enabled     bool   `yaml:"enabled"`
	FfmpegPath  string `yaml:"ffmpeg_path"`
	FfprobePath string `yaml:"ffprobe_path"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Quality     int    `yaml:"quality"` // JPEG quality (1-100)
	Timeout     int    `yaml:"timeout"` // seconds
}

type RotationConfig struct {
	MaxSize    int  `yaml:"max_size"` // megabytes
	MaxBackups int  `yaml:"max_backups"`
	MaxAge     int  `yaml:"max_age"` // days
	Compress   bool `yaml:"compress"`
}

type LogConfig struct {
	Level    string         `yaml:"level"`
	File     string         `yaml:"file"`
	Rotation RotationConfig `yaml:"rotation"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Storage   StorageConfig   `yaml:"storage"`
	Upload    UploadConfig    `yaml:"upload"`
	Thumbnail ThumbnailConfig `yaml:"thumbnail"`
	Log       LogConfig       `yaml:"log"`
}

// Default returns a configuration usable for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Env:             "development",
			ShutdownTimeout: 10,
		},
		Database: DatabaseConfig{
			Driver:      "sqlite",
			DSN:         "twobeats.db",
			AutoMigrate: true,
		},
		JWT: JWTConfig{
			Secret: "change-me",
			TTL:    60 * 24,
		},
		Storage: StorageConfig{
			Type:     "local",
			BasePath: "./media",
			BaseURL:  "/api/v1/files",
		},
		Upload: UploadConfig{
			Music:             DefaultMusicRules(),
			Video:             DefaultVideoRules(),
			Thumbnail:         DefaultThumbnailRules(),
			DuplicateWindow:   60,
			StagingTTL:        60,
			JanitorInterval:   300,
			MaxMultipartBytes: 32 << 20,
		},
		Thumbnail: ThumbnailConfig{
			Enabled:     true,
			FfmpegPath:  "ffmpeg",
			FfprobePath: "ffprobe",
			Width:       640,
			Height:      360,
			Quality:     85,
			Timeout:     30,
		},
		Log: LogConfig{
			Level: "info",
			Rotation: RotationConfig{
				MaxSize:    50,
				MaxBackups: 5,
				MaxAge:     28,
			},
		},
	}
}

// Load reads the YAML file at path on top of the defaults and then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config/config.yaml"
	}

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file at %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to open config file at %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.DSN = v
		if os.Getenv("DATABASE_DRIVER") == "" {
			c.Database.Driver = "postgres"
		}
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("SERVER_ENV"); v != "" {
		c.Server.Env = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("STORAGE_BASE_PATH"); v != "" {
		c.Storage.BasePath = v
	}
	return nil
}

// Validate checks the fields the server cannot start without.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database url is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// WriteDefault writes the default configuration as YAML to path.
func WriteDefault(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	out, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) DuplicateWindow() time.Duration {
	return time.Duration(c.Upload.DuplicateWindow) * time.Second
}

func (c *Config) StagingTTL() time.Duration {
	return time.Duration(c.Upload.StagingTTL) * time.Minute
}

func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWT.TTL) * time.Minute
}
