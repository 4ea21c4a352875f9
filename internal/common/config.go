package common

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Ingest   IngestConfig
	Log      LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr        string
	HTTPAddr        string
	ShutdownTimeout time.Duration
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	TessdataDir string
	Language    string
	MaxPages    int
	StorageDir  string
	// HeicConverter is heif-convert, magick or sips; empty rejects HEIC scans.
	HeicConverter string
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	MaxAttempts uint
	TagMarker   string
}

// IngestConfig holds scanned-folder watching configuration
type IngestConfig struct {
	WatchDirs    []string
	OwnerID      string
	Workers      int
	QueueSize    int
	ProcessAfter time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_url", "")
	v.SetDefault("db_max_conns", 20)
	v.SetDefault("db_min_conns", 5)
	v.SetDefault("db_max_conn_lifetime", 30*time.Minute)
	v.SetDefault("db_max_conn_idle_time", 5*time.Minute)
	v.SetDefault("db_dial_timeout", 3*time.Second)
	v.SetDefault("db_statement_timeout", time.Duration(0))

	v.SetDefault("grpc_addr", ":8080")
	v.SetDefault("http_addr", ":8081")
	v.SetDefault("shutdown_timeout", 10*time.Second)

	v.SetDefault("tessdata_prefix", "")
	v.SetDefault("ocr_language", "eng")
	v.SetDefault("ocr_max_pages", 10)
	v.SetDefault("storage_dir", "./data/files")
	v.SetDefault("heic_converter", "")

	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("openai_temperature", 0.4)
	v.SetDefault("openai_timeout", 45*time.Second)
	v.SetDefault("openai_max_attempts", 2)
	v.SetDefault("tag_marker", "Then suggest")

	v.SetDefault("watch_dirs", "")
	v.SetDefault("watch_owner_id", "")
	v.SetDefault("queue_workers", 2)
	v.SetDefault("queue_size", 64)
	v.SetDefault("process_timeout", 2*time.Minute)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// LoadConfig loads configuration from environment variables and an optional
// YAML file. Keys in the file use the lower-case form of the variable names
// (db_url, openai_api_key, ...). An empty cfgFile searches ./docflow.yaml.
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("docflow")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return &Config{
		Database: DatabaseConfig{
			DSN:              v.GetString("db_url"),
			MaxConns:         v.GetInt32("db_max_conns"),
			MinConns:         v.GetInt32("db_min_conns"),
			MaxConnLifetime:  v.GetDuration("db_max_conn_lifetime"),
			MaxConnIdleTime:  v.GetDuration("db_max_conn_idle_time"),
			DialTimeout:      v.GetDuration("db_dial_timeout"),
			StatementTimeout: v.GetDuration("db_statement_timeout"),
		},
		Server: ServerConfig{
			GRPCAddr:        v.GetString("grpc_addr"),
			HTTPAddr:        v.GetString("http_addr"),
			ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		},
		OCR: OCRConfig{
			TessdataDir:   v.GetString("tessdata_prefix"),
			Language:      v.GetString("ocr_language"),
			MaxPages:      v.GetInt("ocr_max_pages"),
			StorageDir:    v.GetString("storage_dir"),
			HeicConverter: v.GetString("heic_converter"),
		},
		LLM: LLMConfig{
			Model:       v.GetString("openai_model"),
			APIKey:      v.GetString("openai_api_key"),
			BaseURL:     v.GetString("openai_base_url"),
			Temperature: float32(v.GetFloat64("openai_temperature")),
			Timeout:     v.GetDuration("openai_timeout"),
			MaxAttempts: v.GetUint("openai_max_attempts"),
			TagMarker:   v.GetString("tag_marker"),
		},
		Ingest: IngestConfig{
			WatchDirs:    splitList(v.GetString("watch_dirs")),
			OwnerID:      v.GetString("watch_owner_id"),
			Workers:      v.GetInt("queue_workers"),
			QueueSize:    v.GetInt("queue_size"),
			ProcessAfter: v.GetDuration("process_timeout"),
		},
		Log: LogConfig{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
		},
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return NewAppError("CONFIG_ERROR", "OPENAI_TEMPERATURE must be within [0, 2]", ErrInvalidInput)
	}
	if len(c.Ingest.WatchDirs) > 0 && c.Ingest.OwnerID == "" {
		return NewAppError("CONFIG_ERROR", "WATCH_OWNER_ID is required when WATCH_DIRS is set", ErrInvalidInput)
	}
	return nil
}
