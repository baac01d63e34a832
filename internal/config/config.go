package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Host                 string
	Port                 string
	RequestTimeout       time.Duration
	FetchConnectTimeout  time.Duration
	FetchTotalTimeout    time.Duration
	MaxFileSize          int64
	MaxRequestBodySize   int64
	MaxConcurrentFetches int
	BackendHost          string
	BackendPort          string
	RandomSeed           uint64
	LogLevel             string
	AzureStorageAccount  string
	AzureStorageKey      string
	// AllowedResourceHosts restricts which hosts may be fetched after
	// backend rewriting. Empty allows any host.
	AllowedResourceHosts []string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether blob URLs should go through the Azure SDK.
func (c *Config) AzureEnabled() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", "8000")
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("fetch_connect_timeout", 5*time.Second)
	v.SetDefault("fetch_total_timeout", 10*time.Second)
	v.SetDefault("max_file_size", int64(50*1024*1024)) // 50MB
	v.SetDefault("max_request_body_size", int64(1024*1024))
	v.SetDefault("max_concurrent_fetches", 8)
	v.SetDefault("backend_host", "backend")
	v.SetDefault("backend_port", "3001")
	v.SetDefault("random_seed", uint64(0))
	v.SetDefault("log_level", "info")
	v.SetDefault("azure_storage_account", "")
	v.SetDefault("azure_storage_key", "")
	v.SetDefault("allowed_resource_hosts", "")
}

// LoadFromEnv reads an optional .env file, then the process environment.
func LoadFromEnv() (*Config, error) {
	// It's fine for .env to be missing; the environment may be set directly.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Host:                 strings.TrimSpace(v.GetString("host")),
		Port:                 strings.TrimSpace(v.GetString("port")),
		RequestTimeout:       v.GetDuration("request_timeout"),
		FetchConnectTimeout:  v.GetDuration("fetch_connect_timeout"),
		FetchTotalTimeout:    v.GetDuration("fetch_total_timeout"),
		MaxFileSize:          v.GetInt64("max_file_size"),
		MaxRequestBodySize:   v.GetInt64("max_request_body_size"),
		MaxConcurrentFetches: v.GetInt("max_concurrent_fetches"),
		BackendHost:          strings.TrimSpace(v.GetString("backend_host")),
		BackendPort:          strings.TrimSpace(v.GetString("backend_port")),
		RandomSeed:           v.GetUint64("random_seed"),
		LogLevel:             v.GetString("log_level"),
		AzureStorageAccount:  strings.TrimSpace(v.GetString("azure_storage_account")),
		AzureStorageKey:      strings.TrimSpace(v.GetString("azure_storage_key")),
		AllowedResourceHosts: splitList(v.GetString("allowed_resource_hosts")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	// Validate port is numeric and in range
	for name, value := range map[string]string{"PORT": c.Port, "BACKEND_PORT": c.BackendPort} {
		p, err := strconv.Atoi(value)
		if err != nil || p < 1 || p > 65535 {
			return fmt.Errorf("invalid %s: %q", name, value)
		}
	}
	if c.BackendHost == "" {
		return fmt.Errorf("BACKEND_HOST must not be empty")
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be > 0 (got %d)", c.MaxFileSize)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.MaxConcurrentFetches <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_FETCHES must be > 0 (got %d)", c.MaxConcurrentFetches)
	}
	if c.RequestTimeout <= 0 || c.FetchConnectTimeout <= 0 || c.FetchTotalTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, connect=%s, fetch=%s)",
			c.RequestTimeout, c.FetchConnectTimeout, c.FetchTotalTimeout)
	}
	return nil
}

// splitList parses a comma separated env value, dropping blank entries.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
