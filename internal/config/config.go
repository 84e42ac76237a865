package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	DatabaseURL       string
	HTTPListenAddr    string
	MetricsListenAddr string
	LogLevel          string
	ServiceName       string

	// NetworkAPIURL is the base URL of the service that owns networks and
	// routers. Empty disables reference verification on associate.
	NetworkAPIURL string
	NetworkAPIKey string

	RateLimitRPS   float64
	RateLimitBurst int

	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string

	TLSCertFile     string
	TLSKeyFile      string
	TLSClientCAFile string
}

func Load() (*Config, error) {
	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "20"), 64)
	if err != nil {
		return nil, fmt.Errorf("parse RATE_LIMIT_RPS: %w", err)
	}
	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "40"))
	if err != nil {
		return nil, fmt.Errorf("parse RATE_LIMIT_BURST: %w", err)
	}

	cfg := &Config{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		HTTPListenAddr:    getEnv("HTTP_LISTEN_ADDR", ":9696"),
		MetricsListenAddr: getEnv("METRICS_LISTEN_ADDR", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ServiceName:       getEnv("SERVICE_NAME", "bgpvpn-api"),
		NetworkAPIURL:     strings.TrimRight(getEnv("NETWORK_API_URL", ""), "/"),
		NetworkAPIKey:     getEnv("NETWORK_API_KEY", ""),
		RateLimitRPS:      rps,
		RateLimitBurst:    burst,
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3AccessKey:       getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:       getEnv("S3_SECRET_KEY", ""),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		TLSCertFile:       getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:        getEnv("TLS_KEY_FILE", ""),
		TLSClientCAFile:   getEnv("TLS_CLIENT_CA_FILE", ""),
	}

	return cfg, nil
}

// Validate checks that the fields required by the given component are set.
// Components: "api", "export", "seed", "create-api-key".
func (c *Config) Validate(component string) error {
	var missing []string

	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	switch component {
	case "api":
		if c.HTTPListenAddr == "" {
			missing = append(missing, "HTTP_LISTEN_ADDR")
		}
		if c.RateLimitRPS <= 0 {
			return fmt.Errorf("RATE_LIMIT_RPS must be positive")
		}
		if c.RateLimitBurst <= 0 {
			return fmt.Errorf("RATE_LIMIT_BURST must be positive")
		}
	case "export":
		if c.S3Bucket == "" {
			missing = append(missing, "S3_BUCKET")
		}
		if (c.S3AccessKey == "") != (c.S3SecretKey == "") {
			return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY must both be set")
		}
	}

	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE must both be set")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
