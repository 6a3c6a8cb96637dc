// Package config provides functions for loading and managing application configuration.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	addressFlag       = flag.String("a", "localhost:8080", "HTTP server address")
	baseURLFlag       = flag.String("b", "http://localhost:8080", "Base URL for shortened links")
	fileStoragePath   = flag.String("f", "", "File for storing users, urls and visits")
	databaseDSNFlag   = flag.String("d", "", "Database connection string")
	redisAddrFlag     = flag.String("r", "", "Redis address for the redirect cache")
	cacheTTLFlag      = flag.Duration("cache-ttl", 24*time.Hour, "Lifetime of cached redirects")
	grpcAddressFlag   = flag.String("g", "", "gRPC server address (empty disables gRPC)")
	jwtSecretFile     = flag.String("jwt-secret-file", "secret.key", "Path to JWT secret file")
	tokenTTLFlag      = flag.Duration("token-ttl", 24*time.Hour, "Lifetime of session tokens")
	adminLoginFlag    = flag.String("admin-login", "admin", "Login of the bootstrap administrator")
	adminPasswordFlag = flag.String("admin-password", "", "Password of the bootstrap administrator")
	logLevelFlag      = flag.String("l", "info", "Log level (debug, info, warn, error)")
	envFileFlag       = flag.String("env", ".env", "Path to a .env file loaded before environment lookups")
	configFile        = flag.String("c", "", "Path to JSON configuration file")
	enableHTTPS       = flag.Bool("s", false, "Enable HTTPS server")
	certFile          = flag.String("cert", "cert.pem", "Path to TLS certificate file")
	keyFile           = flag.String("key", "key.pem", "Path to TLS private key file")
	trustedSubnet     = flag.String("t", "", "Trusted subnet in CIDR notation")
)

// Duration is a time.Duration read from JSON as a string such as "90s" or "24h".
type Duration struct {
	time.Duration
}

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		d.Duration = parsed
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid duration %s", data)
	}
	d.Duration = time.Duration(n)
	return nil
}

// Config contains all configuration parameters for the URL shortening service.
// Configuration can be set via environment variables, command line flags, or JSON config file.
//
// Setting priority (from highest to lowest):
//  1. Environment variables (including those loaded from the .env file)
//  2. Command line flags set explicitly
//  3. JSON config file
//  4. Default values
//
// Storage is picked by the first non-empty setting: DatabaseDSN, then FileStorage,
// otherwise an in-memory store is used.
type Config struct {
	// Address defines the address and port for the HTTP server (e.g., "localhost:8080")
	Address string `json:"server_address"`

	// BaseURL defines the base URL for generating shortened links
	BaseURL string `json:"base_url"`

	// FileStorage defines the path of the JSON lines snapshot (can be empty)
	FileStorage string `json:"file_storage_path"`

	// DatabaseDSN contains the database connection string (can be empty)
	DatabaseDSN string `json:"database_dsn"`

	// RedisAddr enables the redirect cache when set
	RedisAddr string `json:"redis_address"`

	// CacheTTL bounds how long a resolved code stays in redis
	CacheTTL Duration `json:"cache_ttl"`

	// GRPCAddress enables the gRPC server when set
	GRPCAddress string `json:"grpc_address"`

	// SecretKey contains the secret key for JWT token signing
	SecretKey string `json:"-"`

	// TokenTTL is the lifetime of session tokens
	TokenTTL Duration `json:"token_ttl"`

	// AdminLogin and AdminPassword seed the administrator account with id 1
	AdminLogin    string `json:"admin_login"`
	AdminPassword string `json:"-"`

	// LogLevel is the minimal zap level
	LogLevel string `json:"log_level"`

	// EnableHTTPS indicates whether to enable HTTPS server
	EnableHTTPS bool `json:"enable_https"`

	// CertFile is the path to the TLS certificate file
	CertFile string `json:"cert_file"`

	// KeyFile is the path to the TLS private key file
	KeyFile string `json:"key_file"`

	// TrustedSubnet defines the trusted subnet in CIDR notation for internal endpoints
	TrustedSubnet string `json:"trusted_subnet"`
}

// LoadConfig loads configuration from environment variables, command line flags, and JSON config file.
// Returns a pointer to Config struct or an error if configuration loading fails.
//
// Supported environment variables:
//   - SERVER_ADDRESS, BASE_URL, FILE_STORAGE_PATH, DATABASE_DSN
//   - REDIS_ADDR, CACHE_TTL, GRPC_ADDRESS
//   - JWT_SECRET_FILE, TOKEN_TTL
//   - ADMIN_LOGIN, ADMIN_PASSWORD
//   - LOG_LEVEL
//   - ENABLE_HTTPS, TLS_CERT_FILE, TLS_KEY_FILE
//   - TRUSTED_SUBNET
//   - CONFIG: path to JSON configuration file
//
// Variables from the file named by -env are loaded first and never override the real environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(*envFileFlag); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	// Initialize config with default values
	config := &Config{
		Address:       *addressFlag,
		BaseURL:       *baseURLFlag,
		FileStorage:   *fileStoragePath,
		DatabaseDSN:   *databaseDSNFlag,
		RedisAddr:     *redisAddrFlag,
		CacheTTL:      Duration{*cacheTTLFlag},
		GRPCAddress:   *grpcAddressFlag,
		TokenTTL:      Duration{*tokenTTLFlag},
		AdminLogin:    *adminLoginFlag,
		AdminPassword: *adminPasswordFlag,
		LogLevel:      *logLevelFlag,
		CertFile:      *certFile,
		KeyFile:       *keyFile,
		EnableHTTPS:   *enableHTTPS,
		TrustedSubnet: *trustedSubnet,
	}

	// Load from JSON config file if specified
	configPath := os.Getenv("CONFIG")
	if configPath == "" {
		configPath = *configFile
	}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Explicit command line flags win over the file
	applyFlags(config)

	// Override with environment variables
	envString("SERVER_ADDRESS", &config.Address)
	envString("BASE_URL", &config.BaseURL)
	envString("FILE_STORAGE_PATH", &config.FileStorage)
	envString("DATABASE_DSN", &config.DatabaseDSN)
	envString("REDIS_ADDR", &config.RedisAddr)
	envString("GRPC_ADDRESS", &config.GRPCAddress)
	envString("ADMIN_LOGIN", &config.AdminLogin)
	envString("ADMIN_PASSWORD", &config.AdminPassword)
	envString("LOG_LEVEL", &config.LogLevel)
	envString("TLS_CERT_FILE", &config.CertFile)
	envString("TLS_KEY_FILE", &config.KeyFile)
	envString("TRUSTED_SUBNET", &config.TrustedSubnet)
	if os.Getenv("ENABLE_HTTPS") == "true" {
		config.EnableHTTPS = true
	}
	if err := envDuration("CACHE_TTL", &config.CacheTTL); err != nil {
		return nil, err
	}
	if err := envDuration("TOKEN_TTL", &config.TokenTTL); err != nil {
		return nil, err
	}

	// Load JWT secret
	secretFile := os.Getenv("JWT_SECRET_FILE")
	if secretFile == "" {
		secretFile = *jwtSecretFile
	}
	secretKeyBytes, err := os.ReadFile(secretFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read JWT secret file: %w", err)
	}
	config.SecretKey = strings.TrimSpace(string(secretKeyBytes))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks required fields and value formats.
func (c *Config) Validate() error {
	if c.Address == "" || c.BaseURL == "" {
		return fmt.Errorf("address and base URL must be provided")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("JWT secret must not be empty")
	}
	if c.AdminLogin == "" || c.AdminPassword == "" {
		return fmt.Errorf("admin login and password must be provided")
	}
	if c.TokenTTL.Duration <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}
	if c.TrustedSubnet != "" {
		if _, _, err := net.ParseCIDR(c.TrustedSubnet); err != nil {
			return fmt.Errorf("invalid trusted subnet %q: %w", c.TrustedSubnet, err)
		}
	}
	if c.EnableHTTPS && (c.CertFile == "" || c.KeyFile == "") {
		return fmt.Errorf("certificate and key files are required for HTTPS")
	}
	return nil
}

// applyFlags copies the flags given on the command line into config
func applyFlags(config *Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a":
			config.Address = *addressFlag
		case "b":
			config.BaseURL = *baseURLFlag
		case "f":
			config.FileStorage = *fileStoragePath
		case "d":
			config.DatabaseDSN = *databaseDSNFlag
		case "r":
			config.RedisAddr = *redisAddrFlag
		case "cache-ttl":
			config.CacheTTL = Duration{*cacheTTLFlag}
		case "g":
			config.GRPCAddress = *grpcAddressFlag
		case "token-ttl":
			config.TokenTTL = Duration{*tokenTTLFlag}
		case "admin-login":
			config.AdminLogin = *adminLoginFlag
		case "admin-password":
			config.AdminPassword = *adminPasswordFlag
		case "l":
			config.LogLevel = *logLevelFlag
		case "s":
			config.EnableHTTPS = *enableHTTPS
		case "cert":
			config.CertFile = *certFile
		case "key":
			config.KeyFile = *keyFile
		case "t":
			config.TrustedSubnet = *trustedSubnet
		}
	})
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envDuration(key string, dst *Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	dst.Duration = d
	return nil
}
