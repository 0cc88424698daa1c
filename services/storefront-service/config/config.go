package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	aws_pkg "github.com/yashrajoria/E-Commerce-storefront/pkg/aws"
)

// Config holds the loaded configuration
type Config struct {
	Port                string
	Env                 string
	CartServiceURL      string
	AddressServiceURL   string
	PaymentServiceURL   string
	AuthServiceURL      string
	CatalogServiceURL   string
	RequestTimeout      time.Duration
	RedisURL            string
	StateTTL            time.Duration
	JWTSecret           string
	JWTSecretName       string
	RateLimitPerMinute  int
	CloudWatchEnabled   bool
	CloudWatchNamespace string
	UseAWSSecrets       bool
	AllowedOrigins      []string
	BreakerFailures     uint32
	BreakerOpenTimeout  time.Duration
}

// Load reads .env when present, then the environment.
// Collaborator URLs default to API_GATEWAY_URL when not set individually.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	gateway := strings.TrimRight(getEnv("API_GATEWAY_URL", "http://localhost:8080"), "/")

	timeout, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "10s"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT %q", os.Getenv("REQUEST_TIMEOUT"))
	}
	ttl, err := time.ParseDuration(getEnv("STATE_TTL", "168h"))
	if err != nil || ttl < 0 {
		return nil, fmt.Errorf("invalid STATE_TTL %q", os.Getenv("STATE_TTL"))
	}
	rate, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "120"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}
	failures, err := strconv.ParseUint(getEnv("BREAKER_FAILURES", "5"), 10, 32)
	if err != nil || failures == 0 {
		return nil, fmt.Errorf("invalid BREAKER_FAILURES %q", os.Getenv("BREAKER_FAILURES"))
	}
	openTimeout, err := time.ParseDuration(getEnv("BREAKER_OPEN_TIMEOUT", "30s"))
	if err != nil || openTimeout <= 0 {
		return nil, fmt.Errorf("invalid BREAKER_OPEN_TIMEOUT %q", os.Getenv("BREAKER_OPEN_TIMEOUT"))
	}
	origins := splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	return &Config{
		Port:                getEnv("PORT", "8095"),
		Env:                 getEnv("ENV", "development"),
		CartServiceURL:      getEnv("CART_SERVICE_URL", gateway),
		AddressServiceURL:   getEnv("ADDRESS_SERVICE_URL", gateway),
		PaymentServiceURL:   getEnv("PAYMENT_SERVICE_URL", gateway),
		AuthServiceURL:      getEnv("AUTH_SERVICE_URL", gateway),
		CatalogServiceURL:   getEnv("CATALOG_SERVICE_URL", gateway),
		RequestTimeout:      timeout,
		RedisURL:            os.Getenv("REDIS_URL"),
		StateTTL:            ttl,
		JWTSecret:           os.Getenv("JWT_SECRET"),
		JWTSecretName:       getEnv("JWT_SECRET_NAME", "storefront/jwt-secret"),
		RateLimitPerMinute:  rate,
		CloudWatchEnabled:   os.Getenv("CLOUDWATCH_ENABLED") == "true",
		CloudWatchNamespace: getEnv("CLOUDWATCH_NAMESPACE", "Storefront"),
		UseAWSSecrets:       os.Getenv("AWS_USE_SECRETS") == "true",
		AllowedOrigins:      origins,
		BreakerFailures:     uint32(failures),
		BreakerOpenTimeout:  openTimeout,
	}, nil
}

// ApplySecrets overrides JWTSecret from Secrets Manager
func (c *Config) ApplySecrets(ctx context.Context, secrets aws_pkg.SecretsGetter) error {
	if !c.UseAWSSecrets {
		return nil
	}
	secret, err := secrets.GetSecret(ctx, c.JWTSecretName)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", c.JWTSecretName, err)
	}
	c.JWTSecret = secret
	return nil
}

// Helper to get an environment variable or return a default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
