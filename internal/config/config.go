package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config carries environment-driven settings for the server process.
type Config struct {
	HTTPAddr        string
	MySQLDSN        string
	RedisAddr       string
	ProductCacheTTL time.Duration

	BulkRate      decimal.Decimal
	MemberRate    decimal.Decimal
	BulkThreshold int
}

// Load reads environment variables, applies defaults, and validates basic
// constraints.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:  envDefault("HTTP_ADDR", ":8080"),
		MySQLDSN:  envDefault("MYSQL_DSN", "root:root@tcp(localhost:3306)/storefront?parseTime=true"),
		RedisAddr: envDefault("REDIS_ADDR", "localhost:6379"),
	}

	ttl, err := time.ParseDuration(envDefault("PRODUCT_CACHE_TTL", "5m"))
	if err != nil || ttl <= 0 {
		return Config{}, fmt.Errorf("PRODUCT_CACHE_TTL must be a positive duration")
	}
	cfg.ProductCacheTTL = ttl

	cfg.BulkRate, err = parseRate("BULK_RATE", "0.05")
	if err != nil {
		return Config{}, err
	}
	cfg.MemberRate, err = parseRate("MEMBER_RATE", "0.10")
	if err != nil {
		return Config{}, err
	}

	// The quantity at which the bulk discount applies is not fixed by the
	// storefront contract; zero disables the bulk discount.
	threshold := envDefault("BULK_THRESHOLD", "0")
	cfg.BulkThreshold, err = strconv.Atoi(threshold)
	if err != nil {
		return Config{}, fmt.Errorf("BULK_THRESHOLD must be an integer")
	}

	return cfg, nil
}

func parseRate(key, fallback string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(envDefault(key, fallback))
	if err != nil || rate.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%s must be a non-negative decimal", key)
	}
	return rate, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
