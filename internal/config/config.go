package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	DBDriver string // sqlite | postgres
	DBDSN    string
	LogFile  string

	SessionTTL time.Duration
	BcryptCost int

	InvoicePrefix      string
	InvoiceMaxAttempts int

	OddHourAfter     int
	OddHourBefore    int
	DeviceWindow     time.Duration
	BlockedIPs       []string
	LoginMaxFailures int
	LoginLockout     time.Duration

	TrustedProxies []string

	RedisAddr     string
	KafkaBrokers  string
	KafkaTopic    string
	NotifyTimeout time.Duration

	AdminEmail    string
	AdminPassword string
}

func Load() Config {
	// .env is optional; real env vars win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	cfg := Config{
		Port:     getEnv("PORT", "8080"),
		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBDSN:    getEnv("DB_DSN", "salesdesk.db"),
		LogFile:  getEnv("LOG_FILE", ""),

		SessionTTL: getEnvDuration("SESSION_TTL", 24*time.Hour),
		BcryptCost: getEnvInt("BCRYPT_COST", 12),

		InvoicePrefix:      getEnv("INVOICE_PREFIX", "JHY"),
		InvoiceMaxAttempts: getEnvInt("INVOICE_MAX_ATTEMPTS", 5),

		OddHourAfter:     getEnvInt("ODD_HOUR_AFTER", 22),
		OddHourBefore:    getEnvInt("ODD_HOUR_BEFORE", 6),
		DeviceWindow:     getEnvDuration("DEVICE_WINDOW", 24*time.Hour),
		BlockedIPs:       getEnvList("BLOCKED_IPS"),
		LoginMaxFailures: getEnvInt("LOGIN_MAX_FAILURES", 5),
		LoginLockout:     getEnvDuration("LOGIN_LOCKOUT", 15*time.Minute),

		TrustedProxies: getEnvList("TRUSTED_PROXIES"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		KafkaBrokers:  getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "sales-events"),
		NotifyTimeout: getEnvDuration("NOTIFY_TIMEOUT", 3*time.Second),

		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@salesdesk.local"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}

	log.Printf("[config] PORT=%s DB_DRIVER=%s LOG_FILE=%s REDIS=%t KAFKA=%t INVOICE_PREFIX=%s TRUSTED_PROXIES=%v",
		cfg.Port, cfg.DBDriver, cfg.LogFile, cfg.RedisAddr != "", cfg.KafkaBrokers != "", cfg.InvoicePrefix, cfg.TrustedProxies)
	return cfg
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] %s=%q is not an int, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] %s=%q is not a duration, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
