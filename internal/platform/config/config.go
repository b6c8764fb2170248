package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	StoreDriver    string
	MigrationsPath string
	JWTSecret      string
	RateLimit      string
	AllowedOrigins []string

	// Charge event pipeline
	RabbitMQURL              string
	BillingEnabled           bool
	BillingExchange          string
	ChargeQueue              string
	ChargeRoutingKey         string
	AccountCreatedRoutingKey string
	DeadLetterQueue          string
	ChargeMaxRetries         int
	ChargeRetryBaseDelay     time.Duration
	ChargeRetryMaxDelay      time.Duration
	ChargePrefetch           int

	// Event claims
	RedisURL      string
	EventClaimTTL time.Duration

	FirstGrantBusinessType string
	ReconcileSchedule      string
}

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

func setDefaults() {
	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("RATE_LIMIT", "300-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("BILLING_ENABLED", true)
	viper.SetDefault("BILLING_EXCHANGE", "billing_events")
	viper.SetDefault("CHARGE_QUEUE", "billing.charges")
	viper.SetDefault("CHARGE_ROUTING_KEY", "billing.charge")
	viper.SetDefault("ACCOUNT_CREATED_ROUTING_KEY", "billing.account.created")
	viper.SetDefault("DEAD_LETTER_QUEUE", "billing.charges.dead")
	viper.SetDefault("CHARGE_MAX_RETRIES", 5)
	viper.SetDefault("CHARGE_RETRY_BASE_DELAY", "2s")
	viper.SetDefault("CHARGE_RETRY_MAX_DELAY", "5m")
	viper.SetDefault("CHARGE_PREFETCH", 16)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("EVENT_CLAIM_TTL", "30s")
	viper.SetDefault("FIRST_GRANT_BUSINESS_TYPE", "first_time_grant")
	viper.SetDefault("RECONCILE_SCHEDULE", "@every 1h")
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	setDefaults()
	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:              viper.GetString("PGSQL_URL"),
		Port:                     viper.GetString("PORT"),
		IsProduction:             viper.GetBool("IS_PRODUCTION"),
		StoreDriver:              strings.ToLower(viper.GetString("STORE_DRIVER")),
		MigrationsPath:           viper.GetString("MIGRATIONS_PATH"),
		JWTSecret:                viper.GetString("JWT_SECRET"),
		RateLimit:                viper.GetString("RATE_LIMIT"),
		AllowedOrigins:           splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		RabbitMQURL:              viper.GetString("RABBITMQ_URL"),
		BillingEnabled:           viper.GetBool("BILLING_ENABLED"),
		BillingExchange:          viper.GetString("BILLING_EXCHANGE"),
		ChargeQueue:              viper.GetString("CHARGE_QUEUE"),
		ChargeRoutingKey:         viper.GetString("CHARGE_ROUTING_KEY"),
		AccountCreatedRoutingKey: viper.GetString("ACCOUNT_CREATED_ROUTING_KEY"),
		DeadLetterQueue:          viper.GetString("DEAD_LETTER_QUEUE"),
		ChargeMaxRetries:         viper.GetInt("CHARGE_MAX_RETRIES"),
		ChargePrefetch:           viper.GetInt("CHARGE_PREFETCH"),
		RedisURL:                 viper.GetString("REDIS_URL"),
		FirstGrantBusinessType:   viper.GetString("FIRST_GRANT_BUSINESS_TYPE"),
		ReconcileSchedule:        viper.GetString("RECONCILE_SCHEDULE"),
	}

	cfg.ChargeRetryBaseDelay = durationOrDefault("CHARGE_RETRY_BASE_DELAY", 2*time.Second)
	cfg.ChargeRetryMaxDelay = durationOrDefault("CHARGE_RETRY_MAX_DELAY", 5*time.Minute)
	cfg.EventClaimTTL = durationOrDefault("EVENT_CLAIM_TTL", 30*time.Second)

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			log.Println("Warning: PGSQL_URL environment variable not set.")
		}
	case StoreDriverMemory:
		log.Println("Warning: STORE_DRIVER=memory, balances are lost on restart.")
	default:
		log.Printf("Warning: Unknown STORE_DRIVER '%s'. Defaulting to %s.\n", cfg.StoreDriver, StoreDriverPostgres)
		cfg.StoreDriver = StoreDriverPostgres
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	if cfg.ChargeMaxRetries < 0 {
		log.Printf("Warning: CHARGE_MAX_RETRIES must not be negative (got %d). Defaulting to 0.\n", cfg.ChargeMaxRetries)
		cfg.ChargeMaxRetries = 0
	}
	if cfg.ChargeRetryMaxDelay < cfg.ChargeRetryBaseDelay {
		log.Printf("Warning: CHARGE_RETRY_MAX_DELAY (%s) is below CHARGE_RETRY_BASE_DELAY (%s). Using the base delay.\n", cfg.ChargeRetryMaxDelay, cfg.ChargeRetryBaseDelay)
		cfg.ChargeRetryMaxDelay = cfg.ChargeRetryBaseDelay
	}
	if cfg.RabbitMQURL == "" {
		log.Println("Warning: RABBITMQ_URL not set. Charge events will not be published or consumed.")
	}
	if cfg.FirstGrantBusinessType == "" {
		log.Println("Warning: FIRST_GRANT_BUSINESS_TYPE is empty. First-time grants are disabled.")
	}

	return cfg, nil
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def.String())
		}
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
