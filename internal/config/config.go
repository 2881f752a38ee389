package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Gateway modes.
const (
	GatewayModeLive    = "live"
	GatewayModeSandbox = "sandbox"
)

// Delivery transports.
const (
	DeliveryKafka = "kafka"
	DeliveryAMQP  = "amqp"
	DeliveryLog   = "log"
)

const environmentProduction = "production"

// Config holds application level configuration loaded from file, environment and flags.
type Config struct {
	RunAddress  string
	DatabaseURI string
	Environment string
	LogLevel    string

	GatewayURL       string
	GatewaySecretKey string
	GatewayMode      string
	Currency         string
	PublicURL        string
	WebhookSecret    string
	WebhookTolerance time.Duration

	DeliveryTransport string
	KafkaBrokers      []string
	KafkaTopic        string
	AMQPURL           string
	AMQPQueue         string

	AdminTokenHash string

	PendingOrderTimeout time.Duration
	CleanupInterval     time.Duration
	CleanupBatchSize    int
	WorkerPoolSize      int

	SuspensionWindow    time.Duration
	SuspensionThreshold int
	SuspensionDuration  time.Duration

	ReconcileInterval time.Duration
	ShutdownTimeout   time.Duration
}

// Production reports whether the service runs in the production environment.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Environment, environmentProduction)
}

const (
	defaultRunAddress          = ":8080"
	defaultEnvironment         = "development"
	defaultLogLevel            = "info"
	defaultGatewayMode         = GatewayModeLive
	defaultCurrency            = "cny"
	defaultPublicURL           = "http://localhost:8080"
	defaultWebhookTolerance    = 5 * time.Minute
	defaultDeliveryTransport   = DeliveryLog
	defaultKafkaTopic          = "card-deliveries"
	defaultAMQPQueue           = "card-deliveries"
	defaultPendingOrderTimeout = 30 * time.Minute
	defaultCleanupInterval     = 5 * time.Minute
	defaultCleanupBatchSize    = 100
	defaultWorkerPoolSize      = 4
	defaultSuspensionWindow    = 30 * time.Minute
	defaultSuspensionThreshold = 3
	defaultSuspensionDuration  = 12 * time.Hour
	defaultShutdownTimeout     = 10 * time.Second
)

// fileConfig mirrors the optional YAML configuration file.
type fileConfig struct {
	RunAddress          string `yaml:"run_address"`
	DatabaseURI         string `yaml:"database_uri"`
	Environment         string `yaml:"env"`
	LogLevel            string `yaml:"log_level"`
	GatewayURL          string `yaml:"gateway_url"`
	GatewayMode         string `yaml:"gateway_mode"`
	Currency            string `yaml:"currency"`
	PublicURL           string `yaml:"public_url"`
	WebhookTolerance    string `yaml:"webhook_tolerance"`
	DeliveryTransport   string `yaml:"delivery_transport"`
	KafkaBrokers        string `yaml:"kafka_brokers"`
	KafkaTopic          string `yaml:"kafka_topic"`
	AMQPURL             string `yaml:"amqp_url"`
	AMQPQueue           string `yaml:"amqp_queue"`
	PendingOrderTimeout string `yaml:"pending_order_timeout"`
	CleanupInterval     string `yaml:"cleanup_interval"`
	CleanupBatchSize    int    `yaml:"cleanup_batch_size"`
	WorkerPoolSize      int    `yaml:"worker_pool_size"`
	SuspensionWindow    string `yaml:"suspension_window"`
	SuspensionThreshold int    `yaml:"suspension_threshold"`
	SuspensionDuration  string `yaml:"suspension_duration"`
	ReconcileInterval   string `yaml:"reconcile_interval"`
	ShutdownTimeout     string `yaml:"shutdown_timeout"`
}

// Load parses configuration from the optional config file, environment variables and flags.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

// FromEnv loads configuration from the optional config file and environment only.
// Command line tools with their own flags use it instead of Load.
func FromEnv() (*Config, error) {
	return load(nil, os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:          defaultRunAddress,
		Environment:         defaultEnvironment,
		LogLevel:            defaultLogLevel,
		GatewayMode:         defaultGatewayMode,
		Currency:            defaultCurrency,
		PublicURL:           defaultPublicURL,
		WebhookTolerance:    defaultWebhookTolerance,
		DeliveryTransport:   defaultDeliveryTransport,
		KafkaTopic:          defaultKafkaTopic,
		AMQPQueue:           defaultAMQPQueue,
		PendingOrderTimeout: defaultPendingOrderTimeout,
		CleanupInterval:     defaultCleanupInterval,
		CleanupBatchSize:    defaultCleanupBatchSize,
		WorkerPoolSize:      defaultWorkerPoolSize,
		SuspensionWindow:    defaultSuspensionWindow,
		SuspensionThreshold: defaultSuspensionThreshold,
		SuspensionDuration:  defaultSuspensionDuration,
		ShutdownTimeout:     defaultShutdownTimeout,
	}

	if path, ok := lookup("CONFIG_FILE"); ok && path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	cfg.RunAddress = getString(lookup, "RUN_ADDRESS", cfg.RunAddress)
	cfg.DatabaseURI = getString(lookup, "DATABASE_URI", cfg.DatabaseURI)
	cfg.Environment = getString(lookup, "APP_ENV", cfg.Environment)
	cfg.LogLevel = getString(lookup, "LOG_LEVEL", cfg.LogLevel)
	cfg.GatewayURL = getString(lookup, "GATEWAY_URL", cfg.GatewayURL)
	cfg.GatewaySecretKey = getString(lookup, "GATEWAY_SECRET_KEY", cfg.GatewaySecretKey)
	cfg.GatewayMode = getString(lookup, "GATEWAY_MODE", cfg.GatewayMode)
	cfg.Currency = getString(lookup, "GATEWAY_CURRENCY", cfg.Currency)
	cfg.PublicURL = getString(lookup, "PUBLIC_URL", cfg.PublicURL)
	cfg.WebhookSecret = getString(lookup, "WEBHOOK_SECRET", cfg.WebhookSecret)
	cfg.WebhookTolerance = getDuration(lookup, "WEBHOOK_TOLERANCE", cfg.WebhookTolerance)
	cfg.DeliveryTransport = getString(lookup, "DELIVERY_TRANSPORT", cfg.DeliveryTransport)
	cfg.KafkaTopic = getString(lookup, "KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.AMQPURL = getString(lookup, "AMQP_URL", cfg.AMQPURL)
	cfg.AMQPQueue = getString(lookup, "AMQP_QUEUE", cfg.AMQPQueue)
	cfg.AdminTokenHash = getString(lookup, "ADMIN_TOKEN_HASH", cfg.AdminTokenHash)
	cfg.PendingOrderTimeout = getDuration(lookup, "PENDING_ORDER_TIMEOUT", cfg.PendingOrderTimeout)
	cfg.CleanupInterval = getDuration(lookup, "CLEANUP_INTERVAL", cfg.CleanupInterval)
	cfg.CleanupBatchSize = getInt(lookup, "CLEANUP_BATCH_SIZE", cfg.CleanupBatchSize)
	cfg.WorkerPoolSize = getInt(lookup, "WORKER_POOL_SIZE", cfg.WorkerPoolSize)
	cfg.SuspensionWindow = getDuration(lookup, "SUSPENSION_WINDOW", cfg.SuspensionWindow)
	cfg.SuspensionThreshold = getInt(lookup, "SUSPENSION_THRESHOLD", cfg.SuspensionThreshold)
	cfg.SuspensionDuration = getDuration(lookup, "SUSPENSION_DURATION", cfg.SuspensionDuration)
	cfg.ReconcileInterval = getDuration(lookup, "RECONCILE_INTERVAL", cfg.ReconcileInterval)
	cfg.ShutdownTimeout = getDuration(lookup, "SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	brokers := getString(lookup, "KAFKA_BROKERS", strings.Join(cfg.KafkaBrokers, ","))

	fs := flag.NewFlagSet("cardshop", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		webhookToleranceStr   = cfg.WebhookTolerance.String()
		pendingTimeoutStr     = cfg.PendingOrderTimeout.String()
		cleanupIntervalStr    = cfg.CleanupInterval.String()
		suspensionWindowStr   = cfg.SuspensionWindow.String()
		suspensionDurationStr = cfg.SuspensionDuration.String()
		reconcileIntervalStr  = cfg.ReconcileInterval.String()
		shutdownTimeoutStr    = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.Environment, "env", cfg.Environment, "Deployment environment")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.GatewayURL, "g", cfg.GatewayURL, "Payment gateway base URL")
	fs.StringVar(&cfg.GatewaySecretKey, "gateway-key", cfg.GatewaySecretKey, "Payment gateway secret key")
	fs.StringVar(&cfg.GatewayMode, "gateway-mode", cfg.GatewayMode, "Payment gateway mode (live, sandbox)")
	fs.StringVar(&cfg.Currency, "currency", cfg.Currency, "Checkout currency")
	fs.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "Public base URL used for redirects")
	fs.StringVar(&cfg.WebhookSecret, "webhook-secret", cfg.WebhookSecret, "Payment webhook signing secret")
	fs.StringVar(&webhookToleranceStr, "webhook-tolerance", webhookToleranceStr, "Accepted webhook timestamp skew")
	fs.StringVar(&cfg.DeliveryTransport, "delivery", cfg.DeliveryTransport, "Delivery transport (kafka, amqp, log)")
	fs.StringVar(&brokers, "kafka-brokers", brokers, "Comma separated Kafka brokers")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", cfg.KafkaTopic, "Kafka delivery topic")
	fs.StringVar(&cfg.AMQPURL, "amqp-url", cfg.AMQPURL, "AMQP broker URL")
	fs.StringVar(&cfg.AMQPQueue, "amqp-queue", cfg.AMQPQueue, "AMQP delivery queue")
	fs.StringVar(&cfg.AdminTokenHash, "admin-token-hash", cfg.AdminTokenHash, "Bcrypt hash of the operator token")
	fs.StringVar(&pendingTimeoutStr, "pending-timeout", pendingTimeoutStr, "Age after which unpaid orders expire")
	fs.StringVar(&cleanupIntervalStr, "cleanup-interval", cleanupIntervalStr, "Interval between reclamation passes")
	fs.IntVar(&cfg.CleanupBatchSize, "cleanup-batch", cfg.CleanupBatchSize, "Maximum orders per reclamation pass")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent reclamation workers")
	fs.StringVar(&suspensionWindowStr, "suspension-window", suspensionWindowStr, "Velocity check window")
	fs.IntVar(&cfg.SuspensionThreshold, "suspension-threshold", cfg.SuspensionThreshold, "Pending orders within window that trigger suspension")
	fs.StringVar(&suspensionDurationStr, "suspension-duration", suspensionDurationStr, "Suspension length")
	fs.StringVar(&reconcileIntervalStr, "reconcile-interval", reconcileIntervalStr, "Interval between reconciliation passes, 0 disables")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.WebhookTolerance, err = time.ParseDuration(webhookToleranceStr); err != nil {
		return nil, fmt.Errorf("invalid webhook tolerance: %w", err)
	}
	if cfg.PendingOrderTimeout, err = time.ParseDuration(pendingTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid pending timeout: %w", err)
	}
	if cfg.CleanupInterval, err = time.ParseDuration(cleanupIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid cleanup interval: %w", err)
	}
	if cfg.SuspensionWindow, err = time.ParseDuration(suspensionWindowStr); err != nil {
		return nil, fmt.Errorf("invalid suspension window: %w", err)
	}
	if cfg.SuspensionDuration, err = time.ParseDuration(suspensionDurationStr); err != nil {
		return nil, fmt.Errorf("invalid suspension duration: %w", err)
	}
	if cfg.ReconcileInterval, err = time.ParseDuration(reconcileIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid reconcile interval: %w", err)
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if secretFile, ok := lookup("WEBHOOK_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read webhook secret file: %w", err)
		}
		cfg.WebhookSecret = strings.TrimSpace(string(content))
	}

	cfg.KafkaBrokers = splitList(brokers)
	normalize(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var fc fileConfig
	if err := cleanenv.ReadConfig(path, &fc); err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	setString(&cfg.RunAddress, fc.RunAddress)
	setString(&cfg.DatabaseURI, fc.DatabaseURI)
	setString(&cfg.Environment, fc.Environment)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.GatewayURL, fc.GatewayURL)
	setString(&cfg.GatewayMode, fc.GatewayMode)
	setString(&cfg.Currency, fc.Currency)
	setString(&cfg.PublicURL, fc.PublicURL)
	setString(&cfg.DeliveryTransport, fc.DeliveryTransport)
	setString(&cfg.KafkaTopic, fc.KafkaTopic)
	setString(&cfg.AMQPURL, fc.AMQPURL)
	setString(&cfg.AMQPQueue, fc.AMQPQueue)
	if fc.KafkaBrokers != "" {
		cfg.KafkaBrokers = splitList(fc.KafkaBrokers)
	}
	if fc.CleanupBatchSize != 0 {
		cfg.CleanupBatchSize = fc.CleanupBatchSize
	}
	if fc.WorkerPoolSize != 0 {
		cfg.WorkerPoolSize = fc.WorkerPoolSize
	}
	if fc.SuspensionThreshold != 0 {
		cfg.SuspensionThreshold = fc.SuspensionThreshold
	}

	durations := []struct {
		name  string
		raw   string
		field *time.Duration
	}{
		{"webhook_tolerance", fc.WebhookTolerance, &cfg.WebhookTolerance},
		{"pending_order_timeout", fc.PendingOrderTimeout, &cfg.PendingOrderTimeout},
		{"cleanup_interval", fc.CleanupInterval, &cfg.CleanupInterval},
		{"suspension_window", fc.SuspensionWindow, &cfg.SuspensionWindow},
		{"suspension_duration", fc.SuspensionDuration, &cfg.SuspensionDuration},
		{"reconcile_interval", fc.ReconcileInterval, &cfg.ReconcileInterval},
		{"shutdown_timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid %s in config file: %w", d.name, err)
		}
		*d.field = parsed
	}
	return nil
}

func normalize(cfg *Config) {
	cfg.GatewayMode = strings.ToLower(strings.TrimSpace(cfg.GatewayMode))
	cfg.DeliveryTransport = strings.ToLower(strings.TrimSpace(cfg.DeliveryTransport))

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}
	if cfg.CleanupBatchSize <= 0 {
		cfg.CleanupBatchSize = defaultCleanupBatchSize
	}
	if cfg.SuspensionThreshold <= 0 {
		cfg.SuspensionThreshold = defaultSuspensionThreshold
	}
	if cfg.WebhookTolerance <= 0 {
		cfg.WebhookTolerance = defaultWebhookTolerance
	}
	if cfg.PendingOrderTimeout <= 0 {
		cfg.PendingOrderTimeout = defaultPendingOrderTimeout
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaultCleanupInterval
	}
	if cfg.SuspensionWindow <= 0 {
		cfg.SuspensionWindow = defaultSuspensionWindow
	}
	if cfg.SuspensionDuration <= 0 {
		cfg.SuspensionDuration = defaultSuspensionDuration
	}
	if cfg.ReconcileInterval < 0 {
		cfg.ReconcileInterval = 0
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
}

func validate(cfg *Config) error {
	if cfg.DatabaseURI == "" {
		return fmt.Errorf("database URI must be provided")
	}

	switch cfg.GatewayMode {
	case GatewayModeLive:
		if cfg.GatewayURL == "" {
			return fmt.Errorf("payment gateway URL must be provided")
		}
	case GatewayModeSandbox:
		if cfg.Production() {
			return fmt.Errorf("sandbox payment gateway is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown gateway mode %q", cfg.GatewayMode)
	}

	if cfg.WebhookSecret == "" && cfg.Production() {
		return fmt.Errorf("webhook secret must be provided in production")
	}

	switch cfg.DeliveryTransport {
	case DeliveryKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return fmt.Errorf("kafka brokers must be provided for kafka delivery")
		}
	case DeliveryAMQP:
		if cfg.AMQPURL == "" {
			return fmt.Errorf("amqp url must be provided for amqp delivery")
		}
	case DeliveryLog:
	default:
		return fmt.Errorf("unknown delivery transport %q", cfg.DeliveryTransport)
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
