package config

import (
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config stores service settings.
type Config struct {
	Port      int
	GRPCPort  int
	DB        DB
	Redis     Redis
	Kafka     Kafka
	Auth      Auth
	Orders    Orders
	Proof     Proof
	Notify    Notify
	Webhook   Webhook
	RateLimit RateLimit
	Report    Report
	Log       Log
	Pprof     Pprof
}

// DB holds PostgreSQL connection settings.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN returns the pgx connection string.
func (d DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		d.User, d.Pass, net.JoinHostPort(d.Host, d.Port), d.Name)
}

// Redis holds the realtime bridge and report cache connection.
type Redis struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// Kafka holds broker settings. Empty Brokers disables Kafka.
type Kafka struct {
	Brokers       []string
	GroupID       string
	PaymentsTopic string
	EventsTopic   string
}

// Auth holds bearer token verification settings.
type Auth struct {
	JWTSecret string
}

// Orders holds order lifecycle policy.
type Orders struct {
	PaymentRequired    bool
	DeliverAllowClient bool
	CancelRoles        []string
	CancelInTransit    bool
	OperationTimeout   time.Duration
}

// Proof holds delivery-proof settings.
type Proof struct {
	PublicBaseURL string
	QRSize        int
}

// Notify holds email/push sender settings.
type Notify struct {
	SendGridURL    string
	SendGridAPIKey string
	SendGridFrom   string
	ExpoURL        string
	Timeout        time.Duration
	QueueSize      int
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
}

// Webhook holds payment webhook settings.
type Webhook struct {
	Secret string
}

// RateLimit holds HTTP rate limiting settings.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// Report holds reporting settings.
type Report struct {
	CacheTTL   time.Duration
	WarmupCron string
}

// Log holds logger settings.
type Log struct {
	Backend string
	Level   string
}

// Pprof holds the debug listener settings.
type Pprof struct {
	Enabled bool
	Addr    string
	User    string
	Pass    string
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	cfg, err := LoadEnv()
	if err != nil {
		return nil, err
	}

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "HTTP port to listen on")
	pflag.IntVar(&cfg.GRPCPort, "grpc-port", cfg.GRPCPort, "gRPC health port to listen on")
	pflag.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level")
	pflag.Parse()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv reads .env and the environment without parsing command-line flags.
func LoadEnv() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	r := envReader{}
	cfg := &Config{
		Port:     r.int("PORT", defaultPort),
		GRPCPort: r.int("GRPC_PORT", defaultGRPCPort),
		DB: DB{
			Host: r.str("POSTGRES_HOST", defaultDB.Host),
			Port: r.str("POSTGRES_PORT", defaultDB.Port),
			User: r.str("POSTGRES_USER", defaultDB.User),
			Pass: r.str("POSTGRES_PASSWORD", defaultDB.Pass),
			Name: r.str("POSTGRES_DB", defaultDB.Name),
		},
		Redis: Redis{
			Enabled:  r.bool("REDIS_ENABLED", defaultRedis.Enabled),
			Addr:     r.str("REDIS_ADDR", defaultRedis.Addr),
			Password: r.str("REDIS_PASSWORD", defaultRedis.Password),
			DB:       r.int("REDIS_DB", defaultRedis.DB),
		},
		Kafka: Kafka{
			Brokers:       r.list("KAFKA_BROKERS", nil),
			GroupID:       r.str("KAFKA_GROUP_ID", defaultKafka.GroupID),
			PaymentsTopic: r.str("KAFKA_PAYMENTS_TOPIC", defaultKafka.PaymentsTopic),
			EventsTopic:   r.str("KAFKA_EVENTS_TOPIC", defaultKafka.EventsTopic),
		},
		Auth: Auth{
			JWTSecret: r.str("JWT_SECRET", ""),
		},
		Orders: Orders{
			PaymentRequired:    r.bool("ORDERS_PAYMENT_REQUIRED", defaultOrders.PaymentRequired),
			DeliverAllowClient: r.bool("ORDERS_DELIVER_ALLOW_CLIENT", defaultOrders.DeliverAllowClient),
			CancelRoles:        r.list("ORDERS_CANCEL_ROLES", defaultOrders.CancelRoles),
			CancelInTransit:    r.bool("ORDERS_CANCEL_IN_TRANSIT", defaultOrders.CancelInTransit),
			OperationTimeout:   r.duration("ORDERS_OPERATION_TIMEOUT", defaultOrders.OperationTimeout),
		},
		Proof: Proof{
			PublicBaseURL: strings.TrimRight(r.str("PUBLIC_BASE_URL", defaultProof.PublicBaseURL), "/"),
			QRSize:        r.int("QR_SIZE", defaultProof.QRSize),
		},
		Notify: Notify{
			SendGridURL:    r.str("SENDGRID_URL", defaultNotify.SendGridURL),
			SendGridAPIKey: r.str("SENDGRID_API_KEY", ""),
			SendGridFrom:   r.str("SENDGRID_FROM", defaultNotify.SendGridFrom),
			ExpoURL:        r.str("EXPO_PUSH_URL", defaultNotify.ExpoURL),
			Timeout:        r.duration("NOTIFY_TIMEOUT", defaultNotify.Timeout),
			QueueSize:      r.int("NOTIFY_QUEUE_SIZE", defaultNotify.QueueSize),
			MaxAttempts:    r.int("NOTIFY_MAX_ATTEMPTS", defaultNotify.MaxAttempts),
			BaseDelay:      r.duration("NOTIFY_BASE_DELAY", defaultNotify.BaseDelay),
			MaxDelay:       r.duration("NOTIFY_MAX_DELAY", defaultNotify.MaxDelay),
		},
		Webhook: Webhook{
			Secret: r.str("PAYMENT_WEBHOOK_SECRET", ""),
		},
		RateLimit: RateLimit{
			Enabled:    r.bool("RATE_LIMIT_ENABLED", defaultRateLimit.Enabled),
			Rate:       r.float("RATE_LIMIT_RATE", defaultRateLimit.Rate),
			Burst:      r.int("RATE_LIMIT_BURST", defaultRateLimit.Burst),
			TTL:        r.duration("RATE_LIMIT_TTL", defaultRateLimit.TTL),
			MaxBuckets: r.int("RATE_LIMIT_MAX_BUCKETS", defaultRateLimit.MaxBuckets),
		},
		Report: Report{
			CacheTTL:   r.duration("REPORT_CACHE_TTL", defaultReport.CacheTTL),
			WarmupCron: r.str("REPORT_WARMUP_CRON", defaultReport.WarmupCron),
		},
		Log: Log{
			Backend: r.str("LOG_BACKEND", defaultLog.Backend),
			Level:   r.str("LOG_LEVEL", defaultLog.Level),
		},
		Pprof: Pprof{
			Enabled: r.bool("PPROF_ENABLED", false),
			Addr:    r.str("PPROF_ADDR", defaultPprofAddr),
			User:    r.str("PPROF_USER", ""),
			Pass:    r.str("PPROF_PASSWORD", ""),
		},
	}
	if r.err != nil {
		return nil, r.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc port: %d", c.GRPCPort)
	}
	if c.Notify.MaxAttempts <= 0 {
		return fmt.Errorf("invalid NOTIFY_MAX_ATTEMPTS: %d", c.Notify.MaxAttempts)
	}
	return nil
}

// envReader reads typed variables and keeps the first parse error.
type envReader struct {
	err error
}

func (r *envReader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *envReader) int(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return n
}

func (r *envReader) float(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return f
}

func (r *envReader) bool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return b
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		if err == nil {
			err = fmt.Errorf("must be positive")
		}
		r.fail(key, v, err)
		return def
	}
	return d
}

func (r *envReader) list(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return append([]string(nil), def...)
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (r *envReader) fail(key, value string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}
