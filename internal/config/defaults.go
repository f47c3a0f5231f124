package config

import "time"

const (
	defaultPort      = 8080
	defaultGRPCPort  = 9090
	defaultPprofAddr = "127.0.0.1:6060"
)

var defaultDB = DB{
	Host: "127.0.0.1",
	Port: "5432",
	User: "tracknow",
	Pass: "tracknow",
	Name: "tracknow",
}

var defaultRedis = Redis{
	Enabled: false,
	Addr:    "127.0.0.1:6379",
}

var defaultKafka = Kafka{
	GroupID:       "tracknow-worker",
	PaymentsTopic: "payments.outcomes",
	EventsTopic:   "orders.events",
}

var defaultOrders = Orders{
	PaymentRequired:    true,
	DeliverAllowClient: true,
	CancelRoles:        []string{"client", "seller", "admin"},
	CancelInTransit:    true,
	OperationTimeout:   3 * time.Second,
}

var defaultProof = Proof{
	PublicBaseURL: "http://localhost:8080",
	QRSize:        256,
}

var defaultNotify = Notify{
	SendGridURL:  "https://api.sendgrid.com/v3/mail/send",
	SendGridFrom: "no-reply@tracknow.local",
	ExpoURL:      "https://exp.host/--/api/v2/push/send",
	Timeout:      5 * time.Second,
	QueueSize:    256,
	MaxAttempts:  3,
	BaseDelay:    200 * time.Millisecond,
	MaxDelay:     2 * time.Second,
}

var defaultRateLimit = RateLimit{
	Enabled:    true,
	Rate:       20,
	Burst:      40,
	TTL:        5 * time.Minute,
	MaxBuckets: 10000,
}

var defaultReport = Report{
	CacheTTL:   time.Minute,
	WarmupCron: "0 */5 * * * *",
}

var defaultLog = Log{
	Backend: "slog",
	Level:   "info",
}

// DefaultPort returns the default HTTP port.
func DefaultPort() int { return defaultPort }

// DefaultDB returns the default database settings.
func DefaultDB() DB { return defaultDB }

// DefaultOrders returns the default order policy.
func DefaultOrders() Orders {
	o := defaultOrders
	o.CancelRoles = append([]string(nil), defaultOrders.CancelRoles...)
	return o
}

// DefaultNotify returns the default sender settings.
func DefaultNotify() Notify { return defaultNotify }
