package service

type Config struct {
	DatabaseUri             string `envconfig:"DATABASE_URI"`
	DatabaseMaxConns        int    `envconfig:"DATABASE_MAX_CONNS" default:"10"`
	DatabaseMaxIdleConns    int    `envconfig:"DATABASE_MAX_IDLE_CONNS" default:"5"`
	DatabaseConnMaxLifetime int    `envconfig:"DATABASE_CONN_MAX_LIFETIME" default:"1800"` // 30 minutes
	SentryDSN               string `envconfig:"SENTRY_DSN"`
	SentryTracesSampleRate  float64 `envconfig:"SENTRY_TRACES_SAMPLE_RATE"`
	LogFilePath             string `envconfig:"LOG_FILE_PATH"`
	Host                    string `envconfig:"HOST" default:"localhost:5000"`
	Port                    int    `envconfig:"PORT" default:"5000"`
	DefaultRateLimit        int    `envconfig:"DEFAULT_RATE_LIMIT" default:"10"`
	StrictRateLimit         int    `envconfig:"STRICT_RATE_LIMIT" default:"10"`
	BurstRateLimit          int    `envconfig:"BURST_RATE_LIMIT" default:"1"`
	EnablePrometheus        bool   `envconfig:"ENABLE_PROMETHEUS" default:"false"`
	PrometheusPort          int    `envconfig:"PROMETHEUS_PORT" default:"9092"`
	WebhookUrl              string `envconfig:"WEBHOOK_URL"`
	GatewayTimeout          int    `envconfig:"GATEWAY_TIMEOUT" default:"10"`      // in seconds
	InvoiceExpiry           int64  `envconfig:"INVOICE_EXPIRY" default:"86400"`    // in seconds, default 24h
	ExpirySweepInterval     int    `envconfig:"EXPIRY_SWEEP_INTERVAL" default:"60"` // in seconds
	StatsCacheTTL           int    `envconfig:"STATS_CACHE_TTL" default:"30"`      // in seconds
	SubscriberBufferSize    int    `envconfig:"SUBSCRIBER_BUFFER_SIZE" default:"32"`

	RabbitMQUri                      string `envconfig:"RABBITMQ_URI"`
	RabbitMQInvoiceExchange          string `envconfig:"RABBITMQ_INVOICE_EXCHANGE" default:"kassohub_invoice"`
	RabbitMQLndInvoiceExchange       string `envconfig:"RABBITMQ_LND_INVOICE_EXCHANGE" default:"lnd_invoice"`
	RabbitMQInvoiceConsumerQueueName string `envconfig:"RABBITMQ_INVOICE_CONSUMER_QUEUE_NAME" default:"lnd_invoice_consumer"`
}
