package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/uptrace/bun/migrate"

	"github.com/kassolightning/kassohub/db"
	"github.com/kassolightning/kassohub/db/migrations"
	"github.com/kassolightning/kassohub/lib/logging"
	"github.com/kassolightning/kassohub/lib/service"
	"github.com/kassolightning/kassohub/lib/transport"
	"github.com/kassolightning/kassohub/lnd"
	"github.com/kassolightning/kassohub/rabbitmq"
)

func main() {
	c := &service.Config{}

	// Load configuration from environment variables
	err := godotenv.Load(".env")
	if err != nil {
		fmt.Println("Failed to load .env file")
	}
	err = envconfig.Process("", c)
	if err != nil {
		log.Fatalf("Error loading environment variables: %v", err)
	}

	// Setup logging to STDOUT or a configured log file
	logger := logging.Logger(c.LogFilePath)

	startupCtx := context.Background()

	// Open the store: postgres when a DATABASE_URI is configured,
	// in-memory otherwise (local development only)
	var store db.Store
	if c.DatabaseUri != "" {
		dbConn, err := db.Open(db.ConnectionParams{
			Uri:             c.DatabaseUri,
			MaxConns:        c.DatabaseMaxConns,
			MaxIdleConns:    c.DatabaseMaxIdleConns,
			ConnMaxLifetime: c.DatabaseConnMaxLifetime,
		})
		if err != nil {
			logger.Fatalf("Error initializing db connection: %v", err)
		}
		migrator := migrate.NewMigrator(dbConn, migrations.Migrations)
		err = migrator.Init(startupCtx)
		if err != nil {
			logger.Fatalf("Error initializing db migrator: %v", err)
		}
		_, err = migrator.Migrate(startupCtx)
		if err != nil {
			logger.Fatalf("Error migrating database: %v", err)
		}
		store = db.NewBunStore(dbConn)
	} else {
		logger.Warn("No DATABASE_URI configured, using the in-memory store")
		store = db.NewMemoryStore()
	}

	// Setup exception tracking with Sentry if configured
	// sentry init needs to happen before the echo middlewares are added
	if c.SentryDSN != "" {
		if err = sentry.Init(sentry.ClientOptions{
			Dsn:              c.SentryDSN,
			IgnoreErrors:     []string{"401"},
			EnableTracing:    c.SentryTracesSampleRate > 0,
			TracesSampleRate: c.SentryTracesSampleRate,
		}); err != nil {
			logger.Errorf("sentry init error: %v", err)
		}
	}

	// Init the LND connection
	lnCfg, err := lnd.LoadConfig()
	if err != nil {
		logger.Fatalf("Error loading LN config: %v", err)
	}
	lndClient, err := lnd.InitLNClient(lnCfg, startupCtx)
	if err != nil {
		logger.Fatalf("Error initializing the LND connection: %v", err)
	}
	logger.Infof("Connected to LND: %s", lndClient.GetMainPubkey())

	// If no RABBITMQ_URI was provided we will not attempt to create a client
	// No rabbitmq features will be available in this case.
	var rabbitmqClient rabbitmq.Client
	if c.RabbitMQUri != "" {
		rabbitmqClient, err = rabbitmq.Dial(c.RabbitMQUri,
			rabbitmq.WithLogger(logger),
			rabbitmq.WithLndInvoiceExchange(c.RabbitMQLndInvoiceExchange),
			rabbitmq.WithInvoiceExchange(c.RabbitMQInvoiceExchange),
			rabbitmq.WithLndInvoiceConsumerQueueName(c.RabbitMQInvoiceConsumerQueueName),
		)
		if err != nil {
			logger.Fatal(err)
		}
		// close the connection gently at the end of the runtime
		defer rabbitmqClient.Close()
	}

	svc := &service.KassohubService{
		Config:         c,
		Store:          store,
		LndClient:      lndClient,
		Logger:         logger,
		EventPubSub:    service.NewPubsub(c.SubscriberBufferSize),
		RabbitMQClient: rabbitmqClient,
	}

	e := transport.InitEcho(c, logger)
	logMw := transport.CreateLoggingMiddleware(logger)
	strictRateLimitMiddleware := transport.CreateRateLimitMiddleware(c.StrictRateLimit, c.BurstRateLimit)
	transport.RegisterEndpoints(svc, e, strictRateLimitMiddleware, logMw)

	var backgroundWg sync.WaitGroup
	backGroundCtx, _ := signal.NotifyContext(context.Background(), os.Interrupt)

	// Consume node settlement events in the background
	backgroundWg.Add(1)
	go func() {
		err = svc.StartInvoiceRoutine(backGroundCtx)
		if err != nil {
			sentry.CaptureException(err)
			// we want to restart in case of an error here
			svc.Logger.Fatal(err)
		}
		svc.Logger.Info("Invoice routine done")
		backgroundWg.Done()
	}()

	// Expire stale invoices periodically
	backgroundWg.Add(1)
	go func() {
		svc.StartExpirySweeper(backGroundCtx)
		svc.Logger.Info("Expiry sweeper done")
		backgroundWg.Done()
	}()

	// Start webhook subscription
	if svc.Config.WebhookUrl != "" {
		backgroundWg.Add(1)
		go func() {
			svc.StartWebhookSubscription(backGroundCtx, svc.Config.WebhookUrl)
			svc.Logger.Info("Webhook routine done")
			backgroundWg.Done()
		}()
	}

	// Start rabbit publisher
	if svc.RabbitMQClient != nil {
		backgroundWg.Add(1)
		go func() {
			err = svc.RabbitMQClient.StartPublishInvoices(backGroundCtx,
				svc.SubscribeInvoiceUpdates,
				svc.EncodeInvoice,
			)
			if err != nil {
				svc.Logger.Error(err)
				sentry.CaptureException(err)
			}
			svc.Logger.Info("Rabbit invoice publisher done")
			backgroundWg.Done()
		}()
	}

	// Start Prometheus server if necessary
	if svc.Config.EnablePrometheus {
		go transport.StartPrometheusEcho(logger, svc, e)
	}

	// Start server
	go func() {
		if err := e.Start(fmt.Sprintf(":%v", c.Port)); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	<-backGroundCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
	// Wait for graceful shutdown of background routines
	backgroundWg.Wait()
	svc.Logger.Info("Kassohub exiting gracefully. Goodbye.")
}
