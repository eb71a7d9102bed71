package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-exchange-backoffice/internal/facades"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/handlers"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/jwt"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/logger"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/metrics"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/middlewares"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/repositories"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	pb "github.com/sbilibin2017/proto-exchange/exchange"
	httpSwagger "github.com/swaggo/http-swagger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// config holds everything read from the environment.
type config struct {
	AppHost  string
	AppPort  string
	LogLevel string

	PGHost         string
	PGPort         int
	PGUser         string
	PGPassword     string
	PGDB           string
	PGMaxOpenConns int
	PGMaxIdleConns int

	RedisHost         string
	RedisPort         int
	RedisDB           int
	RedisPassword     string
	RedisPoolSize     int
	RedisMinIdleConns int

	KafkaBrokers           []string
	KafkaNotificationTopic string
	KafkaBatchTimeout      time.Duration

	GWHost string
	GWPort string

	JWTSecretKey string

	WithdrawalMinAmount  decimal.Decimal
	WithdrawalFeePercent decimal.Decimal

	QuoteTTL            time.Duration
	QuoteStaleRetention time.Duration
	QuoteCacheBackend   string
	QuoteRetry          services.RetryPolicy
	QuoteETHURL         string
	QuoteETHPath        string
	QuoteFXPairs        [][2]string

	IdempotencyTTL time.Duration
}

// @title gw-exchange-backoffice API
// @version 1.0.0
// @description Wallet ledger, settlement and withdrawal back office
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Version: %s\nCommit: %s\nBuild: %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns the application configuration.
func parseConfig(path string) (cfg config, err error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}
	getInt := func(key, defaultValue string) (int, error) {
		v, err := strconv.Atoi(getEnv(key, defaultValue))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return v, nil
	}
	getDecimal := func(key, defaultValue string) (decimal.Decimal, error) {
		v, err := decimal.NewFromString(getEnv(key, defaultValue))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s: %w", key, err)
		}
		return v, nil
	}

	// Application config
	cfg.AppHost = getEnv("APP_HOST", "localhost")
	cfg.AppPort = getEnv("APP_PORT", "8080")
	cfg.LogLevel = getEnv("APP_LOG_LEVEL", "info")

	// PostgreSQL config
	cfg.PGHost = getEnv("POSTGRES_HOST", "localhost")
	cfg.PGUser = getEnv("POSTGRES_USER", "user")
	cfg.PGPassword = getEnv("POSTGRES_PASSWORD", "password")
	cfg.PGDB = getEnv("POSTGRES_DB", "database")
	if cfg.PGPort, err = getInt("POSTGRES_PORT", "5432"); err != nil {
		return
	}
	if cfg.PGMaxOpenConns, err = getInt("POSTGRES_MAX_OPEN_CONNS", "16"); err != nil {
		return
	}
	if cfg.PGMaxIdleConns, err = getInt("POSTGRES_MAX_IDLE_CONNS", "8"); err != nil {
		return
	}

	// Redis config
	cfg.RedisHost = getEnv("REDIS_HOST", "localhost")
	if cfg.RedisPort, err = getInt("REDIS_PORT", "6379"); err != nil {
		return
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", "0"); err != nil {
		return
	}
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	if cfg.RedisPoolSize, err = getInt("REDIS_POOL_SIZE", "10"); err != nil {
		return
	}
	if cfg.RedisMinIdleConns, err = getInt("REDIS_MIN_IDLE_CONNS", "2"); err != nil {
		return
	}

	// Kafka config, publishing is off without brokers
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	cfg.KafkaNotificationTopic = getEnv("KAFKA_NOTIFICATION_TOPIC", "notifications")
	batchMs, err := getInt("KAFKA_BATCH_TIMEOUT_MS", "10")
	if err != nil {
		return
	}
	cfg.KafkaBatchTimeout = time.Duration(batchMs) * time.Millisecond

	// gRPC config
	cfg.GWHost = getEnv("GW_EXCHANGER_HOST", "localhost")
	cfg.GWPort = getEnv("GW_EXCHANGER_PORT", "50051")

	// JWT config
	cfg.JWTSecretKey = getEnv("JWT_SECRET_KEY", "my_super_secret_key")

	// Withdrawal config
	if cfg.WithdrawalMinAmount, err = getDecimal("WITHDRAWAL_MIN_AMOUNT", "1000"); err != nil {
		return
	}
	if cfg.WithdrawalFeePercent, err = getDecimal("WITHDRAWAL_FEE_PERCENT", "1.5"); err != nil {
		return
	}

	// Quote cache config
	var n int
	if n, err = getInt("QUOTE_TTL_SECOND", "300"); err != nil {
		return
	}
	cfg.QuoteTTL = time.Duration(n) * time.Second
	if n, err = getInt("QUOTE_STALE_RETENTION_SECOND", "86400"); err != nil {
		return
	}
	cfg.QuoteStaleRetention = time.Duration(n) * time.Second
	cfg.QuoteCacheBackend = getEnv("QUOTE_CACHE_BACKEND", "memory")
	if cfg.QuoteCacheBackend != "memory" && cfg.QuoteCacheBackend != "redis" {
		err = fmt.Errorf("QUOTE_CACHE_BACKEND: unknown backend %q", cfg.QuoteCacheBackend)
		return
	}
	if cfg.QuoteRetry.Attempts, err = getInt("QUOTE_RETRY_ATTEMPTS", "3"); err != nil {
		return
	}
	if n, err = getInt("QUOTE_RETRY_BASE_DELAY_MS", "200"); err != nil {
		return
	}
	cfg.QuoteRetry.BaseDelay = time.Duration(n) * time.Millisecond
	if n, err = getInt("QUOTE_ATTEMPT_TIMEOUT_MS", "5000"); err != nil {
		return
	}
	cfg.QuoteRetry.AttemptTimeout = time.Duration(n) * time.Millisecond
	cfg.QuoteETHURL = getEnv("QUOTE_ETH_URL", "https://api.coinbase.com/v2/prices/ETH-USD/spot")
	cfg.QuoteETHPath = getEnv("QUOTE_ETH_PATH", "data.amount")
	if cfg.QuoteFXPairs, err = parseFXPairs(getEnv("QUOTE_FX_PAIRS", "")); err != nil {
		return
	}

	// Idempotency config
	if n, err = getInt("IDEMPOTENCY_TTL_SECOND", "86400"); err != nil {
		return
	}
	cfg.IdempotencyTTL = time.Duration(n) * time.Second

	return
}

// parseFXPairs parses "USD:RUB,USD:EUR" into currency pairs.
func parseFXPairs(s string) ([][2]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var pairs [][2]string
	for _, item := range strings.Split(s, ",") {
		from, to, ok := strings.Cut(strings.TrimSpace(item), ":")
		if !ok || from == "" || to == "" {
			return nil, fmt.Errorf("QUOTE_FX_PAIRS: malformed pair %q", item)
		}
		pairs = append(pairs, [2]string{strings.ToUpper(from), strings.ToUpper(to)})
	}
	return pairs, nil
}

// app bundles the services the HTTP layer depends on.
type app struct {
	tokener       middlewares.Tokener
	ledger        *services.LedgerService
	withdrawals   *services.WithdrawalService
	settlements   *services.SettlementService
	notifications *services.NotificationService
	quotes        *services.QuoteService
	cache         *redis.Client
	idemTTL       time.Duration
}

// newRouter sets up routes and middleware.
func newRouter(a app, cfg config) http.Handler {
	claims := handlers.ClaimsGetter(jwt.ClaimsFromContext)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware)
	r.Use(metrics.InstrumentHandler)

	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", cfg.AppHost, cfg.AppPort)),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewares.AuthMiddleware(a.tokener))

		r.Get("/wallet/balance", handlers.NewGetBalanceHandler(a.ledger, claims))
		r.Get("/wallet/transactions", handlers.NewListTransactionsHandler(a.ledger, claims))
		r.Get("/wallet/bank-accounts", handlers.NewListBankAccountsHandler(a.ledger, claims))
		r.Post("/wallet/bank-accounts", handlers.NewAddBankAccountHandler(a.ledger, claims))
		r.Delete("/wallet/bank-accounts/{id}", handlers.NewDeleteBankAccountHandler(a.ledger, claims))

		r.With(middlewares.IdempotencyMiddleware(a.cache, a.idemTTL)).
			Post("/withdrawals", handlers.NewSubmitWithdrawalHandler(a.withdrawals, claims))
		r.Get("/withdrawals", handlers.NewListWithdrawalsHandler(a.withdrawals, claims))
		r.Get("/withdrawals/{id}", handlers.NewGetWithdrawalHandler(a.withdrawals, claims))

		r.Get("/notifications", handlers.NewListNotificationsHandler(a.notifications, claims))
		r.Patch("/notifications/read-all", handlers.NewMarkAllNotificationsReadHandler(a.notifications, claims))
		r.Patch("/notifications/{id}/read", handlers.NewMarkNotificationReadHandler(a.notifications, claims))
		r.Delete("/notifications/{id}", handlers.NewDeleteNotificationHandler(a.notifications, claims))
		r.Delete("/notifications", handlers.NewDeleteAllNotificationsHandler(a.notifications, claims))

		r.Get("/quotes/{key}", handlers.NewGetQuoteHandler(a.quotes))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewares.RequireRole(jwt.RoleAdmin))
			r.Post("/settlements/{id}/transition", handlers.NewTransitionSettlementHandler(a.settlements))
			r.Patch("/withdrawals/{id}", handlers.NewResolveWithdrawalHandler(a.withdrawals))
		})
	})

	return r
}

// run initializes the logger, database, Redis, Kafka, the gRPC client and the HTTP server.
// It wires services, sets up routes and handles graceful shutdown.
func run(ctx context.Context, cfg config) error {
	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Sync()
	logger.Log.Infof("Logger initialized with level %s", cfg.LogLevel)

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.PGUser, cfg.PGPassword, cfg.PGHost, cfg.PGPort, cfg.PGDB)
	logger.Log.Infow("Connecting to PostgreSQL", "host", cfg.PGHost, "port", cfg.PGPort, "db", cfg.PGDB)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return fmt.Errorf("PostgreSQL connection error: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.PGMaxOpenConns)
	db.SetMaxIdleConns(cfg.PGMaxIdleConns)
	if err := repositories.Migrate(ctx, db); err != nil {
		return fmt.Errorf("PostgreSQL migration failed: %w", err)
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis connection error: %w", err)
	}
	defer rdb.Close()

	// Kafka writer for notification fan-out
	var kafkaWriter services.KafkaWriter
	if len(cfg.KafkaBrokers) > 0 {
		w := &kafka.Writer{
			Addr:                   kafka.TCP(cfg.KafkaBrokers...),
			Topic:                  cfg.KafkaNotificationTopic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           cfg.KafkaBatchTimeout,
			AllowAutoTopicCreation: true,
		}
		defer w.Close()
		kafkaWriter = w
		logger.Log.Infow("Kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaNotificationTopic)
	}

	// Connect to gRPC service
	grpcAddr := fmt.Sprintf("%s:%s", cfg.GWHost, cfg.GWPort)
	conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to connect to gRPC service at %s: %w", grpcAddr, err)
	}
	defer conn.Close()
	exchanger := facades.NewExchangeRatesGRPCFacade(pb.NewExchangeServiceClient(conn))

	// Quote upstreams
	router := services.QuoteRouter{
		models.QuoteETHPrice: facades.NewHTTPPriceFeed(&http.Client{}, cfg.QuoteETHURL, cfg.QuoteETHPath),
	}
	for _, pair := range cfg.QuoteFXPairs {
		router[facades.FXQuoteKey(pair[0], pair[1])] = exchanger
	}

	var quoteStore services.QuoteStore = repositories.NewQuoteMemoryRepository()
	if cfg.QuoteCacheBackend == "redis" {
		quoteStore = repositories.NewQuoteCacheRepository(rdb, cfg.QuoteStaleRetention)
	}

	// Initialize repositories
	txManager := repositories.NewTxManager(db)
	walletWriter := repositories.NewWalletWriterRepository(db, repositories.GetTxFromContext)
	walletReader := repositories.NewWalletReaderRepository(db, repositories.GetTxFromContext)
	settlementRepo := repositories.NewSettlementRepository(db, repositories.GetTxFromContext)
	withdrawalRepo := repositories.NewWithdrawalRepository(db, repositories.GetTxFromContext)
	notificationRepo := repositories.NewNotificationRepository(db)

	// Initialize services
	notificationService := services.NewNotificationService(notificationRepo, notificationRepo, kafkaWriter)
	ledgerService := services.NewLedgerService(walletWriter, walletReader, txManager, notificationService, cfg.WithdrawalMinAmount)
	quoteService := services.NewQuoteService(quoteStore, router, cfg.QuoteTTL, cfg.QuoteRetry)
	defer quoteService.Close()
	settlementService := services.NewSettlementService(settlementRepo, ledgerService, notificationService)
	withdrawalService := services.NewWithdrawalService(withdrawalRepo, ledgerService, txManager, quoteService, notificationService, cfg.WithdrawalFeePercent)
	logger.Log.Infow("Quote keys configured", "keys", router.Keys(), "backend", cfg.QuoteCacheBackend)

	handler := newRouter(app{
		tokener:       jwt.New(jwt.WithSecretKey(cfg.JWTSecretKey)),
		ledger:        ledgerService,
		withdrawals:   withdrawalService,
		settlements:   settlementService,
		notifications: notificationService,
		quotes:        quoteService,
		cache:         rdb,
		idemTTL:       cfg.IdempotencyTTL,
	}, cfg)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s:%s", cfg.AppHost, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}
