package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tabeya-be/internal/audit"
	"tabeya-be/internal/cancellation"
	"tabeya-be/internal/config"
	"tabeya-be/internal/customer"
	"tabeya-be/internal/db"
	"tabeya-be/internal/logger"
	"tabeya-be/internal/middleware"
	"tabeya-be/internal/order"
	"tabeya-be/internal/product"
	"tabeya-be/internal/redisx"
	"tabeya-be/internal/reservation"
	"tabeya-be/internal/review"
	"tabeya-be/internal/stock"
	"tabeya-be/internal/storage"
	"tabeya-be/internal/transport"

	"go.uber.org/zap"
)

var (
	initDBFunc      = db.InitDB
	startServerFunc = serve
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ext := connectExternals(ctx, cfg)
	defer ext.close()

	go ext.limiter.Run(ctx)

	addr := ":" + cfg.AppPort
	logger.L().Info("server starting", zap.String("addr", addr), zap.String("env", cfg.AppEnv))
	return startServerFunc(ctx, addr, newServer(cfg, database, ext))
}

// externals holds the optional infrastructure. Every field may be absent; the
// server then runs with the database alone.
type externals struct {
	redis   redisx.KV
	sinks   []audit.Recorder
	closers []func()
	limiter *middleware.RateLimiter
}

func connectExternals(ctx context.Context, cfg *config.Config) *externals {
	ext := &externals{limiter: middleware.NewRateLimiter(os.Getenv("INTERNAL_SECRET_KEY"))}
	log := logger.L()

	if cfg.RedisAddr != "" {
		client := redisx.New(cfg.RedisAddr)
		if err := redisx.Ping(ctx, client); err != nil {
			log.Warn("redis unreachable, idempotency and catalog cache disabled", zap.Error(err))
			client.Close()
		} else {
			ext.redis = client
			ext.closers = append(ext.closers, func() { client.Close() })
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		sink := audit.NewKafkaSink(audit.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic), 0)
		ext.sinks = append(ext.sinks, sink)
		ext.closers = append(ext.closers, sink.Close)
	}

	if cfg.AMQPURL != "" {
		conn, ch, err := audit.DialAMQP(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			log.Warn("amqp unavailable, audit queue disabled", zap.Error(err))
		} else {
			ext.sinks = append(ext.sinks, audit.NewAMQPSink(ch, cfg.AMQPQueue))
			ext.closers = append(ext.closers, func() { conn.Close() })
		}
	}

	return ext
}

func (e *externals) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

func newServer(cfg *config.Config, database *sql.DB, ext *externals) http.Handler {
	recorder := audit.Multi(append([]audit.Recorder{audit.NewDBSink(database)}, ext.sinks...))

	var (
		cache product.Cache
		idem  transport.IdempotencyStore
	)
	if ext.redis != nil {
		cache = redisx.NewCatalogCache(ext.redis, cfg.CatalogCacheTTL)
		idem = redisx.NewIdempotencyStore(ext.redis, cfg.IdempotencyTTL)
	}

	counter := customer.NewCounter(cfg.CounterStrategy)
	receipts := storage.NewReceiptStore(cfg.UploadDir)
	canceller := cancellation.NewService(cancellation.NewRepository(database), recorder)

	orderSvc := order.NewService(order.NewRepository(database, counter), receipts, canceller, recorder, cfg.TotalTolerance)
	reservationSvc := reservation.NewService(reservation.NewRepository(database, counter), receipts, canceller, recorder, cfg.TotalTolerance)
	productSvc := product.NewService(product.NewRepository(database), stock.NewRepository(database), cache)
	reviewSvc := review.NewService(review.NewRepository(database), customer.NewRepository(database), recorder)

	h := transport.NewHandler(transport.Services{
		Orders:       orderSvc,
		Reservations: reservationSvc,
		Products:     productSvc,
		Reviews:      reviewSvc,
	}, idem, cfg.RequestTimeout)

	return transport.NewRouter(h, transport.RouterOptions{
		JWTSecret: []byte(cfg.JWTSecret),
		Limiter:   ext.limiter,
	})
}

// serve runs until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
