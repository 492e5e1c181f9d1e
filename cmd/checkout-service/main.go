package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jcmexdev/ecommerce-checkout/internal/api-gateway/infra/adapters/service"
	"github.com/jcmexdev/ecommerce-checkout/internal/api-gateway/infra/httpx"
	"github.com/jcmexdev/ecommerce-checkout/internal/checkout-service/app"
	"github.com/jcmexdev/ecommerce-checkout/internal/coordinator/txlog"
	"github.com/jcmexdev/ecommerce-checkout/internal/coordinator/txlog/sqlite"
	"github.com/jcmexdev/ecommerce-checkout/internal/pkg/broker"
	"github.com/jcmexdev/ecommerce-checkout/internal/pkg/cache"
	"github.com/jcmexdev/ecommerce-checkout/internal/pkg/config"
	"github.com/jcmexdev/ecommerce-checkout/internal/pkg/interceptors"
	"github.com/jcmexdev/ecommerce-checkout/internal/pkg/metrics"
	"github.com/jcmexdev/ecommerce-checkout/internal/pkg/telemetry"
	"github.com/jcmexdev/ecommerce-checkout/internal/report"
)

func main() {
	cfg := config.Load()
	telemetry.InitLogger(cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("checkout service stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint, cfg.AppEnv)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	var (
		logRepo txlog.Repository
		reader  txlog.Reader
	)
	if cfg.CheckoutLogPath != "" {
		repo, err := sqlite.Open(cfg.CheckoutLogPath)
		if err != nil {
			return err
		}
		defer repo.Close()
		logRepo, reader = repo, repo
		slog.Info("checkout log enabled", "path", cfg.CheckoutLogPath)
	}

	sinks := report.MultiSink{report.NewTextSink(os.Stdout)}
	if cfg.RabbitMQURL != "" {
		pool, err := broker.Dial(cfg.RabbitMQURL, cfg.RabbitMQQueue, cfg.ChannelPoolSize)
		if err != nil {
			return err
		}
		defer pool.Close()
		sinks = append(sinks, broker.NewPublisher(pool, cfg.RabbitMQQueue))
	}

	var idem cache.Cache
	if cfg.RedisAddr != "" {
		rc := cache.NewRedisCache(cfg.RedisAddr, cfg.ServiceName)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			slog.Warn("redis unreachable, idempotent replay may fail", "addr", cfg.RedisAddr, "error", err)
		}
		idem = rc
	}

	m := metrics.NewServerMetrics("api", nil)
	svc := app.NewService(app.Options{
		Sink:        sinks,
		Log:         logRepo,
		Metrics:     m,
		ShippingFee: cfg.ShippingFee,
	})
	store := service.NewMemoryStorefront(svc)
	handler := httpx.NewHandler(store, idem, cfg.IdempotencyTTL, reader)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpx.NewRouter(handler, m, m.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcSrv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.UnaryServerInterceptor(),
			interceptors.LoggingServerInterceptor(),
		),
	)
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	grpcAddr := fmt.Sprintf(":%d", cfg.GRPCPort)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", grpcAddr, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("storefront http running", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("health grpc running", "addr", grpcAddr)
		return grpcSrv.Serve(lis)
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		healthSrv.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := httpSrv.Shutdown(shutdownCtx)
		grpcSrv.GracefulStop()
		return err
	})

	return g.Wait()
}
