package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"procura.io/internal/audit"
	"procura.io/internal/auth"
	"procura.io/internal/award"
	"procura.io/internal/config"
	"procura.io/internal/httpapi"
	"procura.io/internal/ids"
	"procura.io/internal/notify"
	"procura.io/internal/obs"
	"procura.io/internal/store/pg"
	"procura.io/internal/stream"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		obs.Logger().Fatal("load config", zap.Error(err))
	}
	obs.Init(cfg.AppEnv)
	defer obs.Sync()
	log := obs.Logger().With(zap.String("service", "procura-api"), zap.String("version", version))

	obs.InitMetrics()
	obs.InitBuildInfo(version, commit)

	var (
		store award.Store
		probe httpapi.ReadyProbe
	)
	if cfg.PGDSN != "" {
		pgStore, err := pg.Open(cfg.PGDSN)
		if err != nil {
			log.Fatal("open database", zap.Error(err))
		}
		defer pgStore.Close()
		store = pgStore
		probe.Deps = append(probe.Deps, pgStore)
	} else {
		log.Warn("PROCURA_PG_DSN not set, using in-memory store with demo data")
		mem := award.NewInMemory()
		if err := seedDemo(mem, time.Now().UTC()); err != nil {
			log.Fatal("seed demo data", zap.Error(err))
		}
		store = mem
	}

	events := stream.New()
	sinks := notify.Multi{events}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		rs := notify.NewRedisStream(rdb, cfg.NotifyStream, 100000)
		sinks = append(sinks, rs)
		probe.Deps = append(probe.Deps, rs)
	}
	if cfg.MQTTBroker != "" {
		client, err := notify.DialMQTT(cfg.MQTTBroker, "procura-api-"+ids.New())
		if err != nil {
			log.Fatal("connect mqtt", zap.Error(err))
		}
		defer client.Disconnect(250)
		sinks = append(sinks, notify.NewMQTT(client, cfg.MQTTTopicPrefix))
	}
	if len(sinks) == 1 {
		sinks = append(sinks, notify.Log{})
	}

	signer, err := auth.NewSigner(cfg.AuthSecret)
	if err != nil {
		log.Fatal("auth signer", zap.Error(err))
	}

	svc := award.NewService(store,
		award.WithNotifier(sinks),
		award.WithAuditor(audit.NewLog()),
	)

	api := httpapi.New(httpapi.Deps{
		Awards:    svc,
		Signer:    signer,
		Stream:    events,
		Ready:     probe,
		Version:   version,
		DevTokens: cfg.DevTokens,
	})
	api.SetRateLimit(cfg.RateLimitBurst, cfg.RateLimitPerSec)
	api.SetTrustedProxies(cfg.TrustedProxies)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		// SSE streams stay open; handlers bound their own work by context.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grpcServer := grpc.NewServer()
	health := httpapi.NewHealthServer(probe)
	health.Register(grpcServer)
	go health.Watch(ctx)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatal("grpc listen", zap.Error(err))
	}
	go func() {
		log.Info("grpc listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error("grpc serve", zap.Error(err))
		}
	}()

	go func() {
		log.Info("http listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	log.Info("stopped")
}
