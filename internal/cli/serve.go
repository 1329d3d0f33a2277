package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"droneDeliveryScheduler/internal/config"
	"droneDeliveryScheduler/internal/db"
	"droneDeliveryScheduler/internal/events"
	grpcserver "droneDeliveryScheduler/internal/grpc"
	"droneDeliveryScheduler/internal/httpapi"
	"droneDeliveryScheduler/internal/lock"
	"droneDeliveryScheduler/internal/logging"
	"droneDeliveryScheduler/internal/metrics"
	"droneDeliveryScheduler/internal/schedule"
	"droneDeliveryScheduler/repository"
)

func buildServeCommand() *cobra.Command {
	var dev bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC and HTTP scheduler service",
		RunE: func(cmd *cobra.Command, args []string) error {
			load := config.Load
			if dev {
				load = config.LoadWithDefaults
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().BoolVar(&dev, "dev", false, "allow a development JWT secret")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.Setup(cfg.Log.Env, cfg.Log.Level)
	logger.Info().Str("config", cfg.String()).Msg("configuration loaded")

	grid, policy, err := gridFromConfig(cfg.Schedule)
	if err != nil {
		return err
	}

	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.Error().Err(err).Msg("close db")
		}
	}()

	bus := events.NewBus()
	collector := metrics.NewCollector()
	opts := []schedule.Option{
		schedule.WithLogger(logger.With().Str("component", "scheduler").Logger()),
		schedule.WithMetrics(collector),
		schedule.WithPublisher(bus),
	}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		opts = append(opts,
			schedule.WithLocker(lock.NewRedis(rdb, cfg.Redis.Channel+":lock:", cfg.Redis.LockTTL, logger)),
			schedule.WithPublisher(events.Multi{bus, events.NewRedisPublisher(rdb, cfg.Redis.Channel)}),
		)
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis lock and event fan-out enabled")
	}

	sched := schedule.New(grid, policy, repository.NewDroneRepository(d), repository.NewDeliveryRepository(d), opts...)

	stopWatch := watchCharges(bus, logger)
	defer stopWatch()

	shutdownGRPC, err := grpcserver.StartGRPC(cfg, sched, logger)
	if err != nil {
		return err
	}

	var servers []*http.Server
	if cfg.HTTP.Address != "" {
		servers = append(servers, &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           httpapi.New(sched, cfg.Auth.JWTSecret, collector, logger).Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		})
	}
	if cfg.Metrics.Address != "" && cfg.Metrics.Address != cfg.HTTP.Address {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		servers = append(servers, &http.Server{Addr: cfg.Metrics.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second})
	}
	for _, srv := range servers {
		go func(srv *http.Server) {
			logger.Info().Str("addr", srv.Addr).Msg("http listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("addr", srv.Addr).Msg("http server stopped")
			}
		}(srv)
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Str("addr", srv.Addr).Msg("http shutdown")
		}
	}
	if err := shutdownGRPC(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("grpc shutdown")
	}
	return nil
}

// watchCharges logs charge starts from the in-process bus until the returned func is called.
func watchCharges(bus *events.Bus, logger zerolog.Logger) func() {
	sub := bus.Subscribe(events.ChargeStarted)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for evt := range sub {
			if len(evt.Slots) == 0 {
				continue
			}
			logger.Info().
				Str("drone", evt.DroneID).
				Time("from", evt.Slots[0]).
				Int("slots", len(evt.Slots)).
				Msg("charge started")
		}
	}()
	return func() {
		bus.Unsubscribe(events.ChargeStarted, sub)
		<-done
	}
}
