package grpcserver

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"droneDeliveryScheduler/internal/auth"
	"droneDeliveryScheduler/internal/config"
	"droneDeliveryScheduler/internal/schedule"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// NewServer builds a gRPC server with ScheduleService and the health service registered.
// Interceptors run in order: logging, rate limiting, authentication.
func NewServer(cfg *config.Config, sched *schedule.Scheduler, logger zerolog.Logger) *grpc.Server {
	if cfg == nil {
		panic("config is required")
	}
	interceptors := []grpc.UnaryServerInterceptor{loggingInterceptor(logger)}
	if cfg.RateLimit.RPS > 0 {
		interceptors = append(interceptors, rateLimitInterceptor(rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)))
	}
	interceptors = append(interceptors, auth.NewUnaryAuthInterceptor(cfg.Auth.JWTSecret, healthCheckMethod))

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	srv.RegisterService(&ServiceDesc, &ScheduleServer{Scheduler: sched})

	hs := health.NewServer()
	hs.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv
}

// StartGRPC starts the gRPC server on the configured address and returns a shutdown function.
func StartGRPC(cfg *config.Config, sched *schedule.Scheduler, logger zerolog.Logger) (func(context.Context) error, error) {
	addr := cfg.GRPC.Address
	if addr == "" {
		addr = ":50051"
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	// Plaintext; terminate TLS in front of the service.
	srv := NewServer(cfg, sched, logger)
	go func() {
		if err := srv.Serve(lis); err != nil {
			logger.Error().Err(err).Msg("grpc server stopped")
		}
	}()
	logger.Info().Str("addr", lis.Addr().String()).Msg("grpc listening")

	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() { srv.GracefulStop(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			srv.Stop()
			return ctx.Err()
		}
	}, nil
}

func loggingInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		evt := logger.Debug()
		if code == codes.Internal || code == codes.Unknown {
			evt = logger.Error().Err(err)
		}
		evt.Str("method", info.FullMethod).
			Str("code", code.String()).
			Dur("duration", time.Since(start)).
			Msg("rpc")
		return resp, err
	}
}

// rateLimitInterceptor rejects calls beyond the server-wide budget with Unavailable.
// ResourceExhausted is reserved for "no free drone".
func rateLimitInterceptor(lim *rate.Limiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !lim.Allow() {
			return nil, status.Error(codes.Unavailable, "rate limit exceeded, retry later")
		}
		return handler(ctx, req)
	}
}
