package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewUnaryAuthInterceptor returns a gRPC unary interceptor that extracts and validates
// a Bearer JWT from incoming metadata and injects the Principal into the context.
// Methods listed in allowUnauthenticated will bypass authentication (e.g., health checks).
func NewUnaryAuthInterceptor(secret string, allowUnauthenticated ...string) grpc.UnaryServerInterceptor {
	allow := make(map[string]struct{}, len(allowUnauthenticated))
	for _, m := range allowUnauthenticated {
		allow[strings.TrimSpace(m)] = struct{}{}
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := allow[info.FullMethod]; ok {
			return handler(ctx, req)
		}
		p, err := ParseFromMD(ctx, secret)
		if err != nil {
			return nil, status.Errorf(codes.Unauthenticated, "auth error: %v", err)
		}
		return handler(WithPrincipal(ctx, p), req)
	}
}

// RequirePrincipal ensures a principal is present in context.
func RequirePrincipal(ctx context.Context) (*Principal, error) {
	p, ok := FromContext(ctx)
	if !ok || p == nil {
		return nil, status.Error(codes.Unauthenticated, "missing principal")
	}
	return p, nil
}

// RequireKind ensures the principal has one of the given kinds.
func RequireKind(ctx context.Context, kinds ...string) (*Principal, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	for _, k := range kinds {
		if p.Kind == strings.ToLower(k) {
			return p, nil
		}
	}
	return nil, status.Errorf(codes.PermissionDenied, "only %s can perform this action", strings.Join(kinds, " or "))
}

func RequireAdmin(ctx context.Context) (*Principal, error) {
	return RequireKind(ctx, KindAdmin)
}

// RequireDispatcher admits dispatchers and admins.
func RequireDispatcher(ctx context.Context) (*Principal, error) {
	return RequireKind(ctx, KindDispatcher, KindAdmin)
}

// RequireDroneOrStaff admits the drone itself, dispatchers and admins. A drone
// principal may only act on its own id.
func RequireDroneOrStaff(ctx context.Context, droneID string) (*Principal, error) {
	p, err := RequireKind(ctx, KindDrone, KindDispatcher, KindAdmin)
	if err != nil {
		return nil, err
	}
	if p.Kind == KindDrone && p.Name != droneID {
		return nil, status.Error(codes.PermissionDenied, "drones may only read their own data")
	}
	return p, nil
}
