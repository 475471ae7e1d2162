package handler

import (
	"context"
	"strings"

	"resto-system/internal/auth"
	"resto-system/internal/database/models"
	"resto-system/internal/services/orders/terminal"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
}

type principalKey struct{}

// methodRoles lists who may call each terminal method. Methods missing from
// the table (login, health, reflection) need no session.
var methodRoles = map[string][]models.Role{
	terminal.SubmitOrderMethod:   {models.RoleStaff, models.RoleAdmin},
	terminal.PayOrderMethod:      {models.RoleStaff, models.RoleAdmin},
	terminal.KitchenFinishMethod: {models.RoleKitchen, models.RoleAdmin},
	terminal.WatchMethod:         {models.RoleStaff, models.RoleKitchen, models.RoleAdmin},
}

func UnaryAuthInterceptor(a Authenticator, policy *auth.StepUpPolicy) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx, err := authorize(ctx, a, policy, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

func StreamAuthInterceptor(a Authenticator, policy *auth.StepUpPolicy) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := authorize(ss.Context(), a, policy, info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &authedStream{ServerStream: ss, ctx: ctx})
	}
}

// PrincipalFromContext returns the caller attached by the auth interceptors.
func PrincipalFromContext(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(auth.Principal)
	return p, ok
}

func authorize(ctx context.Context, a Authenticator, policy *auth.StepUpPolicy, method string) (context.Context, error) {
	roles, guarded := methodRoles[method]
	if !guarded {
		return ctx, nil
	}

	token := bearerToken(ctx)
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "missing bearer token")
	}
	p, err := a.Authenticate(ctx, token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid session")
	}
	if !p.HasRole(roles...) {
		return nil, status.Errorf(codes.PermissionDenied, "role %s may not call %s", p.Role, method)
	}
	if !policy.Satisfied(p) {
		return nil, status.Error(codes.PermissionDenied, "second factor required")
	}
	return context.WithValue(ctx, principalKey{}, p), nil
}

func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, v := range md.Get("authorization") {
		if strings.HasPrefix(v, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(v, "Bearer "))
		}
	}
	return ""
}

type authedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authedStream) Context() context.Context {
	return s.ctx
}
