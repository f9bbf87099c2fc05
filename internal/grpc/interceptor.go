// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package grpc

import (
	"context"
	"log/slog"
	"slices"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/pkg/errutil"
)

// authorizationKey is the metadata key carrying "Bearer <jwt>".
const authorizationKey = "authorization"

// BearerResolver resolves an access token to a user.
type BearerResolver interface {
	ResolveFromBearer(ctx context.Context, authorization, cookie string) (auth.UserRead, error)
}

type userKey struct{}

// ContextWithUser returns ctx carrying user.
func ContextWithUser(ctx context.Context, user auth.UserRead) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the user stored by UnaryAuthInterceptor.
func UserFromContext(ctx context.Context) (auth.UserRead, bool) {
	user, ok := ctx.Value(userKey{}).(auth.UserRead)
	return user, ok
}

// UnaryAuthInterceptor authenticates every unary call except the listed
// full method names. The resolved user is available to handlers through
// UserFromContext.
func UnaryAuthInterceptor(resolver BearerResolver, publicMethods ...string) grpc.UnaryServerInterceptor {
	public := slices.Clone(publicMethods)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if slices.Contains(public, info.FullMethod) {
			return handler(ctx, req)
		}

		var authorization string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get(authorizationKey); len(values) > 0 {
				authorization = values[0]
			}
		}

		user, err := resolver.ResolveFromBearer(ctx, authorization, "")
		if err != nil {
			if auth.KindOf(err) == auth.KindInternal {
				errutil.LogErrorContext(ctx, slog.Default(), "grpc authentication failed", err,
					"method", info.FullMethod)
			}
			return nil, StatusFromError(err)
		}
		return handler(ContextWithUser(ctx, user), req)
	}
}

// StatusFromError converts a service error to a gRPC status error. Internal
// failures get a generic message.
func StatusFromError(err error) error {
	if err == nil {
		return nil
	}
	kind := auth.KindOf(err)
	switch kind {
	case auth.KindInternal:
		return status.Error(codes.Internal, "internal error")
	case auth.KindValidation:
		return status.Error(codes.InvalidArgument, err.Error())
	case auth.KindUserAlreadyExists:
		return status.Error(codes.AlreadyExists, kind.String())
	case auth.KindInvalidCredentials,
		auth.KindUserNotFound,
		auth.KindMissingToken,
		auth.KindMissingSessionCookie,
		auth.KindExpiredToken,
		auth.KindSessionExpired,
		auth.KindSessionNotFound,
		auth.KindInvalidToken,
		auth.KindRefreshTokenNotFound,
		auth.KindRefreshTokenExpired:
		return status.Error(codes.Unauthenticated, kind.String())
	}
	return status.Error(codes.Internal, "internal error")
}
