// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package grpc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/holomush/holoauth/internal/auth"
	holoauthgrpc "github.com/holomush/holoauth/internal/grpc"
)

var alice = auth.UserRead{ID: 7, Name: "alice", CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

// stubResolver accepts exactly one token.
type stubResolver struct {
	token string
	err   error
	calls int
}

func (s *stubResolver) ResolveFromBearer(_ context.Context, authorization, cookie string) (auth.UserRead, error) {
	s.calls++
	if s.err != nil {
		return auth.UserRead{}, s.err
	}
	token, ok := auth.BearerToken(authorization, cookie)
	if !ok {
		return auth.UserRead{}, oops.Code(auth.CodeMissingToken).Wrap(auth.ErrMissingToken)
	}
	if token != s.token {
		return auth.UserRead{}, oops.Code(auth.CodeInvalidToken).Wrap(auth.ErrInvalidToken)
	}
	return alice, nil
}

func incoming(authorization string) context.Context {
	if authorization == "" {
		return context.Background()
	}
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", authorization))
}

func TestUnaryAuthInterceptor(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/holoauth.v1.Account/Me"}

	tests := []struct {
		name          string
		authorization string
		wantCode      codes.Code
	}{
		{"valid bearer", "Bearer good-token", codes.OK},
		{"lowercase scheme", "bearer good-token", codes.OK},
		{"missing metadata", "", codes.Unauthenticated},
		{"wrong token", "Bearer other", codes.Unauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &stubResolver{token: "good-token"}
			interceptor := holoauthgrpc.UnaryAuthInterceptor(resolver)

			var seen auth.UserRead
			handler := func(ctx context.Context, _ any) (any, error) {
				user, ok := holoauthgrpc.UserFromContext(ctx)
				require.True(t, ok)
				seen = user
				return "ok", nil
			}

			resp, err := interceptor(incoming(tt.authorization), nil, info, handler)
			assert.Equal(t, tt.wantCode, status.Code(err))
			if tt.wantCode == codes.OK {
				assert.Equal(t, "ok", resp)
				assert.Equal(t, alice, seen)
			} else {
				assert.Nil(t, resp)
			}
		})
	}
}

func TestUnaryAuthInterceptor_PublicMethodSkipsResolver(t *testing.T) {
	resolver := &stubResolver{token: "good-token"}
	interceptor := holoauthgrpc.UnaryAuthInterceptor(resolver, holoauthgrpc.HealthCheckMethod)

	called := false
	handler := func(ctx context.Context, _ any) (any, error) {
		called = true
		_, ok := holoauthgrpc.UserFromContext(ctx)
		assert.False(t, ok)
		return nil, nil
	}

	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: holoauthgrpc.HealthCheckMethod}, handler)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Zero(t, resolver.calls)
}

func TestUnaryAuthInterceptor_InternalErrorIsOpaque(t *testing.T) {
	resolver := &stubResolver{err: oops.Code("AUTH_RESOLVE_FAILED").Wrap(errors.New("pool exhausted"))}
	interceptor := holoauthgrpc.UnaryAuthInterceptor(resolver)

	_, err := interceptor(incoming("Bearer x"), nil, &grpc.UnaryServerInfo{FullMethod: "/x/Y"}, func(context.Context, any) (any, error) {
		t.Fatal("handler must not run")
		return nil, nil
	})
	st := status.Convert(err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.NotContains(t, st.Message(), "pool exhausted")
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{nil, codes.OK},
		{auth.ErrExpiredToken, codes.Unauthenticated},
		{auth.ErrSessionExpired, codes.Unauthenticated},
		{auth.ErrUserNotFound, codes.Unauthenticated},
		{auth.ErrRefreshTokenNotFound, codes.Unauthenticated},
		{auth.ErrUserAlreadyExists, codes.AlreadyExists},
		{auth.ErrValidation, codes.InvalidArgument},
		{errors.New("disk full"), codes.Internal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, status.Code(holoauthgrpc.StatusFromError(tt.err)), "%v", tt.err)
	}
}

func TestContextWithUser(t *testing.T) {
	_, ok := holoauthgrpc.UserFromContext(context.Background())
	assert.False(t, ok)

	user, ok := holoauthgrpc.UserFromContext(holoauthgrpc.ContextWithUser(context.Background(), alice))
	require.True(t, ok)
	assert.Equal(t, alice, user)
}
