package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/ridekeeper/internal/common"
	"github.com/dmitrijs2005/ridekeeper/internal/docrpc"
	"github.com/dmitrijs2005/ridekeeper/internal/logging"
	"github.com/dmitrijs2005/ridekeeper/internal/server/auth"
)

const testKey = "secret"

func newInterceptorServer(t *testing.T) *GRPCServer {
	t.Helper()
	a, err := auth.NewAuthenticator(nil, testKey, time.Minute)
	require.NoError(t, err)
	return NewGRPCServer("", logging.Discard(), nil, a)
}

func withToken(token string) context.Context {
	md := metadata.New(map[string]string{common.AccessTokenHeaderName: token})
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestInterceptor_PublicMethodsSkipToken(t *testing.T) {
	s := newInterceptorServer(t)

	for _, method := range []string{docrpc.MethodLogin, docrpc.MethodPing} {
		called := false
		h := func(ctx context.Context, req any) (any, error) {
			called = true
			return "ok", nil
		}

		resp, err := s.accessTokenInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: method}, h)
		require.NoError(t, err, method)
		assert.True(t, called, method)
		assert.Equal(t, "ok", resp)
	}
}

func TestInterceptor_Rejects(t *testing.T) {
	s := newInterceptorServer(t)

	expired, err := auth.GenerateToken("mobile", []byte(testKey), -time.Minute)
	require.NoError(t, err)
	foreign, err := auth.GenerateToken("mobile", []byte("other"), time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name    string
		ctx     context.Context
		message string
	}{
		{"missing", context.Background(), "missing token"},
		{"empty", withToken(""), "missing token"},
		{"malformed", withToken("not-a-jwt"), common.ErrInvalidToken.Error()},
		{"wrong key", withToken(foreign), common.ErrInvalidToken.Error()},
		{"expired", withToken(expired), common.ErrTokenExpired.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := func(ctx context.Context, req any) (any, error) {
				t.Fatal("handler must not be called")
				return nil, nil
			}
			_, err := s.accessTokenInterceptor(tt.ctx, nil, &grpc.UnaryServerInfo{FullMethod: docrpc.MethodGet}, h)
			require.Error(t, err)
			assert.Equal(t, codes.Unauthenticated, status.Code(err))
			assert.Equal(t, tt.message, status.Convert(err).Message())
		})
	}
}

func TestInterceptor_ValidTokenAddsClientID(t *testing.T) {
	s := newInterceptorServer(t)
	token, err := auth.GenerateToken("mobile", []byte(testKey), time.Minute)
	require.NoError(t, err)

	var got string
	h := func(ctx context.Context, req any) (any, error) {
		got, _ = ClientIDFromContext(ctx)
		return nil, nil
	}

	_, err = s.accessTokenInterceptor(withToken(token), nil, &grpc.UnaryServerInfo{FullMethod: docrpc.MethodSet}, h)
	require.NoError(t, err)
	assert.Equal(t, "mobile", got)
}

type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (f *fakeServerStream) Context() context.Context { return f.ctx }

func TestStreamInterceptor(t *testing.T) {
	s := newInterceptorServer(t)
	token, err := auth.GenerateToken("mobile", []byte(testKey), time.Minute)
	require.NoError(t, err)
	info := &grpc.StreamServerInfo{FullMethod: docrpc.MethodWatch, IsServerStream: true}

	var got string
	h := func(srv any, ss grpc.ServerStream) error {
		got, _ = ClientIDFromContext(ss.Context())
		return nil
	}
	require.NoError(t, s.streamAccessTokenInterceptor(nil, &fakeServerStream{ctx: withToken(token)}, info, h))
	assert.Equal(t, "mobile", got)

	err = s.streamAccessTokenInterceptor(nil, &fakeServerStream{ctx: context.Background()}, info, h)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
