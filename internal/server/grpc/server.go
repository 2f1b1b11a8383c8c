// Package grpc exposes the document service over gRPC.
package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"

	"github.com/dmitrijs2005/ridekeeper/internal/docrpc"
	"github.com/dmitrijs2005/ridekeeper/internal/logging"
	"github.com/dmitrijs2005/ridekeeper/internal/server/auth"
	"github.com/dmitrijs2005/ridekeeper/internal/server/services"
)

type GRPCServer struct {
	address string
	docs    *services.DocumentService
	auth    *auth.Authenticator
	logger  logging.Logger
}

var _ docrpc.DocumentStoreServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, docs *services.DocumentService, authenticator *auth.Authenticator) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		docs:    docs,
		auth:    authenticator,
	}
}

func (s *GRPCServer) newServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.streamAccessTokenInterceptor),
	}, opts...)
	srv := grpc.NewServer(opts...)
	docrpc.RegisterDocumentStoreServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
