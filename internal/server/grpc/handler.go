package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/ridekeeper/internal/common"
	"github.com/dmitrijs2005/ridekeeper/internal/docrpc"
)

// toStatus converts service errors to gRPC status errors.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrorInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	s.logger.Error(ctx, "request failed", "error", err)
	return status.Error(codes.Internal, "internal error")
}

func (s *GRPCServer) Ping(ctx context.Context) error {
	return nil
}

func (s *GRPCServer) Login(ctx context.Context, req docrpc.LoginRequest) (docrpc.LoginResponse, error) {
	token, err := s.auth.Login(ctx, req.ClientID, req.Secret)
	if err != nil {
		s.logger.Warn(ctx, "login rejected", "client_id", req.ClientID)
		return docrpc.LoginResponse{}, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Logged in", "client_id", req.ClientID)
	return docrpc.LoginResponse{AccessToken: token}, nil
}

func (s *GRPCServer) Create(ctx context.Context, req docrpc.CreateRequest) (string, error) {
	id, err := s.docs.Create(ctx, req.Collection, req.Data)
	return id, s.toStatus(ctx, err)
}

func (s *GRPCServer) Set(ctx context.Context, req docrpc.SetRequest) error {
	return s.toStatus(ctx, s.docs.Set(ctx, req.Collection, req.ID, req.Data))
}

func (s *GRPCServer) Update(ctx context.Context, req docrpc.UpdateRequest) error {
	return s.toStatus(ctx, s.docs.Update(ctx, req.Collection, req.ID, req.Fields))
}

func (s *GRPCServer) Get(ctx context.Context, ref docrpc.DocumentRef) (docrpc.Document, error) {
	doc, err := s.docs.Get(ctx, ref.Collection, ref.ID)
	return doc, s.toStatus(ctx, err)
}

func (s *GRPCServer) Delete(ctx context.Context, ref docrpc.DocumentRef) error {
	return s.toStatus(ctx, s.docs.Delete(ctx, ref.Collection, ref.ID))
}

func (s *GRPCServer) Query(ctx context.Context, req docrpc.QueryRequest) ([]docrpc.Document, error) {
	docs, err := s.docs.Query(ctx, req.Collection, req.Filters)
	return docs, s.toStatus(ctx, err)
}

func (s *GRPCServer) Watch(ctx context.Context, ref docrpc.DocumentRef, send func(docrpc.Change) error) error {
	clientID, _ := ClientIDFromContext(ctx)
	s.logger.Debug(ctx, "watch started", "client_id", clientID, "collection", ref.Collection, "id", ref.ID)
	return s.toStatus(ctx, s.docs.Watch(ctx, ref.Collection, ref.ID, send))
}
