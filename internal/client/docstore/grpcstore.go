package docstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/ridekeeper/internal/common"
	"github.com/dmitrijs2005/ridekeeper/internal/docrpc"
	"github.com/dmitrijs2005/ridekeeper/internal/logging"
)

// GRPCStore is the remote Store. It is safe for concurrent use.
type GRPCStore struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      *docrpc.Client
	logger      logging.Logger

	clientID string
	secret   string

	mu          sync.RWMutex
	accessToken string
}

func NewGRPCStore(endpointURL, clientID, secret string, logger logging.Logger, opts ...grpc.DialOption) (*GRPCStore, error) {
	s := &GRPCStore{
		endpointURL: endpointURL,
		clientID:    clientID,
		secret:      secret,
		logger:      logger.With("module", "docstore_grpc"),
	}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithStreamInterceptor(s.streamAccessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	s.conn = conn
	s.client = docrpc.NewClient(conn)
	return s, nil
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCStore) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}

func (s *GRPCStore) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if method == docrpc.MethodLogin || method == docrpc.MethodPing {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	err := invoker(withAccessToken(ctx, s.token()), method, req, reply, cc, opts...)
	if err == nil || !isTokenExpired(err) || s.credentials().Secret == "" {
		return err
	}

	s.logger.Debug(ctx, "access token expired, logging in again", "method", method)
	if err := s.Login(ctx); err != nil {
		return err
	}
	return invoker(withAccessToken(ctx, s.token()), method, req, reply, cc, opts...)
}

// streamAccessTokenInterceptor attaches the token to streams. An expired
// token on a stream surfaces on the first Recv, so the caller logs in and
// reopens the stream (see Watch).
func (s *GRPCStore) streamAccessTokenInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	return streamer(withAccessToken(ctx, s.token()), desc, cc, method, opts...)
}

func (s *GRPCStore) credentials() docrpc.LoginRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return docrpc.LoginRequest{ClientID: s.clientID, Secret: s.secret}
}

// SetSecret replaces the client secret used by Login and by token renewal.
func (s *GRPCStore) SetSecret(secret string) {
	s.mu.Lock()
	s.secret = secret
	s.mu.Unlock()
}

// Login exchanges the configured client credentials for an access token.
func (s *GRPCStore) Login(ctx context.Context) error {
	resp, err := s.client.Login(ctx, s.credentials())
	if err != nil {
		return s.mapError(err)
	}

	s.mu.Lock()
	s.accessToken = resp.AccessToken
	s.mu.Unlock()
	return nil
}

func (s *GRPCStore) Ping(ctx context.Context) error {
	st, err := s.client.Ping(ctx)
	if err != nil {
		return s.mapError(err)
	}
	if st != docrpc.StatusOK {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCStore) Close() error {
	return s.conn.Close()
}

func (s *GRPCStore) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	id, err := s.client.Create(ctx, docrpc.CreateRequest{Collection: collection, Data: data})
	if err != nil {
		return "", s.mapError(err)
	}
	return id, nil
}

func (s *GRPCStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	err := s.client.Set(ctx, docrpc.SetRequest{Collection: collection, ID: id, Data: data})
	return s.mapError(err)
}

func (s *GRPCStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	err := s.client.Update(ctx, docrpc.UpdateRequest{Collection: collection, ID: id, Fields: fields})
	return s.mapError(err)
}

func (s *GRPCStore) Get(ctx context.Context, collection, id string) (Document, error) {
	doc, err := s.client.Get(ctx, docrpc.DocumentRef{Collection: collection, ID: id})
	if err != nil {
		return Document{}, s.mapError(err)
	}
	return doc, nil
}

func (s *GRPCStore) Delete(ctx context.Context, collection, id string) error {
	err := s.client.Delete(ctx, docrpc.DocumentRef{Collection: collection, ID: id})
	return s.mapError(err)
}

func (s *GRPCStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	docs, err := s.client.Query(ctx, docrpc.QueryRequest{Collection: collection, Filters: filters})
	if err != nil {
		return nil, s.mapError(err)
	}
	return docs, nil
}

// Watch waits for the first change before returning so that connection and
// auth failures are reported to the caller instead of the channel.
func (s *GRPCStore) Watch(ctx context.Context, collection, id string) (<-chan Change, error) {
	ref := docrpc.DocumentRef{Collection: collection, ID: id}

	stream, first, err := s.openWatch(ctx, ref)
	if err != nil && isTokenExpired(err) && s.credentials().Secret != "" {
		if err := s.Login(ctx); err != nil {
			return nil, err
		}
		stream, first, err = s.openWatch(ctx, ref)
	}
	if err != nil {
		return nil, s.mapError(err)
	}

	out := make(chan Change, 1)
	out <- first

	go func() {
		defer close(out)
		for {
			c, err := stream.Recv()
			if err != nil {
				if !errors.Is(err, io.EOF) && ctx.Err() == nil {
					s.logger.Warn(ctx, "watch stream ended", "collection", collection, "id", id, "error", err)
				}
				return
			}
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (s *GRPCStore) openWatch(ctx context.Context, ref docrpc.DocumentRef) (*docrpc.WatchStream, Change, error) {
	stream, err := s.client.Watch(ctx, ref)
	if err != nil {
		return nil, Change{}, err
	}
	first, err := stream.Recv()
	if err != nil {
		return nil, Change{}, err
	}
	return stream, first, nil
}

func (s *GRPCStore) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%s: %w", st.Message(), common.ErrorNotFound)
	case codes.InvalidArgument:
		return fmt.Errorf("%s: %w", st.Message(), common.ErrorInvalidArgument)
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
