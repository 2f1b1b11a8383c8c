package docrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client is a thin typed wrapper over a connection to DocumentStore.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

type message interface {
	Struct() (*structpb.Struct, error)
}

func (c *Client) invoke(ctx context.Context, method string, req message, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := req.Struct()
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type emptyRequest struct{}

func (emptyRequest) Struct() (*structpb.Struct, error) { return &structpb.Struct{}, nil }

func (c *Client) Ping(ctx context.Context, opts ...grpc.CallOption) (string, error) {
	out, err := c.invoke(ctx, MethodPing, emptyRequest{}, opts...)
	if err != nil {
		return "", err
	}
	return stringField(out, "status"), nil
}

func (c *Client) Login(ctx context.Context, req LoginRequest, opts ...grpc.CallOption) (LoginResponse, error) {
	out, err := c.invoke(ctx, MethodLogin, req, opts...)
	if err != nil {
		return LoginResponse{}, err
	}
	return DecodeLoginResponse(out), nil
}

func (c *Client) Create(ctx context.Context, req CreateRequest, opts ...grpc.CallOption) (string, error) {
	out, err := c.invoke(ctx, MethodCreate, req, opts...)
	if err != nil {
		return "", err
	}
	return stringField(out, "id"), nil
}

func (c *Client) Set(ctx context.Context, req SetRequest, opts ...grpc.CallOption) error {
	_, err := c.invoke(ctx, MethodSet, req, opts...)
	return err
}

func (c *Client) Update(ctx context.Context, req UpdateRequest, opts ...grpc.CallOption) error {
	_, err := c.invoke(ctx, MethodUpdate, req, opts...)
	return err
}

func (c *Client) Get(ctx context.Context, ref DocumentRef, opts ...grpc.CallOption) (Document, error) {
	out, err := c.invoke(ctx, MethodGet, ref, opts...)
	if err != nil {
		return Document{}, err
	}
	return DecodeDocument(out), nil
}

func (c *Client) Delete(ctx context.Context, ref DocumentRef, opts ...grpc.CallOption) error {
	_, err := c.invoke(ctx, MethodDelete, ref, opts...)
	return err
}

func (c *Client) Query(ctx context.Context, req QueryRequest, opts ...grpc.CallOption) ([]Document, error) {
	out, err := c.invoke(ctx, MethodQuery, req, opts...)
	if err != nil {
		return nil, err
	}
	return DecodeQueryResponse(out).Documents, nil
}

// WatchStream receives document changes.
type WatchStream struct {
	stream grpc.ClientStream
}

// Recv blocks for the next change. It returns io.EOF when the server ends
// the stream.
func (w *WatchStream) Recv() (Change, error) {
	out := new(structpb.Struct)
	if err := w.stream.RecvMsg(out); err != nil {
		return Change{}, err
	}
	return DecodeChange(out), nil
}

// Watch opens a change stream for one document. Cancel ctx to stop it.
func (c *Client) Watch(ctx context.Context, ref DocumentRef, opts ...grpc.CallOption) (*WatchStream, error) {
	in, err := ref.Struct()
	if err != nil {
		return nil, err
	}
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], MethodWatch, opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(in); err != nil {
		return nil, fmt.Errorf("send watch request: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, fmt.Errorf("close watch request: %w", err)
	}
	return &WatchStream{stream: stream}, nil
}
