package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/iamabhishek-n/vectra-go/pkg/generate"
	"github.com/iamabhishek-n/vectra-go/pkg/ingest"
	"github.com/iamabhishek-n/vectra-go/pkg/orchestrator"
)

// Config holds configuration for a gRPC client connection to a remote
// orchestrator instance, adapted from pkg/grpc.Config.
type Config struct {
	Endpoint    string
	Timeout     time.Duration
	Credentials credentials.TransportCredentials
	KeepAlive   *KeepAliveConfig
}

// KeepAliveConfig configures gRPC keep-alive settings.
type KeepAliveConfig struct {
	Time                time.Duration
	Timeout             time.Duration
	PermitWithoutStream bool
}

// DefaultConfig returns a default client configuration for endpoint.
func DefaultConfig(endpoint string) *Config {
	return &Config{
		Endpoint:    endpoint,
		Timeout:     30 * time.Second,
		Credentials: insecure.NewCredentials(),
		KeepAlive: &KeepAliveConfig{
			Time:                30 * time.Second,
			Timeout:             5 * time.Second,
			PermitWithoutStream: true,
		},
	}
}

// NewClientConn dials a remote orchestrator's gRPC server.
func NewClientConn(ctx context.Context, cfg *Config) (*grpc.ClientConn, error) {
	if cfg == nil {
		return nil, NewInvalidArgumentError(ctx, "grpc config cannot be nil", nil)
	}
	if cfg.Endpoint == "" {
		return nil, NewInvalidArgumentError(ctx, "grpc endpoint cannot be empty", nil)
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(cfg.Credentials),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                cfg.KeepAlive.Time,
			Timeout:             cfg.KeepAlive.Timeout,
			PermitWithoutStream: cfg.KeepAlive.PermitWithoutStream,
		}),
	}

	conn, err := grpc.NewClient(cfg.Endpoint, opts...)
	if err != nil {
		return nil, WrapError(ctx, err, "failed to connect to orchestrator grpc service", cfg.Endpoint)
	}
	return conn, nil
}

// NewClientConnWithTLS dials using TLS credentials loaded from caFile.
func NewClientConnWithTLS(ctx context.Context, endpoint, caFile string) (*grpc.ClientConn, error) {
	creds, err := credentials.NewClientTLSFromFile(caFile, "")
	if err != nil {
		return nil, WrapError(ctx, err, "failed to load TLS credentials", caFile)
	}
	cfg := DefaultConfig(endpoint)
	cfg.Credentials = creds
	return NewClientConn(ctx, cfg)
}

// CloseConn closes conn, bounding the wait by timeout.
func CloseConn(ctx context.Context, conn *grpc.ClientConn, timeout time.Duration) error {
	if conn == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- conn.Close() }()
	select {
	case err := <-done:
		if err != nil {
			return WrapError(ctx, err, "failed to close grpc connection")
		}
		return nil
	case <-time.After(timeout):
		return NewDeadlineExceededError(ctx, "connection close timeout", nil)
	}
}

// Client is a typed wrapper over a raw gRPC connection to a remote
// orchestrator, marshalling orchestrator.QueryRequest/QueryResponse
// through the Struct-encoded Orchestrator service (service.go).
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to a remote orchestrator gRPC server.
func Dial(ctx context.Context, cfg *Config) (*Client, error) {
	conn, err := NewClientConn(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Close releases the underlying connection.
func (c *Client) Close(ctx context.Context) error {
	return CloseConn(ctx, c.conn, 5*time.Second)
}

// Query invokes the remote Orchestrator.Query RPC.
func (c *Client) Query(ctx context.Context, req orchestrator.QueryRequest) (orchestrator.QueryResponse, error) {
	in, err := marshalStruct(req)
	if err != nil {
		return orchestrator.QueryResponse{}, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, "/"+serviceName+"/Query", in, out); err != nil {
		return orchestrator.QueryResponse{}, WrapError(ctx, err, "query rpc failed")
	}
	var resp orchestrator.QueryResponse
	if err := unmarshalStruct(out, &resp); err != nil {
		return orchestrator.QueryResponse{}, err
	}
	return resp, nil
}

// Ingest invokes the remote Orchestrator.Ingest RPC for directory.
func (c *Client) Ingest(ctx context.Context, directory string) (ingest.Summary, error) {
	in, err := structpb.NewStruct(map[string]any{"directory": directory})
	if err != nil {
		return ingest.Summary{}, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, "/"+serviceName+"/Ingest", in, out); err != nil {
		return ingest.Summary{}, WrapError(ctx, err, "ingest rpc failed")
	}
	var summary ingest.Summary
	if err := unmarshalStruct(out, &summary); err != nil {
		return ingest.Summary{}, err
	}
	return summary, nil
}

// QueryStream opens the remote Orchestrator.QueryStream RPC, returning a
// channel of decoded events and a channel carrying at most one error.
func (c *Client) QueryStream(ctx context.Context, req orchestrator.QueryRequest) (<-chan generate.StreamEvent, <-chan error) {
	out := make(chan generate.StreamEvent)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		in, err := marshalStruct(req)
		if err != nil {
			errc <- err
			return
		}
		desc := &grpc.StreamDesc{StreamName: "QueryStream", ServerStreams: true}
		stream, err := c.conn.NewStream(ctx, desc, "/"+serviceName+"/QueryStream")
		if err != nil {
			errc <- WrapError(ctx, err, "open query stream")
			return
		}
		if err := stream.SendMsg(in); err != nil {
			errc <- WrapError(ctx, err, "send query stream request")
			return
		}
		if err := stream.CloseSend(); err != nil {
			errc <- WrapError(ctx, err, "close query stream send side")
			return
		}
		for {
			msg := new(structpb.Struct)
			if err := stream.RecvMsg(msg); err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				errc <- WrapError(ctx, err, "receive query stream event")
				return
			}
			var ev generate.StreamEvent
			raw, err := json.Marshal(msg.AsMap())
			if err != nil {
				errc <- err
				return
			}
			if err := json.Unmarshal(raw, &ev); err != nil {
				errc <- err
				return
			}
			out <- ev
			if ev.Done {
				return
			}
		}
	}()

	return out, errc
}
