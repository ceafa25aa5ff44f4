package grpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/iamabhishek-n/vectra-go/pkg/orchestrator"
)

// serviceName is the fully-qualified gRPC service name. There is no
// .proto file behind it: every message on the wire is a
// google.golang.org/protobuf/types/known/structpb.Struct, a real,
// pre-generated proto.Message shipped with the protobuf runtime, so the
// service needs no protoc-generated stubs while still round-tripping
// through the standard proto codec.
const serviceName = "vectra.orchestrator.Orchestrator"

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*orchestratorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Query", Handler: queryHandler},
		{MethodName: "Ingest", Handler: ingestHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "QueryStream", Handler: queryStreamHandler, ServerStreams: true},
	},
}

type orchestratorServer interface {
	Query(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Ingest(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	QueryStream(in *structpb.Struct, stream grpc.ServerStream) error
}

// Server adapts an *orchestrator.Engine to the Orchestrator gRPC service.
type Server struct {
	Engine *orchestrator.Engine
}

// NewServer registers a Server for engine on grpcServer.
func NewServer(grpcServer *grpc.Server, engine *orchestrator.Engine) {
	grpcServer.RegisterService(&serviceDesc, &Server{Engine: engine})
}

func (s *Server) Query(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req orchestrator.QueryRequest
	if err := unmarshalStruct(in, &req); err != nil {
		return nil, toStatusError(ctx, NewInvalidArgumentError(ctx, "decode query request", err), codes.InvalidArgument)
	}
	resp, err := s.Engine.RunQuery(ctx, req)
	if err != nil {
		return nil, toStatusError(ctx, NewInternalError(ctx, "query failed", err), codes.Internal)
	}
	out, err := marshalStruct(resp)
	if err != nil {
		return nil, toStatusError(ctx, NewInternalError(ctx, "encode query response", err), codes.Internal)
	}
	return out, nil
}

func (s *Server) Ingest(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var dir string
	if v, ok := in.Fields["directory"]; ok {
		dir = v.GetStringValue()
	}
	if dir == "" {
		return nil, toStatusError(ctx, NewInvalidArgumentError(ctx, "directory is required", nil), codes.InvalidArgument)
	}
	if s.Engine.Ingest == nil {
		return nil, toStatusError(ctx, NewInternalError(ctx, "ingest coordinator not configured", nil), codes.FailedPrecondition)
	}
	summary, err := s.Engine.RunIngest(ctx, dir)
	if err != nil {
		return nil, toStatusError(ctx, NewInternalError(ctx, "ingest failed", err), codes.Internal)
	}
	out, err := marshalStruct(summary)
	if err != nil {
		return nil, toStatusError(ctx, NewInternalError(ctx, "encode ingest summary", err), codes.Internal)
	}
	return out, nil
}

func (s *Server) QueryStream(in *structpb.Struct, stream grpc.ServerStream) error {
	var req orchestrator.QueryRequest
	if err := unmarshalStruct(in, &req); err != nil {
		return toStatusError(stream.Context(), NewInvalidArgumentError(stream.Context(), "decode query request", err), codes.InvalidArgument)
	}

	events, errc := s.Engine.QueryStream(stream.Context(), req)
	for ev := range events {
		out, err := marshalStruct(ev)
		if err != nil {
			return toStatusError(stream.Context(), NewInternalError(stream.Context(), "encode stream event", err), codes.Internal)
		}
		if err := stream.SendMsg(out); err != nil {
			return err
		}
	}
	if err := <-errc; err != nil {
		return toStatusError(stream.Context(), NewInternalError(stream.Context(), "query stream failed", err), codes.Internal)
	}
	return nil
}

func queryHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(orchestratorServer).Query(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Query"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(orchestratorServer).Query(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func ingestHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(orchestratorServer).Ingest(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Ingest"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(orchestratorServer).Ingest(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func queryStreamHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(orchestratorServer).QueryStream(in, stream)
}

// marshalStruct round-trips v through JSON into a structpb.Struct, the
// only shape both sides agree on without a .proto schema.
func marshalStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func unmarshalStruct(s *structpb.Struct, v any) error {
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
