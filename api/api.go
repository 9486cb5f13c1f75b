// Package api declares the SaveStateService used to drive the emulator
// remotely. Messages are protobuf well-known types, so the service needs no
// generated code.
package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "vibe64.SaveStateService"

const (
	SaveStateService_Save_FullMethodName   = "/" + ServiceName + "/Save"
	SaveStateService_Load_FullMethodName   = "/" + ServiceName + "/Load"
	SaveStateService_Slots_FullMethodName  = "/" + ServiceName + "/Slots"
	SaveStateService_Info_FullMethodName   = "/" + ServiceName + "/Info"
	SaveStateService_Export_FullMethodName = "/" + ServiceName + "/Export"
	SaveStateService_Import_FullMethodName = "/" + ServiceName + "/Import"
	SaveStateService_Run_FullMethodName    = "/" + ServiceName + "/Run"
)

// MaxMessageSize bounds Export and Import messages. A blob exceeds the
// gRPC default of 4 MiB.
const MaxMessageSize = 64 << 20

// ServerOptions returns the options a server of this service needs.
func ServerOptions() []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.MaxRecvMsgSize(MaxMessageSize),
		grpc.MaxSendMsgSize(MaxMessageSize),
	}
}

// ClientOption returns the dial option a client of this service needs.
func ClientOption() grpc.DialOption {
	return grpc.WithDefaultCallOptions(
		grpc.MaxCallRecvMsgSize(MaxMessageSize),
		grpc.MaxCallSendMsgSize(MaxMessageSize),
	)
}

// SaveStateServiceServer is the server API for SaveStateService.
type SaveStateServiceServer interface {
	// Save writes the machine state into a slot.
	Save(context.Context, *wrapperspb.Int32Value) (*emptypb.Empty, error)
	// Load restores the machine state from a slot.
	Load(context.Context, *wrapperspb.Int32Value) (*emptypb.Empty, error)
	// Slots lists the occupied slots of the running ROM.
	Slots(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	// Info describes the running machine and the save format.
	Info(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// Export returns the machine state as an uncompressed blob.
	Export(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
	// Import restores the machine state from a blob.
	Import(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
	// Run advances the machine by a number of CPU cycles.
	Run(context.Context, *wrapperspb.UInt32Value) (*emptypb.Empty, error)
}

// UnimplementedSaveStateServiceServer can be embedded for forward
// compatibility.
type UnimplementedSaveStateServiceServer struct{}

func (UnimplementedSaveStateServiceServer) Save(context.Context, *wrapperspb.Int32Value) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Save not implemented")
}

func (UnimplementedSaveStateServiceServer) Load(context.Context, *wrapperspb.Int32Value) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Load not implemented")
}

func (UnimplementedSaveStateServiceServer) Slots(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Slots not implemented")
}

func (UnimplementedSaveStateServiceServer) Info(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Info not implemented")
}

func (UnimplementedSaveStateServiceServer) Export(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Export not implemented")
}

func (UnimplementedSaveStateServiceServer) Import(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Import not implemented")
}

func (UnimplementedSaveStateServiceServer) Run(context.Context, *wrapperspb.UInt32Value) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Run not implemented")
}

// unary builds the method descriptor for one unary call.
func unary[Req, Resp any](name, fullName string, call func(SaveStateServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SaveStateServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullName}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(SaveStateServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// SaveStateService_ServiceDesc is the grpc.ServiceDesc for SaveStateService.
var SaveStateService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SaveStateServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Save", SaveStateService_Save_FullMethodName, SaveStateServiceServer.Save),
		unary("Load", SaveStateService_Load_FullMethodName, SaveStateServiceServer.Load),
		unary("Slots", SaveStateService_Slots_FullMethodName, SaveStateServiceServer.Slots),
		unary("Info", SaveStateService_Info_FullMethodName, SaveStateServiceServer.Info),
		unary("Export", SaveStateService_Export_FullMethodName, SaveStateServiceServer.Export),
		unary("Import", SaveStateService_Import_FullMethodName, SaveStateServiceServer.Import),
		unary("Run", SaveStateService_Run_FullMethodName, SaveStateServiceServer.Run),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vibe64/savestate",
}

// RegisterSaveStateServiceServer registers srv with s.
func RegisterSaveStateServiceServer(s grpc.ServiceRegistrar, srv SaveStateServiceServer) {
	s.RegisterService(&SaveStateService_ServiceDesc, srv)
}

// SaveStateServiceClient is the client API for SaveStateService.
type SaveStateServiceClient interface {
	Save(ctx context.Context, in *wrapperspb.Int32Value, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Load(ctx context.Context, in *wrapperspb.Int32Value, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Slots(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error)
	Info(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	Export(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Import(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Run(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type saveStateServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSaveStateServiceClient(cc grpc.ClientConnInterface) SaveStateServiceClient {
	return &saveStateServiceClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *saveStateServiceClient) Save(ctx context.Context, in *wrapperspb.Int32Value, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, SaveStateService_Save_FullMethodName, in, opts)
}

func (c *saveStateServiceClient) Load(ctx context.Context, in *wrapperspb.Int32Value, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, SaveStateService_Load_FullMethodName, in, opts)
}

func (c *saveStateServiceClient) Slots(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	return invoke[structpb.ListValue](ctx, c.cc, SaveStateService_Slots_FullMethodName, in, opts)
}

func (c *saveStateServiceClient) Info(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, SaveStateService_Info_FullMethodName, in, opts)
}

func (c *saveStateServiceClient) Export(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return invoke[wrapperspb.BytesValue](ctx, c.cc, SaveStateService_Export_FullMethodName, in, opts)
}

func (c *saveStateServiceClient) Import(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, SaveStateService_Import_FullMethodName, in, opts)
}

func (c *saveStateServiceClient) Run(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, SaveStateService_Run_FullMethodName, in, opts)
}
