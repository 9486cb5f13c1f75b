package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/meadori/vibe64/api"
	"github.com/meadori/vibe64/cartridge"
	"github.com/meadori/vibe64/savestate"
	"github.com/meadori/vibe64/scheduler"
)

// Machine defines the methods required from the emulator bus.
type Machine interface {
	SaveState() ([]byte, error)
	LoadState(blob []byte) error
	Run(cycles uint32) error
	Digest() cartridge.Digest
	Count() uint32
}

// GRPCServer exposes save and load of the running machine.
type GRPCServer struct {
	api.UnimplementedSaveStateServiceServer
	mu      sync.Mutex
	server  *grpc.Server
	stopped bool
	emuBus  Machine
	store   *savestate.Store
}

// NewGRPCServer creates a server keeping slot files in store.
func NewGRPCServer(store *savestate.Store) *GRPCServer {
	return &GRPCServer{store: store}
}

// SetBus assigns the machine the server operates on.
func (s *GRPCServer) SetBus(b Machine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emuBus = b
}

func (s *GRPCServer) machine() (Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emuBus == nil {
		return nil, status.Error(codes.FailedPrecondition, "emulator bus not connected")
	}
	return s.emuBus, nil
}

// toStatus maps core errors onto gRPC status codes.
func toStatus(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, savestate.ErrEmptySlot):
		code = codes.NotFound
	case errors.Is(err, savestate.ErrBadSlot),
		errors.Is(err, savestate.ErrFormatMismatch),
		errors.Is(err, savestate.ErrVersionMismatch),
		errors.Is(err, savestate.ErrTruncated),
		errors.Is(err, scheduler.ErrCorruptQueue),
		errors.Is(err, scheduler.ErrUnknownEventType):
		code = codes.InvalidArgument
	case errors.Is(err, savestate.ErrIdentityMismatch),
		errors.Is(err, savestate.ErrMissingResumeContext):
		code = codes.FailedPrecondition
	case errors.Is(err, scheduler.ErrQueueCapacityExceeded):
		code = codes.ResourceExhausted
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}

// Save writes the machine state into the requested slot.
func (s *GRPCServer) Save(ctx context.Context, in *wrapperspb.Int32Value) (*emptypb.Empty, error) {
	bus, err := s.machine()
	if err != nil {
		return nil, err
	}

	blob, err := bus.SaveState()
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.store.Write(bus.Digest(), int(in.GetValue()), blob); err != nil {
		return nil, toStatus(err)
	}
	log.Printf("saved state to slot %d", in.GetValue())
	return &emptypb.Empty{}, nil
}

// Load restores the machine state from the requested slot.
func (s *GRPCServer) Load(ctx context.Context, in *wrapperspb.Int32Value) (*emptypb.Empty, error) {
	bus, err := s.machine()
	if err != nil {
		return nil, err
	}

	blob, err := s.store.Read(bus.Digest(), int(in.GetValue()))
	if err != nil {
		return nil, toStatus(err)
	}
	if err := bus.LoadState(blob); err != nil {
		return nil, toStatus(err)
	}
	log.Printf("loaded state from slot %d", in.GetValue())
	return &emptypb.Empty{}, nil
}

// Slots lists the occupied slots of the running ROM.
func (s *GRPCServer) Slots(ctx context.Context, in *emptypb.Empty) (*structpb.ListValue, error) {
	bus, err := s.machine()
	if err != nil {
		return nil, err
	}

	slots, err := s.store.List(bus.Digest())
	if err != nil {
		return nil, toStatus(err)
	}
	list := &structpb.ListValue{}
	for _, slot := range slots {
		v, err := structpb.NewStruct(map[string]any{
			"slot":     slot.Slot,
			"size":     slot.Size,
			"modified": slot.ModTime.Format("2006-01-02 15:04:05"),
		})
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		list.Values = append(list.Values, structpb.NewStructValue(v))
	}
	return list, nil
}

// Info describes the running machine and the save format.
func (s *GRPCServer) Info(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
	bus, err := s.machine()
	if err != nil {
		return nil, err
	}

	info, err := structpb.NewStruct(map[string]any{
		"digest":     bus.Digest().String(),
		"version":    fmt.Sprintf("%#08x", savestate.Version),
		"fixed_size": savestate.FixedSize(),
		"count":      bus.Count(),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return info, nil
}

// Export returns the machine state as an uncompressed blob.
func (s *GRPCServer) Export(ctx context.Context, in *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	bus, err := s.machine()
	if err != nil {
		return nil, err
	}

	blob, err := bus.SaveState()
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bytes(blob), nil
}

// Import restores the machine state from a blob.
func (s *GRPCServer) Import(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	bus, err := s.machine()
	if err != nil {
		return nil, err
	}

	if err := bus.LoadState(in.GetValue()); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// Run advances the machine by the requested number of cycles.
func (s *GRPCServer) Run(ctx context.Context, in *wrapperspb.UInt32Value) (*emptypb.Empty, error) {
	bus, err := s.machine()
	if err != nil {
		return nil, err
	}

	if err := bus.Run(in.GetValue()); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// Serve accepts gRPC connections on lis until Stop is called.
func (s *GRPCServer) Serve(lis net.Listener) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return lis.Close()
	}
	s.server = grpc.NewServer(api.ServerOptions()...)
	api.RegisterSaveStateServiceServer(s.server, s)
	srv := s.server
	s.mu.Unlock()

	log.Printf("gRPC server listening on %s", lis.Addr())
	return srv.Serve(lis)
}

// ListenAndServe listens on the given TCP port and serves until Stop.
func (s *GRPCServer) ListenAndServe(port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(lis)
}

// Stop gracefully shuts down the gRPC server
func (s *GRPCServer) Stop() {
	s.mu.Lock()
	s.stopped = true
	srv := s.server
	s.mu.Unlock()

	if srv != nil {
		srv.GracefulStop()
	}
}
