// Package grpc serves the QR codec over gRPC.
package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/codec"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/logging"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/record"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/server/services"
)

// QRService is the subset of services.QRService the handlers use.
type QRService interface {
	Mint(ctx context.Context, req services.MintRequest) (*services.MintResponse, error)
	Verify(ctx context.Context, envelope string) (*record.Record, error)
	ValidateScan(ctx context.Context, req services.ScanRequest) (*codec.ValidationResult, error)
}

type GRPCServer struct {
	address string
	qr      QRService
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, qr QRService) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		qr:      qr,
	}
}

// NewServer builds a grpc.Server with the service, health checking and
// reflection registered.
func (s *GRPCServer) NewServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.recoveryInterceptor, s.requestInterceptor))

	RegisterQRCodecServer(srv, s)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	reflection.Register(srv)
	return srv
}

// Run serves until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}
	return nil
}
