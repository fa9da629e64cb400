// Package grpc exposes AuthService over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/bulletin/internal/api"
	"github.com/dmitrijs2005/bulletin/internal/logging"
	"github.com/dmitrijs2005/bulletin/internal/server/auth"
	"github.com/dmitrijs2005/bulletin/internal/server/metrics"
	"github.com/dmitrijs2005/bulletin/internal/server/services"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	api.UnimplementedAuthServiceServer
	address string
	auth    *services.AuthService
	codec   *auth.TokenCodec
	logger  logging.Logger
	metrics *metrics.Metrics
}

func NewGRPCServer(address string, l logging.Logger, as *services.AuthService, m *metrics.Metrics) *GRPCServer {
	return &GRPCServer{
		address: address,
		logger:  l.With("module", "grpc_server"),
		auth:    as,
		codec:   as.Codec(),
		metrics: m,
	}
}

// NewServer returns a grpc.Server with the service and its interceptors
// registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.requestInterceptor, s.accessTokenInterceptor))
	srv := grpc.NewServer(opts...)
	api.RegisterAuthServiceServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.NewServer()

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Stopping gRPC server...")
			srv.GracefulStop()
		case <-stopped:
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
