package client

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/mediaupload/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthClient probes the backend's gRPC health service.
type HealthClient struct {
	conn    *grpc.ClientConn
	client  healthpb.HealthClient
	service string
}

// NewHealthClient dials addr lazily; the first Check establishes the connection.
func NewHealthClient(addr, service string) (*HealthClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &HealthClient{conn: conn, client: healthpb.NewHealthClient(conn), service: service}, nil
}

func (c *HealthClient) Close() error {
	return c.conn.Close()
}

// Check returns nil when the backend reports SERVING.
func (c *HealthClient) Check(ctx context.Context) error {
	resp, err := c.client.Check(ctx, &healthpb.HealthCheckRequest{Service: c.service})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: health status %s", common.ErrBackend, resp.GetStatus())
	}
	return nil
}
