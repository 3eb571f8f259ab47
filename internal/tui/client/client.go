package client

import (
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/matheus3301/lnf/internal/api"
)

// Client wraps the gRPC connection to the daemon.
type Client struct {
	conn    *grpc.ClientConn
	Claim   *api.ClaimServiceClient
	Profile *api.ProfileServiceClient
}

// New dials the daemon's Unix domain socket and returns typed service clients.
func New(socketPath string) (*Client, error) {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(api.CallOption()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}

	return &Client{
		conn:    conn,
		Claim:   api.NewClaimServiceClient(conn),
		Profile: api.NewProfileServiceClient(conn),
	}, nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// FromConn wraps an existing connection. The caller keeps ownership of cc.
func FromConn(cc grpc.ClientConnInterface) *Client {
	return &Client{
		Claim:   api.NewClaimServiceClient(cc),
		Profile: api.NewProfileServiceClient(cc),
	}
}
