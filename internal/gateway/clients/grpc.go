package clients

import (
	"context"
	"fmt"
	"sync"

	"resto-system/internal/services/orders/terminal"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// TerminalClient is a connection to the order service. After Login every
// call carries the session as a bearer token.
type TerminalClient struct {
	Orders terminal.OrderTerminalClient
	token  *bearerToken
	conn   *grpc.ClientConn
}

func NewTerminalClient(addr string, opts ...grpc.DialOption) (*TerminalClient, error) {
	token := &bearerToken{}
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithPerRPCCredentials(token),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("order service connection failed: %v", err)
	}

	log.Info().Str("addr", addr).Msg("order service client ready")
	return &TerminalClient{
		Orders: terminal.NewOrderTerminalClient(conn),
		token:  token,
		conn:   conn,
	}, nil
}

func (c *TerminalClient) Login(ctx context.Context, username, password string) (*terminal.LoginReply, error) {
	reply, err := c.Orders.Login(ctx, &terminal.LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	c.token.Set(reply.Token)
	return reply, nil
}

func (c *TerminalClient) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// bearerToken attaches the current session token to outgoing calls.
type bearerToken struct {
	mu    sync.RWMutex
	value string
}

func (t *bearerToken) Set(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.value = token
}

func (t *bearerToken) GetRequestMetadata(_ context.Context, _ ...string) (map[string]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.value == "" {
		return nil, nil
	}
	return map[string]string{"authorization": "Bearer " + t.value}, nil
}

func (t *bearerToken) RequireTransportSecurity() bool {
	return false
}
