package handler

import (
	"context"
	"errors"

	"resto-system/internal/auth"
	"resto-system/internal/broadcast"
	"resto-system/internal/orders"
	"resto-system/internal/repository"
	"resto-system/internal/services/orders/terminal"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TerminalHandler serves the order terminal RPCs on top of the same
// aggregator and broadcast hub the HTTP gateway uses.
type TerminalHandler struct {
	aggregator *orders.Aggregator
	hub        *broadcast.Hub
	accounts   *auth.Service
}

var _ terminal.OrderTerminalServer = (*TerminalHandler)(nil)

func NewTerminalHandler(aggregator *orders.Aggregator, hub *broadcast.Hub, accounts *auth.Service) *TerminalHandler {
	return &TerminalHandler{
		aggregator: aggregator,
		hub:        hub,
		accounts:   accounts,
	}
}

func (h *TerminalHandler) Login(ctx context.Context, req *terminal.LoginRequest) (*terminal.LoginReply, error) {
	session, err := h.accounts.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	return &terminal.LoginReply{
		Token:     session.Token,
		Role:      session.Principal.Role,
		ExpiresAt: session.Principal.ExpiresAt,
	}, nil
}

func (h *TerminalHandler) SubmitOrder(ctx context.Context, req *terminal.SubmitOrderRequest) (*terminal.OrderReply, error) {
	change, err := h.aggregator.SubmitOrder(ctx, orders.SendOrder{
		TableNumber: req.TableNumber,
		IsTakeAway:  req.IsTakeAway,
		Items:       req.Items,
		Notes:       req.Notes,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(change), nil
}

func (h *TerminalHandler) PayOrder(ctx context.Context, req *terminal.PayOrderRequest) (*terminal.OrderReply, error) {
	change, err := h.aggregator.PayOrder(ctx, orders.PayOrder{
		TableNumber: req.TableNumber,
		InvoiceCode: req.InvoiceCode,
		Notes:       req.Notes,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(change), nil
}

func (h *TerminalHandler) KitchenFinish(ctx context.Context, req *terminal.KitchenFinishRequest) (*terminal.OrderReply, error) {
	change, err := h.aggregator.MarkKitchenDone(ctx, orders.KitchenFinish{OrderID: req.OrderID})
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(change), nil
}

// Watch streams broadcasts until the client goes away. A terminal that
// falls too far behind is dropped by the hub and has to reconnect.
func (h *TerminalHandler) Watch(req *terminal.WatchRequest, stream terminal.OrderTerminal_WatchServer) error {
	ctx := stream.Context()
	msgs, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	wanted := make(map[string]bool, len(req.Topics))
	for _, t := range req.Topics {
		wanted[t] = true
	}

	logger := log.With().Str("method", "Watch").Logger()
	if p, ok := PrincipalFromContext(ctx); ok {
		logger = logger.With().Str("username", p.Username).Logger()
	}
	logger.Info().Strs("topics", req.Topics).Msg("terminal watching")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("terminal left")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return status.Error(codes.ResourceExhausted, "subscriber fell behind")
			}
			if len(wanted) > 0 && !wanted[msg.Topic] {
				continue
			}
			if err := stream.Send(&terminal.Event{
				Topic:     msg.Topic,
				Payload:   msg.Payload,
				Timestamp: msg.Timestamp,
			}); err != nil {
				return err
			}
		}
	}
}

func reply(change *orders.Change) *terminal.OrderReply {
	if change == nil {
		return &terminal.OrderReply{Applied: false}
	}
	order := change.Order
	return &terminal.OrderReply{
		Applied: true,
		Topic:   change.Topic,
		Order:   &order,
	}
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, orders.ErrInvalidEvent):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, orders.ErrOrderNotFound), errors.Is(err, repository.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid username or password")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		log.Error().Err(err).Msg("terminal request failed")
		return status.Error(codes.Internal, "internal error")
	}
}
