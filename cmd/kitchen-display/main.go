package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"resto-system/config"
	"resto-system/internal/gateway/clients"
	"resto-system/internal/orders"
	"resto-system/internal/services/orders/terminal"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const reconnectDelay = 2 * time.Second

func main() {
	cfg := config.LoadConfig()
	config.SetupLogger("kitchen-display", cfg.LogLevel)
	if cfg.Terminal.User == "" || cfg.Terminal.Pass == "" {
		log.Fatal().Msg("TERMINAL_USER and TERMINAL_PASS are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := clients.NewTerminalClient(cfg.OrderServiceAddr)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create order service client")
	}
	defer client.Close()

	if _, err := client.Login(ctx, cfg.Terminal.User, cfg.Terminal.Pass); err != nil {
		log.Fatal().Err(err).Str("username", cfg.Terminal.User).Msg("login failed")
	}

	board := clients.NewKitchenBoard()
	go watch(ctx, client, board)
	go finishFromInput(ctx, client, board, os.Stdin)

	<-ctx.Done()
}

// watch keeps a Watch stream open, reconnecting after failures.
func watch(ctx context.Context, client *clients.TerminalClient, board *clients.KitchenBoard) {
	req := &terminal.WatchRequest{Topics: []string{orders.TopicNewOrder, orders.TopicKitchenFinish}}
	for ctx.Err() == nil {
		stream, err := client.Orders.Watch(ctx, req)
		if err == nil {
			err = consume(stream, board)
		}
		if ctx.Err() != nil {
			return
		}
		if status.Code(err) == codes.Unauthenticated || status.Code(err) == codes.PermissionDenied {
			log.Fatal().Err(err).Msg("order stream rejected")
		}
		log.Warn().Err(err).Dur("retry_in", reconnectDelay).Msg("order stream lost")

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func consume(stream interface{ Recv() (*terminal.Event, error) }, board *clients.KitchenBoard) error {
	for {
		ev, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return errors.New("stream closed by server")
			}
			return err
		}
		changed, err := board.Apply(ev)
		if err != nil {
			log.Warn().Err(err).Msg("skipping broadcast")
			continue
		}
		if changed {
			board.Render(os.Stdout)
		}
	}
}

// finishFromInput marks orders done as the cook types their id or table.
func finishFromInput(ctx context.Context, client *clients.TerminalClient, board *clients.KitchenBoard, in io.Reader) {
	fmt.Println("Type an order id or table number and press enter when it is ready.")
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		ref := strings.TrimSpace(scanner.Text())
		if ref == "" {
			continue
		}
		id, ok := board.Resolve(ref)
		if !ok {
			fmt.Printf("no open order for %q\n", ref)
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err := client.Orders.KitchenFinish(callCtx, &terminal.KitchenFinishRequest{OrderID: id})
		cancel()
		if err != nil {
			log.Error().Err(err).Str("order_id", id).Msg("failed to mark order done")
			continue
		}
		log.Info().Str("order_id", id).Msg("order marked done")
	}
}
