package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"resto-system/internal/broadcast"
	"resto-system/internal/database/models"
	"resto-system/internal/orders"
	"resto-system/internal/repository"

	"github.com/gin-gonic/gin"
)

const (
	HISTORY_LIMIT    = 50
	SSE_HEARTBEAT    = 25 * time.Second
	EVENT_TIMEOUT    = 10 * time.Second
	PING_EVENT_TOPIC = "ping"
)

// OrderReader is the read side the order endpoints need.
type OrderReader interface {
	repository.OrderQueries
	FindPendingByTable(ctx context.Context, table string) (*models.Order, error)
}

type OrderHTTPHandler struct {
	aggregator *orders.Aggregator
	reader     OrderReader
	hub        *broadcast.Hub
}

func NewOrderHTTPHandler(aggregator *orders.Aggregator, reader OrderReader, hub *broadcast.Hub) *OrderHTTPHandler {
	return &OrderHTTPHandler{
		aggregator: aggregator,
		reader:     reader,
		hub:        hub,
	}
}

// --- Inbound events ---

func (h *OrderHTTPHandler) SendOrder(c *gin.Context) {
	var req orders.SendOrder
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), EVENT_TIMEOUT)
	defer cancel()

	change, err := h.aggregator.SubmitOrder(ctx, req)
	if err != nil {
		handleError(c, err)
		return
	}
	if change == nil {
		c.JSON(http.StatusOK, successResponse("Nothing to update", nil))
		return
	}
	c.JSON(http.StatusOK, successResponse("Order updated", change.Payload()))
}

func (h *OrderHTTPHandler) PayOrder(c *gin.Context) {
	var req orders.PayOrder
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), EVENT_TIMEOUT)
	defer cancel()

	change, err := h.aggregator.PayOrder(ctx, req)
	if err != nil {
		handleError(c, err)
		return
	}
	if change == nil {
		c.JSON(http.StatusOK, successResponse("No pending order for table", nil))
		return
	}
	c.JSON(http.StatusOK, successResponse("Order paid", change.Order))
}

func (h *OrderHTTPHandler) KitchenFinish(c *gin.Context) {
	var req orders.KitchenFinish
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), EVENT_TIMEOUT)
	defer cancel()

	change, err := h.aggregator.MarkKitchenDone(ctx, req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Kitchen finished order", change.Order))
}

// --- Queries ---

func (h *OrderHTTPHandler) PendingByTable(c *gin.Context) {
	table := strings.TrimSpace(c.Param("table"))
	if table == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Table number is required"))
		return
	}

	order, err := h.reader.FindPendingByTable(c.Request.Context(), table)
	if err != nil {
		handleError(c, err)
		return
	}
	// data is null when the table has no pending order.
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Pending order", "data": order})
}

func (h *OrderHTTPHandler) PendingAll(c *gin.Context) {
	list, err := h.reader.ListPending(c.Request.Context(), false)
	if err != nil {
		handleError(c, err)
		return
	}
	if list == nil {
		list = []models.Order{}
	}
	c.JSON(http.StatusOK, successResponse("Pending orders", list))
}

func (h *OrderHTTPHandler) History(c *gin.Context) {
	list, err := h.reader.ListPaid(c.Request.Context(), HISTORY_LIMIT)
	if err != nil {
		handleError(c, err)
		return
	}
	if list == nil {
		list = []models.Order{}
	}
	c.JSON(http.StatusOK, successWithMetaResponse("Paid orders", list, gin.H{"limit": HISTORY_LIMIT}))
}

// --- Outbound stream ---

// Stream relays every broadcast to the client as a server-sent event named
// after its topic.
func (h *OrderHTTPHandler) Stream(c *gin.Context) {
	msgs, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(SSE_HEARTBEAT)
	defer heartbeat.Stop()

	done := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-done:
			return false
		case msg, ok := <-msgs:
			if !ok {
				return false
			}
			c.SSEvent(msg.Topic, msg.Payload)
			return true
		case <-heartbeat.C:
			c.SSEvent(PING_EVENT_TOPIC, time.Now().Unix())
			return true
		}
	})
}
