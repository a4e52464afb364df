package orders

import (
	"context"
	"errors"
	"time"

	kafkax "github.com/ariefcatur/go-shop-backend.git/internal/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Store: kontrak persistence yang dipakai coordinator. Create/Delete adalah
// unit transaksional: order write + stock adjustment commit bareng atau
// tidak sama sekali.
type Store interface {
	ListOrders(ctx context.Context) ([]OrderView, error)
	GetOrder(ctx context.Context, id int64) (*OrderView, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]OrderView, error)
	CreateOrder(ctx context.Context, in CreateOrderInput) (view *OrderView, stockAfter int, err error)
	UpdateOrder(ctx context.Context, id int64, patch OrderPatch) (*OrderView, error)
	DeleteOrder(ctx context.Context, id int64) (productID int64, stockAfter int, err error)
}

type EventPublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Coordinator: satu-satunya jalur mutasi order. Event dipublish setelah
// commit; publish gagal tidak membatalkan transaksi yang sudah commit.
type Coordinator struct {
	Store          Store
	ProducerCreate EventPublisher // topic order.created
	ProducerDelete EventPublisher // topic order.deleted
	Log            *zap.Logger
	Service        string
}

func (c *Coordinator) ListOrders(ctx context.Context) ([]OrderView, error) {
	return c.Store.ListOrders(ctx)
}

// GetOrder: absennya order bukan error di level coordinator; caller yang
// memutuskan mau render apa.
func (c *Coordinator) GetOrder(ctx context.Context, id int64) (*OrderView, error) {
	v, err := c.Store.GetOrder(ctx, id)
	if errors.Is(err, ErrOrderNotFound) {
		return nil, nil
	}
	return v, err
}

func (c *Coordinator) ListOrdersByUser(ctx context.Context, userID int64) ([]OrderView, error) {
	return c.Store.ListOrdersByUser(ctx, userID)
}

func (c *Coordinator) CreateOrder(ctx context.Context, in CreateOrderInput, traceID string) (*OrderView, error) {
	v, stockAfter, err := c.Store.CreateOrder(ctx, in)
	if err != nil {
		return nil, err
	}

	c.Log.Info("order created",
		zap.Int64("order_id", v.ID),
		zap.Int64("product_id", in.ProductID),
		zap.Int("in_stock_after", stockAfter))

	c.publish(c.ProducerCreate, EventOrderCreated, PartitionKey(v.ID), traceID, v.ID,
		OrderCreatedPayload{
			OrderID:      v.ID,
			UserID:       in.UserID,
			ProductID:    in.ProductID,
			Total:        v.Total,
			InStockAfter: stockAfter,
		})
	return v, nil
}

func (c *Coordinator) UpdateOrder(ctx context.Context, id int64, patch OrderPatch) (*OrderView, error) {
	if patch.IsEmpty() {
		return nil, ErrEmptyPatch
	}
	return c.Store.UpdateOrder(ctx, id, patch)
}

func (c *Coordinator) DeleteOrder(ctx context.Context, id int64, traceID string) error {
	productID, stockAfter, err := c.Store.DeleteOrder(ctx, id)
	if err != nil {
		return err
	}

	c.Log.Info("order deleted",
		zap.Int64("order_id", id),
		zap.Int64("product_id", productID),
		zap.Int("in_stock_after", stockAfter))

	c.publish(c.ProducerDelete, EventOrderDeleted, PartitionKey(id), traceID, id,
		OrderDeletedPayload{
			OrderID:      id,
			ProductID:    productID,
			InStockAfter: stockAfter,
		})
	return nil
}

func (c *Coordinator) publish(p EventPublisher, eventType string, key []byte, traceID string, orderID int64, payload any) {
	if p == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      c.Service,
		TraceID:       traceID,
		CorrelationID: string(PartitionKey(orderID)),
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(key, kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
