package stockwatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkax "github.com/ariefcatur/go-shop-backend.git/internal/kafka"
	"github.com/ariefcatur/go-shop-backend.git/internal/orders"
	"github.com/ariefcatur/go-shop-backend.git/internal/redisx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type StockReader interface {
	GetProductStock(ctx context.Context, productID int64) (int, error)
}

// Service mengawasi stok lewat event order.created: kalau stok product turun
// sampai threshold, set flag di Redis dan publish stock.low buat downstream
// (restock tooling, alerting).
type Service struct {
	Store       StockReader
	Redis       *redis.Client
	ProducerLow orders.EventPublisher // topic stock.low
	Threshold   int
	ServiceName string
	Log         *zap.Logger
}

// HandleOrderCreated dipasang sebagai handler consumer.
func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderCreated {
		return nil // ignore
	}

	// dedup via Redis (pakai event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, "stockwatch", env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}

	// baca stok terkini dari DB, jangan percaya snapshot di payload:
	// event bisa datang telat setelah stok berubah lagi
	stock, err := s.Store.GetProductStock(ctx, p.ProductID)
	if errors.Is(err, orders.ErrProductNotFound) {
		return nil // product sudah dihapus, tidak ada yang diawasi
	}
	if err != nil {
		return err
	}

	fkey := fmt.Sprintf(redisx.KeyStockLow, p.ProductID)
	if stock > s.Threshold {
		_ = s.Redis.Del(ctx, fkey).Err()
		return nil
	}

	_ = s.Redis.Set(ctx, fkey, stock, redisx.TTLStockLow).Err()
	s.Log.Warn("stock low",
		zap.Int64("product_id", p.ProductID),
		zap.Int("in_stock", stock),
		zap.Int("threshold", s.Threshold))

	return s.publishLow(p.ProductID, stock, env.TraceID)
}

func (s *Service) publishLow(productID int64, stock int, trace string) error {
	if s.ProducerLow == nil {
		return nil
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventStockLow,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: string(orders.ProductKey(productID)),
		Payload: kafkax.MustMarshal(orders.StockLowPayload{
			ProductID: productID, InStock: stock, Threshold: s.Threshold,
		}),
	}
	s.ProducerLow.Publish(orders.ProductKey(productID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventStockLow)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	return nil
}
