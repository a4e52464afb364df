package orders

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated = "OrderCreated"
	EventOrderDeleted = "OrderDeleted"
	EventStockLow     = "StockLow"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "shop-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload tipe per event ----

type OrderCreatedPayload struct {
	OrderID      int64           `json:"order_id"`
	UserID       int64           `json:"user_id"`
	ProductID    int64           `json:"product_id"`
	Total        decimal.Decimal `json:"total"`
	InStockAfter int             `json:"in_stock_after"`
}

type OrderDeletedPayload struct {
	OrderID      int64 `json:"order_id"`
	ProductID    int64 `json:"product_id"`
	InStockAfter int   `json:"in_stock_after"`
}

type StockLowPayload struct {
	ProductID int64 `json:"product_id"`
	InStock   int   `json:"in_stock"`
	Threshold int   `json:"threshold"`
}
