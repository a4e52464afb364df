package redisx

import "time"

const (
	// Cache projection order: order:{order_id} -> OrderView JSON
	KeyOrderView = "order:%d"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Flag stok menipis: stock:low:{product_id} -> in_stock terakhir
	KeyStockLow = "stock:low:%d"
)

var (
	TTLOrderCache = 5 * time.Minute
	TTLDedup      = 48 * time.Hour
	TTLStockLow   = 24 * time.Hour
)
