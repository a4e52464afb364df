package orders

import "strconv"

const (
	TopicOrderCreated = "order.created"
	TopicOrderDeleted = "order.deleted"
	TopicStockLow     = "stock.low"
)

// Partition key = order_id, supaya event-event 1 order maintain urutan.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}

// Untuk stock.low partisi per product.
func ProductKey(productID int64) []byte {
	return []byte(strconv.FormatInt(productID, 10))
}
