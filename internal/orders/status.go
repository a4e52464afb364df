package orders

// Status order bebas (string), di-set lewat patch. Konstanta di bawah cuma
// nilai umum yang dipakai schema default & test; tidak ada state machine.
const (
	StatusPending   = "PENDING"
	StatusShipped   = "SHIPPED"
	StatusDelivered = "DELIVERED"
	StatusCancelled = "CANCELLED"
)
