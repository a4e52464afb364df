package orders

import "errors"

// Taksonomi error coordinator. Error lain dari store tidak diteruskan mentah
// ke caller: diklasifikasi di repo, sisanya dibungkus sebagai internal.
var (
	ErrProductNotFound = errors.New("product not found")
	ErrOutOfStock      = errors.New("product not in stock")
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderNotCreated = errors.New("order not created")
	ErrEmptyPatch      = errors.New("empty patch")
)
