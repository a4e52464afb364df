package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Product struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	InStock int             `json:"in_stock"`
}

// ProductSummary: potongan product yang di-embed ke projection order.
type ProductSummary struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// OrderView: projection publik order. FK mentah (user_id/product_id) tidak
// pernah keluar; diganti objek user & product.
type OrderView struct {
	ID          int64           `json:"id"`
	User        User            `json:"user"`
	Product     ProductSummary  `json:"product"`
	PhoneNumber string          `json:"phone_number"`
	Status      string          `json:"status"`
	Address     string          `json:"address"`
	OrderTime   time.Time       `json:"order_time"`
	Total       decimal.Decimal `json:"total"`
}

type CreateOrderInput struct {
	UserID      int64  `json:"user_id"`
	ProductID   int64  `json:"product_id"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
}

// OrderPatch: hanya field yang memang boleh diubah setelah create.
// total/user_id/product_id/order_time immutable.
type OrderPatch struct {
	Status      *string `json:"status,omitempty"`
	Address     *string `json:"address,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
}

func (p OrderPatch) IsEmpty() bool {
	return p.Status == nil && p.Address == nil && p.PhoneNumber == nil
}
