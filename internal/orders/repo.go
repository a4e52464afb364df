package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

// Kolom projection, selalu sama untuk semua query baca.
const viewColumns = `
	o.id, o.phone_number, o.status, o.address, o.order_time, o.total,
	u.id, u.name, u.email,
	p.id, p.name, p.price`

const viewFrom = `
	FROM orders o
	JOIN users u ON u.id = o.user_id
	JOIN products p ON p.id = o.product_id`

func scanView(row pgx.Row) (*OrderView, error) {
	var v OrderView
	err := row.Scan(
		&v.ID, &v.PhoneNumber, &v.Status, &v.Address, &v.OrderTime, &v.Total,
		&v.User.ID, &v.User.Name, &v.User.Email,
		&v.Product.ID, &v.Product.Name, &v.Product.Price,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *Repo) ListOrders(ctx context.Context) ([]OrderView, error) {
	rows, err := r.DB.Query(ctx, `SELECT`+viewColumns+viewFrom+` ORDER BY o.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectViews(rows)
}

func (r *Repo) ListOrdersByUser(ctx context.Context, userID int64) ([]OrderView, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT`+viewColumns+viewFrom+` WHERE o.user_id=$1 ORDER BY o.order_time DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectViews(rows)
}

func collectViews(rows pgx.Rows) ([]OrderView, error) {
	var out []OrderView
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func (r *Repo) GetOrder(ctx context.Context, id int64) (*OrderView, error) {
	v, err := scanView(r.DB.QueryRow(ctx, `SELECT`+viewColumns+viewFrom+` WHERE o.id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	return v, err
}

// CreateOrder: satu transaksi untuk insert order + kurangi stok.
// Lock row product dulu (FOR UPDATE) supaya dua create concurrent terhadap
// product yang sama tidak dua-duanya lolos cek stok; decrement-nya tetap
// conditional (in_stock > 0) sebagai guard kedua.
func (r *Repo) CreateOrder(ctx context.Context, in CreateOrderInput) (*OrderView, int, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var p Product
	err = tx.QueryRow(ctx,
		`SELECT id, name, price, in_stock FROM products WHERE id=$1 FOR UPDATE`,
		in.ProductID).Scan(&p.ID, &p.Name, &p.Price, &p.InStock)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, ErrProductNotFound
	}
	if err != nil {
		return nil, 0, err
	}
	if p.InStock == 0 {
		return nil, 0, ErrOutOfStock
	}

	// total di-snapshot dari harga product saat ini; tidak pernah dihitung ulang
	v := &OrderView{
		PhoneNumber: in.PhoneNumber,
		Address:     in.Address,
		Total:       p.Price,
		Product:     ProductSummary{ID: p.ID, Name: p.Name, Price: p.Price},
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(user_id, product_id, phone_number, address, total)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, order_time`,
		in.UserID, in.ProductID, in.PhoneNumber, in.Address, p.Price,
	).Scan(&v.ID, &v.Status, &v.OrderTime)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrOrderNotCreated, err)
	}

	ct, err := tx.Exec(ctx,
		`UPDATE products SET in_stock = in_stock - 1 WHERE id=$1 AND in_stock > 0`,
		in.ProductID)
	if err != nil {
		return nil, 0, err
	}
	if ct.RowsAffected() != 1 {
		return nil, 0, ErrOutOfStock
	}

	err = tx.QueryRow(ctx, `SELECT id, name, email FROM users WHERE id=$1`, in.UserID).
		Scan(&v.User.ID, &v.User.Name, &v.User.Email)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrOrderNotCreated, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return v, p.InStock - 1, nil
}

// UpdateOrder: typed patch, cuma status/address/phone_number yang bisa diubah.
func (r *Repo) UpdateOrder(ctx context.Context, id int64, patch OrderPatch) (*OrderView, error) {
	if patch.IsEmpty() {
		return nil, ErrEmptyPatch
	}

	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	add := func(col string, val string) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.Address != nil {
		add("address", *patch.Address)
	}
	if patch.PhoneNumber != nil {
		add("phone_number", *patch.PhoneNumber)
	}
	args = append(args, id)

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx,
		fmt.Sprintf(`UPDATE orders SET %s WHERE id=$%d`, strings.Join(sets, ", "), len(args)),
		args...)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() != 1 {
		return nil, ErrOrderNotFound
	}

	v, err := scanView(tx.QueryRow(ctx, `SELECT`+viewColumns+viewFrom+` WHERE o.id=$1`, id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return v, nil
}

// DeleteOrder: satu transaksi untuk hapus order + kembalikan stok.
func (r *Repo) DeleteOrder(ctx context.Context, id int64) (productID int64, stockAfter int, err error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `SELECT product_id FROM orders WHERE id=$1 FOR UPDATE`, id).
		Scan(&productID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, ErrOrderNotFound
	}
	if err != nil {
		return 0, 0, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id); err != nil {
		return 0, 0, err
	}
	err = tx.QueryRow(ctx,
		`UPDATE products SET in_stock = in_stock + 1 WHERE id=$1 RETURNING in_stock`,
		productID).Scan(&stockAfter)
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, err
	}
	return productID, stockAfter, nil
}

// GetProductStock dipakai stock watcher; bukan bagian dari flow order.
func (r *Repo) GetProductStock(ctx context.Context, productID int64) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT in_stock FROM products WHERE id=$1`, productID).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrProductNotFound
	}
	return n, err
}
