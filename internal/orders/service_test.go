package orders

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore meniru semantik Repo di memory: create/delete adalah unit
// atomik (order write + stock adjustment di bawah satu lock).
type fakeStore struct {
	mu       sync.Mutex
	nextID   int64
	clock    time.Time
	users    map[int64]User
	products map[int64]*Product
	rows     map[int64]*orderRow
}

type orderRow struct {
	id, userID, productID int64
	phone, status, addr   string
	orderTime             time.Time
	total                 decimal.Decimal
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clock:    time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		users:    map[int64]User{1: {ID: 1, Name: "Arief", Email: "arief@example.com"}},
		products: map[int64]*Product{},
		rows:     map[int64]*orderRow{},
	}
}

func (f *fakeStore) addProduct(id int64, price string, stock int) {
	f.products[id] = &Product{ID: id, Name: "product", Price: decimal.RequireFromString(price), InStock: stock}
}

func (f *fakeStore) view(row *orderRow) OrderView {
	p := f.products[row.productID]
	return OrderView{
		ID:          row.id,
		User:        f.users[row.userID],
		Product:     ProductSummary{ID: p.ID, Name: p.Name, Price: p.Price},
		PhoneNumber: row.phone,
		Status:      row.status,
		Address:     row.addr,
		OrderTime:   row.orderTime,
		Total:       row.total,
	}
}

func (f *fakeStore) ListOrders(ctx context.Context) ([]OrderView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []OrderView
	for _, row := range f.rows {
		out = append(out, f.view(row))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) GetOrder(ctx context.Context, id int64) (*OrderView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	v := f.view(row)
	return &v, nil
}

func (f *fakeStore) ListOrdersByUser(ctx context.Context, userID int64) ([]OrderView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []OrderView
	for _, row := range f.rows {
		if row.userID == userID {
			out = append(out, f.view(row))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderTime.After(out[j].OrderTime) })
	return out, nil
}

func (f *fakeStore) CreateOrder(ctx context.Context, in CreateOrderInput) (*OrderView, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[in.ProductID]
	if !ok {
		return nil, 0, ErrProductNotFound
	}
	if p.InStock == 0 {
		return nil, 0, ErrOutOfStock
	}
	f.nextID++
	f.clock = f.clock.Add(time.Minute)
	row := &orderRow{
		id:        f.nextID,
		userID:    in.UserID,
		productID: in.ProductID,
		phone:     in.PhoneNumber,
		status:    StatusPending,
		addr:      in.Address,
		orderTime: f.clock,
		total:     p.Price,
	}
	f.rows[row.id] = row
	p.InStock--
	v := f.view(row)
	return &v, p.InStock, nil
}

func (f *fakeStore) UpdateOrder(ctx context.Context, id int64, patch OrderPatch) (*OrderView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	if patch.Status != nil {
		row.status = *patch.Status
	}
	if patch.Address != nil {
		row.addr = *patch.Address
	}
	if patch.PhoneNumber != nil {
		row.phone = *patch.PhoneNumber
	}
	v := f.view(row)
	return &v, nil
}

func (f *fakeStore) DeleteOrder(ctx context.Context, id int64) (int64, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return 0, 0, ErrOrderNotFound
	}
	delete(f.rows, id)
	p := f.products[row.productID]
	p.InStock++
	return p.ID, p.InStock, nil
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []kafkago.Message
}

func (f *fakePublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, kafkago.Message{Key: key, Value: value, Headers: headers})
}

func (f *fakePublisher) envelopes(t *testing.T) []Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Envelope, 0, len(f.msgs))
	for _, m := range f.msgs {
		var env Envelope
		require.NoError(t, json.Unmarshal(m.Value, &env))
		out = append(out, env)
	}
	return out
}

func newCoordinator(store Store) (*Coordinator, *fakePublisher, *fakePublisher) {
	pc := &fakePublisher{}
	pd := &fakePublisher{}
	return &Coordinator{
		Store:          store,
		ProducerCreate: pc,
		ProducerDelete: pd,
		Log:            zap.NewNop(),
		Service:        "shop-api-test",
	}, pc, pd
}

func str(s string) *string { return &s }

func TestCreateOrder_SnapshotsTotalAndDecrementsStock(t *testing.T) {
	store := newFakeStore()
	store.addProduct(1, "9.99", 5)
	c, pc, _ := newCoordinator(store)

	v, err := c.CreateOrder(context.Background(), CreateOrderInput{
		UserID: 1, ProductID: 1, PhoneNumber: "555", Address: "A",
	}, "trace-1")
	require.NoError(t, err)
	assert.True(t, v.Total.Equal(decimal.RequireFromString("9.99")), "total = %s", v.Total)
	assert.Equal(t, StatusPending, v.Status)
	assert.Equal(t, 4, store.products[1].InStock)

	// harga product berubah setelah create: total order tidak ikut berubah
	store.products[1].Price = decimal.RequireFromString("19.99")
	got, err := c.GetOrder(context.Background(), v.ID)
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("9.99")))

	envs := pc.envelopes(t)
	require.Len(t, envs, 1)
	assert.Equal(t, EventOrderCreated, envs[0].EventType)
	p, err := unwrapCreated(envs[0])
	require.NoError(t, err)
	assert.Equal(t, v.ID, p.OrderID)
	assert.Equal(t, int64(1), p.ProductID)
	assert.Equal(t, 4, p.InStockAfter)
	assert.True(t, p.Total.Equal(decimal.RequireFromString("9.99")))
}

func unwrapCreated(env Envelope) (OrderCreatedPayload, error) {
	var p OrderCreatedPayload
	err := json.Unmarshal(env.Payload, &p)
	return p, err
}

func TestCreateOrder_OutOfStock_NoSideEffects(t *testing.T) {
	store := newFakeStore()
	store.addProduct(1, "9.99", 0)
	c, pc, _ := newCoordinator(store)

	_, err := c.CreateOrder(context.Background(), CreateOrderInput{
		UserID: 1, ProductID: 1, PhoneNumber: "555", Address: "A",
	}, "")
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Empty(t, store.rows)
	assert.Equal(t, 0, store.products[1].InStock)
	assert.Empty(t, pc.envelopes(t))
}

func TestCreateOrder_ProductMissing_NoSideEffects(t *testing.T) {
	store := newFakeStore()
	c, pc, _ := newCoordinator(store)

	_, err := c.CreateOrder(context.Background(), CreateOrderInput{
		UserID: 1, ProductID: 42, PhoneNumber: "555", Address: "A",
	}, "")
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Empty(t, store.rows)
	assert.Empty(t, pc.envelopes(t))
}

func TestDeleteOrder_RestoresStock(t *testing.T) {
	store := newFakeStore()
	store.addProduct(1, "9.99", 1)
	c, _, pd := newCoordinator(store)

	v, err := c.CreateOrder(context.Background(), CreateOrderInput{
		UserID: 1, ProductID: 1, PhoneNumber: "555", Address: "A",
	}, "")
	require.NoError(t, err)
	require.Equal(t, 0, store.products[1].InStock)

	require.NoError(t, c.DeleteOrder(context.Background(), v.ID, ""))
	assert.Equal(t, 1, store.products[1].InStock)
	assert.Empty(t, store.rows)

	envs := pd.envelopes(t)
	require.Len(t, envs, 1)
	assert.Equal(t, EventOrderDeleted, envs[0].EventType)
	var p OrderDeletedPayload
	require.NoError(t, json.Unmarshal(envs[0].Payload, &p))
	assert.Equal(t, v.ID, p.OrderID)
	assert.Equal(t, 1, p.InStockAfter)
}

func TestDeleteOrder_Unknown(t *testing.T) {
	store := newFakeStore()
	c, _, pd := newCoordinator(store)

	err := c.DeleteOrder(context.Background(), 99, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Empty(t, pd.envelopes(t))
}

func TestListOrders_Ordering(t *testing.T) {
	store := newFakeStore()
	store.addProduct(1, "5.00", 10)
	store.users[2] = User{ID: 2, Name: "Budi", Email: "budi@example.com"}
	c, _, _ := newCoordinator(store)

	ctx := context.Background()
	for _, userID := range []int64{1, 2, 1} {
		_, err := c.CreateOrder(ctx, CreateOrderInput{
			UserID: userID, ProductID: 1, PhoneNumber: "555", Address: "A",
		}, "")
		require.NoError(t, err)
	}

	all, err := c.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// paling baru dulu (id desc)
	assert.Equal(t, []int64{3, 2, 1}, []int64{all[0].ID, all[1].ID, all[2].ID})

	byUser, err := c.ListOrdersByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	// order_time desc, cuma milik user 1
	assert.Equal(t, int64(3), byUser[0].ID)
	assert.Equal(t, int64(1), byUser[1].ID)
	assert.True(t, byUser[0].OrderTime.After(byUser[1].OrderTime))
	for _, v := range byUser {
		assert.Equal(t, int64(1), v.User.ID)
	}
}

func TestGetOrder_AbsentIsNotAnError(t *testing.T) {
	store := newFakeStore()
	c, _, _ := newCoordinator(store)

	v, err := c.GetOrder(context.Background(), 7)
	assert.NoError(t, err)
	assert.Nil(t, v)
}

func TestUpdateOrder_PatchesOnlyGivenFields(t *testing.T) {
	store := newFakeStore()
	store.addProduct(1, "9.99", 3)
	c, _, _ := newCoordinator(store)

	ctx := context.Background()
	v, err := c.CreateOrder(ctx, CreateOrderInput{
		UserID: 1, ProductID: 1, PhoneNumber: "555", Address: "A",
	}, "")
	require.NoError(t, err)

	got, err := c.UpdateOrder(ctx, v.ID, OrderPatch{Status: str(StatusShipped)})
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, got.Status)
	// field lain tidak tersentuh
	assert.Equal(t, "555", got.PhoneNumber)
	assert.Equal(t, "A", got.Address)
	assert.True(t, got.Total.Equal(v.Total))
	assert.Equal(t, v.OrderTime, got.OrderTime)

	got, err = c.UpdateOrder(ctx, v.ID, OrderPatch{Address: str("B"), PhoneNumber: str("666")})
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, got.Status)
	assert.Equal(t, "B", got.Address)
	assert.Equal(t, "666", got.PhoneNumber)
}

func TestUpdateOrder_EmptyPatchRejected(t *testing.T) {
	store := newFakeStore()
	c, _, _ := newCoordinator(store)

	_, err := c.UpdateOrder(context.Background(), 1, OrderPatch{})
	assert.ErrorIs(t, err, ErrEmptyPatch)
}

func TestUpdateOrder_Unknown(t *testing.T) {
	store := newFakeStore()
	c, _, _ := newCoordinator(store)

	_, err := c.UpdateOrder(context.Background(), 123, OrderPatch{Status: str(StatusShipped)})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

// Skenario end-to-end: stok 1, harga 9.99.
func TestOrderLifecycle_SingleUnitStock(t *testing.T) {
	store := newFakeStore()
	store.addProduct(1, "9.99", 1)
	c, _, _ := newCoordinator(store)
	ctx := context.Background()

	in := CreateOrderInput{UserID: 1, ProductID: 1, PhoneNumber: "555", Address: "A"}

	v, err := c.CreateOrder(ctx, in, "")
	require.NoError(t, err)
	assert.True(t, v.Total.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, 0, store.products[1].InStock)

	// stok habis: create kedua ditolak
	_, err = c.CreateOrder(ctx, in, "")
	assert.ErrorIs(t, err, ErrOutOfStock)

	// delete balikin stok, create jalan lagi
	require.NoError(t, c.DeleteOrder(ctx, v.ID, ""))
	assert.Equal(t, 1, store.products[1].InStock)

	_, err = c.CreateOrder(ctx, in, "")
	assert.NoError(t, err)
}
