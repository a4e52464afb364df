package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-shop-backend.git/internal/orders"
	"github.com/ariefcatur/go-shop-backend.git/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type OrdersHandler struct {
	Coordinator *orders.Coordinator
	Redis       *redis.Client
	Log         *zap.Logger
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/users/{user_id}/orders", h.listOrdersByUser)
	r.Post("/orders", h.createOrder)
	r.Patch("/orders/{id}", h.updateOrder)
	r.Delete("/orders/{id}", h.deleteOrder)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Coordinator.ListOrders(ctx)
	if err != nil {
		h.internal(w, "list orders", err)
		return
	}
	if out == nil {
		out = []orders.OrderView{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	key := fmt.Sprintf(redisx.KeyOrderView, id)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	// 2) fallback DB
	v, err := h.Coordinator.GetOrder(ctx, id)
	if err != nil {
		h.internal(w, "get order", err)
		return
	}
	if v == nil {
		// absent bukan error: respon null, caller yang memutuskan
		writeJSON(w, http.StatusOK, nil)
		return
	}
	b, _ := json.Marshal(v)
	_ = h.Redis.Set(ctx, key, b, redisx.TTLOrderCache).Err()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *OrdersHandler) listOrdersByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "user_id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Coordinator.ListOrdersByUser(ctx, userID)
	if err != nil {
		h.internal(w, "list orders by user", err)
		return
	}
	if out == nil {
		out = []orders.OrderView{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.UserID <= 0 || req.ProductID <= 0 || req.PhoneNumber == "" || req.Address == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	v, err := h.Coordinator.CreateOrder(ctx, req, middleware.GetReqID(r.Context()))
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, v)
	case errors.Is(err, orders.ErrProductNotFound):
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Product not found"})
	case errors.Is(err, orders.ErrOutOfStock):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error_message": "Product not in stock"})
	case errors.Is(err, orders.ErrOrderNotCreated):
		h.Log.Error("create order", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error_message": "Order not created"})
	default:
		h.internal(w, "create order", err)
	}
}

func (h *OrdersHandler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	var patch orders.OrderPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	v, err := h.Coordinator.UpdateOrder(ctx, id, patch)
	switch {
	case err == nil:
		h.invalidate(ctx, id)
		writeJSON(w, http.StatusOK, v)
	case errors.Is(err, orders.ErrEmptyPatch):
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "empty patch"})
	case errors.Is(err, orders.ErrOrderNotFound):
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "order not found"})
	default:
		h.internal(w, "update order", err)
	}
}

func (h *OrdersHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.Coordinator.DeleteOrder(ctx, id, middleware.GetReqID(r.Context()))
	switch {
	case err == nil:
		h.invalidate(ctx, id)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Delete order success"})
	case errors.Is(err, orders.ErrOrderNotFound):
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "order not found"})
	default:
		h.internal(w, "delete order", err)
	}
}

func (h *OrdersHandler) invalidate(ctx context.Context, id int64) {
	_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderView, id)).Err()
}

// error store yang tidak terklasifikasi tidak pernah bocor mentah ke client
func (h *OrdersHandler) internal(w http.ResponseWriter, op string, err error) {
	h.Log.Error(op, zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
