package order

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"shopadmin/coupon"
	"shopadmin/loyalty"
	"shopadmin/render"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func writeOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, coupon.ErrCouponNotFound):
		render.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidOrder), errors.Is(err, ErrInvalidStatus),
		errors.Is(err, coupon.ErrCouponInvalid), errors.Is(err, loyalty.ErrInvalidPoints):
		render.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrDriverUnavailable),
		errors.Is(err, loyalty.ErrInsufficientPoints), errors.Is(err, loyalty.ErrRedemptionLimit),
		errors.Is(err, loyalty.ErrLoyaltyDisabled):
		render.Error(w, err.Error(), http.StatusConflict)
	default:
		zap.L().Error("order operation failed", zap.Error(err))
		render.Error(w, "注文処理に失敗しました。", http.StatusInternalServerError)
	}
}

func CreateOrderHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !render.AllowMethods(w, r, http.MethodPost) {
			return
		}
		var in CreateOrderInput
		if !render.DecodeJSON(w, r, &in) {
			return
		}
		res, err := CreateOrder(db, in)
		if err != nil {
			writeOrderError(w, err)
			return
		}
		render.JSON(w, http.StatusCreated, res)
	}
}

func UpdateStatusHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !render.AllowMethods(w, r, http.MethodPost) {
			return
		}
		var payload struct {
			OrderID int64  `json:"orderId"`
			Status  string `json:"status"`
		}
		if !render.DecodeJSON(w, r, &payload) {
			return
		}
		if payload.OrderID <= 0 {
			render.Error(w, "orderId is required", http.StatusBadRequest)
			return
		}
		res, err := UpdateOrderStatus(db, payload.OrderID, payload.Status)
		if err != nil {
			writeOrderError(w, err)
			return
		}
		render.JSON(w, http.StatusOK, res)
	}
}

// GetOrderHandler は /api/orders/{id} を処理します。
func GetOrderHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := strings.TrimPrefix(r.URL.Path, "/api/orders/")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			render.Error(w, "注文IDが不正です。", http.StatusBadRequest)
			return
		}
		o, err := GetOrder(db, id)
		if err != nil {
			writeOrderError(w, err)
			return
		}
		render.JSON(w, http.StatusOK, o)
	}
}

func ListOrdersHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit <= 0 {
			limit = 100
		}
		orders, err := ListOrders(db, r.URL.Query().Get("status"), limit)
		if err != nil {
			writeOrderError(w, err)
			return
		}
		render.JSON(w, http.StatusOK, orders)
	}
}
