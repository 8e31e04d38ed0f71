package coupon

import (
	"errors"
	"net/http"

	"shopadmin/database"
	"shopadmin/model"
	"shopadmin/render"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func writeCouponError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrCouponInvalid):
		render.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrCouponNotFound):
		render.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrDuplicateCoupon):
		render.Error(w, err.Error(), http.StatusConflict)
	default:
		zap.L().Error("coupon operation failed", zap.Error(err))
		render.Error(w, "クーポンの保存に失敗しました。", http.StatusInternalServerError)
	}
}

func ListCouponsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coupons, err := database.GetAllCoupons(db)
		if err != nil {
			zap.L().Error("failed to list coupons", zap.Error(err))
			render.Error(w, "クーポン一覧の取得に失敗しました。", http.StatusInternalServerError)
			return
		}
		render.JSON(w, http.StatusOK, coupons)
	}
}

func CreateCouponHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !render.AllowMethods(w, r, http.MethodPost) {
			return
		}
		var c model.Coupon
		if !render.DecodeJSON(w, r, &c) {
			return
		}
		if err := Create(db, &c); err != nil {
			writeCouponError(w, err)
			return
		}
		render.JSON(w, http.StatusCreated, c)
	}
}

func UpdateCouponHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !render.AllowMethods(w, r, http.MethodPost) {
			return
		}
		var c model.Coupon
		if !render.DecodeJSON(w, r, &c) {
			return
		}
		if err := Update(db, &c); err != nil {
			writeCouponError(w, err)
			return
		}
		render.JSON(w, http.StatusOK, c)
	}
}
