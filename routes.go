package main

import (
	"net/http"

	"shopadmin/coupon"
	"shopadmin/loader"
	"shopadmin/loyalty"
	"shopadmin/order"
	"shopadmin/settings"

	"github.com/jmoiron/sqlx"
)

func SetupRoutes(mux *http.ServeMux, dbConn *sqlx.DB) {
	mux.HandleFunc("/api/loyalty/summary", loyalty.GetSummaryHandler(dbConn))
	mux.HandleFunc("/api/loyalty/users", loyalty.ListUsersHandler(dbConn))
	mux.HandleFunc("/api/loyalty/history/export", loyalty.ExportHistoryHandler(dbConn))
	mux.HandleFunc("/api/loyalty/history/delete_all", loyalty.DeleteAllHistoryHandler(dbConn))
	mux.HandleFunc("/api/loyalty/history/delete_selected", loyalty.DeleteSelectedHistoryHandler(dbConn))
	mux.HandleFunc("/api/loyalty/adjust", loyalty.AdjustPointsHandler(dbConn))
	mux.HandleFunc("/api/loyalty/expire", loyalty.ExpirePointsHandler(dbConn))
	mux.HandleFunc("/api/loyalty/reconcile", loyalty.ReconcileHandler(dbConn))

	mux.HandleFunc("/api/settings", settings.SettingsHandler(dbConn))
	mux.HandleFunc("/api/settings/loyalty", settings.LoyaltySettingsHandler(dbConn))
	mux.HandleFunc("/api/settings/reseed", loader.ReseedSettingsHandler(dbConn))

	mux.HandleFunc("/api/orders", order.ListOrdersHandler(dbConn))
	mux.HandleFunc("/api/orders/create", order.CreateOrderHandler(dbConn))
	mux.HandleFunc("/api/orders/status", order.UpdateStatusHandler(dbConn))
	mux.HandleFunc("/api/orders/", order.GetOrderHandler(dbConn))

	mux.HandleFunc("/api/coupons", coupon.ListCouponsHandler(dbConn))
	mux.HandleFunc("/api/coupons/create", coupon.CreateCouponHandler(dbConn))
	mux.HandleFunc("/api/coupons/update", coupon.UpdateCouponHandler(dbConn))

	mux.HandleFunc("/api/taxes", ListTaxesHandler(dbConn))
	mux.HandleFunc("/api/taxes/save", SaveTaxesHandler(dbConn))

	mux.HandleFunc("/api/drivers", ListDriversHandler(dbConn))
	mux.HandleFunc("/api/drivers/create", CreateDriverHandler(dbConn))

	mux.HandleFunc("/api/config", GetConfigHandler())
	mux.HandleFunc("/healthz", HealthHandler(dbConn.Ping))
}
