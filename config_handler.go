package main

import (
	"net/http"

	"shopadmin/config"
	"shopadmin/render"
)

// GetConfigHandler は現在の設定を返します
func GetConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !render.AllowMethods(w, r, http.MethodGet) {
			return
		}
		render.JSON(w, http.StatusOK, config.GetConfig())
	}
}

// HealthHandler は DB 接続を確認します
func HealthHandler(ping func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ping(); err != nil {
			render.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		render.Message(w, http.StatusOK, "ok")
	}
}
