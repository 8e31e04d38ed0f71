package settings

import (
	"errors"
	"net/http"

	"shopadmin/database"
	"shopadmin/render"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// LoyaltySettingsHandler は GET で現在の設定、POST で一括保存します。
func LoyaltySettingsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			l, err := LoadLoyalty(db)
			if err != nil {
				zap.L().Error("failed to load loyalty settings", zap.Error(err))
				render.Error(w, "設定の取得に失敗しました。", http.StatusInternalServerError)
				return
			}
			render.JSON(w, http.StatusOK, l)
		case http.MethodPost:
			// 省略された項目は現在値のまま
			l, err := LoadLoyalty(db)
			if err != nil {
				zap.L().Error("failed to load loyalty settings", zap.Error(err))
				render.Error(w, "設定の取得に失敗しました。", http.StatusInternalServerError)
				return
			}
			if !render.DecodeJSON(w, r, &l) {
				return
			}
			if err := SaveLoyalty(db, l); err != nil {
				if errors.Is(err, ErrInvalidSettings) {
					render.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				zap.L().Error("failed to save loyalty settings", zap.Error(err))
				render.Error(w, "設定の保存に失敗しました。", http.StatusInternalServerError)
				return
			}
			render.Message(w, http.StatusOK, "設定を保存しました。")
		default:
			render.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	}
}

// SettingsHandler はキー単位の読み書きです。GET ?key= で1件、キーなしで全件。
func SettingsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if key := r.URL.Query().Get("key"); key != "" {
				value, err := GetSetting(db, key, "")
				if err != nil {
					zap.L().Error("failed to get setting", zap.String("key", key), zap.Error(err))
					render.Error(w, "設定の取得に失敗しました。", http.StatusInternalServerError)
					return
				}
				render.JSON(w, http.StatusOK, map[string]string{"key": key, "value": value})
				return
			}
			all, err := database.GetAllSettings(db)
			if err != nil {
				zap.L().Error("failed to list settings", zap.Error(err))
				render.Error(w, "設定の取得に失敗しました。", http.StatusInternalServerError)
				return
			}
			render.JSON(w, http.StatusOK, all)
		case http.MethodPost:
			var input struct {
				Key         string `json:"key"`
				Value       string `json:"value"`
				Type        string `json:"type"`
				Description string `json:"description"`
			}
			if !render.DecodeJSON(w, r, &input) {
				return
			}
			if err := SetSetting(db, input.Key, input.Value, input.Type, input.Description); err != nil {
				if errors.Is(err, ErrInvalidSettings) {
					render.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				zap.L().Error("failed to set setting", zap.String("key", input.Key), zap.Error(err))
				render.Error(w, "設定の保存に失敗しました。", http.StatusInternalServerError)
				return
			}
			render.Message(w, http.StatusOK, "設定を保存しました。")
		default:
			render.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	}
}
