// Package render は API ハンドラ共通の JSON レスポンス出力です。
package render

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to encode JSON response", zap.Error(err))
	}
}

// Message は {"message": ...} を返します。
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"message": message})
}

// Error はエラーを JSON で返します。
func Error(w http.ResponseWriter, message string, status int) {
	Message(w, status, message)
}

// DecodeJSON はリクエストボディを v に読み込みます。失敗時は 400 を返して false。
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, "リクエストが不正です。", http.StatusBadRequest)
		return false
	}
	return true
}

// AllowMethods はメソッドが一致しなければ 405 を返して false。
func AllowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	return false
}
