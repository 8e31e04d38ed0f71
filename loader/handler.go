package loader

import (
	"fmt"
	"net/http"

	"shopadmin/config"
	"shopadmin/render"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ReseedSettingsHandler はシードファイルを再読込し、未登録のキーだけを追加します。
func ReseedSettingsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !render.AllowMethods(w, r, http.MethodPost) {
			return
		}
		path := config.GetConfig().Loyalty.SeedFile
		inserted, err := SeedSettings(db, path)
		if err != nil {
			zap.L().Error("failed to reseed settings", zap.String("path", path), zap.Error(err))
			render.Error(w, "設定の再読込に失敗しました: "+err.Error(), http.StatusInternalServerError)
			return
		}
		render.JSON(w, http.StatusOK, map[string]interface{}{
			"message":  fmt.Sprintf("%d 件の設定を追加しました。", inserted),
			"inserted": inserted,
		})
	}
}
