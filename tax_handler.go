package main

import (
	"fmt"
	"net/http"
	"strings"

	"shopadmin/database"
	"shopadmin/model"
	"shopadmin/render"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ListTaxesHandler は税の一覧を priority 順で返します
func ListTaxesHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taxes, err := database.GetAllTaxes(db)
		if err != nil {
			zap.L().Error("failed to list taxes", zap.Error(err))
			render.Error(w, "税一覧の取得に失敗しました。", http.StatusInternalServerError)
			return
		}
		render.JSON(w, http.StatusOK, taxes)
	}
}

func validateTax(t *model.Tax) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return fmt.Errorf("税名は必須です。")
	}
	if t.Rate.IsNegative() {
		return fmt.Errorf("税率は0以上で指定してください: %s", t.Name)
	}
	return nil
}

// SaveTaxesHandler は税の配列を名前キーで一括保存します
func SaveTaxesHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !render.AllowMethods(w, r, http.MethodPost) {
			return
		}
		var taxes []model.Tax
		if !render.DecodeJSON(w, r, &taxes) {
			return
		}
		for i := range taxes {
			if err := validateTax(&taxes[i]); err != nil {
				render.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		err := database.WithTx(db, func(tx *sqlx.Tx) error {
			for _, t := range taxes {
				if err := database.UpsertTaxInTx(tx, t); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			zap.L().Error("failed to save taxes", zap.Error(err))
			render.Error(w, "税の保存に失敗しました。", http.StatusInternalServerError)
			return
		}
		render.Message(w, http.StatusOK, fmt.Sprintf("%d 件の税を保存しました。", len(taxes)))
	}
}
