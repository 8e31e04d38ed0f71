package main

import (
	"net/http"
	"strings"

	"shopadmin/database"
	"shopadmin/model"
	"shopadmin/render"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ListDriversHandler はドライバー一覧を返します
func ListDriversHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drivers, err := database.GetAllDrivers(db)
		if err != nil {
			zap.L().Error("failed to list drivers", zap.Error(err))
			render.Error(w, "ドライバー一覧の取得に失敗しました。", http.StatusInternalServerError)
			return
		}
		render.JSON(w, http.StatusOK, drivers)
	}
}

// CreateDriverHandler は新しいドライバーを登録します
func CreateDriverHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !render.AllowMethods(w, r, http.MethodPost) {
			return
		}
		input := struct {
			Name     string `json:"name"`
			Phone    string `json:"phone"`
			IsActive *bool  `json:"isActive"`
		}{}
		if !render.DecodeJSON(w, r, &input) {
			return
		}
		d := model.Driver{Name: strings.TrimSpace(input.Name), Phone: strings.TrimSpace(input.Phone), IsActive: true}
		if d.Name == "" {
			render.Error(w, "ドライバー名は必須です。", http.StatusBadRequest)
			return
		}
		if input.IsActive != nil {
			d.IsActive = *input.IsActive
		}
		if err := database.CreateDriver(db, &d); err != nil {
			zap.L().Error("failed to create driver", zap.String("name", d.Name), zap.Error(err))
			render.Error(w, "ドライバーの作成に失敗しました。", http.StatusInternalServerError)
			return
		}
		render.JSON(w, http.StatusCreated, d)
	}
}
