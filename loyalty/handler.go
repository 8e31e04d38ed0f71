package loyalty

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"shopadmin/config"
	"shopadmin/database"
	"shopadmin/render"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const defaultHistoryLimit = 50

func queryInt64(r *http.Request, name string) (int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, fmt.Errorf("%s is a required parameter", name)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return n, nil
}

func queryLimit(r *http.Request, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// writeLedgerError は台帳エラーを HTTP ステータスに振り分けます。
func writeLedgerError(w http.ResponseWriter, err error, userID int64, action string) {
	switch {
	case errors.Is(err, ErrNoHistory):
		render.Error(w, "対象の履歴がありません。", http.StatusNotFound)
	case errors.Is(err, ErrNoHistoryIDs), errors.Is(err, ErrInvalidPoints):
		render.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrInsufficientPoints), errors.Is(err, ErrRedemptionLimit), errors.Is(err, ErrLoyaltyDisabled):
		render.Error(w, err.Error(), http.StatusConflict)
	default:
		zap.L().Error("loyalty ledger operation failed", zap.String("action", action), zap.Int64("userId", userID), zap.Error(err))
		render.Error(w, "ポイント処理に失敗しました: "+err.Error(), http.StatusInternalServerError)
	}
}

func GetSummaryHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !render.AllowMethods(w, r, http.MethodGet) {
			return
		}
		userID, err := queryInt64(r, "userId")
		if err != nil {
			render.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		summary, err := GetSummary(db, userID, queryLimit(r, defaultHistoryLimit), config.DisplayLanguage(), time.Now())
		if err != nil {
			writeLedgerError(w, err, userID, "summary")
			return
		}
		render.JSON(w, http.StatusOK, summary)
	}
}

func ListUsersHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !render.AllowMethods(w, r, http.MethodGet) {
			return
		}
		users, err := ListTopUsers(db, queryLimit(r, 100))
		if err != nil {
			writeLedgerError(w, err, 0, "list users")
			return
		}
		render.JSON(w, http.StatusOK, users)
	}
}

func ExportHistoryHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !render.AllowMethods(w, r, http.MethodGet) {
			return
		}
		userID, err := queryInt64(r, "userId")
		if err != nil {
			render.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rows, err := database.GetHistoryByUser(db, userID, 0)
		if err != nil {
			writeLedgerError(w, err, userID, "export")
			return
		}
		var buf bytes.Buffer
		if err := ExportHistoryCSV(&buf, rows); err != nil {
			writeLedgerError(w, err, userID, "export")
			return
		}
		filename := fmt.Sprintf("loyalty_history_%d_%s.csv", userID, time.Now().Format("20060102"))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		w.Write(buf.Bytes())
	}
}

func DeleteAllHistoryHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !render.AllowMethods(w, r, http.MethodPost) {
			return
		}
		var payload struct {
			UserID int64 `json:"userId"`
		}
		if !render.DecodeJSON(w, r, &payload) {
			return
		}
		if payload.UserID <= 0 {
			render.Error(w, "userId is required", http.StatusBadRequest)
			return
		}
		deleted, err := DeleteAllHistory(db, payload.UserID)
		if err != nil {
			writeLedgerError(w, err, payload.UserID, "delete all")
			return
		}
		render.JSON(w, http.StatusOK, map[string]interface{}{
			"message":      fmt.Sprintf("%d 件の履歴を削除しました。", deleted),
			"deletedCount": deleted,
		})
	}
}

func DeleteSelectedHistoryHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !render.AllowMethods(w, r, http.MethodPost) {
			return
		}
		var payload struct {
			UserID     int64   `json:"userId"`
			HistoryIDs []int64 `json:"historyIds"`
		}
		if !render.DecodeJSON(w, r, &payload) {
			return
		}
		if payload.UserID <= 0 {
			render.Error(w, "userId is required", http.StatusBadRequest)
			return
		}
		deleted, err := DeleteSelectedHistory(db, payload.UserID, payload.HistoryIDs)
		if err != nil {
			writeLedgerError(w, err, payload.UserID, "delete selected")
			return
		}
		render.JSON(w, http.StatusOK, map[string]int64{"deletedCount": deleted})
	}
}

func AdjustPointsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !render.AllowMethods(w, r, http.MethodPost) {
			return
		}
		var payload struct {
			UserID int64  `json:"userId"`
			Points int64  `json:"points"`
			Reason string `json:"reason"`
		}
		if !render.DecodeJSON(w, r, &payload) {
			return
		}
		if payload.UserID <= 0 {
			render.Error(w, "userId is required", http.StatusBadRequest)
			return
		}
		h, err := AdjustPoints(db, payload.UserID, payload.Points, payload.Reason)
		if err != nil {
			writeLedgerError(w, err, payload.UserID, "adjust")
			return
		}
		render.JSON(w, http.StatusCreated, h)
	}
}

func ExpirePointsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !render.AllowMethods(w, r, http.MethodPost) {
			return
		}
		res, err := ExpirePoints(db, time.Now())
		if err != nil {
			writeLedgerError(w, err, 0, "expire")
			return
		}
		render.JSON(w, http.StatusOK, res)
	}
}

// ReconcileHandler は userId 指定で1ユーザー、0 または省略で全ユーザーを再計算します。
func ReconcileHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !render.AllowMethods(w, r, http.MethodPost) {
			return
		}
		var payload struct {
			UserID int64 `json:"userId"`
		}
		if r.ContentLength != 0 && !render.DecodeJSON(w, r, &payload) {
			return
		}
		if payload.UserID <= 0 {
			count, err := ReconcileAll(db)
			if err != nil {
				writeLedgerError(w, err, 0, "reconcile all")
				return
			}
			render.JSON(w, http.StatusOK, map[string]int{"users": count})
			return
		}
		agg, err := Reconcile(db, payload.UserID)
		if err != nil {
			writeLedgerError(w, err, payload.UserID, "reconcile")
			return
		}
		render.JSON(w, http.StatusOK, agg)
	}
}
