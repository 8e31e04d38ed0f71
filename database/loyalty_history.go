package database

import (
	"database/sql"
	"fmt"
	"shopadmin/model"
	"time"

	"github.com/jmoiron/sqlx"
)

const historyColumns = `
	id, user_id, order_id, transaction_type, status, points, points_balance,
	order_amount, discount_amount, description, expires_at, is_expired, created_at
`

// InsertHistoryInTx は履歴を1行追加し h.ID を設定します。
// 同じ注文の earned 行が既にある場合は何もせず false を返します。
func InsertHistoryInTx(tx *sqlx.Tx, h *model.LoyaltyPointsHistory) (bool, error) {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = Now()
	}
	const q = `
		INSERT INTO loyalty_points_history (
			user_id, order_id, transaction_type, status, points, points_balance,
			order_amount, discount_amount, description, expires_at, is_expired, created_at
		)
		VALUES (:user_id, :order_id, :transaction_type, :status, :points, :points_balance,
			:order_amount, :discount_amount, :description, :expires_at, :is_expired, :created_at)
		ON CONFLICT(order_id) WHERE transaction_type = 'earned' AND order_id IS NOT NULL DO NOTHING
	`
	res, err := tx.NamedExec(q, h)
	if err != nil {
		return false, fmt.Errorf("InsertHistoryInTx (User: %d, Type: %s) failed: %w", h.UserID, h.TransactionType, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected for history insert: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to get history id: %w", err)
	}
	h.ID = id
	return true, nil
}

// GetEarnedHistoryByOrder は注文に紐づく earned 行を返します。なければ (nil, nil)。
func GetEarnedHistoryByOrder(dbtx DBTX, orderID int64) (*model.LoyaltyPointsHistory, error) {
	var h model.LoyaltyPointsHistory
	err := dbtx.Get(&h, `SELECT `+historyColumns+` FROM loyalty_points_history
		WHERE order_id = ? AND transaction_type = 'earned'`, orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get earned history for order %d: %w", orderID, err)
	}
	return &h, nil
}

func GetPendingEarnedHistory(dbtx DBTX, userID, orderID int64) ([]model.LoyaltyPointsHistory, error) {
	var rows []model.LoyaltyPointsHistory
	err := dbtx.Select(&rows, `SELECT `+historyColumns+` FROM loyalty_points_history
		WHERE user_id = ? AND order_id = ? AND status = 'pending' AND transaction_type = 'earned'
		ORDER BY id`, userID, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending history (User: %d, Order: %d): %w", userID, orderID, err)
	}
	return rows, nil
}

func UpdateHistoryStatusInTx(tx *sqlx.Tx, id int64, status string, balance int64) error {
	res, err := tx.Exec(`UPDATE loyalty_points_history SET status = ?, points_balance = ? WHERE id = ?`, status, balance, id)
	if err != nil {
		return fmt.Errorf("failed to update history status for id %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for history id %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("no history found to update for id %d", id)
	}
	return nil
}

func MarkHistoryExpiredInTx(tx *sqlx.Tx, id int64) error {
	_, err := tx.Exec(`UPDATE loyalty_points_history SET status = 'expired', is_expired = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark history %d expired: %w", id, err)
	}
	return nil
}

// GetHistoryByUser は新しい順に履歴を返します。limit <= 0 で全件。
func GetHistoryByUser(dbtx DBTX, userID int64, limit int) ([]model.LoyaltyPointsHistory, error) {
	q := `SELECT ` + historyColumns + ` FROM loyalty_points_history WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	args := []interface{}{userID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows := []model.LoyaltyPointsHistory{}
	if err := dbtx.Select(&rows, q, args...); err != nil {
		return nil, fmt.Errorf("failed to get history for user %d: %w", userID, err)
	}
	return rows, nil
}

// GetHistoryByIDs は指定ユーザーに属する行だけを返します。
func GetHistoryByIDs(dbtx DBTX, userID int64, ids []int64) ([]model.LoyaltyPointsHistory, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q, args, err := sqlx.In(`SELECT `+historyColumns+` FROM loyalty_points_history
		WHERE user_id = ? AND id IN (?) ORDER BY id`, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build history id query: %w", err)
	}
	var rows []model.LoyaltyPointsHistory
	if err := dbtx.Select(&rows, dbtx.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("failed to get history by ids for user %d: %w", userID, err)
	}
	return rows, nil
}

func DeleteHistoryByIDsInTx(tx *sqlx.Tx, userID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q, args, err := sqlx.In(`DELETE FROM loyalty_points_history WHERE user_id = ? AND id IN (?)`, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to build history delete query: %w", err)
	}
	res, err := tx.Exec(tx.Rebind(q), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete history for user %d: %w", userID, err)
	}
	return res.RowsAffected()
}

func DeleteHistoryByUserInTx(tx *sqlx.Tx, userID int64) (int64, error) {
	res, err := tx.Exec(`DELETE FROM loyalty_points_history WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete all history for user %d: %w", userID, err)
	}
	return res.RowsAffected()
}

// GetExpirableHistory は期限切れを迎えた利用可能な earned 行を返します。
func GetExpirableHistory(dbtx DBTX, now time.Time) ([]model.LoyaltyPointsHistory, error) {
	var rows []model.LoyaltyPointsHistory
	err := dbtx.Select(&rows, `SELECT `+historyColumns+` FROM loyalty_points_history
		WHERE transaction_type = 'earned' AND status = 'available' AND is_expired = 0
			AND expires_at IS NOT NULL AND expires_at <= ?
		ORDER BY user_id, expires_at, id`, Timestamp(now))
	if err != nil {
		return nil, fmt.Errorf("failed to get expirable history: %w", err)
	}
	return rows, nil
}

func SumPointsExpiringBetween(dbtx DBTX, userID int64, from, until time.Time) (int64, error) {
	var total sql.NullInt64
	err := dbtx.Get(&total, `SELECT SUM(points) FROM loyalty_points_history
		WHERE user_id = ? AND transaction_type = 'earned' AND status = 'available' AND is_expired = 0
			AND expires_at IS NOT NULL AND expires_at > ? AND expires_at <= ?`,
		userID, Timestamp(from), Timestamp(until))
	if err != nil {
		return 0, fmt.Errorf("failed to sum expiring points for user %d: %w", userID, err)
	}
	return total.Int64, nil
}

// HistoryTotals は集計行を履歴から再計算するための合計値です。
type HistoryTotals struct {
	Rows            int64 `db:"row_count"`
	Earned          int64 `db:"earned"`
	EarnedPending   int64 `db:"earned_pending"`
	EarnedAvailable int64 `db:"earned_available"`
	Redeemed        int64 `db:"redeemed"`
	Adjusted        int64 `db:"adjusted"`
	Expired         int64 `db:"expired"`
}

func GetHistoryTotals(dbtx DBTX, userID int64) (*HistoryTotals, error) {
	var t HistoryTotals
	const q = `
		SELECT
			COUNT(*) AS row_count,
			COALESCE(SUM(CASE WHEN transaction_type = 'earned' THEN points ELSE 0 END), 0) AS earned,
			COALESCE(SUM(CASE WHEN transaction_type = 'earned' AND status = 'pending' THEN points ELSE 0 END), 0) AS earned_pending,
			COALESCE(SUM(CASE WHEN transaction_type = 'earned' AND status IN ('available', 'expired') THEN points ELSE 0 END), 0) AS earned_available,
			COALESCE(SUM(CASE WHEN transaction_type = 'redeemed' THEN points ELSE 0 END), 0) AS redeemed,
			COALESCE(SUM(CASE WHEN transaction_type = 'adjusted' THEN points ELSE 0 END), 0) AS adjusted,
			COALESCE(SUM(CASE WHEN transaction_type = 'expired' THEN points ELSE 0 END), 0) AS expired
		FROM loyalty_points_history
		WHERE user_id = ?`
	if err := dbtx.Get(&t, q, userID); err != nil {
		return nil, fmt.Errorf("failed to get history totals for user %d: %w", userID, err)
	}
	return &t, nil
}

// GetLatestHistoryTime は指定種別の最新 created_at を返します。なければ nil。
func GetLatestHistoryTime(dbtx DBTX, userID int64, transactionType string) (*time.Time, error) {
	var t time.Time
	err := dbtx.Get(&t, `SELECT created_at FROM loyalty_points_history
		WHERE user_id = ? AND transaction_type = ? ORDER BY created_at DESC, id DESC LIMIT 1`, userID, transactionType)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest %s time for user %d: %w", transactionType, userID, err)
	}
	return &t, nil
}
