package database

import (
	"database/sql"
	"fmt"
	"shopadmin/model"

	"github.com/jmoiron/sqlx"
)

const loyaltyPointsColumns = `
	user_id, total_points_earned, total_points_redeemed, available_points, pending_points,
	points_expiring_soon, last_earned_at, last_redeemed_at, created_at, updated_at
`

// GetUserLoyaltyPoints はユーザーの集計行を返します。行がなければ (nil, nil)。
func GetUserLoyaltyPoints(dbtx DBTX, userID int64) (*model.UserLoyaltyPoints, error) {
	var p model.UserLoyaltyPoints
	err := dbtx.Get(&p, `SELECT `+loyaltyPointsColumns+` FROM user_loyalty_points WHERE user_id = ?`, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get loyalty points for user %d: %w", userID, err)
	}
	return &p, nil
}

// UpsertUserLoyaltyPointsInTx は集計行を丸ごと書き込みます。
// 呼び出し側は同じトランザクション内で読み取った値から p を組み立てること。
func UpsertUserLoyaltyPointsInTx(tx *sqlx.Tx, p *model.UserLoyaltyPoints) error {
	now := Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	const q = `
		INSERT INTO user_loyalty_points (` + loyaltyPointsColumns + `)
		VALUES (:user_id, :total_points_earned, :total_points_redeemed, :available_points, :pending_points,
			:points_expiring_soon, :last_earned_at, :last_redeemed_at, :created_at, :updated_at)
		ON CONFLICT(user_id) DO UPDATE SET
			total_points_earned = excluded.total_points_earned,
			total_points_redeemed = excluded.total_points_redeemed,
			available_points = excluded.available_points,
			pending_points = excluded.pending_points,
			points_expiring_soon = excluded.points_expiring_soon,
			last_earned_at = excluded.last_earned_at,
			last_redeemed_at = excluded.last_redeemed_at,
			updated_at = excluded.updated_at
	`
	if _, err := tx.NamedExec(q, p); err != nil {
		return fmt.Errorf("UpsertUserLoyaltyPointsInTx (User: %d) failed: %w", p.UserID, err)
	}
	return nil
}

func DeleteUserLoyaltyPointsInTx(tx *sqlx.Tx, userID int64) (int64, error) {
	res, err := tx.Exec(`DELETE FROM user_loyalty_points WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete loyalty points for user %d: %w", userID, err)
	}
	return res.RowsAffected()
}

// ListUserLoyaltyPoints は利用可能ポイントの多い順に集計行を返します。limit <= 0 で全件。
func ListUserLoyaltyPoints(dbtx DBTX, limit int) ([]model.UserLoyaltyPoints, error) {
	q := `SELECT ` + loyaltyPointsColumns + ` FROM user_loyalty_points ORDER BY available_points DESC, user_id`
	args := []interface{}{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	var rows []model.UserLoyaltyPoints
	if err := dbtx.Select(&rows, q, args...); err != nil {
		return nil, fmt.Errorf("failed to list loyalty points: %w", err)
	}
	return rows, nil
}

// ListLoyaltyUserIDs は集計行または履歴を持つ全ユーザーIDを返します。
func ListLoyaltyUserIDs(dbtx DBTX) ([]int64, error) {
	var ids []int64
	const q = `
		SELECT user_id FROM user_loyalty_points
		UNION
		SELECT DISTINCT user_id FROM loyalty_points_history
		ORDER BY user_id`
	if err := dbtx.Select(&ids, q); err != nil {
		return nil, fmt.Errorf("failed to list loyalty user ids: %w", err)
	}
	return ids, nil
}
