package loyalty

import (
	"time"

	"shopadmin/database"
	"shopadmin/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Reconcile は履歴から集計行を再計算して書き戻します。
// 履歴がなければ集計行を削除し nil を返します。
func Reconcile(db *sqlx.DB, userID int64) (*model.UserLoyaltyPoints, error) {
	var agg *model.UserLoyaltyPoints
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		var err error
		agg, err = ReconcileInTx(tx, userID, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return agg, nil
}

func ReconcileInTx(tx *sqlx.Tx, userID int64, now time.Time) (*model.UserLoyaltyPoints, error) {
	totals, err := database.GetHistoryTotals(tx, userID)
	if err != nil {
		return nil, err
	}
	if totals.Rows == 0 {
		if _, err := database.DeleteUserLoyaltyPointsInTx(tx, userID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	agg, err := loadAggregateInTx(tx, userID)
	if err != nil {
		return nil, err
	}
	before := *agg

	agg.TotalPointsEarned = totals.Earned
	agg.TotalPointsRedeemed = totals.Redeemed
	agg.PendingPoints = totals.EarnedPending
	agg.AvailablePoints = totals.EarnedAvailable - totals.Redeemed + totals.Adjusted - totals.Expired
	if agg.AvailablePoints < 0 {
		agg.AvailablePoints = 0
	}
	if agg.LastEarnedAt, err = database.GetLatestHistoryTime(tx, userID, model.TransactionEarned); err != nil {
		return nil, err
	}
	if agg.LastRedeemedAt, err = database.GetLatestHistoryTime(tx, userID, model.TransactionRedeemed); err != nil {
		return nil, err
	}
	now = database.Timestamp(now)
	if agg.PointsExpiringSoon, err = database.SumPointsExpiringBetween(tx, userID, now, now.Add(ExpiringSoonWindow)); err != nil {
		return nil, err
	}

	if err := database.UpsertUserLoyaltyPointsInTx(tx, agg); err != nil {
		return nil, err
	}
	if before.AvailablePoints != agg.AvailablePoints || before.PendingPoints != agg.PendingPoints ||
		before.TotalPointsEarned != agg.TotalPointsEarned || before.TotalPointsRedeemed != agg.TotalPointsRedeemed {
		zap.L().Warn("loyalty aggregate drift corrected",
			zap.Int64("userId", userID),
			zap.Int64("availableBefore", before.AvailablePoints), zap.Int64("available", agg.AvailablePoints),
			zap.Int64("pendingBefore", before.PendingPoints), zap.Int64("pending", agg.PendingPoints))
	}
	return agg, nil
}

// ReconcileAll は集計行または履歴を持つ全ユーザーを再計算し、処理したユーザー数を返します。
func ReconcileAll(db *sqlx.DB) (int, error) {
	var count int
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		ids, err := database.ListLoyaltyUserIDs(tx)
		if err != nil {
			return err
		}
		now := time.Now()
		for _, id := range ids {
			if _, err := ReconcileInTx(tx, id, now); err != nil {
				return err
			}
		}
		count = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
