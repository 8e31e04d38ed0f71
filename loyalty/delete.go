package loyalty

import (
	"shopadmin/database"
	"shopadmin/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// DeleteAllHistory はユーザーの全履歴と集計行を削除します。
// 履歴が0件でも集計行は削除します。どちらも存在しなければ ErrNoHistory。
func DeleteAllHistory(db *sqlx.DB, userID int64) (int64, error) {
	var deleted int64
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		var err error
		deleted, err = DeleteAllHistoryInTx(tx, userID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func DeleteAllHistoryInTx(tx *sqlx.Tx, userID int64) (int64, error) {
	deleted, err := database.DeleteHistoryByUserInTx(tx, userID)
	if err != nil {
		return 0, err
	}
	aggDeleted, err := database.DeleteUserLoyaltyPointsInTx(tx, userID)
	if err != nil {
		return 0, err
	}
	if deleted == 0 && aggDeleted == 0 {
		return 0, ErrNoHistory
	}
	zap.L().Info("deleted all loyalty history", zap.Int64("userId", userID), zap.Int64("rows", deleted))
	return deleted, nil
}

// historyDeltas は削除される行の集計への寄与です。
type historyDeltas struct {
	earned    int64
	redeemed  int64
	available int64
	pending   int64
}

func deltasFor(rows []model.LoyaltyPointsHistory) historyDeltas {
	var d historyDeltas
	for _, h := range rows {
		switch h.TransactionType {
		case model.TransactionEarned:
			if h.IsExpired {
				continue
			}
			d.earned += h.Points
			switch h.Status {
			case model.PointsAvailable:
				d.available += h.Points
			case model.PointsPending:
				d.pending += h.Points
			}
		case model.TransactionRedeemed:
			// 利用の取り消しは残高を戻す
			d.redeemed += abs(h.Points)
			d.available -= abs(h.Points)
		case model.TransactionAdjusted:
			d.available += h.Points
		}
	}
	return d
}

// DeleteSelectedHistory は指定IDの履歴を削除し、その寄与を集計行から差し引きます。
// 各値は個別に 0 で下限クリップされます。他ユーザーの行は無視されます。
func DeleteSelectedHistory(db *sqlx.DB, userID int64, historyIDs []int64) (int64, error) {
	var deleted int64
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		var err error
		deleted, err = DeleteSelectedHistoryInTx(tx, userID, historyIDs)
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func DeleteSelectedHistoryInTx(tx *sqlx.Tx, userID int64, historyIDs []int64) (int64, error) {
	if len(historyIDs) == 0 {
		return 0, ErrNoHistoryIDs
	}
	rows, err := database.GetHistoryByIDs(tx, userID, historyIDs)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, ErrNoHistory
	}

	ids := make([]int64, 0, len(rows))
	for _, h := range rows {
		ids = append(ids, h.ID)
	}
	deleted, err := database.DeleteHistoryByIDsInTx(tx, userID, ids)
	if err != nil {
		return 0, err
	}

	d := deltasFor(rows)
	agg, err := loadAggregateInTx(tx, userID)
	if err != nil {
		return 0, err
	}
	agg.TotalPointsEarned = subtractClamped(agg.TotalPointsEarned, d.earned)
	agg.TotalPointsRedeemed = subtractClamped(agg.TotalPointsRedeemed, d.redeemed)
	agg.AvailablePoints = subtractClamped(agg.AvailablePoints, d.available)
	agg.PendingPoints = subtractClamped(agg.PendingPoints, d.pending)
	if err := database.UpsertUserLoyaltyPointsInTx(tx, agg); err != nil {
		return 0, err
	}

	zap.L().Info("deleted selected loyalty history", zap.Int64("userId", userID), zap.Int64("rows", deleted))
	return deleted, nil
}
