package loyalty

import (
	"time"

	"shopadmin/database"
	"shopadmin/model"
	"shopadmin/settings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ActivatePendingPoints は注文が completed に遷移したとき、その注文の保留ポイントを利用可能にします。
// 有効化したポイント数を返します。completed 以外への遷移、completed からの遷移は何もしません。
func ActivatePendingPoints(db *sqlx.DB, userID, orderID int64, previousStatus, newStatus string) (int64, error) {
	var activated int64
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		var err error
		activated, err = ActivatePendingPointsInTx(tx, userID, orderID, previousStatus, newStatus, time.Now())
		return err
	})
	if err != nil {
		return 0, err
	}
	return activated, nil
}

func ActivatePendingPointsInTx(tx *sqlx.Tx, userID, orderID int64, previousStatus, newStatus string, now time.Time) (int64, error) {
	if newStatus != model.OrderCompleted || previousStatus == model.OrderCompleted {
		return 0, nil
	}
	l, err := settings.LoadLoyalty(tx)
	if err != nil {
		return 0, err
	}
	if !l.Enabled {
		return 0, nil
	}

	pending, err := database.GetPendingEarnedHistory(tx, userID, orderID)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	var points int64
	for _, h := range pending {
		points += h.Points
	}

	agg, err := loadAggregateInTx(tx, userID)
	if err != nil {
		return 0, err
	}
	agg.AvailablePoints += points
	agg.PendingPoints = subtractClamped(agg.PendingPoints, points)

	for _, h := range pending {
		if err := database.UpdateHistoryStatusInTx(tx, h.ID, model.PointsAvailable, agg.AvailablePoints); err != nil {
			return 0, err
		}
	}
	if err := database.UpsertUserLoyaltyPointsInTx(tx, agg); err != nil {
		return 0, err
	}

	zap.L().Info("activated pending loyalty points",
		zap.Int64("userId", userID), zap.Int64("orderId", orderID), zap.Int64("points", points))
	return points, nil
}
