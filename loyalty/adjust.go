package loyalty

import (
	"time"

	"shopadmin/database"
	"shopadmin/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// AdjustPoints は管理者による手動調整です。delta は符号付きで、利用可能ポイントに加減します。
// 減算は 0 で下限クリップされ、履歴には実際に適用した値を記録します。
// 注文には紐づかず、設定の有効/無効にも依存しません。
func AdjustPoints(db *sqlx.DB, userID, delta int64, reason string) (*model.LoyaltyPointsHistory, error) {
	var h *model.LoyaltyPointsHistory
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		var err error
		h, err = AdjustPointsInTx(tx, userID, delta, reason, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

func AdjustPointsInTx(tx *sqlx.Tx, userID, delta int64, reason string, now time.Time) (*model.LoyaltyPointsHistory, error) {
	if delta == 0 {
		return nil, ErrInvalidPoints
	}
	agg, err := loadAggregateInTx(tx, userID)
	if err != nil {
		return nil, err
	}
	applied := delta
	if delta < 0 && -delta > agg.AvailablePoints {
		applied = -agg.AvailablePoints
	}
	agg.AvailablePoints += applied

	h := &model.LoyaltyPointsHistory{
		UserID:          userID,
		TransactionType: model.TransactionAdjusted,
		Points:          applied,
		PointsBalance:   agg.AvailablePoints,
		Description:     reason,
		CreatedAt:       database.Timestamp(now),
	}
	if _, err := database.InsertHistoryInTx(tx, h); err != nil {
		return nil, err
	}
	if err := database.UpsertUserLoyaltyPointsInTx(tx, agg); err != nil {
		return nil, err
	}

	zap.L().Info("adjusted loyalty points", zap.Int64("userId", userID), zap.Int64("delta", delta), zap.Int64("applied", applied), zap.String("reason", reason))
	return h, nil
}
