package loyalty

import (
	"fmt"
	"time"

	"shopadmin/database"
	"shopadmin/model"
	"shopadmin/settings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type AwardInput struct {
	UserID      int64           `json:"userId"`
	OrderID     int64           `json:"orderId"`
	OrderAmount decimal.Decimal `json:"orderAmount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	OrderStatus string          `json:"orderStatus"`
}

// PointsForOrder は付与ポイント数を計算します。付与しない場合は 0。
func PointsForOrder(l settings.Loyalty, orderAmount, subtotal decimal.Decimal) int64 {
	if !l.Enabled {
		return 0
	}
	base := subtotal
	if l.EarningBasis == settings.BasisTotal || base.IsZero() {
		base = orderAmount
	}
	if base.LessThan(l.MinimumOrder) {
		return 0
	}
	points := base.Mul(l.EarningRate).Floor().IntPart()
	if points <= 0 {
		return 0
	}
	return points
}

// AwardPoints は注文に対するポイントを付与します。
// 付与対象外 (無効・最低金額未満・0ポイント) の場合は (nil, nil)。
// 同じ注文に既に付与済みの場合は既存の履歴を返し、何も変更しません。
func AwardPoints(db *sqlx.DB, in AwardInput) (*model.LoyaltyPointsHistory, error) {
	var h *model.LoyaltyPointsHistory
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		var err error
		h, err = AwardPointsInTx(tx, in, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

func AwardPointsInTx(tx *sqlx.Tx, in AwardInput, now time.Time) (*model.LoyaltyPointsHistory, error) {
	l, err := settings.LoadLoyalty(tx)
	if err != nil {
		return nil, err
	}
	points := PointsForOrder(l, in.OrderAmount, in.Subtotal)
	if points == 0 {
		return nil, nil
	}

	if in.OrderID != 0 {
		existing, err := database.GetEarnedHistoryByOrder(tx, in.OrderID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			zap.L().Info("points already awarded for order",
				zap.Int64("userId", in.UserID), zap.Int64("orderId", in.OrderID), zap.Int64("historyId", existing.ID))
			return existing, nil
		}
	}

	now = database.Timestamp(now)
	agg, err := loadAggregateInTx(tx, in.UserID)
	if err != nil {
		return nil, err
	}

	status := model.PointsPending
	if in.OrderStatus == model.OrderCompleted {
		status = model.PointsAvailable
		agg.AvailablePoints += points
	} else {
		agg.PendingPoints += points
	}
	agg.TotalPointsEarned += points
	agg.LastEarnedAt = &now

	h := &model.LoyaltyPointsHistory{
		UserID:          in.UserID,
		OrderID:         orderRef(in.OrderID),
		TransactionType: model.TransactionEarned,
		Status:          status,
		Points:          points,
		PointsBalance:   agg.AvailablePoints,
		OrderAmount:     in.OrderAmount,
		CreatedAt:       now,
	}
	if l.ExpiryDays > 0 {
		expiresAt := now.AddDate(0, 0, l.ExpiryDays)
		h.ExpiresAt = &expiresAt
	}

	inserted, err := database.InsertHistoryInTx(tx, h)
	if err != nil {
		return nil, err
	}
	if !inserted {
		existing, err := database.GetEarnedHistoryByOrder(tx, in.OrderID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("earned history for order %d was not written", in.OrderID)
		}
		return existing, nil
	}

	if err := database.UpsertUserLoyaltyPointsInTx(tx, agg); err != nil {
		return nil, err
	}

	zap.L().Info("awarded loyalty points",
		zap.Int64("userId", in.UserID), zap.Int64("orderId", in.OrderID),
		zap.Int64("points", points), zap.String("status", status))
	return h, nil
}
