package loyalty

import (
	"fmt"
	"time"

	"shopadmin/database"
	"shopadmin/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ExpiringSoonWindow は pointsExpiringSoon の対象期間です。
const ExpiringSoonWindow = 30 * 24 * time.Hour

type ExpireResult struct {
	Rows   int   `json:"rows"`
	Users  int   `json:"users"`
	Points int64 `json:"points"`
}

// ExpirePoints は期限を迎えた利用可能な earned 行を失効させます。
// 各行について利用可能残高から min(points, 残高) を引き、expired 行を追加します。
// 保留中のポイントは失効しません。
func ExpirePoints(db *sqlx.DB, now time.Time) (*ExpireResult, error) {
	var res *ExpireResult
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		var err error
		res, err = ExpirePointsInTx(tx, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func ExpirePointsInTx(tx *sqlx.Tx, now time.Time) (*ExpireResult, error) {
	now = database.Timestamp(now)
	rows, err := database.GetExpirableHistory(tx, now)
	if err != nil {
		return nil, err
	}

	res := &ExpireResult{}
	aggs := map[int64]*model.UserLoyaltyPoints{}
	var order []int64
	for _, h := range rows {
		agg, ok := aggs[h.UserID]
		if !ok {
			if agg, err = loadAggregateInTx(tx, h.UserID); err != nil {
				return nil, err
			}
			aggs[h.UserID] = agg
			order = append(order, h.UserID)
		}

		if err := database.MarkHistoryExpiredInTx(tx, h.ID); err != nil {
			return nil, err
		}
		amount := h.Points
		if amount > agg.AvailablePoints {
			amount = agg.AvailablePoints
		}
		res.Rows++
		if amount == 0 {
			continue
		}
		agg.AvailablePoints -= amount
		res.Points += amount

		marker := &model.LoyaltyPointsHistory{
			UserID:          h.UserID,
			OrderID:         h.OrderID,
			TransactionType: model.TransactionExpired,
			Status:          model.PointsExpired,
			Points:          amount,
			PointsBalance:   agg.AvailablePoints,
			Description:     fmt.Sprintf("expired from history #%d", h.ID),
			IsExpired:       true,
			CreatedAt:       now,
		}
		if _, err := database.InsertHistoryInTx(tx, marker); err != nil {
			return nil, err
		}
	}

	for _, userID := range order {
		agg := aggs[userID]
		soon, err := database.SumPointsExpiringBetween(tx, userID, now, now.Add(ExpiringSoonWindow))
		if err != nil {
			return nil, err
		}
		agg.PointsExpiringSoon = soon
		if err := database.UpsertUserLoyaltyPointsInTx(tx, agg); err != nil {
			return nil, err
		}
	}
	res.Users = len(order)

	if res.Rows > 0 {
		zap.L().Info("expired loyalty points", zap.Int("rows", res.Rows), zap.Int("users", res.Users), zap.Int64("points", res.Points))
	}
	return res, nil
}
