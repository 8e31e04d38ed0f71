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

type RedeemInput struct {
	UserID      int64           `json:"userId"`
	OrderID     int64           `json:"orderId"`
	Points      int64           `json:"points"`
	OrderAmount decimal.Decimal `json:"orderAmount"`
}

type RedeemResult struct {
	PointsRedeemed int64                       `json:"pointsRedeemed"`
	DiscountAmount decimal.Decimal             `json:"discountAmount"`
	History        *model.LoyaltyPointsHistory `json:"history"`
}

// RedemptionDiscount はポイント利用による値引額 (小数2桁) です。
func RedemptionDiscount(l settings.Loyalty, points int64) decimal.Decimal {
	return decimal.NewFromInt(points).Mul(l.RedemptionValue).Round(2)
}

// MaxRedemptionDiscount は注文金額に対して利用できる値引額の上限です。
func MaxRedemptionDiscount(l settings.Loyalty, orderAmount decimal.Decimal) decimal.Decimal {
	return orderAmount.Mul(l.MaxRedemptionPercent).Div(decimal.NewFromInt(100)).Round(2)
}

func RedeemPoints(db *sqlx.DB, in RedeemInput) (*RedeemResult, error) {
	var res *RedeemResult
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		var err error
		res, err = RedeemPointsInTx(tx, in, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func RedeemPointsInTx(tx *sqlx.Tx, in RedeemInput, now time.Time) (*RedeemResult, error) {
	if in.Points <= 0 {
		return nil, ErrInvalidPoints
	}
	l, err := settings.LoadLoyalty(tx)
	if err != nil {
		return nil, err
	}
	if !l.Enabled {
		return nil, ErrLoyaltyDisabled
	}

	agg, err := loadAggregateInTx(tx, in.UserID)
	if err != nil {
		return nil, err
	}
	if in.Points > agg.AvailablePoints {
		return nil, fmt.Errorf("%w: requested %d, available %d", ErrInsufficientPoints, in.Points, agg.AvailablePoints)
	}
	discount := RedemptionDiscount(l, in.Points)
	if limit := MaxRedemptionDiscount(l, in.OrderAmount); discount.GreaterThan(limit) {
		return nil, fmt.Errorf("%w: discount %s, limit %s", ErrRedemptionLimit, discount, limit)
	}

	now = database.Timestamp(now)
	agg.AvailablePoints -= in.Points
	agg.TotalPointsRedeemed += in.Points
	agg.LastRedeemedAt = &now

	h := &model.LoyaltyPointsHistory{
		UserID:          in.UserID,
		OrderID:         orderRef(in.OrderID),
		TransactionType: model.TransactionRedeemed,
		Points:          in.Points,
		PointsBalance:   agg.AvailablePoints,
		OrderAmount:     in.OrderAmount,
		DiscountAmount:  discount,
		CreatedAt:       now,
	}
	if _, err := database.InsertHistoryInTx(tx, h); err != nil {
		return nil, err
	}
	if err := database.UpsertUserLoyaltyPointsInTx(tx, agg); err != nil {
		return nil, err
	}

	zap.L().Info("redeemed loyalty points",
		zap.Int64("userId", in.UserID), zap.Int64("orderId", in.OrderID),
		zap.Int64("points", in.Points), zap.String("discount", discount.String()))
	return &RedeemResult{PointsRedeemed: in.Points, DiscountAmount: discount, History: h}, nil
}
