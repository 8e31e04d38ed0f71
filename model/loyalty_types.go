package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionEarned   = "earned"
	TransactionRedeemed = "redeemed"
	TransactionAdjusted = "adjusted"
	TransactionExpired  = "expired"
)

const (
	PointsPending   = "pending"
	PointsAvailable = "available"
	PointsExpired   = "expired"
)

// Setting は settings テーブルの1行です。
// Type は boolean / number / string / json のいずれか。
type Setting struct {
	Key         string    `db:"key" json:"key"`
	Value       string    `db:"value" json:"value"`
	Type        string    `db:"type" json:"type"`
	Description string    `db:"description" json:"description"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// UserLoyaltyPoints は user_loyalty_points テーブル (履歴のユーザー別集計キャッシュ) です。
type UserLoyaltyPoints struct {
	UserID              int64      `db:"user_id" json:"userId"`
	TotalPointsEarned   int64      `db:"total_points_earned" json:"totalPointsEarned"`
	TotalPointsRedeemed int64      `db:"total_points_redeemed" json:"totalPointsRedeemed"`
	AvailablePoints     int64      `db:"available_points" json:"availablePoints"`
	PendingPoints       int64      `db:"pending_points" json:"pendingPoints"`
	PointsExpiringSoon  int64      `db:"points_expiring_soon" json:"pointsExpiringSoon"`
	LastEarnedAt        *time.Time `db:"last_earned_at" json:"lastEarnedAt"`
	LastRedeemedAt      *time.Time `db:"last_redeemed_at" json:"lastRedeemedAt"`
	CreatedAt           time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updatedAt"`
}

// LoyaltyPointsHistory はポイント台帳の1行です。
// Points は常に正の値で、方向は TransactionType で表します (adjusted のみ符号付き)。
type LoyaltyPointsHistory struct {
	ID              int64           `db:"id" json:"id"`
	UserID          int64           `db:"user_id" json:"userId"`
	OrderID         *int64          `db:"order_id" json:"orderId"`
	TransactionType string          `db:"transaction_type" json:"transactionType"`
	Status          string          `db:"status" json:"status"`
	Points          int64           `db:"points" json:"points"`
	PointsBalance   int64           `db:"points_balance" json:"pointsBalance"`
	OrderAmount     decimal.Decimal `db:"order_amount" json:"orderAmount"`
	DiscountAmount  decimal.Decimal `db:"discount_amount" json:"discountAmount"`
	Description     string          `db:"description" json:"description"`
	ExpiresAt       *time.Time      `db:"expires_at" json:"expiresAt"`
	IsExpired       bool            `db:"is_expired" json:"isExpired"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
}

// LoyaltySummary は管理画面のユーザー別ポイント表示用です。
type LoyaltySummary struct {
	UserLoyaltyPoints
	AvailableValue     decimal.Decimal        `json:"availableValue"`
	FormattedAvailable string                 `json:"formattedAvailable"`
	FormattedPending   string                 `json:"formattedPending"`
	FormattedValue     string                 `json:"formattedValue"`
	History            []LoyaltyPointsHistory `json:"history"`
}
