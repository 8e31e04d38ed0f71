package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderPending        = "pending"
	OrderConfirmed      = "confirmed"
	OrderPreparing      = "preparing"
	OrderOutForDelivery = "out_for_delivery"
	OrderDelivered      = "delivered"
	OrderCompleted      = "completed"
	OrderCancelled      = "cancelled"
)

// Order は orders テーブルのレコードです。金額はすべて小数2桁の decimal。
type Order struct {
	ID             int64           `db:"id" json:"id"`
	OrderNumber    string          `db:"order_number" json:"orderNumber"`
	UserID         int64           `db:"user_id" json:"userId"`
	Status         string          `db:"status" json:"status"`
	Subtotal       decimal.Decimal `db:"subtotal" json:"subtotal"`
	CostTotal      decimal.Decimal `db:"cost_total" json:"costTotal"`
	CouponCode     string          `db:"coupon_code" json:"couponCode,omitempty"`
	DiscountAmount decimal.Decimal `db:"discount_amount" json:"discountAmount"`
	PointsRedeemed int64           `db:"points_redeemed" json:"pointsRedeemed"`
	PointsDiscount decimal.Decimal `db:"points_discount" json:"pointsDiscount"`
	TaxAmount      decimal.Decimal `db:"tax_amount" json:"taxAmount"`
	DeliveryFee    decimal.Decimal `db:"delivery_fee" json:"deliveryFee"`
	Total          decimal.Decimal `db:"total" json:"total"`
	DriverID       *int64          `db:"driver_id" json:"driverId"`
	DriverPayment  decimal.Decimal `db:"driver_payment" json:"driverPayment"`
	Profit         decimal.Decimal `db:"profit" json:"profit"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updatedAt"`

	Items []OrderItem `db:"-" json:"items,omitempty"`
}

type OrderItem struct {
	ID          int64           `db:"id" json:"id"`
	OrderID     int64           `db:"order_id" json:"orderId"`
	ProductName string          `db:"product_name" json:"productName"`
	Quantity    int64           `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unitPrice"`
	UnitCost    decimal.Decimal `db:"unit_cost" json:"unitCost"`
}

// Tax は taxes テーブルのレコードです。Rate はパーセント。
// IsCompound の税は、それまでに加算された税額を含めた額に課税されます。
type Tax struct {
	ID         int64           `db:"id" json:"id"`
	Name       string          `db:"name" json:"name"`
	Rate       decimal.Decimal `db:"rate" json:"rate"`
	IsCompound bool            `db:"is_compound" json:"isCompound"`
	Priority   int             `db:"priority" json:"priority"`
	IsActive   bool            `db:"is_active" json:"isActive"`
}

const (
	CouponPercent = "percent"
	CouponFixed   = "fixed"
)

type Coupon struct {
	ID             int64           `db:"id" json:"id"`
	Code           string          `db:"code" json:"code"`
	DiscountType   string          `db:"discount_type" json:"discountType"`
	DiscountValue  decimal.Decimal `db:"discount_value" json:"discountValue"`
	MinOrderAmount decimal.Decimal `db:"min_order_amount" json:"minOrderAmount"`
	UsageLimit     int64           `db:"usage_limit" json:"usageLimit"`
	UsedCount      int64           `db:"used_count" json:"usedCount"`
	ExpiresAt      *time.Time      `db:"expires_at" json:"expiresAt"`
	IsActive       bool            `db:"is_active" json:"isActive"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
}

type Driver struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone" json:"phone"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// OrderTotals は CalculateTotals の計算結果です (DBカラムなし)。
type OrderTotals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	CostTotal      decimal.Decimal `json:"costTotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	PointsDiscount decimal.Decimal `json:"pointsDiscount"`
	TaxableAmount  decimal.Decimal `json:"taxableAmount"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	DeliveryFee    decimal.Decimal `json:"deliveryFee"`
	Total          decimal.Decimal `json:"total"`
	DriverPayment  decimal.Decimal `json:"driverPayment"`
	Profit         decimal.Decimal `json:"profit"`
}
