// Package order は注文の作成・ステータス更新と、それに連動するポイント処理です。
package order

import (
	"fmt"
	"strings"
	"time"

	"shopadmin/coupon"
	"shopadmin/database"
	"shopadmin/loyalty"
	"shopadmin/model"
	"shopadmin/settings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var statuses = map[string]bool{
	model.OrderPending:        true,
	model.OrderConfirmed:      true,
	model.OrderPreparing:      true,
	model.OrderOutForDelivery: true,
	model.OrderDelivered:      true,
	model.OrderCompleted:      true,
	model.OrderCancelled:      true,
}

// IsTerminal は以降ステータスを変更できない状態かを返します。
func IsTerminal(status string) bool {
	return status == model.OrderCompleted || status == model.OrderCancelled
}

func ValidStatus(status string) bool {
	return statuses[status]
}

type CreateOrderInput struct {
	UserID         int64             `json:"userId"`
	Status         string            `json:"status"`
	Items          []model.OrderItem `json:"items"`
	CouponCode     string            `json:"couponCode"`
	PointsToRedeem int64             `json:"pointsToRedeem"`
	DeliveryFee    decimal.Decimal   `json:"deliveryFee"`
	DriverID       int64             `json:"driverId"`
}

type CreateOrderResult struct {
	Order         *model.Order                `json:"order"`
	PointsAwarded *model.LoyaltyPointsHistory `json:"pointsAwarded"`
	Redemption    *loyalty.RedeemResult       `json:"redemption,omitempty"`
}

func validateInput(in *CreateOrderInput) error {
	if in.UserID <= 0 {
		return fmt.Errorf("%w: userId is required", ErrInvalidOrder)
	}
	if in.Status == "" {
		in.Status = model.OrderPending
	}
	if !ValidStatus(in.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}
	if in.Status == model.OrderCancelled {
		return fmt.Errorf("%w: an order cannot be created as cancelled", ErrInvalidOrder)
	}
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrInvalidOrder)
	}
	for i, item := range in.Items {
		switch {
		case strings.TrimSpace(item.ProductName) == "":
			return fmt.Errorf("%w: item %d has no product name", ErrInvalidOrder, i+1)
		case item.Quantity <= 0:
			return fmt.Errorf("%w: item %d quantity must be positive", ErrInvalidOrder, i+1)
		case item.UnitPrice.IsNegative() || item.UnitCost.IsNegative():
			return fmt.Errorf("%w: item %d price must not be negative", ErrInvalidOrder, i+1)
		}
	}
	if in.DeliveryFee.IsNegative() {
		return fmt.Errorf("%w: delivery fee must not be negative", ErrInvalidOrder)
	}
	if in.PointsToRedeem < 0 {
		return fmt.Errorf("%w: pointsToRedeem must not be negative", ErrInvalidOrder)
	}
	return nil
}

// CreateOrder は注文登録・クーポン消費・ポイント利用・ポイント付与を1トランザクションで行います。
func CreateOrder(db *sqlx.DB, in CreateOrderInput) (*CreateOrderResult, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	var res *CreateOrderResult
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		var err error
		res, err = CreateOrderInTx(tx, in, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func CreateOrderInTx(tx *sqlx.Tx, in CreateOrderInput, now time.Time) (*CreateOrderResult, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	taxes, err := database.GetActiveTaxes(tx)
	if err != nil {
		return nil, err
	}
	pricing := PricingInput{Items: in.Items, Taxes: taxes, DeliveryFee: in.DeliveryFee}

	var c *model.Coupon
	if code := strings.ToUpper(strings.TrimSpace(in.CouponCode)); code != "" {
		if c, err = database.GetCouponByCode(tx, code); err != nil {
			return nil, err
		}
		if c == nil {
			return nil, fmt.Errorf("%w: %s", coupon.ErrCouponNotFound, code)
		}
		if err := coupon.CheckUsable(c, CalculateTotals(pricing).Subtotal, now); err != nil {
			return nil, err
		}
		ok, err := database.IncrementCouponUsageInTx(tx, c.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s has reached its usage limit", coupon.ErrCouponInvalid, c.Code)
		}
		pricing.Coupon = c
	}

	if in.DriverID != 0 {
		d, err := database.GetDriverByID(tx, in.DriverID)
		if err != nil {
			return nil, err
		}
		if d == nil || !d.IsActive {
			return nil, fmt.Errorf("%w: id %d", ErrDriverUnavailable, in.DriverID)
		}
		pricing.HasDriver = true
		if pricing.DriverSharePercent, err = settings.DriverSharePercent(tx); err != nil {
			return nil, err
		}
	}

	// ポイント値引は税計算前の金額 (小計 - クーポン値引) に対して上限を判定する
	var redeemBase decimal.Decimal
	if in.PointsToRedeem > 0 {
		l, err := settings.LoadLoyalty(tx)
		if err != nil {
			return nil, err
		}
		prelim := CalculateTotals(pricing)
		redeemBase = prelim.Subtotal.Sub(prelim.DiscountAmount)
		pricing.PointsDiscount = loyalty.RedemptionDiscount(l, in.PointsToRedeem)
	}

	totals := CalculateTotals(pricing)
	orderNumber, err := database.NextSequenceInTx(tx, database.OrderSequenceName, database.OrderNumberPrefix, database.OrderNumberPadding)
	if err != nil {
		return nil, err
	}

	o := &model.Order{
		OrderNumber:    orderNumber,
		UserID:         in.UserID,
		Status:         in.Status,
		Subtotal:       totals.Subtotal,
		CostTotal:      totals.CostTotal,
		DiscountAmount: totals.DiscountAmount,
		PointsRedeemed: in.PointsToRedeem,
		PointsDiscount: totals.PointsDiscount,
		TaxAmount:      totals.TaxAmount,
		DeliveryFee:    totals.DeliveryFee,
		Total:          totals.Total,
		DriverPayment:  totals.DriverPayment,
		Profit:         totals.Profit,
		Items:          in.Items,
	}
	if c != nil {
		o.CouponCode = c.Code
	}
	if in.DriverID != 0 {
		driverID := in.DriverID
		o.DriverID = &driverID
	}
	if err := database.InsertOrderInTx(tx, o); err != nil {
		return nil, err
	}

	res := &CreateOrderResult{Order: o}
	if in.PointsToRedeem > 0 {
		res.Redemption, err = loyalty.RedeemPointsInTx(tx, loyalty.RedeemInput{
			UserID:      in.UserID,
			OrderID:     o.ID,
			Points:      in.PointsToRedeem,
			OrderAmount: redeemBase,
		}, now)
		if err != nil {
			return nil, err
		}
	}

	res.PointsAwarded, err = loyalty.AwardPointsInTx(tx, loyalty.AwardInput{
		UserID:      in.UserID,
		OrderID:     o.ID,
		OrderAmount: o.Total,
		Subtotal:    o.Subtotal,
		OrderStatus: o.Status,
	}, now)
	if err != nil {
		return nil, err
	}

	zap.L().Info("order created",
		zap.Int64("orderId", o.ID), zap.String("orderNumber", o.OrderNumber),
		zap.Int64("userId", o.UserID), zap.String("total", o.Total.String()))
	return res, nil
}

type StatusChange struct {
	Order           *model.Order `json:"order"`
	PreviousStatus  string       `json:"previousStatus"`
	PointsActivated int64        `json:"pointsActivated"`
}

// UpdateOrderStatus はステータスを変更し、completed への遷移時に保留ポイントを有効化します。
func UpdateOrderStatus(db *sqlx.DB, orderID int64, newStatus string) (*StatusChange, error) {
	var res *StatusChange
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		var err error
		res, err = UpdateOrderStatusInTx(tx, orderID, newStatus, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func UpdateOrderStatusInTx(tx *sqlx.Tx, orderID int64, newStatus string, now time.Time) (*StatusChange, error) {
	if !ValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}
	o, err := database.GetOrderByID(tx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("%w: id %d", ErrOrderNotFound, orderID)
	}

	res := &StatusChange{Order: o, PreviousStatus: o.Status}
	if o.Status == newStatus {
		return res, nil
	}
	if IsTerminal(o.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, newStatus)
	}

	if err := database.UpdateOrderStatusInTx(tx, orderID, newStatus); err != nil {
		return nil, err
	}
	o.Status = newStatus

	res.PointsActivated, err = loyalty.ActivatePendingPointsInTx(tx, o.UserID, o.ID, res.PreviousStatus, newStatus, now)
	if err != nil {
		return nil, err
	}

	zap.L().Info("order status changed",
		zap.Int64("orderId", o.ID), zap.String("from", res.PreviousStatus), zap.String("to", newStatus),
		zap.Int64("pointsActivated", res.PointsActivated))
	return res, nil
}

func GetOrder(dbtx database.DBTX, orderID int64) (*model.Order, error) {
	o, err := database.GetOrderByID(dbtx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("%w: id %d", ErrOrderNotFound, orderID)
	}
	return o, nil
}

func ListOrders(dbtx database.DBTX, status string, limit int) ([]model.Order, error) {
	if status != "" && !ValidStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return database.ListOrders(dbtx, status, limit)
}
