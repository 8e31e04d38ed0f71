// Package coupon はクーポンの検証・値引計算と管理APIです。
package coupon

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"shopadmin/database"
	"shopadmin/model"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var (
	ErrCouponInvalid   = errors.New("coupon is not valid")
	ErrCouponNotFound  = errors.New("coupon not found")
	ErrDuplicateCoupon = errors.New("coupon code already exists")
)

var hundred = decimal.NewFromInt(100)

// Discount は小計に対する値引額です。小計を超えることはありません。
func Discount(c *model.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	var d decimal.Decimal
	switch c.DiscountType {
	case model.CouponPercent:
		d = subtotal.Mul(c.DiscountValue).Div(hundred).Round(2)
	case model.CouponFixed:
		d = c.DiscountValue.Round(2)
	}
	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// CheckUsable は注文に使えるクーポンかを判定します。
func CheckUsable(c *model.Coupon, subtotal decimal.Decimal, now time.Time) error {
	switch {
	case !c.IsActive:
		return fmt.Errorf("%w: %s is inactive", ErrCouponInvalid, c.Code)
	case c.ExpiresAt != nil && !now.Before(*c.ExpiresAt):
		return fmt.Errorf("%w: %s has expired", ErrCouponInvalid, c.Code)
	case subtotal.LessThan(c.MinOrderAmount):
		return fmt.Errorf("%w: %s requires a minimum order of %s", ErrCouponInvalid, c.Code, c.MinOrderAmount.StringFixed(2))
	case c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit:
		return fmt.Errorf("%w: %s has reached its usage limit", ErrCouponInvalid, c.Code)
	}
	return nil
}

// Validate は登録・更新時の入力検証です。
func Validate(c *model.Coupon) error {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	switch {
	case c.Code == "":
		return fmt.Errorf("%w: code is required", ErrCouponInvalid)
	case c.DiscountType != model.CouponPercent && c.DiscountType != model.CouponFixed:
		return fmt.Errorf("%w: discount type must be %q or %q", ErrCouponInvalid, model.CouponPercent, model.CouponFixed)
	case !c.DiscountValue.IsPositive():
		return fmt.Errorf("%w: discount value must be positive", ErrCouponInvalid)
	case c.DiscountType == model.CouponPercent && c.DiscountValue.GreaterThan(hundred):
		return fmt.Errorf("%w: percent discount must not exceed 100", ErrCouponInvalid)
	case c.MinOrderAmount.IsNegative():
		return fmt.Errorf("%w: minimum order must not be negative", ErrCouponInvalid)
	case c.UsageLimit < 0:
		return fmt.Errorf("%w: usage limit must not be negative", ErrCouponInvalid)
	}
	return nil
}

// Create はコード重複チェックと登録を1トランザクションで行います。
func Create(db *sqlx.DB, c *model.Coupon) error {
	if err := Validate(c); err != nil {
		return err
	}
	return database.WithTx(db, func(tx *sqlx.Tx) error {
		exists, err := database.CheckCouponCodeExists(tx, c.Code, 0)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrDuplicateCoupon, c.Code)
		}
		return database.CreateCouponInTx(tx, c)
	})
}

func Update(db *sqlx.DB, c *model.Coupon) error {
	if c.ID <= 0 {
		return fmt.Errorf("%w: id is required", ErrCouponInvalid)
	}
	if err := Validate(c); err != nil {
		return err
	}
	return database.WithTx(db, func(tx *sqlx.Tx) error {
		exists, err := database.CheckCouponCodeExists(tx, c.Code, c.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrDuplicateCoupon, c.Code)
		}
		n, err := database.UpdateCouponInTx(tx, c)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: id %d", ErrCouponNotFound, c.ID)
		}
		return nil
	})
}
