package database

import (
	"database/sql"
	"fmt"
	"shopadmin/model"

	"github.com/jmoiron/sqlx"
)

const couponColumns = `
	id, code, discount_type, discount_value, min_order_amount, usage_limit, used_count,
	expires_at, is_active, created_at
`

func GetAllCoupons(dbtx DBTX) ([]model.Coupon, error) {
	coupons := []model.Coupon{}
	if err := dbtx.Select(&coupons, `SELECT `+couponColumns+` FROM coupons ORDER BY code`); err != nil {
		return nil, fmt.Errorf("failed to get all coupons: %w", err)
	}
	return coupons, nil
}

// GetCouponByCode はクーポンを返します。存在しなければ (nil, nil)。
func GetCouponByCode(dbtx DBTX, code string) (*model.Coupon, error) {
	var c model.Coupon
	err := dbtx.Get(&c, `SELECT `+couponColumns+` FROM coupons WHERE code = ?`, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get coupon %s: %w", code, err)
	}
	return &c, nil
}

func CheckCouponCodeExists(tx *sqlx.Tx, code string, excludeID int64) (bool, error) {
	var exists int
	err := tx.QueryRow(`SELECT 1 FROM coupons WHERE code = ? AND id <> ? LIMIT 1`, code, excludeID).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("CheckCouponCodeExists failed: %w", err)
	}
	return true, nil
}

func CreateCouponInTx(tx *sqlx.Tx, c *model.Coupon) error {
	c.CreatedAt = Now()
	const q = `
		INSERT INTO coupons (code, discount_type, discount_value, min_order_amount, usage_limit, used_count, expires_at, is_active, created_at)
		VALUES (:code, :discount_type, :discount_value, :min_order_amount, :usage_limit, 0, :expires_at, :is_active, :created_at)`
	res, err := tx.NamedExec(q, c)
	if err != nil {
		return fmt.Errorf("CreateCouponInTx (Code: %s) failed: %w", c.Code, err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

// UpdateCouponInTx は更新した行数を返します (0 なら該当なし)。
func UpdateCouponInTx(tx *sqlx.Tx, c *model.Coupon) (int64, error) {
	const q = `
		UPDATE coupons SET
			code = :code, discount_type = :discount_type, discount_value = :discount_value,
			min_order_amount = :min_order_amount, usage_limit = :usage_limit,
			expires_at = :expires_at, is_active = :is_active
		WHERE id = :id`
	res, err := tx.NamedExec(q, c)
	if err != nil {
		return 0, fmt.Errorf("UpdateCouponInTx (ID: %d) failed: %w", c.ID, err)
	}
	return res.RowsAffected()
}

// IncrementCouponUsageInTx は利用回数を1つ進めます。上限に達している場合は false。
func IncrementCouponUsageInTx(tx *sqlx.Tx, id int64) (bool, error) {
	res, err := tx.Exec(`UPDATE coupons SET used_count = used_count + 1
		WHERE id = ? AND (usage_limit = 0 OR used_count < usage_limit)`, id)
	if err != nil {
		return false, fmt.Errorf("failed to increment coupon usage for id %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
