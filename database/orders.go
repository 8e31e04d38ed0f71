package database

import (
	"database/sql"
	"fmt"
	"shopadmin/model"

	"github.com/jmoiron/sqlx"
)

const orderColumns = `
	id, order_number, user_id, status, subtotal, cost_total, coupon_code, discount_amount,
	points_redeemed, points_discount, tax_amount, delivery_fee, total, driver_id, driver_payment, profit,
	created_at, updated_at
`

func InsertOrderInTx(tx *sqlx.Tx, o *model.Order) error {
	now := Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	const q = `
		INSERT INTO orders (
			order_number, user_id, status, subtotal, cost_total, coupon_code, discount_amount,
			points_redeemed, points_discount, tax_amount, delivery_fee, total, driver_id, driver_payment, profit,
			created_at, updated_at
		) VALUES (
			:order_number, :user_id, :status, :subtotal, :cost_total, :coupon_code, :discount_amount,
			:points_redeemed, :points_discount, :tax_amount, :delivery_fee, :total, :driver_id, :driver_payment, :profit,
			:created_at, :updated_at
		)`
	res, err := tx.NamedExec(q, o)
	if err != nil {
		return fmt.Errorf("InsertOrderInTx (OrderNumber: %s) failed: %w", o.OrderNumber, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get order id: %w", err)
	}
	o.ID = id

	const itemQ = `
		INSERT INTO order_items (order_id, product_name, quantity, unit_price, unit_cost)
		VALUES (?, ?, ?, ?, ?)`
	stmt, err := tx.Prepare(itemQ)
	if err != nil {
		return fmt.Errorf("failed to prepare order item insert statement: %w", err)
	}
	defer stmt.Close()

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = id
		res, err := stmt.Exec(id, item.ProductName, item.Quantity, item.UnitPrice, item.UnitCost)
		if err != nil {
			return fmt.Errorf("failed to insert order item %s: %w", item.ProductName, err)
		}
		if item.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get order item id: %w", err)
		}
	}
	return nil
}

// GetOrderByID は注文と明細を返します。存在しなければ (nil, nil)。
func GetOrderByID(dbtx DBTX, id int64) (*model.Order, error) {
	var o model.Order
	err := dbtx.Get(&o, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}
	if err := dbtx.Select(&o.Items, `SELECT id, order_id, product_name, quantity, unit_price, unit_cost
		FROM order_items WHERE order_id = ? ORDER BY id`, id); err != nil {
		return nil, fmt.Errorf("failed to get items for order %d: %w", id, err)
	}
	return &o, nil
}

// ListOrders は新しい順に注文を返します (明細なし)。status が空なら全ステータス。
func ListOrders(dbtx DBTX, status string, limit int) ([]model.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders`
	args := []interface{}{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	orders := []model.Order{}
	if err := dbtx.Select(&orders, q, args...); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func UpdateOrderStatusInTx(tx *sqlx.Tx, id int64, status string) error {
	res, err := tx.Exec(`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`, status, Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update status for order %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for order %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("no order found to update for id %d", id)
	}
	return nil
}
