package database

import (
	"database/sql"
	"fmt"
	"shopadmin/model"
)

func GetAllDrivers(dbtx DBTX) ([]model.Driver, error) {
	drivers := []model.Driver{}
	if err := dbtx.Select(&drivers, `SELECT id, name, phone, is_active, created_at FROM drivers ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to get all drivers: %w", err)
	}
	return drivers, nil
}

// GetDriverByID はドライバーを返します。存在しなければ (nil, nil)。
func GetDriverByID(dbtx DBTX, id int64) (*model.Driver, error) {
	var d model.Driver
	err := dbtx.Get(&d, `SELECT id, name, phone, is_active, created_at FROM drivers WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get driver %d: %w", id, err)
	}
	return &d, nil
}

func CreateDriver(dbtx DBTX, d *model.Driver) error {
	d.CreatedAt = Now()
	res, err := dbtx.Exec(`INSERT INTO drivers (name, phone, is_active, created_at) VALUES (?, ?, ?, ?)`,
		d.Name, d.Phone, d.IsActive, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("CreateDriver failed: %w", err)
	}
	d.ID, err = res.LastInsertId()
	return err
}
