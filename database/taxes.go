package database

import (
	"fmt"
	"shopadmin/model"

	"github.com/jmoiron/sqlx"
)

func GetAllTaxes(dbtx DBTX) ([]model.Tax, error) {
	taxes := []model.Tax{}
	if err := dbtx.Select(&taxes, `SELECT id, name, rate, is_compound, priority, is_active FROM taxes ORDER BY priority, id`); err != nil {
		return nil, fmt.Errorf("failed to get all taxes: %w", err)
	}
	return taxes, nil
}

func GetActiveTaxes(dbtx DBTX) ([]model.Tax, error) {
	taxes := []model.Tax{}
	if err := dbtx.Select(&taxes, `SELECT id, name, rate, is_compound, priority, is_active FROM taxes
		WHERE is_active = 1 ORDER BY priority, id`); err != nil {
		return nil, fmt.Errorf("failed to get active taxes: %w", err)
	}
	return taxes, nil
}

// UpsertTaxInTx は税名をキーに挿入または更新します。
func UpsertTaxInTx(tx *sqlx.Tx, t model.Tax) error {
	const q = `
		INSERT INTO taxes (name, rate, is_compound, priority, is_active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			rate = excluded.rate,
			is_compound = excluded.is_compound,
			priority = excluded.priority,
			is_active = excluded.is_active
	`
	if _, err := tx.Exec(q, t.Name, t.Rate, t.IsCompound, t.Priority, t.IsActive); err != nil {
		return fmt.Errorf("UpsertTaxInTx (Name: %s) failed: %w", t.Name, err)
	}
	return nil
}
