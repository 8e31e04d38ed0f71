package database

import (
	"database/sql"
	"fmt"
	"shopadmin/model"

	"github.com/jmoiron/sqlx"
)

// GetSetting はキーに対応する設定を返します。存在しない場合は (nil, nil)。
func GetSetting(dbtx DBTX, key string) (*model.Setting, error) {
	var s model.Setting
	err := dbtx.Get(&s, `SELECT key, value, type, description, updated_at FROM settings WHERE key = ?`, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return &s, nil
}

func GetSettingsMap(dbtx DBTX) (map[string]string, error) {
	var rows []model.Setting
	if err := dbtx.Select(&rows, `SELECT key, value, type, description, updated_at FROM settings`); err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	m := make(map[string]string, len(rows))
	for _, s := range rows {
		m[s.Key] = s.Value
	}
	return m, nil
}

func GetAllSettings(dbtx DBTX) ([]model.Setting, error) {
	var rows []model.Setting
	if err := dbtx.Select(&rows, `SELECT key, value, type, description, updated_at FROM settings ORDER BY key`); err != nil {
		return nil, fmt.Errorf("failed to get all settings: %w", err)
	}
	return rows, nil
}

// UpsertSetting はキーが存在すれば更新、なければ挿入します。
func UpsertSetting(dbtx DBTX, s model.Setting) error {
	const q = `
		INSERT INTO settings (key, value, type, description, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			type = excluded.type,
			description = CASE WHEN excluded.description = '' THEN settings.description ELSE excluded.description END,
			updated_at = excluded.updated_at
	`
	if _, err := dbtx.Exec(q, s.Key, s.Value, s.Type, s.Description, Now()); err != nil {
		return fmt.Errorf("UpsertSetting (Key: %s) failed: %w", s.Key, err)
	}
	return nil
}

// InsertSettingIfAbsentInTx は既存の値を上書きせずに設定を登録します。挿入した場合 true。
func InsertSettingIfAbsentInTx(tx *sqlx.Tx, s model.Setting) (bool, error) {
	const q = `INSERT OR IGNORE INTO settings (key, value, type, description, updated_at) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.Exec(q, s.Key, s.Value, s.Type, s.Description, Now())
	if err != nil {
		return false, fmt.Errorf("InsertSettingIfAbsentInTx (Key: %s) failed: %w", s.Key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
