// Package dbtest はテスト用の一時 SQLite データベースを用意します。
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"

	"shopadmin/database"
	"shopadmin/loader"
	"shopadmin/settings"

	"github.com/jmoiron/sqlx"
)

// OpenFile は path にスキーマ適用済みのデータベースを開きます。
func OpenFile(path string) (*sqlx.DB, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}
	if err := loader.InitDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Open はテストごとの一時ディレクトリにデータベースを作成します。
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := OpenFile(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// SetSettings はキー/値をそのまま書き込みます。
func SetSettings(db *sqlx.DB, values map[string]string) error {
	for key, value := range values {
		if err := settings.SetSetting(db, key, value, "", ""); err != nil {
			return fmt.Errorf("set %s=%s: %w", key, value, err)
		}
	}
	return nil
}

// EnableLoyalty はポイントを有効にし、残りのキーを values で上書きします。
func EnableLoyalty(t testing.TB, db *sqlx.DB, values map[string]string) {
	t.Helper()
	merged := map[string]string{settings.KeyLoyaltyEnabled: "true"}
	for k, v := range values {
		merged[k] = v
	}
	if err := SetSettings(db, merged); err != nil {
		t.Fatalf("failed to configure loyalty settings: %v", err)
	}
}
