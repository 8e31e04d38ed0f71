// Package loader はスキーマの適用と settings テーブルの初期データ投入です。
package loader

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"shopadmin/database"
	"shopadmin/model"
	"shopadmin/settings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed schema.sql
var schemaSQL string

// SeedEntry は settings.yaml の1要素です。
type SeedEntry struct {
	Key         string `yaml:"key"`
	Value       string `yaml:"value"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
}

type seedFile struct {
	Settings []SeedEntry `yaml:"settings"`
}

// InitDatabase はスキーマを適用し、注文番号シーケンスを既存データに合わせます。
func InitDatabase(db *sqlx.DB) error {
	zap.L().Info("applying database schema")
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema.sql: %w", err)
	}

	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		return database.InitializeSequenceFromMaxOrderNumber(tx)
	})
	if err != nil {
		return fmt.Errorf("failed to initialize order sequence: %w", err)
	}
	zap.L().Info("database schema applied")
	return nil
}

// ParseSeed は settings.yaml の内容を解釈し、既知キーの値を検証します。
func ParseSeed(data []byte) ([]SeedEntry, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse settings seed: %w", err)
	}
	for i, e := range f.Settings {
		if e.Key == "" {
			return nil, fmt.Errorf("settings seed entry %d has no key", i+1)
		}
		if err := settings.Check(e.Key, e.Value); err != nil {
			return nil, err
		}
	}
	return f.Settings, nil
}

// SeedSettings はシードファイルと既定値を、未登録のキーにだけ書き込みます。
// path が空またはファイルが存在しない場合は既定値のみ投入します。戻り値は挿入件数。
func SeedSettings(db *sqlx.DB, path string) (int, error) {
	var entries []SeedEntry
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			zap.L().Warn("settings seed file not found, using defaults", zap.String("path", path))
		case err != nil:
			return 0, fmt.Errorf("could not read %s: %w", path, err)
		default:
			if entries, err = ParseSeed(data); err != nil {
				return 0, fmt.Errorf("%s: %w", path, err)
			}
		}
	}

	rows := make([]model.Setting, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, model.Setting{Key: e.Key, Value: e.Value, Type: e.Type, Description: e.Description})
	}
	// シードの値を優先し、その後で既定値を補う
	rows = append(rows, settings.Defaults()...)

	inserted := 0
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		for _, s := range rows {
			if s.Type == "" {
				s.Type = settings.TypeString
			}
			ok, err := database.InsertSettingIfAbsentInTx(tx, s)
			if err != nil {
				return err
			}
			if ok {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	zap.L().Info("settings seeded", zap.String("path", path), zap.Int("inserted", inserted))
	return inserted, nil
}
