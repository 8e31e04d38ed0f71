package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const (
	OrderSequenceName  = "ORD"
	OrderNumberPrefix  = "ORD"
	OrderNumberPadding = 8
)

func NextSequenceInTx(tx *sqlx.Tx, name, prefix string, padding int) (string, error) {
	var lastNo int
	err := tx.Get(&lastNo, "SELECT last_no FROM code_sequences WHERE name = ?", name)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("sequence '%s' not found", name)
		}
		return "", fmt.Errorf("failed to get sequence '%s': %w", name, err)
	}

	newNo := lastNo + 1
	_, err = tx.Exec(`UPDATE code_sequences SET last_no = ? WHERE name = ?`, newNo, name)
	if err != nil {
		return "", fmt.Errorf("failed to update sequence '%s': %w", name, err)
	}

	format := fmt.Sprintf("%s%%0%dd", prefix, padding)
	return fmt.Sprintf(format, newNo), nil
}

// InitializeSequenceFromMaxOrderNumber は既存注文の最大番号に合わせて採番を補正します。
// DBを差し替えた直後などにシーケンスが既存番号より小さくなるのを防ぐためのもの。
func InitializeSequenceFromMaxOrderNumber(tx *sqlx.Tx) error {
	var maxCode sql.NullString
	err := tx.Get(&maxCode, "SELECT order_number FROM orders WHERE order_number LIKE ? ORDER BY order_number DESC LIMIT 1",
		OrderNumberPrefix+"%")
	if err != nil && err != sql.ErrNoRows {
		return err
	}

	maxNum := 0
	if maxCode.Valid && strings.HasPrefix(maxCode.String, OrderNumberPrefix) {
		maxNum, _ = strconv.Atoi(strings.TrimPrefix(maxCode.String, OrderNumberPrefix))
	}

	var lastNo int
	if err := tx.Get(&lastNo, "SELECT last_no FROM code_sequences WHERE name = ?", OrderSequenceName); err != nil {
		return fmt.Errorf("failed to get sequence '%s': %w", OrderSequenceName, err)
	}
	if lastNo >= maxNum {
		return nil
	}

	zap.L().Info("adjusting order sequence", zap.Int("from", lastNo), zap.Int("to", maxNum))
	_, err = tx.Exec(`UPDATE code_sequences SET last_no = ? WHERE name = ?`, maxNum, OrderSequenceName)
	return err
}
