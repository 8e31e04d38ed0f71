// Package loyalty はポイント台帳 (履歴と集計キャッシュ) を扱います。
//
// 変更系の操作はすべて1トランザクション内で集計行の読み取り・更新と履歴の追加を行います。
// 各操作には注文処理などと同じトランザクションで使うための ...InTx 版があります。
package loyalty

import (
	"shopadmin/database"
	"shopadmin/model"

	"github.com/jmoiron/sqlx"
)

// loadAggregateInTx は集計行を返します。行がなければゼロ値の新しい行。
func loadAggregateInTx(tx *sqlx.Tx, userID int64) (*model.UserLoyaltyPoints, error) {
	agg, err := database.GetUserLoyaltyPoints(tx, userID)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		agg = &model.UserLoyaltyPoints{UserID: userID}
	}
	return agg, nil
}

// subtractClamped は v - d を 0 で下限クリップします (d が負なら加算)。
func subtractClamped(v, d int64) int64 {
	if v-d < 0 {
		return 0
	}
	return v - d
}

func orderRef(orderID int64) *int64 {
	if orderID == 0 {
		return nil
	}
	id := orderID
	return &id
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
