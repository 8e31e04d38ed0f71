package loyalty_test

import (
	"sync"
	"testing"
	"time"

	"shopadmin/database"
	"shopadmin/dbtest"
	"shopadmin/loyalty"
	"shopadmin/model"
	"shopadmin/settings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func award(t *testing.T, db *sqlx.DB, userID, orderID int64, subtotal string, status string) *model.LoyaltyPointsHistory {
	t.Helper()
	amount := decimal.RequireFromString(subtotal)
	h, err := loyalty.AwardPoints(db, loyalty.AwardInput{
		UserID:      userID,
		OrderID:     orderID,
		OrderAmount: amount,
		Subtotal:    amount,
		OrderStatus: status,
	})
	require.NoError(t, err)
	return h
}

func aggregate(t *testing.T, db *sqlx.DB, userID int64) model.UserLoyaltyPoints {
	t.Helper()
	agg, err := database.GetUserLoyaltyPoints(db, userID)
	require.NoError(t, err)
	if agg == nil {
		return model.UserLoyaltyPoints{UserID: userID}
	}
	return *agg
}

func history(t *testing.T, db *sqlx.DB, userID int64) []model.LoyaltyPointsHistory {
	t.Helper()
	rows, err := database.GetHistoryByUser(db, userID, 0)
	require.NoError(t, err)
	return rows
}

func TestPointsForOrder(t *testing.T) {
	base := settings.Loyalty{
		Enabled:              true,
		EarningRate:          decimal.NewFromInt(1),
		EarningBasis:         settings.BasisSubtotal,
		MinimumOrder:         decimal.Zero,
		MaxRedemptionPercent: decimal.NewFromInt(50),
	}

	tests := []struct {
		name     string
		mutate   func(l *settings.Loyalty)
		amount   string
		subtotal string
		want     int64
	}{
		{name: "floor truncation", amount: "25", subtotal: "19.9", want: 19},
		{name: "total basis", mutate: func(l *settings.Loyalty) { l.EarningBasis = settings.BasisTotal }, amount: "25.5", subtotal: "19.9", want: 25},
		{name: "zero subtotal falls back to amount", amount: "12", subtotal: "0", want: 12},
		{name: "below minimum", mutate: func(l *settings.Loyalty) { l.MinimumOrder = decimal.NewFromInt(20) }, amount: "19.99", subtotal: "19.99", want: 0},
		{name: "at minimum", mutate: func(l *settings.Loyalty) { l.MinimumOrder = decimal.NewFromInt(20) }, amount: "20", subtotal: "20", want: 20},
		{name: "fractional rate", mutate: func(l *settings.Loyalty) { l.EarningRate = decimal.RequireFromString("0.5") }, amount: "9", subtotal: "9", want: 4},
		{name: "rounds down to zero", mutate: func(l *settings.Loyalty) { l.EarningRate = decimal.RequireFromString("0.1") }, amount: "9", subtotal: "9", want: 0},
		{name: "disabled", mutate: func(l *settings.Loyalty) { l.Enabled = false }, amount: "100", subtotal: "100", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := base
			if tt.mutate != nil {
				tt.mutate(&l)
			}
			got := loyalty.PointsForOrder(l, decimal.RequireFromString(tt.amount), decimal.RequireFromString(tt.subtotal))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAwardPoints_DisabledIsNoop(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, dbtest.SetSettings(db, map[string]string{settings.KeyLoyaltyEnabled: "false"}))

	h := award(t, db, 1, 10, "100", model.OrderCompleted)
	assert.Nil(t, h)
	assert.Empty(t, history(t, db, 1))
	agg, err := database.GetUserLoyaltyPoints(db, 1)
	require.NoError(t, err)
	assert.Nil(t, agg)
}

func TestAwardPoints_UnsetSettingIsDisabled(t *testing.T) {
	db := dbtest.Open(t)

	h := award(t, db, 1, 10, "100", model.OrderCompleted)
	assert.Nil(t, h)
	assert.Empty(t, history(t, db, 1))
}

func TestAwardPoints_BelowMinimumOrder(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.EnableLoyalty(t, db, map[string]string{settings.KeyMinimumOrder: "50"})

	assert.Nil(t, award(t, db, 1, 10, "49.99", model.OrderCompleted))
	assert.Empty(t, history(t, db, 1))
}

func TestAwardPoints_FloorTruncation(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.EnableLoyalty(t, db, nil)

	h := award(t, db, 1, 10, "19.9", model.OrderCompleted)
	require.NotNil(t, h)
	assert.Equal(t, int64(19), h.Points)
	assert.Equal(t, int64(19), aggregate(t, db, 1).AvailablePoints)
}

func TestAwardPoints_SingleBucket(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.EnableLoyalty(t, db, nil)

	award(t, db, 1, 10, "30", model.OrderPending)
	agg := aggregate(t, db, 1)
	assert.Equal(t, int64(30), agg.PendingPoints)
	assert.Equal(t, int64(0), agg.AvailablePoints)

	award(t, db, 1, 11, "40", model.OrderCompleted)
	agg = aggregate(t, db, 1)
	assert.Equal(t, int64(30), agg.PendingPoints)
	assert.Equal(t, int64(40), agg.AvailablePoints)
	assert.Equal(t, int64(70), agg.TotalPointsEarned)
	require.NotNil(t, agg.LastEarnedAt)
}

func TestAwardPoints_IdempotentPerOrder(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.EnableLoyalty(t, db, nil)

	first := award(t, db, 1, 10, "100", model.OrderPending)
	second := award(t, db, 1, 10, "100", model.OrderPending)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, history(t, db, 1), 1)
	assert.Equal(t, int64(100), aggregate(t, db, 1).PendingPoints)
}

func TestAwardPoints_SetsExpiry(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.EnableLoyalty(t, db, map[string]string{settings.KeyExpiryDays: "10"})

	h := award(t, db, 1, 10, "5", model.OrderCompleted)
	require.NotNil(t, h.ExpiresAt)
	assert.True(t, h.CreatedAt.AddDate(0, 0, 10).Equal(*h.ExpiresAt))

	require.NoError(t, dbtest.SetSettings(db, map[string]string{settings.KeyExpiryDays: "0"}))
	h = award(t, db, 1, 11, "5", model.OrderCompleted)
	assert.Nil(t, h.ExpiresAt)
}

func TestAwardPoints_ConcurrentOrdersForSameUser(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.EnableLoyalty(t, db, nil)

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(orderID int64) {
			defer wg.Done()
			_, err := loyalty.AwardPoints(db, loyalty.AwardInput{
				UserID:      7,
				OrderID:     orderID,
				OrderAmount: decimal.NewFromInt(10),
				Subtotal:    decimal.NewFromInt(10),
				OrderStatus: model.OrderCompleted,
			})
			errs <- err
		}(int64(100 + i))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	agg := aggregate(t, db, 7)
	assert.Equal(t, int64(workers*10), agg.AvailablePoints)
	assert.Equal(t, int64(workers*10), agg.TotalPointsEarned)
	assert.Len(t, history(t, db, 7), workers)
}

func TestActivatePendingPoints(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.EnableLoyalty(t, db, nil)

	h := award(t, db, 1, 10, "100", model.OrderPending)
	require.Equal(t, model.PointsPending, h.Status)

	n, err := loyalty.ActivatePendingPoints(db, 1, 10, model.OrderPending, model.OrderConfirmed)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = loyalty.ActivatePendingPoints(db, 1, 10, model.OrderDelivered, model.OrderCompleted)
	require.NoError(t, err)
	assert.Equal(t, int64(100), n)

	agg := aggregate(t, db, 1)
	assert.Equal(t, int64(0), agg.PendingPoints)
	assert.Equal(t, int64(100), agg.AvailablePoints)
	rows := history(t, db, 1)
	require.Len(t, rows, 1)
	assert.Equal(t, model.PointsAvailable, rows[0].Status)

	// 2回目は対象の保留行がないので何もしない
	n, err = loyalty.ActivatePendingPoints(db, 1, 10, model.OrderDelivered, model.OrderCompleted)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, int64(100), aggregate(t, db, 1).AvailablePoints)
}

func TestActivatePendingPoints_FromCompletedIsNoop(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.EnableLoyalty(t, db, nil)
	award(t, db, 1, 10, "100", model.OrderPending)

	n, err := loyalty.ActivatePendingPoints(db, 1, 10, model.OrderCompleted, model.OrderCompleted)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, int64(100), aggregate(t, db, 1).PendingPoints)
}

func TestActivatePendingPoints_DisabledIsNoop(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.EnableLoyalty(t, db, nil)
	award(t, db, 1, 10, "100", model.OrderPending)
	require.NoError(t, dbtest.SetSettings(db, map[string]string{settings.KeyLoyaltyEnabled: "false"}))

	n, err := loyalty.ActivatePendingPoints(db, 1, 10, model.OrderPending, model.OrderCompleted)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, int64(100), aggregate(t, db, 1).PendingPoints)
}

func TestDeleteAllHistory(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.EnableLoyalty(t, db, nil)
	award(t, db, 1, 10, "100", model.OrderPending)
	award(t, db, 1, 11, "25", model.OrderCompleted)
	award(t, db, 2, 12, "10", model.OrderCompleted)

	deleted, err := loyalty.DeleteAllHistory(db, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	agg := aggregate(t, db, 1)
	assert.Zero(t, agg.AvailablePoints)
	assert.Zero(t, agg.PendingPoints)
	assert.Empty(t, history(t, db, 1))
	assert.Equal(t, int64(10), aggregate(t, db, 2).AvailablePoints)

	_, err = loyalty.DeleteAllHistory(db, 1)
	assert.ErrorIs(t, err, loyalty.ErrNoHistory)
}

func TestDeleteAllHistory_RemovesAggregateLeftByClampedDeletes(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.EnableLoyalty(t, db, nil)
	earned := award(t, db, 1, 10, "100", model.OrderCompleted)
	redeemed, err := loyalty.RedeemPoints(db, loyalty.RedeemInput{
		UserID: 1, OrderID: 11, Points: 30, OrderAmount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	// 70 - 100 は 0 にクリップされ、利用の取り消しで 30 戻る
	_, err = loyalty.DeleteSelectedHistory(db, 1, []int64{earned.ID})
	require.NoError(t, err)
	_, err = loyalty.DeleteSelectedHistory(db, 1, []int64{redeemed.History.ID})
	require.NoError(t, err)
	require.Empty(t, history(t, db, 1))
	require.Equal(t, int64(30), aggregate(t, db, 1).AvailablePoints)

	deleted, err := loyalty.DeleteAllHistory(db, 1)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	agg, err := database.GetUserLoyaltyPoints(db, 1)
	require.NoError(t, err)
	assert.Nil(t, agg)

	_, err = loyalty.DeleteAllHistory(db, 1)
	assert.ErrorIs(t, err, loyalty.ErrNoHistory)
}

func TestDeleteSelectedHistory_EarnedAvailable(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.EnableLoyalty(t, db, nil)
	h := award(t, db, 1, 10, "50", model.OrderCompleted)
	award(t, db, 1, 11, "30", model.OrderCompleted)

	deleted, err := loyalty.DeleteSelectedHistory(db, 1, []int64{h.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	agg := aggregate(t, db, 1)
	assert.Equal(t, int64(30), agg.AvailablePoints)
	assert.Equal(t, int64(30), agg.TotalPointsEarned)
}

func TestDeleteSelectedHistory_ClampsAtZero(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.EnableLoyalty(t, db, nil)
	h := award(t, db, 1, 10, "50", model.OrderCompleted)
	_, err := loyalty.AdjustPoints(db, 1, -30, "manual correction")
	require.NoError(t, err)
	require.Equal(t, int64(20), aggregate(t, db, 1).AvailablePoints)

	_, err = loyalty.DeleteSelectedHistory(db, 1, []int64{h.ID})
	require.NoError(t, err)
	assert.Zero(t, aggregate(t, db, 1).AvailablePoints)
}

func TestDeleteSelectedHistory_PendingAndRedeemed(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.EnableLoyalty(t, db, nil)
	pending := award(t, db, 1, 10, "40", model.OrderPending)
	award(t, db, 1, 11, "100", model.OrderCompleted)
	res, err := loyalty.RedeemPoints(db, loyalty.RedeemInput{UserID: 1, OrderID: 12, Points: 20, OrderAmount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	require.Equal(t, int64(80), aggregate(t, db, 1).AvailablePoints)

	_, err = loyalty.DeleteSelectedHistory(db, 1, []int64{pending.ID, res.History.ID})
	require.NoError(t, err)

	agg := aggregate(t, db, 1)
	assert.Zero(t, agg.PendingPoints)
	assert.Equal(t, int64(100), agg.AvailablePoints)
	assert.Zero(t, agg.TotalPointsRedeemed)
	assert.Equal(t, int64(100), agg.TotalPointsEarned)
}

func TestDeleteSelectedHistory_Errors(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.EnableLoyalty(t, db, nil)
	other := award(t, db, 2, 10, "50", model.OrderCompleted)

	_, err := loyalty.DeleteSelectedHistory(db, 1, nil)
	assert.ErrorIs(t, err, loyalty.ErrNoHistoryIDs)

	_, err = loyalty.DeleteSelectedHistory(db, 1, []int64{other.ID})
	assert.ErrorIs(t, err, loyalty.ErrNoHistory)
	assert.Len(t, history(t, db, 2), 1)
}

func TestRedeemPoints(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.EnableLoyalty(t, db, map[string]string{
		settings.KeyRedemptionValue:      "0.1",
		settings.KeyMaxRedemptionPercent: "50",
	})
	award(t, db, 1, 10, "200", model.OrderCompleted)

	res, err := loyalty.RedeemPoints(db, loyalty.RedeemInput{UserID: 1, OrderID: 11, Points: 100, OrderAmount: decimal.NewFromInt(40)})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(res.DiscountAmount))
	assert.Equal(t, int64(100), res.History.Points)
	assert.Equal(t, model.TransactionRedeemed, res.History.TransactionType)

	agg := aggregate(t, db, 1)
	assert.Equal(t, int64(100), agg.AvailablePoints)
	assert.Equal(t, int64(100), agg.TotalPointsRedeemed)
	assert.NotNil(t, agg.LastRedeemedAt)
}

func TestRedeemPoints_Rejections(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.EnableLoyalty(t, db, map[string]string{
		settings.KeyRedemptionValue:      "0.1",
		settings.KeyMaxRedemptionPercent: "50",
	})
	award(t, db, 1, 10, "100", model.OrderCompleted)

	_, err := loyalty.RedeemPoints(db, loyalty.RedeemInput{UserID: 1, Points: 0, OrderAmount: decimal.NewFromInt(100)})
	assert.ErrorIs(t, err, loyalty.ErrInvalidPoints)

	_, err = loyalty.RedeemPoints(db, loyalty.RedeemInput{UserID: 1, Points: 101, OrderAmount: decimal.NewFromInt(1000)})
	assert.ErrorIs(t, err, loyalty.ErrInsufficientPoints)

	// 100pt = 10.00 > 15.00 * 50%
	_, err = loyalty.RedeemPoints(db, loyalty.RedeemInput{UserID: 1, Points: 100, OrderAmount: decimal.NewFromInt(15)})
	assert.ErrorIs(t, err, loyalty.ErrRedemptionLimit)

	require.NoError(t, dbtest.SetSettings(db, map[string]string{settings.KeyLoyaltyEnabled: "false"}))
	_, err = loyalty.RedeemPoints(db, loyalty.RedeemInput{UserID: 1, Points: 10, OrderAmount: decimal.NewFromInt(100)})
	assert.ErrorIs(t, err, loyalty.ErrLoyaltyDisabled)

	assert.Equal(t, int64(100), aggregate(t, db, 1).AvailablePoints)
	assert.Len(t, history(t, db, 1), 1)
}

func TestAdjustPoints(t *testing.T) {
	db := dbtest.Open(t)

	h, err := loyalty.AdjustPoints(db, 1, 25, "welcome bonus")
	require.NoError(t, err)
	assert.Equal(t, model.TransactionAdjusted, h.TransactionType)
	assert.Nil(t, h.OrderID)
	assert.Equal(t, int64(25), aggregate(t, db, 1).AvailablePoints)

	_, err = loyalty.AdjustPoints(db, 1, 0, "noop")
	assert.ErrorIs(t, err, loyalty.ErrInvalidPoints)

	h, err = loyalty.AdjustPoints(db, 1, -10, "partial revoke")
	require.NoError(t, err)
	assert.Equal(t, int64(-10), h.Points)
	assert.Equal(t, int64(15), h.PointsBalance)
	assert.Equal(t, int64(15), aggregate(t, db, 1).AvailablePoints)
}

func TestAdjustPoints_DebitClampsAtZero(t *testing.T) {
	db := dbtest.Open(t)
	_, err := loyalty.AdjustPoints(db, 1, 20, "opening balance")
	require.NoError(t, err)

	h, err := loyalty.AdjustPoints(db, 1, -50, "overdraw")
	require.NoError(t, err)
	assert.Equal(t, int64(-20), h.Points)
	assert.Zero(t, h.PointsBalance)
	assert.Zero(t, aggregate(t, db, 1).AvailablePoints)

	h, err = loyalty.AdjustPoints(db, 1, -5, "nothing left")
	require.NoError(t, err)
	assert.Zero(t, h.Points)

	// 履歴には適用値が残るので再計算しても一致する
	agg, err := loyalty.Reconcile(db, 1)
	require.NoError(t, err)
	assert.Zero(t, agg.AvailablePoints)
	assert.Len(t, history(t, db, 1), 3)
}

func TestExpirePoints(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.EnableLoyalty(t, db, map[string]string{settings.KeyExpiryDays: "30"})

	created := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	err := database.WithTx(db, func(tx *sqlx.Tx) error {
		for i, status := range []string{model.OrderCompleted, model.OrderPending} {
			if _, err := loyalty.AwardPointsInTx(tx, loyalty.AwardInput{
				UserID:      1,
				OrderID:     int64(10 + i),
				OrderAmount: decimal.NewFromInt(40),
				Subtotal:    decimal.NewFromInt(40),
				OrderStatus: status,
			}, created); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	res, err := loyalty.ExpirePoints(db, created.AddDate(0, 0, 29))
	require.NoError(t, err)
	assert.Zero(t, res.Rows)

	res, err = loyalty.ExpirePoints(db, created.AddDate(0, 0, 30))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rows)
	assert.Equal(t, 1, res.Users)
	assert.Equal(t, int64(40), res.Points)

	agg := aggregate(t, db, 1)
	assert.Zero(t, agg.AvailablePoints)
	assert.Equal(t, int64(40), agg.PendingPoints)

	rows := history(t, db, 1)
	var expiredMarkers int
	for _, h := range rows {
		if h.TransactionType == model.TransactionExpired {
			expiredMarkers++
			assert.Equal(t, int64(40), h.Points)
		}
		if h.TransactionType == model.TransactionEarned && h.Status == model.PointsExpired {
			assert.True(t, h.IsExpired)
		}
	}
	assert.Equal(t, 1, expiredMarkers)

	res, err = loyalty.ExpirePoints(db, created.AddDate(0, 0, 60))
	require.NoError(t, err)
	assert.Zero(t, res.Rows)
}

func TestReconcile_MatchesIncrementalAggregate(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.EnableLoyalty(t, db, map[string]string{settings.KeyRedemptionValue: "0.01"})

	award(t, db, 1, 10, "120", model.OrderPending)
	award(t, db, 1, 11, "80", model.OrderCompleted)
	_, err := loyalty.ActivatePendingPoints(db, 1, 10, model.OrderPending, model.OrderCompleted)
	require.NoError(t, err)
	_, err = loyalty.RedeemPoints(db, loyalty.RedeemInput{UserID: 1, OrderID: 12, Points: 50, OrderAmount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	_, err = loyalty.AdjustPoints(db, 1, 5, "goodwill")
	require.NoError(t, err)
	award(t, db, 1, 13, "7", model.OrderPending)

	before := aggregate(t, db, 1)
	after, err := loyalty.Reconcile(db, 1)
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.Equal(t, before.AvailablePoints, after.AvailablePoints)
	assert.Equal(t, before.PendingPoints, after.PendingPoints)
	assert.Equal(t, before.TotalPointsEarned, after.TotalPointsEarned)
	assert.Equal(t, before.TotalPointsRedeemed, after.TotalPointsRedeemed)
	assert.Equal(t, int64(155), after.AvailablePoints)
	assert.Equal(t, int64(7), after.PendingPoints)
}

func TestReconcile_CorrectsDrift(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.EnableLoyalty(t, db, nil)
	award(t, db, 1, 10, "60", model.OrderCompleted)

	_, err := db.Exec(`UPDATE user_loyalty_points SET available_points = 999, pending_points = 5 WHERE user_id = 1`)
	require.NoError(t, err)

	agg, err := loyalty.Reconcile(db, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(60), agg.AvailablePoints)
	assert.Zero(t, agg.PendingPoints)
	assert.Equal(t, int64(60), aggregate(t, db, 1).AvailablePoints)
}

func TestReconcile_NoHistoryRemovesAggregate(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.EnableLoyalty(t, db, nil)
	h := award(t, db, 1, 10, "60", model.OrderCompleted)
	award(t, db, 2, 11, "10", model.OrderCompleted)
	_, err := db.Exec(`DELETE FROM loyalty_points_history WHERE id = ?`, h.ID)
	require.NoError(t, err)

	count, err := loyalty.ReconcileAll(db)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	agg, err := database.GetUserLoyaltyPoints(db, 1)
	require.NoError(t, err)
	assert.Nil(t, agg)
	assert.Equal(t, int64(10), aggregate(t, db, 2).AvailablePoints)
}
