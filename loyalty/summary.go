package loyalty

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"shopadmin/database"
	"shopadmin/model"
	"shopadmin/settings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// GetSummary はユーザーの残高と直近の履歴を返します。集計行がなければ全てゼロ。
func GetSummary(dbtx database.DBTX, userID int64, limit int, lang language.Tag, now time.Time) (*model.LoyaltySummary, error) {
	agg, err := database.GetUserLoyaltyPoints(dbtx, userID)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		agg = &model.UserLoyaltyPoints{UserID: userID}
	}
	l, err := settings.LoadLoyalty(dbtx)
	if err != nil {
		return nil, err
	}
	now = database.Timestamp(now)
	soon, err := database.SumPointsExpiringBetween(dbtx, userID, now, now.Add(ExpiringSoonWindow))
	if err != nil {
		return nil, err
	}
	agg.PointsExpiringSoon = soon

	history, err := database.GetHistoryByUser(dbtx, userID, limit)
	if err != nil {
		return nil, err
	}

	value := RedemptionDiscount(l, agg.AvailablePoints)
	p := message.NewPrinter(lang)
	return &model.LoyaltySummary{
		UserLoyaltyPoints:  *agg,
		AvailableValue:     value,
		FormattedAvailable: p.Sprintf("%d", agg.AvailablePoints),
		FormattedPending:   p.Sprintf("%d", agg.PendingPoints),
		FormattedValue:     formatAmount(p, value),
		History:            history,
	}, nil
}

// formatAmount は小数2桁の金額をロケールの桁区切りで整形します。float を経由しません。
func formatAmount(p *message.Printer, d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + s
	}
	point := strings.Trim(p.Sprintf("%.1f", 1.5), "15")
	return sign + p.Sprintf("%d", n) + point + frac
}

// ListTopUsers は利用可能ポイントの多い順にユーザーの集計行を返します。
func ListTopUsers(dbtx database.DBTX, limit int) ([]model.UserLoyaltyPoints, error) {
	return database.ListUserLoyaltyPoints(dbtx, limit)
}

var historyCSVHeader = []string{
	"id", "userId", "orderId", "transactionType", "status", "points", "pointsBalance",
	"orderAmount", "discountAmount", "description", "expiresAt", "isExpired", "createdAt",
}

// ExportHistoryCSV は履歴を BOM 付き UTF-8 の CSV で書き出します。
func ExportHistoryCSV(w io.Writer, rows []model.LoyaltyPointsHistory) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(historyCSVHeader); err != nil {
		return err
	}
	for _, h := range rows {
		orderID := ""
		if h.OrderID != nil {
			orderID = strconv.FormatInt(*h.OrderID, 10)
		}
		expiresAt := ""
		if h.ExpiresAt != nil {
			expiresAt = h.ExpiresAt.Format(time.RFC3339)
		}
		record := []string{
			strconv.FormatInt(h.ID, 10),
			strconv.FormatInt(h.UserID, 10),
			orderID,
			h.TransactionType,
			h.Status,
			strconv.FormatInt(h.Points, 10),
			strconv.FormatInt(h.PointsBalance, 10),
			h.OrderAmount.StringFixed(2),
			h.DiscountAmount.StringFixed(2),
			h.Description,
			expiresAt,
			strconv.FormatBool(h.IsExpired),
			h.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write history row %d: %w", h.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
