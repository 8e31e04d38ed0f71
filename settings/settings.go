// Package settings は settings テーブル (キー/値) と、その型付きビューを扱います。
package settings

import (
	"fmt"
	"strconv"

	"shopadmin/database"
	"shopadmin/model"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const (
	KeyLoyaltyEnabled       = "loyalty_enabled"
	KeyEarningRate          = "points_earning_rate"
	KeyEarningBasis         = "points_earning_basis"
	KeyRedemptionValue      = "points_redemption_value"
	KeyExpiryDays           = "points_expiry_days"
	KeyMinimumOrder         = "points_minimum_order"
	KeyMaxRedemptionPercent = "points_max_redemption_percent"
	KeyDriverSharePercent   = "delivery_driver_share_percent"
)

const (
	TypeBoolean = "boolean"
	TypeNumber  = "number"
	TypeString  = "string"
	TypeJSON    = "json"
)

const (
	BasisTotal    = "total"
	BasisSubtotal = "subtotal"
)

type definition struct {
	Type        string
	Default     string
	Description string
	check       func(string) error
}

var definitions = map[string]definition{
	KeyLoyaltyEnabled:       {TypeBoolean, "false", "Enable the loyalty points program", checkBool},
	KeyEarningRate:          {TypeNumber, "1", "Points earned per currency unit", checkNonNegative},
	KeyEarningBasis:         {TypeString, BasisSubtotal, "Order amount used for earning: total or subtotal", checkBasis},
	KeyRedemptionValue:      {TypeNumber, "0.01", "Currency value of one point", checkNonNegative},
	KeyExpiryDays:           {TypeNumber, "365", "Days until earned points expire (0 = never)", checkNonNegativeInt},
	KeyMinimumOrder:         {TypeNumber, "0", "Minimum order amount to earn points", checkNonNegative},
	KeyMaxRedemptionPercent: {TypeNumber, "50", "Maximum share of an order payable with points (%)", checkPercent},
	KeyDriverSharePercent:   {TypeNumber, "80", "Share of the delivery fee paid to the driver (%)", checkPercent},
}

// Loyalty はポイント関連設定の型付きビューです。LoadLoyalty でのみ生成されます。
type Loyalty struct {
	Enabled              bool            `json:"enabled"`
	EarningRate          decimal.Decimal `json:"earningRate"`
	EarningBasis         string          `json:"earningBasis"`
	RedemptionValue      decimal.Decimal `json:"redemptionValue"`
	ExpiryDays           int             `json:"expiryDays"`
	MinimumOrder         decimal.Decimal `json:"minimumOrder"`
	MaxRedemptionPercent decimal.Decimal `json:"maxRedemptionPercent"`
}

// GetSetting は値を返します。行がなければ既定値 (未登録キーなら def)。
func GetSetting(dbtx database.DBTX, key, def string) (string, error) {
	s, err := database.GetSetting(dbtx, key)
	if err != nil {
		return "", err
	}
	if s != nil {
		return s.Value, nil
	}
	if d, ok := definitions[key]; ok {
		return d.Default, nil
	}
	return def, nil
}

// SetSetting は upsert します。既知のキーは型と値域を検証します。
func SetSetting(dbtx database.DBTX, key, value, typ, description string) error {
	if key == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidSettings)
	}
	if d, ok := definitions[key]; ok {
		if err := d.check(value); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidSettings, key, err)
		}
		typ = d.Type
		if description == "" {
			description = d.Description
		}
	}
	if typ == "" {
		typ = TypeString
	}
	switch typ {
	case TypeBoolean, TypeNumber, TypeString, TypeJSON:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidSettings, typ)
	}
	return database.UpsertSetting(dbtx, model.Setting{Key: key, Value: value, Type: typ, Description: description})
}

// Check は既知キーの値を検証します。未登録キーは常に nil。
func Check(key, value string) error {
	d, ok := definitions[key]
	if !ok {
		return nil
	}
	if err := d.check(value); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSettings, key, err)
	}
	return nil
}

// Defaults は既知キーの既定値 (シード用) を返します。
func Defaults() []model.Setting {
	out := make([]model.Setting, 0, len(definitions))
	for key, d := range definitions {
		out = append(out, model.Setting{Key: key, Value: d.Default, Type: d.Type, Description: d.Description})
	}
	return out
}

func LoadLoyalty(dbtx database.DBTX) (Loyalty, error) {
	values, err := database.GetSettingsMap(dbtx)
	if err != nil {
		return Loyalty{}, err
	}
	return parseLoyalty(values)
}

func parseLoyalty(values map[string]string) (Loyalty, error) {
	get := func(key string) (string, error) {
		v, ok := values[key]
		if !ok {
			v = definitions[key].Default
		}
		if err := definitions[key].check(v); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrInvalidSettings, key, err)
		}
		return v, nil
	}

	var l Loyalty
	v, err := get(KeyLoyaltyEnabled)
	if err != nil {
		return Loyalty{}, err
	}
	l.Enabled = v == "true"

	if l.EarningBasis, err = get(KeyEarningBasis); err != nil {
		return Loyalty{}, err
	}
	for key, dst := range map[string]*decimal.Decimal{
		KeyEarningRate:          &l.EarningRate,
		KeyRedemptionValue:      &l.RedemptionValue,
		KeyMinimumOrder:         &l.MinimumOrder,
		KeyMaxRedemptionPercent: &l.MaxRedemptionPercent,
	} {
		v, err := get(key)
		if err != nil {
			return Loyalty{}, err
		}
		*dst = decimal.RequireFromString(v)
	}
	if v, err = get(KeyExpiryDays); err != nil {
		return Loyalty{}, err
	}
	l.ExpiryDays, _ = strconv.Atoi(v)
	return l, nil
}

// Validate は値域を検証します。
func (l Loyalty) Validate() error {
	switch {
	case l.EarningRate.IsNegative():
		return fmt.Errorf("%w: earning rate must not be negative", ErrInvalidSettings)
	case l.EarningBasis != BasisTotal && l.EarningBasis != BasisSubtotal:
		return fmt.Errorf("%w: earning basis must be %q or %q", ErrInvalidSettings, BasisTotal, BasisSubtotal)
	case l.RedemptionValue.IsNegative():
		return fmt.Errorf("%w: redemption value must not be negative", ErrInvalidSettings)
	case l.ExpiryDays < 0:
		return fmt.Errorf("%w: expiry days must not be negative", ErrInvalidSettings)
	case l.MinimumOrder.IsNegative():
		return fmt.Errorf("%w: minimum order must not be negative", ErrInvalidSettings)
	case l.MaxRedemptionPercent.IsNegative() || l.MaxRedemptionPercent.GreaterThan(decimal.NewFromInt(100)):
		return fmt.Errorf("%w: max redemption percent must be between 0 and 100", ErrInvalidSettings)
	}
	return nil
}

// SaveLoyalty は検証後、全キーを1トランザクションで書き込みます。
func SaveLoyalty(db *sqlx.DB, l Loyalty) error {
	if err := l.Validate(); err != nil {
		return err
	}
	values := map[string]string{
		KeyLoyaltyEnabled:       strconv.FormatBool(l.Enabled),
		KeyEarningRate:          l.EarningRate.String(),
		KeyEarningBasis:         l.EarningBasis,
		KeyRedemptionValue:      l.RedemptionValue.String(),
		KeyExpiryDays:           strconv.Itoa(l.ExpiryDays),
		KeyMinimumOrder:         l.MinimumOrder.String(),
		KeyMaxRedemptionPercent: l.MaxRedemptionPercent.String(),
	}
	return database.WithTx(db, func(tx *sqlx.Tx) error {
		for key, value := range values {
			if err := SetSetting(tx, key, value, "", ""); err != nil {
				return err
			}
		}
		return nil
	})
}

// DriverSharePercent は配送料のうちドライバーに支払う割合 (%) です。
func DriverSharePercent(dbtx database.DBTX) (decimal.Decimal, error) {
	v, err := GetSetting(dbtx, KeyDriverSharePercent, "")
	if err != nil {
		return decimal.Zero, err
	}
	if err := checkPercent(v); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", ErrInvalidSettings, KeyDriverSharePercent, err)
	}
	return decimal.RequireFromString(v), nil
}

func checkBool(v string) error {
	if v != "true" && v != "false" {
		return fmt.Errorf("%q is not a boolean", v)
	}
	return nil
}

func checkNonNegative(v string) error {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return fmt.Errorf("%q is not a number", v)
	}
	if d.IsNegative() {
		return fmt.Errorf("%s must not be negative", v)
	}
	return nil
}

func checkNonNegativeInt(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%q is not an integer", v)
	}
	if n < 0 {
		return fmt.Errorf("%d must not be negative", n)
	}
	return nil
}

func checkPercent(v string) error {
	if err := checkNonNegative(v); err != nil {
		return err
	}
	if decimal.RequireFromString(v).GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%s exceeds 100", v)
	}
	return nil
}

func checkBasis(v string) error {
	if v != BasisTotal && v != BasisSubtotal {
		return fmt.Errorf("%q must be %q or %q", v, BasisTotal, BasisSubtotal)
	}
	return nil
}
