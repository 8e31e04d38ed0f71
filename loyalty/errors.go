package loyalty

import "errors"

var (
	// ErrNoHistory は削除対象の履歴が1件もないことを示します。
	ErrNoHistory          = errors.New("no loyalty history records found")
	ErrNoHistoryIDs       = errors.New("no history ids given")
	ErrLoyaltyDisabled    = errors.New("loyalty program is disabled")
	ErrInvalidPoints      = errors.New("points must be a positive amount")
	ErrInsufficientPoints = errors.New("insufficient available points")
	ErrRedemptionLimit    = errors.New("redemption exceeds the allowed share of the order")
)
