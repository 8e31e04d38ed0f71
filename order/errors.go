package order

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrInvalidStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("order status cannot change")
	ErrDriverUnavailable = errors.New("driver is not available")
)
