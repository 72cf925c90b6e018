package service

import "errors"

var (
	// ErrNegativeQuantity is returned when a mutation carries a negative
	// available quantity.
	ErrNegativeQuantity = errors.New("available quantity must not be negative")
)
