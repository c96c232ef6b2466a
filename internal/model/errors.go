package model

import "errors"

var (
	ErrInvalidQuantity    = errors.New("error share quantity must be positive")
	ErrInsufficientFunds  = errors.New("error insufficient funds")
	ErrNoSuchPosition     = errors.New("error no such position")
	ErrInsufficientShares = errors.New("error insufficient shares")
)
