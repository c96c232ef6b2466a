package service

import "errors"

// Trade rejection and infrastructure outcomes surfaced to the
// presentation layer. Portfolio-level rejections (insufficient funds,
// no such position, insufficient shares, invalid quantity) are defined
// next to the portfolio model and propagate verbatim.
var (
	ErrUnknownSymbol     = errors.New("error unknown symbol")
	ErrPriceUnavailable  = errors.New("error price unavailable")
	ErrStoreUnavailable  = errors.New("error store unavailable")
	ErrUserUnprovisioned = errors.New("error user has no portfolio")
)
