package ledger

import "errors"

// Rejections returned by Execute. None of them mutate the account.
var (
	ErrInvalidQuantity      = errors.New("ledger: quantity must be a positive integer")
	ErrInvalidPrice         = errors.New("ledger: price must be positive")
	ErrInvalidSide          = errors.New("ledger: side must be BUY or SELL")
	ErrInvalidTicker        = errors.New("ledger: ticker is required")
	ErrInsufficientFunds    = errors.New("ledger: insufficient funds")
	ErrInsufficientHoldings = errors.New("ledger: insufficient holdings")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrInvalidQuantity, "InvalidQuantity"},
	{ErrInvalidPrice, "InvalidPrice"},
	{ErrInvalidSide, "InvalidSide"},
	{ErrInvalidTicker, "InvalidTicker"},
	{ErrInsufficientFunds, "InsufficientFunds"},
	{ErrInsufficientHoldings, "InsufficientHoldings"},
}

// Kind names the rejection carried by err, or "" when err is not a ledger
// rejection.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return ""
}

// IsRejection reports whether err is a user-correctable trade rejection.
func IsRejection(err error) bool {
	return Kind(err) != ""
}
