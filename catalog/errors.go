package catalog

import "errors"

// Sentinel errors for catalog operations.
var (
	ErrMissingClient   = errors.New("catalog: backend client is required")
	ErrMissingCache    = errors.New("catalog: cache is required")
	ErrMissingStore    = errors.New("catalog: store is required")
	ErrMissingTitle    = errors.New("catalog: product title is required")
	ErrInvalidPrice    = errors.New("catalog: price must be positive")
	ErrMissingLabel    = errors.New("catalog: category label is required")
	ErrMissingID       = errors.New("catalog: id is required")
	ErrMissingUser     = errors.New("catalog: user id is required")
	ErrNotInCart       = errors.New("catalog: product not in cart")
	ErrInvalidQuantity = errors.New("catalog: quantity must be positive")
)
