package distribution

import "errors"

// Sentinel errors returned by Engine. No operation changes state when it fails.
var (
	ErrInvalidConfiguration = errors.New("ingredient count out of range")
	ErrNotInitialized       = errors.New("engine not initialized")
	ErrUnknownIngredient    = errors.New("unknown ingredient")
)
