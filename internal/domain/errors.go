package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrProductNotFound      = errors.New("product not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidProductName   = errors.New("product name must not be empty")
	ErrInvalidQuantity      = errors.New("quantities must be positive and dose must not exceed total")
	ErrInsufficientQuantity = errors.New("insufficient quantity available for dose")
	ErrUnknownNotification  = errors.New("unknown notification type")
)
