package domain

import "errors"

var (
	ErrInvalidPayload    = errors.New("invalid_payload")
	ErrDuplicatePhone    = errors.New("phone_exists")
	ErrNotFound          = errors.New("not_found")
	ErrOrderNotFound     = errors.New("order_not_found")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrUnauthorized      = errors.New("invalid_credentials")

	// ErrStoreUnavailable wraps any credential, configuration or connectivity
	// failure talking to the row store.
	ErrStoreUnavailable = errors.New("store_unavailable")
	// ErrTableNotFound means the target sheet or table has not been provisioned.
	ErrTableNotFound = errors.New("table_not_found")
)
