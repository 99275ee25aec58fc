// Package idgen builds the identifiers stored alongside users and orders.
package idgen

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserID returns a user-facing id in the form user_<millis>_<9 chars>.
func UserID(now time.Time) string {
	return fmt.Sprintf("user_%d_%s", now.UnixMilli(), random(9))
}

// BackendID returns a row key in the form b_<millis>_<9 chars>.
func BackendID(now time.Time) string {
	return fmt.Sprintf("b_%d_%s", now.UnixMilli(), random(9))
}

// OrderID returns an order id in the form ORD-<millis>-<5 uppercase chars>.
func OrderID(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), strings.ToUpper(random(5)))
}

// random returns n lowercase hex characters taken from a v4 UUID.
func random(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	return s[:n]
}
