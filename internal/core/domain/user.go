package domain

import "time"

const (
	RoleAgent    = "agent"
	RoleMerchant = "merchant"
	RoleDriver   = "driver"
	RoleAdmin    = "admin"
)

// DefaultRating is applied to users created without a rating and to rows whose
// rating cell is empty or unparsable.
const DefaultRating = 5.0

// User is a registered participant (agent, merchant, driver or admin).
// Role is stored as a free string; the constants above are the known values.
type User struct {
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	Role       string  `json:"role"`
	Location   string  `json:"location"`
	Rating     float64 `json:"rating"`
	CreatedAt  string  `json:"created_at"`
	IsBlocked  bool    `json:"is_blocked"`
	IsApproved bool    `json:"is_approved"`
	UserID     string  `json:"user_id"`
	BackendID  string  `json:"backend_id"`
}

// UserPatch carries the fields a caller may change on an existing user.
// Nil means "leave the stored value untouched".
type UserPatch struct {
	Name       *string
	Phone      *string
	Location   *string
	IsBlocked  *bool
	IsApproved *bool
}

// Empty reports whether the patch would change nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Phone == nil && p.Location == nil && p.IsBlocked == nil && p.IsApproved == nil
}

// Timestamp formats t the way created_at is persisted (UTC, millisecond precision).
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
