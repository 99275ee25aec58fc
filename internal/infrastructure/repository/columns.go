// Package repository maps users and orders onto positional rows of a
// ports.RowStore. Each entity owns an explicit column table; nothing outside
// this package knows which cell holds which field.
package repository

import (
	"strconv"
	"strings"

	"github.com/routedesk/logistics-api/internal/core/ports"
)

// User columns, in persisted order.
const (
	userColName = iota
	userColPhone
	userColRole
	userColLocation
	userColRating
	userColCreatedAt
	userColIsApproved
	userColIsBlocked
	userColUserID
	userColBackendID
	userColumns
)

// Order columns, in persisted order.
const (
	orderColOrderID = iota
	orderColAgentID
	orderColMerchantID
	orderColGoodsType
	orderColWeight
	orderColPrice
	orderColPickup
	orderColDrop
	orderColStatus
	orderColCreatedAt
	orderColDriverID
	orderColumns
)

// userFields are the header / Airtable field names of the user columns.
var userFields = [userColumns]string{
	userColName:       "Name",
	userColPhone:      "Phone",
	userColRole:       "Role",
	userColLocation:   "Location",
	userColRating:     "Rating",
	userColCreatedAt:  "CreatedAt",
	userColIsApproved: "IsApproved",
	userColIsBlocked:  "IsBlocked",
	userColUserID:     "UserId",
	userColBackendID:  "BackendId",
}

var orderFields = [orderColumns]string{
	orderColOrderID:    "OrderId",
	orderColAgentID:    "AgentId",
	orderColMerchantID: "MerchantId",
	orderColGoodsType:  "GoodsType",
	orderColWeight:     "Weight",
	orderColPrice:      "Price",
	orderColPickup:     "PickupLocation",
	orderColDrop:       "DropLocation",
	orderColStatus:     "Status",
	orderColCreatedAt:  "CreatedAt",
	orderColDriverID:   "DriverId",
}

// UserSchema returns the schema of the users table named name.
func UserSchema(name string) ports.TableSchema {
	return ports.TableSchema{Name: name, Fields: userFields[:]}
}

// OrderSchema returns the schema of the orders table named name.
func OrderSchema(name string) ports.TableSchema {
	return ports.TableSchema{Name: name, Fields: orderFields[:]}
}

// cell returns row[i] or "" when the row is short.
func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

// widen returns a copy of row padded to n cells.
func widen(row []string, n int) []string {
	out := make([]string, n)
	copy(out, row)
	return out
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseFloat returns def when s is empty or not numeric.
func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}
