package ports

import (
	"context"

	"github.com/routedesk/logistics-api/internal/core/domain"
)

// AuditRepository persists order status changes to the audit trail.
type AuditRepository interface {
	InsertStatusChange(ctx context.Context, change domain.StatusChange) error
}
