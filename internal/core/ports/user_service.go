package ports

import (
	"context"
	"io"

	"github.com/routedesk/logistics-api/internal/core/domain"
)

// CreateUserInput is the DTO passed from the transport layer to UserService.
type CreateUserInput struct {
	Name       string
	Phone      string
	Role       string
	Location   string
	Rating     *float64
	CreatedAt  string
	IsBlocked  bool
	IsApproved bool
	UserID     string
	BackendID  string
}

// UserService defines use-case operations for users.
type UserService interface {
	Create(ctx context.Context, in CreateUserInput) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, backendID string, patch domain.UserPatch) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	// Export writes every user as an xlsx workbook to w.
	Export(ctx context.Context, w io.Writer) error
}
