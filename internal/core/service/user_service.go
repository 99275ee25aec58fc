package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/routedesk/logistics-api/internal/core/domain"
	"github.com/routedesk/logistics-api/internal/core/ports"
	"github.com/routedesk/logistics-api/internal/pkg/idgen"
	"github.com/routedesk/logistics-api/internal/pkg/metrics"
)

// Options holds the behaviour switches shared by the services.
type Options struct {
	// TolerateProvisioningGap treats a missing users/orders table as empty on
	// read and lets creates soft-succeed when the row append fails.
	TolerateProvisioningGap bool
	// StrictTransitions enforces the pending -> accepted -> picked -> delivered
	// lifecycle. When false any status string is written as-is.
	StrictTransitions bool
}

type UserService struct {
	repo   ports.UserRepository
	opts   Options
	logger zerolog.Logger
	now    func() time.Time
}

func NewUserService(repo ports.UserRepository, opts Options, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, opts: opts, logger: logger, now: time.Now}
}

// Create validates the candidate, rejects a phone already in use and appends
// the user with generated identifiers and defaults.
func (s *UserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Role = strings.TrimSpace(in.Role)
	if in.Name == "" || in.Phone == "" || in.Role == "" {
		return nil, domain.ErrInvalidPayload
	}

	existing, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range existing {
		if u.Phone == in.Phone {
			return nil, domain.ErrDuplicatePhone
		}
	}

	now := s.now()
	user := &domain.User{
		Name:       in.Name,
		Phone:      in.Phone,
		Role:       in.Role,
		Location:   in.Location,
		Rating:     domain.DefaultRating,
		CreatedAt:  in.CreatedAt,
		IsBlocked:  in.IsBlocked,
		IsApproved: in.IsApproved,
		UserID:     in.UserID,
		BackendID:  in.BackendID,
	}
	if in.Rating != nil && *in.Rating > 0 {
		user.Rating = *in.Rating
	}
	if user.CreatedAt == "" {
		user.CreatedAt = domain.Timestamp(now)
	}
	if user.UserID == "" {
		user.UserID = idgen.UserID(now)
	}
	if user.BackendID == "" {
		user.BackendID = idgen.BackendID(now)
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if !s.opts.TolerateProvisioningGap || !errors.Is(err, domain.ErrTableNotFound) {
			s.logger.Error().Err(err).Str("phone", user.Phone).Msg("failed to create user")
			return nil, err
		}
		s.logger.Warn().Err(err).Str("backend_id", user.BackendID).Msg("users table missing, user not persisted")
	}

	metrics.UsersCreatedTotal.WithLabelValues(user.Role).Inc()
	s.logger.Info().
		Str("user_id", user.UserID).
		Str("backend_id", user.BackendID).
		Str("role", user.Role).
		Msg("user created")

	return user, nil
}

// List returns all users in store order.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.list(ctx)
}

// Update applies a whitelisted patch to the user keyed by backendID.
func (s *UserService) Update(ctx context.Context, backendID string, patch domain.UserPatch) (*domain.User, error) {
	if backendID == "" || patch.Empty() {
		return nil, domain.ErrInvalidPayload
	}
	// name and phone are required on create and compared trimmed
	for _, f := range []**string{&patch.Name, &patch.Phone} {
		if *f == nil {
			continue
		}
		v := strings.TrimSpace(**f)
		if v == "" {
			return nil, domain.ErrInvalidPayload
		}
		*f = &v
	}

	user, err := s.repo.Patch(ctx, backendID, patch)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info().Str("backend_id", backendID).Msg("user updated")
	return user, nil
}

// Delete removes the user by backend id or user id. Deleting an unknown user
// is not an error.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidPayload
	}

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.Info().Str("id", id).Bool("removed", removed).Msg("user delete")
	return nil
}

// Export writes every user to w as an xlsx workbook.
func (s *UserService) Export(ctx context.Context, w io.Writer) error {
	users, err := s.list(ctx)
	if err != nil {
		return err
	}
	return writeUsersWorkbook(w, users)
}

func (s *UserService) list(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		if s.opts.TolerateProvisioningGap && errors.Is(err, domain.ErrTableNotFound) {
			s.logger.Warn().Err(err).Msg("users table missing, treating as empty")
			return []domain.User{}, nil
		}
		return nil, err
	}
	return users, nil
}
