// Package services contains server-side business logic. UserService covers
// the user directory and login; AccomplishmentService, DashboardService and
// ExportService cover daily entries and their aggregation.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/accountability/internal/common"
	"github.com/dmitrijs2005/accountability/internal/server/auth"
	"github.com/dmitrijs2005/accountability/internal/server/config"
	"github.com/dmitrijs2005/accountability/internal/server/models"
	"github.com/dmitrijs2005/accountability/internal/server/repositories/repomanager"
)

// UserPatch carries the fields of a partial user update. Nil fields are left
// unchanged.
type UserPatch struct {
	FirstName       *string    `json:"firstName"`
	LastName        *string    `json:"lastName"`
	Email           *string    `json:"email"`
	Phone           *string    `json:"phone"`
	Alert           *bool      `json:"alert"`
	AlertTime       *string    `json:"alertTime"`
	BackgroundColor *string    `json:"backgroundColor"`
	LastLoginDate   *time.Time `json:"lastLoginDate"`
}

func (p UserPatch) apply(u *models.User) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Alert != nil {
		u.Alert = *p.Alert
	}
	if p.AlertTime != nil {
		u.AlertTime = *p.AlertTime
	}
	if p.BackgroundColor != nil {
		u.BackgroundColor = *p.BackgroundColor
	}
	if p.LastLoginDate != nil {
		t := *p.LastLoginDate
		u.LastLoginDate = &t
	}
}

// AuthResult is returned by a successful login.
type AuthResult struct {
	Token           string `json:"token"`
	BackgroundColor string `json:"backgroundColor"`
}

type UserService struct {
	repomanager   repomanager.RepositoryManager
	verifier      auth.IdentityVerifier
	jwtSecret     []byte
	tokenValidity time.Duration
	cascadeDelete bool
	now           func() time.Time
}

func NewUserService(m repomanager.RepositoryManager, verifier auth.IdentityVerifier, cfg *config.Config) *UserService {
	return &UserService{
		repomanager:   m,
		verifier:      verifier,
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidityDuration,
		cascadeDelete: cfg.CascadeDelete,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.repomanager.Users().List(ctx, models.UserFilter{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repomanager.Users().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// Create validates u, fills defaults and stores it.
func (s *UserService) Create(ctx context.Context, u *models.User) (*models.User, error) {
	u.ApplyDefaults()
	if err := validateUser(u); err != nil {
		return nil, err
	}
	created, err := s.repomanager.Users().Create(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// Update applies p to the user id. Callers may only modify their own record.
func (s *UserService) Update(ctx context.Context, callerID, id string, p UserPatch) (*models.User, error) {
	if callerID != id {
		return nil, fmt.Errorf("%w: cannot modify another user", common.ErrForbidden)
	}

	repo := s.repomanager.Users()
	u, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	p.apply(u)
	if err := validateUser(u); err != nil {
		return nil, err
	}

	updated, err := repo.Update(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

// Delete removes the user id. Callers may only delete their own record. With
// cascade delete enabled the user's accomplishments go in the same
// transaction; otherwise they are left in place.
func (s *UserService) Delete(ctx context.Context, callerID, id string) error {
	if callerID != id {
		return fmt.Errorf("%w: cannot delete another user", common.ErrForbidden)
	}

	return s.repomanager.InTx(ctx, func(ctx context.Context, m repomanager.RepositoryManager) error {
		if s.cascadeDelete {
			if _, err := m.Accomplishments().DeleteByUser(ctx, id); err != nil {
				return fmt.Errorf("delete accomplishments: %w", err)
			}
		}
		if err := m.Users().Delete(ctx, id); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
}

// Authenticate exchanges an external identity token for a session token.
// The verified email must belong to a registered user.
func (s *UserService) Authenticate(ctx context.Context, identityToken string) (*AuthResult, error) {
	email, err := s.verifier.VerifyEmail(ctx, identityToken)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users()
	u, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not registered", common.ErrUnauthorized)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	now := s.now()
	u.LastLoginDate = &now
	if _, err := repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}

	token, err := auth.GenerateToken(auth.Subject{UserID: u.ID, FirstName: u.FirstName, Email: u.Email},
		s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, BackgroundColor: u.BackgroundColor}, nil
}

func validateUser(u *models.User) error {
	var problems []string
	if strings.TrimSpace(u.FirstName) == "" {
		problems = append(problems, "firstName is required")
	}
	if strings.TrimSpace(u.LastName) == "" {
		problems = append(problems, "lastName is required")
	}
	if !strings.Contains(u.Email, "@") {
		problems = append(problems, "email is required")
	}
	if _, err := time.Parse(common.ClockLayout, u.AlertTime); err != nil || len(u.AlertTime) != len(common.ClockLayout) {
		problems = append(problems, "alertTime must be HH:mm")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", common.ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}
