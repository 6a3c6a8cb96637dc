package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/achufistov/shortypanel/internal/app/auth"
	"github.com/achufistov/shortypanel/internal/app/models"
)

// Register creates a standard account. A taken login is reported as a validation error.
func (s *Service) Register(ctx context.Context, in models.RegisterInput) (models.User, error) {
	if err := models.Validate(in); err != nil {
		return models.User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.storage.CreateUser(ctx, in.Login, hash, models.RoleUser)
	if errors.Is(err, models.ErrConflict) {
		return models.User{}, models.ValidationErrors{{Field: "login", Message: "Username already exists"}}
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("login", user.Login))
	return user, nil
}

// LoginResponse carries the authenticated principal and its signed session token.
type LoginResponse struct {
	Principal auth.Principal
	Token     string
}

// Login checks credentials and issues a session token.
func (s *Service) Login(ctx context.Context, in models.LoginInput) (*LoginResponse, error) {
	if err := models.Validate(in); err != nil {
		return nil, err
	}

	user, err := s.storage.GetUserByLogin(ctx, in.Login)
	if errors.Is(err, models.ErrNotFound) {
		return nil, auth.ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := auth.CheckPassword(user.Password, in.Password); err != nil {
		return nil, err
	}

	p := auth.PrincipalFromUser(user)
	token, err := s.tokens.Issue(p)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Principal: p, Token: token}, nil
}

// GetUser returns a user by id.
func (s *Service) GetUser(ctx context.Context, id int64) (models.User, error) {
	return s.storage.GetUserByID(ctx, id)
}

// deleteUserPasses bounds the cascade retries of DeleteUser.
const deleteUserPasses = 3

// DeleteUser removes a standard user. Every owned URL is deleted first, each with its visits.
// Admin accounts cannot be deleted.
func (s *Service) DeleteUser(ctx context.Context, p auth.Principal, id int64) error {
	if !p.IsAdmin() {
		return models.ErrForbidden
	}

	target, err := s.storage.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if err := p.CanDeleteUser(target); err != nil {
		return err
	}

	// A url shortened between the listing and the delete makes the store refuse
	// with ErrConflict; list again.
	deleted := 0
	for pass := 0; pass < deleteUserPasses; pass++ {
		ids, err := s.storage.ListURLIDsByUser(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to list urls of user %d: %w", id, err)
		}
		for _, urlID := range ids {
			if err := s.storage.DeleteURL(ctx, urlID); err != nil && !errors.Is(err, models.ErrNotFound) {
				return fmt.Errorf("failed to delete url %d: %w", urlID, err)
			}
		}
		deleted += len(ids)

		err = s.storage.DeleteUser(ctx, id)
		if err == nil {
			s.logger.Info("user deleted", zap.Int64("user_id", id), zap.Int("urls", deleted))
			return nil
		}
		if !errors.Is(err, models.ErrConflict) {
			return fmt.Errorf("failed to delete user %d: %w", id, err)
		}
	}
	return fmt.Errorf("failed to delete user %d: %w", id, models.ErrConflict)
}

// ChangePassword sets a new password for a user. Admin only.
func (s *Service) ChangePassword(ctx context.Context, p auth.Principal, id int64, in models.PasswordInput) error {
	if !p.IsAdmin() {
		return models.ErrForbidden
	}
	if err := models.Validate(in); err != nil {
		return err
	}
	if _, err := s.storage.GetUserByID(ctx, id); err != nil {
		return err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return err
	}
	if err := s.storage.UpdatePassword(ctx, id, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}
