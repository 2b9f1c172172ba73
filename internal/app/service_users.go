package app

import (
	"context"
	"net/http"
	"strings"

	"complyhub/api/internal/authpw"
	"complyhub/api/internal/rbac"
)

type CreateUserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	ClientID string `json:"clientId"`
}

type UpdateUserInput struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	ClientID string `json:"clientId"`
}

func (s *Service) ListUsers(ctx context.Context) ([]map[string]any, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(users))
	for _, u := range users {
		items = append(items, userPayload(u))
	}
	return items, nil
}

func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (map[string]any, error) {
	user, err := s.authpw.CreateUser(ctx, authpw.CreateUserRequest{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Role:     input.Role,
		ClientID: input.ClientID,
	})
	if err != nil {
		if err.Error() == "email already registered" {
			return nil, domainError(http.StatusConflict, "EMAIL_EXISTS", "Email already registered", nil)
		}
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	}
	return userPayload(user), nil
}

func (s *Service) UpdateUser(ctx context.Context, userID string, input UpdateUserInput) (map[string]any, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	role := rbac.Normalize(input.Role)
	clientID := strings.TrimSpace(input.ClientID)
	if role != rbac.RoleClient {
		clientID = ""
	}

	updated, err := s.store.UpdateUser(ctx, userID, name, string(role), clientID)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "User not found", nil)
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return userPayload(user), nil
}

// DeleteUser removes the login only. Records the user touched keep their name
// in audit fields; nothing cascades.
func (s *Service) DeleteUser(ctx context.Context, session Session, userID string) error {
	if session.UserID == userID {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "cannot delete your own account", nil)
	}
	deleted, err := s.store.DeleteUser(ctx, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return domainError(http.StatusNotFound, "NOT_FOUND", "User not found", nil)
	}
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, session Session, currentPassword, newPassword string) error {
	if err := s.authpw.ChangePassword(ctx, session.UserID, currentPassword, newPassword); err != nil {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, userID, newPassword string) error {
	if err := s.authpw.ResetPassword(ctx, userID, newPassword); err != nil {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	}
	return nil
}
