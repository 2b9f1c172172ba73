package authpw

import (
	"context"
	"errors"
	"testing"

	"complyhub/api/internal/store"
)

type memoryUserStore struct {
	users map[string]store.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: make(map[string]store.User)}
}

func (m *memoryUserStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return store.User{}, errors.New("not found")
}

func (m *memoryUserStore) GetUserByID(_ context.Context, id string) (store.User, error) {
	user, ok := m.users[id]
	if !ok {
		return store.User{}, errors.New("not found")
	}
	return user, nil
}

func (m *memoryUserStore) InsertUser(_ context.Context, user store.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *memoryUserStore) UpdateUserPassword(_ context.Context, userID, passwordHash string) error {
	user, ok := m.users[userID]
	if !ok {
		return errors.New("not found")
	}
	user.PasswordHash = passwordHash
	m.users[userID] = user
	return nil
}

func TestCreateUserAndSignIn(t *testing.T) {
	svc := NewService(newMemoryUserStore())
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserRequest{
		Name:     "Priya Sharma",
		Email:    "priya@complyhub.test",
		Password: "correct horse",
		Role:     "Admin",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.Role != "Admin" {
		t.Errorf("expected Admin role, got %s", user.Role)
	}
	if user.PasswordHash == "correct horse" {
		t.Error("password stored in the clear")
	}

	got, err := svc.SignIn(ctx, SignInRequest{Email: "priya@complyhub.test", Password: "correct horse"})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("expected user %s, got %s", user.ID, got.ID)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	svc := NewService(newMemoryUserStore())
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, CreateUserRequest{Name: "A", Email: "a@x.test", Password: "password1"}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := svc.SignIn(ctx, SignInRequest{Email: "a@x.test", Password: "password2"}); err == nil {
		t.Error("expected error for wrong password")
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc := NewService(newMemoryUserStore())
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, CreateUserRequest{Name: "A", Email: "dup@x.test", Password: "password1"}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := svc.CreateUser(ctx, CreateUserRequest{Name: "B", Email: "dup@x.test", Password: "password2"}); err == nil {
		t.Error("expected error for duplicate email")
	}
}

func TestCreateUserShortPassword(t *testing.T) {
	svc := NewService(newMemoryUserStore())
	if _, err := svc.CreateUser(context.Background(), CreateUserRequest{Name: "A", Email: "a@x.test", Password: "short"}); err == nil {
		t.Error("expected error for short password")
	}
}

func TestCreateUserUnknownRoleDefaultsViewer(t *testing.T) {
	svc := NewService(newMemoryUserStore())
	user, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Name: "A", Email: "a@x.test", Password: "password1", Role: "superuser",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.Role != "Viewer" {
		t.Errorf("expected Viewer, got %s", user.Role)
	}
}

func TestCreateUserDropsClientIDForStaffRoles(t *testing.T) {
	svc := NewService(newMemoryUserStore())
	user, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Name: "A", Email: "a@x.test", Password: "password1", Role: "Manager", ClientID: "1",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.ClientID != "" {
		t.Errorf("expected empty clientId for Manager, got %q", user.ClientID)
	}

	client, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Name: "B", Email: "b@x.test", Password: "password1", Role: "Client", ClientID: "1",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if client.ClientID != "1" {
		t.Errorf("expected clientId 1 for Client role, got %q", client.ClientID)
	}
}

func TestChangePassword(t *testing.T) {
	svc := NewService(newMemoryUserStore())
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserRequest{Name: "A", Email: "a@x.test", Password: "password1"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if err := svc.ChangePassword(ctx, user.ID, "wrong", "password2"); err == nil {
		t.Error("expected error for wrong current password")
	}
	if err := svc.ChangePassword(ctx, user.ID, "password1", "password2"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	if _, err := svc.SignIn(ctx, SignInRequest{Email: "a@x.test", Password: "password2"}); err != nil {
		t.Errorf("SignIn with new password failed: %v", err)
	}
	if _, err := svc.SignIn(ctx, SignInRequest{Email: "a@x.test", Password: "password1"}); err == nil {
		t.Error("old password still accepted")
	}
}

func TestResetPassword(t *testing.T) {
	svc := NewService(newMemoryUserStore())
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserRequest{Name: "A", Email: "a@x.test", Password: "password1"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if err := svc.ResetPassword(ctx, user.ID, "password9"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	if _, err := svc.SignIn(ctx, SignInRequest{Email: "a@x.test", Password: "password9"}); err != nil {
		t.Errorf("SignIn after reset failed: %v", err)
	}
}
