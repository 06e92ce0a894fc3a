package httpapi

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"laundryops/internal/domain"
)

type userStoreStub struct {
	mu      sync.Mutex
	users   map[string]domain.UserAccount
	updates int
}

func (s *userStoreStub) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[string]domain.UserAccount)
	}
	s.users[user.Username] = user
	return nil
}

func (s *userStoreStub) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *userStoreStub) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.users[username]
	user.Password = password
	s.users[username] = user
	s.updates++
	return nil
}

func newStubWithSuperAdmin() *userStoreStub {
	return &userStoreStub{
		users: map[string]domain.UserAccount{
			"superadmin": {
				Username:  "superadmin",
				Password:  "admin123",
				Role:      domain.RoleSuperAdmin,
				Active:    true,
				CreatedAt: time.Now().UTC(),
			},
		},
	}
}

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	store := newStubWithSuperAdmin()

	manager := NewAuthManager("test-secret", time.Hour, store)
	_, err := manager.Login(context.Background(), domain.LoginRequest{
		Username: "superadmin",
		Password: "admin123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	users, err := store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if !strings.HasPrefix(users[0].Password, "$2") {
		t.Fatalf("expected bcrypt password hash, got %s", users[0].Password)
	}
	if store.updates == 0 {
		t.Fatalf("expected upgraded hash to be written back")
	}
}

func TestTokenCarriesRoleAndOutlet(t *testing.T) {
	store := &userStoreStub{}
	manager := NewAuthManager("test-secret", time.Hour, store)

	if _, err := manager.CreateStaff(context.Background(), domain.StaffCreateRequest{
		Username: "admin-bintaro",
		Password: "bintaro-pass",
		Role:     domain.RoleOutletAdmin,
		OutletID: "outlet-bintaro",
	}); err != nil {
		t.Fatalf("create staff failed: %v", err)
	}

	resp, err := manager.Login(context.Background(), domain.LoginRequest{Username: "Admin-Bintaro", Password: "bintaro-pass"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.OutletID != "outlet-bintaro" {
		t.Fatalf("expected outlet in login response, got %q", resp.OutletID)
	}

	actor, err := manager.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if actor.Username != "admin-bintaro" || actor.Role != domain.RoleOutletAdmin || actor.OutletID != "outlet-bintaro" {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestParseTokenRejectsOtherSecret(t *testing.T) {
	store := newStubWithSuperAdmin()
	issuer := NewAuthManager("secret-one", time.Hour, store)
	verifier := NewAuthManager("secret-two", time.Hour, store)

	resp, err := issuer.Login(context.Background(), domain.LoginRequest{Username: "superadmin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := verifier.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}

func TestCreateStaffStoresPasswordHash(t *testing.T) {
	store := newStubWithSuperAdmin()

	manager := NewAuthManager("test-secret", time.Hour, store)
	staff, err := manager.CreateStaff(context.Background(), domain.StaffCreateRequest{
		Username: "kurir01",
		Password: "kurir-pass",
		Role:     domain.RoleDriver,
		OutletID: "outlet-kemang",
	})
	if err != nil {
		t.Fatalf("create staff failed: %v", err)
	}
	if staff.Username != "kurir01" || staff.Role != domain.RoleDriver {
		t.Fatalf("unexpected staff %+v", staff)
	}

	users, _ := store.ListUsers(context.Background())
	var found *domain.UserAccount
	for i := range users {
		if users[i].Username == "kurir01" {
			found = &users[i]
			break
		}
	}
	if found == nil {
		t.Fatalf("expected staff to be saved")
	}
	if !strings.HasPrefix(found.Password, "$2") {
		t.Fatalf("expected bcrypt hash prefix, got %s", found.Password)
	}
	if found.OutletID != "outlet-kemang" {
		t.Fatalf("expected outlet to be stored, got %q", found.OutletID)
	}
}

func TestCreateStaffValidation(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, newStubWithSuperAdmin())

	cases := []struct {
		name string
		req  domain.StaffCreateRequest
	}{
		{"short username", domain.StaffCreateRequest{Username: "abc", Password: "long-enough", Role: domain.RoleWorker, OutletID: "o"}},
		{"space in username", domain.StaffCreateRequest{Username: "ab cd", Password: "long-enough", Role: domain.RoleWorker, OutletID: "o"}},
		{"short password", domain.StaffCreateRequest{Username: "worker9", Password: "short", Role: domain.RoleWorker, OutletID: "o"}},
		{"super admin role", domain.StaffCreateRequest{Username: "boss99", Password: "long-enough", Role: domain.RoleSuperAdmin, OutletID: "o"}},
		{"missing outlet", domain.StaffCreateRequest{Username: "worker9", Password: "long-enough", Role: domain.RoleWorker}},
		{"duplicate", domain.StaffCreateRequest{Username: "superadmin", Password: "long-enough", Role: domain.RoleWorker, OutletID: "o"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := manager.CreateStaff(context.Background(), tc.req); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestListStaffFiltersByOutlet(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, newStubWithSuperAdmin())
	for _, req := range []domain.StaffCreateRequest{
		{Username: "worker-a", Password: "password-a", Role: domain.RoleWorker, OutletID: "outlet-a"},
		{Username: "worker-b", Password: "password-b", Role: domain.RoleWorker, OutletID: "outlet-b"},
	} {
		if _, err := manager.CreateStaff(context.Background(), req); err != nil {
			t.Fatalf("create staff failed: %v", err)
		}
	}

	all := manager.ListStaff(context.Background(), "")
	if len(all) != 2 {
		t.Fatalf("expected 2 staff without super admin, got %d", len(all))
	}
	scoped := manager.ListStaff(context.Background(), "outlet-b")
	if len(scoped) != 1 || scoped[0].Username != "worker-b" {
		t.Fatalf("expected only worker-b, got %+v", scoped)
	}
}
