package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propscout/propscout-backend/internal/users"
	pkgAuth "github.com/propscout/propscout-backend/pkg/auth"
	"github.com/propscout/propscout-backend/pkg/config"
	"github.com/propscout/propscout-backend/pkg/db/models"
	"github.com/propscout/propscout-backend/pkg/enums"
	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
	"github.com/propscout/propscout-backend/pkg/security"
)

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "propscout",
	ExpirationMinutes: 30,
}

func TestServiceLoginIssuesRoleClaim(t *testing.T) {
	password := "scout-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "scout@example.com",
		PasswordHash: mustHashPassword(t, password),
		FirstName:    "Tunde",
		LastName:     "Scout",
		Role:         enums.RoleScout,
		IsActive:     true,
	}
	repo := newStubUserRepo(user)
	svc := buildTestService(t, repo)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: " SCOUT@example.com ", Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.RoleScout {
		t.Fatalf("expected scout role claim, got %s", claims.Role)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id %s, got %s", user.ID, claims.UserID)
	}
	if resp.TokenType != "Bearer" || resp.ExpiresIn != 1800 {
		t.Fatalf("unexpected token metadata: %s %d", resp.TokenType, resp.ExpiresIn)
	}
	if user.LastLoginAt == nil {
		t.Fatalf("expected last login to be recorded")
	}
}

func TestServiceLoginRejectsBadPassword(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "client@example.com",
		PasswordHash: mustHashPassword(t, "correct-horse"),
		Role:         enums.RoleClient,
		IsActive:     true,
	}
	svc := buildTestService(t, newStubUserRepo(user))

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "wrong-horse"})
	assertCode(t, err, pkgerrors.CodeUnauthorized)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "missing@example.com", Password: "whatever1"})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestServiceLoginRejectsInactiveUser(t *testing.T) {
	password := "inactive-pass"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "gone@example.com",
		PasswordHash: mustHashPassword(t, password),
		Role:         enums.RoleClient,
	}
	svc := buildTestService(t, newStubUserRepo(user))

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestServiceRegisterDefaultsToClient(t *testing.T) {
	repo := newStubUserRepo()
	svc := buildTestService(t, repo)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Ngozi",
		LastName:  "Eze",
		Email:     "Ngozi@Example.com",
		Password:  "long-enough",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Role != enums.RoleClient {
		t.Fatalf("expected CLIENT role, got %s", resp.User.Role)
	}
	if resp.User.Email != "ngozi@example.com" {
		t.Fatalf("expected normalized email, got %s", resp.User.Email)
	}
	if resp.AccessToken == "" {
		t.Fatalf("expected access token")
	}
}

func TestServiceRegisterRoleRules(t *testing.T) {
	svc := buildTestService(t, newStubUserRepo())
	base := RegisterRequest{FirstName: "A", LastName: "B", Password: "long-enough"}

	scout := base
	scout.Email = "scout@example.com"
	scout.Role = enums.RoleScout
	if _, err := svc.Register(context.Background(), scout); err != nil {
		t.Fatalf("scout register: %v", err)
	}

	admin := base
	admin.Email = "admin@example.com"
	admin.Role = enums.RoleAdmin
	_, err := svc.Register(context.Background(), admin)
	assertCode(t, err, pkgerrors.CodeForbidden)

	bogus := base
	bogus.Email = "bogus@example.com"
	bogus.Role = "OWNER"
	_, err = svc.Register(context.Background(), bogus)
	assertCode(t, err, pkgerrors.CodeValidation)

	short := base
	short.Email = "short@example.com"
	short.Password = "short"
	_, err = svc.Register(context.Background(), short)
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestServiceRegisterDuplicateEmail(t *testing.T) {
	existing := &models.User{ID: uuid.New(), Email: "taken@example.com", Role: enums.RoleClient}
	svc := buildTestService(t, newStubUserRepo(existing))

	_, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "A",
		LastName:  "B",
		Email:     "taken@example.com",
		Password:  "long-enough",
	})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestServiceMe(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "me@example.com", Role: enums.RoleClient, IsActive: true}
	svc := buildTestService(t, newStubUserRepo(user))

	dto, err := svc.Me(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if dto.ID != user.ID {
		t.Fatalf("expected %s, got %s", user.ID, dto.ID)
	}

	_, err = svc.Me(context.Background(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func buildTestService(t *testing.T, repo *stubUserRepo) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{UserRepo: repo, JWTConfig: testJWT})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

type stubUserRepo struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
}

func newStubUserRepo(list ...*models.User) *stubUserRepo {
	repo := &stubUserRepo{byEmail: map[string]*models.User{}, byID: map[uuid.UUID]*models.User{}}
	for _, u := range list {
		repo.byEmail[u.Email] = u
		repo.byID[u.ID] = u
	}
	return repo
}

func (s *stubUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
	return user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	u, ok := s.byID[id]
	if !ok {
		return errors.New("unknown user")
	}
	u.LastLoginAt = &at
	return nil
}
