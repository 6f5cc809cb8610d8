package auth

import (
	"context"
	"strings"
	"time"

	"github.com/propscout/propscout-backend/internal/users"
	"github.com/propscout/propscout-backend/pkg/config"
	"github.com/propscout/propscout-backend/pkg/enums"
	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
)

// AdminRequest describes an operator account created from the migrate CLI.
type AdminRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// BootstrapAdmin creates an ADMIN account. Self-registration refuses that
// role, so this is the only path that mints one.
func BootstrapAdmin(ctx context.Context, repo *users.Repository, pw config.PasswordConfig, req AdminRequest) (*users.UserDTO, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repository required")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	s := &service{users: repo, passwordCfg: pw, now: time.Now}
	user, err := s.createUser(ctx, users.CreateUserDTO{
		Email:     email,
		FirstName: orDefault(req.FirstName, "Admin"),
		LastName:  orDefault(req.LastName, "User"),
		Role:      enums.RoleAdmin,
	}, req.Password)
	if err != nil {
		return nil, err
	}
	return users.FromModel(user), nil
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}
