package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propscout/propscout-backend/internal/users"
	"github.com/propscout/propscout-backend/pkg/config"
	"github.com/propscout/propscout-backend/pkg/db/dbtest"
	"github.com/propscout/propscout-backend/pkg/enums"
	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
)

func TestBootstrapAdmin(t *testing.T) {
	repo := users.NewRepository(dbtest.Open(t))
	ctx := context.Background()

	user, err := BootstrapAdmin(ctx, repo, config.PasswordConfig{}, AdminRequest{
		Email:    "Ops@PropScout.ng",
		Password: "bootstrap-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.RoleAdmin, user.Role)
	assert.Equal(t, "ops@propscout.ng", user.Email)
	assert.Equal(t, "Admin", user.FirstName)
	assert.Equal(t, "User", user.LastName)

	_, err = BootstrapAdmin(ctx, repo, config.PasswordConfig{}, AdminRequest{Email: "ops@propscout.ng", Password: "bootstrap-pass"})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestBootstrapAdminValidates(t *testing.T) {
	repo := users.NewRepository(dbtest.Open(t))
	ctx := context.Background()

	_, err := BootstrapAdmin(ctx, repo, config.PasswordConfig{}, AdminRequest{Email: " ", Password: "bootstrap-pass"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = BootstrapAdmin(ctx, repo, config.PasswordConfig{}, AdminRequest{Email: "ops@propscout.ng", Password: "short"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = BootstrapAdmin(ctx, nil, config.PasswordConfig{}, AdminRequest{Email: "ops@propscout.ng"})
	assert.Error(t, err)
}
