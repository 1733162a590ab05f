package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gamestore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gamestore-backend/pkg/errors"
	"github.com/angelmondragon/gamestore-backend/pkg/security"
)

func TestRegisterCreatesCustomerWithTokens(t *testing.T) {
	svc, _ := buildTestService(t, nil)
	name := "  Ada  "

	resp, err := svc.Register(context.Background(), RegisterRequest{Email: "Ada@Example.com", Password: "longenough", Name: &name})
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", resp.User.Email)
	require.Equal(t, enums.UserRoleCustomer, resp.User.Role)
	require.Equal(t, "Ada", *resp.User.Name)
	require.NotEmpty(t, resp.AccessToken)

	repo := svc.(*service).users.(*stubUserRepository)
	stored := repo.data["ada@example.com"]
	ok, err := security.VerifyPassword("longenough", stored.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRegisterAdminAssignsRole(t *testing.T) {
	svc, _ := buildTestService(t, nil)

	resp, err := svc.RegisterAdmin(context.Background(), RegisterRequest{Email: "ops@example.com", Password: "longenough"})
	require.NoError(t, err)
	require.Equal(t, enums.UserRoleAdmin, resp.User.Role)
}

func TestRegisterValidation(t *testing.T) {
	existing := newTestUser(t, "taken@example.com", "longenough", enums.UserRoleCustomer)
	svc, _ := buildTestService(t, existing)

	_, err := svc.Register(context.Background(), RegisterRequest{Email: "short@example.com", Password: "short"})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.Register(context.Background(), RegisterRequest{Email: "   ", Password: "longenough"})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.Register(context.Background(), RegisterRequest{Email: "TAKEN@example.com", Password: "longenough"})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}
