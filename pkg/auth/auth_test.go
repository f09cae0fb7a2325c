package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"

	"github.com/urveshtaral/library-management-system/pkg/auth"
)

func TestToken_RoundTrip(t *testing.T) {
	t.Parallel()
	tokenStr, err := auth.NewToken("alice", auth.RoleUser, time.Hour)
	require.NoError(t, err)

	claims := new(auth.Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return auth.JWTKey, nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)
	require.Equal(t, "alice", claims.Profile.Username)
	require.Equal(t, auth.RoleUser, claims.Profile.Role)
	require.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestPassword_HashAndCheck(t *testing.T) {
	t.Parallel()
	hash, err := auth.HashPassword("s3cr3t-pass")
	require.NoError(t, err)
	require.NotEqual(t, "s3cr3t-pass", hash)
	require.True(t, auth.CheckPassword(hash, "s3cr3t-pass"))
	require.False(t, auth.CheckPassword(hash, "wrong"))
}

func TestAuthContext(t *testing.T) {
	t.Parallel()
	ctx := auth.SetAuthContext(context.Background(), "bob", auth.RoleAdmin)

	name, err := auth.GetUserName(ctx)
	require.NoError(t, err)
	require.Equal(t, "bob", name)

	role, err := auth.GetUserRole(ctx)
	require.NoError(t, err)
	require.Equal(t, auth.RoleAdmin, role)

	_, err = auth.GetUserName(context.Background())
	require.Error(t, err)
}
