package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	XUserNameHeader = "X-User-Name"
	XUserRoleHeader = "X-User-Role"

	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// JWTKey signs issued tokens. Overridden from config at startup.
var JWTKey = []byte("library-secret")

type Profile struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type Claims struct {
	jwt.RegisteredClaims
	Profile Profile `json:"profile"`
}

// NewToken issues a signed HS256 token for the given profile.
func NewToken(username, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   username,
		},
		Profile: Profile{Username: username, Role: role},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTKey)
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "bcrypt")
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

type ctxKey int

const authKey ctxKey = iota

type authContext struct {
	Username string
	Role     string
}

func SetAuthContext(ctx context.Context, username, role string) context.Context {
	return context.WithValue(ctx, authKey, authContext{Username: username, Role: role})
}

func GetUserName(ctx context.Context) (string, error) {
	ac, ok := ctx.Value(authKey).(authContext)
	if !ok || ac.Username == "" {
		return "", errors.New("no authenticated user in context")
	}
	return ac.Username, nil
}

func GetUserRole(ctx context.Context) (string, error) {
	ac, ok := ctx.Value(authKey).(authContext)
	if !ok || ac.Role == "" {
		return "", errors.New("no authenticated role in context")
	}
	return ac.Role, nil
}
