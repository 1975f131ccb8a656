package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/golang-jwt/jwt/v5"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the verified caller behind a token.
type Identity struct {
	Subject  string
	Email    string
	Username string
}

// CustomClaims are the profile claims carried next to the registered ones.
type CustomClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

func (c *CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// Authenticator verifies HS256 bearer tokens for both the REST middleware and
// the socket handshake.
type Authenticator struct {
	validator *validator.Validator
}

func NewAuthenticator(secret []byte, issuer, audience string) (*Authenticator, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: JWT secret key not set")
	}
	keyFunc := func(ctx context.Context) (interface{}, error) {
		return secret, nil
	}
	v, err := validator.New(
		keyFunc,
		validator.HS256,
		issuer,
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to set up the validator: %w", err)
	}
	return &Authenticator{validator: v}, nil
}

// ValidateToken has the signature the JWT middleware expects.
func (a *Authenticator) ValidateToken(ctx context.Context, token string) (interface{}, error) {
	return a.validator.ValidateToken(ctx, token)
}

// Authenticate verifies token and returns the identity it carries. Every
// failure wraps ErrUnauthenticated.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, fmt.Errorf("missing token: %w", ErrUnauthenticated)
	}
	claims, err := a.validator.ValidateToken(ctx, token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	validated, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return Identity{}, fmt.Errorf("unexpected claims type %T: %w", claims, ErrUnauthenticated)
	}
	return IdentityFromClaims(validated)
}

// IdentityFromClaims extracts the identity from claims already validated by
// the middleware.
func IdentityFromClaims(claims *validator.ValidatedClaims) (Identity, error) {
	if claims == nil || claims.RegisteredClaims.Subject == "" {
		return Identity{}, fmt.Errorf("no subject found: %w", ErrUnauthenticated)
	}
	id := Identity{Subject: claims.RegisteredClaims.Subject}
	if custom, ok := claims.CustomClaims.(*CustomClaims); ok && custom != nil {
		id.Email = custom.Email
		id.Username = custom.Username
	}
	return id, nil
}

type tokenClaims struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// CreateToken signs an HS256 token for id. Used by local tooling and tests;
// production tokens come from the identity provider.
func CreateToken(secret []byte, issuer, audience string, id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Email:    id.Email,
		Username: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.Subject,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}
