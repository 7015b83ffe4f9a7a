package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"invitease/internal/domain"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	Contact string `json:"contact"`
	Role    string `json:"role"`
}

type jwtCodec struct {
	secret []byte
}

// NewJWTIssuer returns a TokenIssuer that signs HS256 JWTs carrying the
// account id (subject), contact identifier, and role.
func NewJWTIssuer(secret string) domain.TokenIssuer {
	return &jwtCodec{secret: []byte(secret)}
}

// NewJWTVerifier returns a TokenVerifier for tokens signed with the same secret.
func NewJWTVerifier(secret string) domain.TokenVerifier {
	return &jwtCodec{secret: []byte(secret)}
}

func (c *jwtCodec) Issue(accountID, contact, role string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		Contact: contact,
		Role:    role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func (c *jwtCodec) Verify(tokenString string) (*domain.TokenClaims, error) {
	var claims jwtClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return &domain.TokenClaims{
		AccountID: claims.Subject,
		Contact:   claims.Contact,
		Role:      claims.Role,
	}, nil
}
