package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const audience = "luxsuv-hotel-api"

type Claims struct {
	Sub          string   `json:"sub"`
	Name         string   `json:"name"`
	Capabilities []string `json:"caps"`
	jwt.RegisteredClaims
}

// Has reports whether the token grants capability c.
func (c *Claims) Has(capability string) bool {
	return slices.Contains(c.Capabilities, capability)
}

func NewAccessToken(sub, name string, capabilities []string, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Sub:          sub,
		Name:         name,
		Capabilities: capabilities,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{audience},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func Parse(tokenString, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithAudience(audience))
	if err != nil {
		return nil, err
	}
	if claims, ok := tok.Claims.(*Claims); ok && tok.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
