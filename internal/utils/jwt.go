package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

// Claims carries the identity the HTTP login layer vouches for. The chat
// server only verifies tokens; issuing them belongs to the SSO integration.
type Claims struct {
	SSOID     string `json:"sso_id"`
	Role      string `json:"role"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	jwt.StandardClaims
}

var ErrInvalidToken = errors.New("invalid or expired token")

// GenerateToken signs claims with HS256 and the given lifetime
func GenerateToken(secret []byte, claims Claims, ttl time.Duration) (string, error) {
	nowTime := time.Now()
	claims.StandardClaims.IssuedAt = nowTime.Unix()
	claims.StandardClaims.ExpiresAt = nowTime.Add(ttl).Unix()

	tokenClaims := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenClaims.SignedString(secret)
}

// ParseToken validates an HS256 token and returns its claims
func ParseToken(secret []byte, token string) (*Claims, error) {
	tokenClaims, err := jwt.ParseWithClaims(token, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})

	if tokenClaims != nil {
		if claims, ok := tokenClaims.Claims.(*Claims); ok && tokenClaims.Valid && claims.SSOID != "" {
			return claims, nil
		}
	}

	if err == nil {
		err = ErrInvalidToken
	}
	return nil, err
}
