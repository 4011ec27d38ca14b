package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Back-office roles carried in the token.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleCrew    = "crew"
)

// Claims standard JWT claims plus the shop and role, so the role guard needs no lookup.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	ShopCode string `json:"shop_code"`
	Role     string `json:"role"`
}

var errEmptySecret = errors.New("jwt: empty secret")

// Generate signs an HS256 token carrying userID, shopCode and role.
func Generate(secret, userID, shopCode, role, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", errEmptySecret
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:   userID,
		ShopCode: shopCode,
		Role:     role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Parse validates the token and returns userID, shopCode and role. Invalid, expired or
// wrongly signed tokens return an error.
func Parse(secret, tokenString string) (userID, shopCode, role string, err error) {
	if secret == "" {
		return "", "", "", errEmptySecret
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", "", "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", "", "", errors.New("jwt: invalid claims")
	}
	return claims.UserID, claims.ShopCode, claims.Role, nil
}
