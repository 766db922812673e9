package vapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenScope struct {
	Tag string `json:"tag"`
}

type WebTokenClaims struct {
	OrgID string     `json:"orgId"`
	Token TokenScope `json:"token"`
	jwt.RegisteredClaims
}

// SignWebToken issues a short-lived public-scope token the browser SDK can use.
func SignWebToken(orgID, privateKey, subject string, ttl time.Duration, now time.Time) (string, error) {
	if strings.TrimSpace(privateKey) == "" {
		return "", fmt.Errorf("missing VAPI_PRIVATE_KEY")
	}
	if strings.TrimSpace(orgID) == "" {
		return "", fmt.Errorf("missing VAPI_ORG_ID")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	claims := WebTokenClaims{
		OrgID: orgID,
		Token: TokenScope{Tag: "public"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(privateKey))
}

// ParseWebToken verifies a token signed by SignWebToken.
func ParseWebToken(tokenString, privateKey string) (*WebTokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &WebTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(privateKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*WebTokenClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}
	return claims, nil
}
