// Package jwttoken validates the access tokens minted by the external
// authentication service. The engine only consumes tokens; issuance, wallet
// binding and officer provisioning live outside this repository.
package jwttoken

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"altanbank/internal/platform/middleware"
	dErrors "altanbank/pkg/domain-errors"
)

// Claims are the officer identity claims embedded in access tokens.
type Claims struct {
	OfficerID string `json:"officer_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService validates HMAC-signed access tokens against the shared key.
type JWTService struct {
	signingKey []byte
}

func NewJWTService(signingKey string) *JWTService {
	return &JWTService{signingKey: []byte(signingKey)}
}

// ValidateToken parses and verifies a token, returning the resolved claims in
// the shape the auth middleware consumes.
func (s *JWTService) ValidateToken(tokenString string) (*middleware.OfficerClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return &middleware.OfficerClaims{OfficerID: claims.OfficerID, Role: claims.Role}, nil
}
