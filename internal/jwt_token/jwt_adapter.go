package jwttoken

import (
	authmw "claimguard/pkg/platform/middleware/auth"
)

func ToMiddlewareClaims(claims *ActorClaims) *authmw.JWTClaims {
	return &authmw.JWTClaims{
		ActorID: claims.Subject,
		Role:    claims.Role,
		JTI:     claims.ID,
	}
}

// JWTServiceAdapter lets the auth middleware validate actor tokens.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
