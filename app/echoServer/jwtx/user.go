package jwtx

import (
	"errors"

	"decorrental/model"
	jwtutil "decorrental/util/jwt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// ContextKey is where echo-jwt stores the parsed token.
const ContextKey = "user"

func claimsFromContext(c echo.Context) (jwt.MapClaims, error) {
	tok, ok := c.Get(ContextKey).(*jwt.Token)
	if !ok || tok == nil {
		return nil, errors.New("no jwt token in context")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid jwt claims")
	}
	return claims, nil
}

// IdentityFromContext is the current user of an authenticated request.
func IdentityFromContext(c echo.Context) (*model.Identity, error) {
	claims, err := claimsFromContext(c)
	if err != nil {
		return nil, err
	}
	id, err := jwtutil.IdentityFromClaims(claims)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
