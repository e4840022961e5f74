package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"decorrental/model"

	"github.com/golang-jwt/jwt/v5"
)

// Issue signs a session token for id.
func Issue(secret string, id model.Identity, ttl time.Duration) (string, error) {
	role := id.Role
	if role == "" {
		role = model.RoleUser
	}
	claims := jwt.MapClaims{
		"sub":   id.ID,
		"name":  id.DisplayName,
		"guest": id.IsGuest,
		"role":  role,
		"exp":   time.Now().Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// IdentityFromClaims rebuilds the caller from session claims.
func IdentityFromClaims(mc jwt.MapClaims) (model.Identity, error) {
	sub, _ := mc["sub"].(string)
	if sub == "" {
		return model.Identity{}, errors.New("sub missing in claims")
	}
	name, _ := mc["name"].(string)
	guest, _ := mc["guest"].(bool)
	role, _ := mc["role"].(string)
	return model.Identity{ID: sub, DisplayName: name, IsGuest: guest, Role: role}, nil
}

// ParseCustomToken verifies a token minted by the identity provider (claims uid, name, role).
func ParseCustomToken(token, secret string) (model.Identity, error) {
	mc, err := parse(strings.TrimSpace(token), secret)
	if err != nil {
		return model.Identity{}, err
	}
	uid, _ := mc["uid"].(string)
	if uid == "" {
		return model.Identity{}, errors.New("uid missing in custom token")
	}
	name, _ := mc["name"].(string)
	role, _ := mc["role"].(string)
	if role == "" {
		role = model.RoleUser
	}
	return model.Identity{ID: uid, DisplayName: name, Role: role}, nil
}

func parse(tokenStr, secret string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}

	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return mc, nil
}
