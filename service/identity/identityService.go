package identitysvc

import (
	"context"
	"strings"
	"time"

	"decorrental/model"
	"decorrental/util/apperr"
	jwtutil "decorrental/util/jwt"

	"github.com/google/uuid"
)

const SessionTTL = 24 * time.Hour

type Service interface {
	SignInGuest(ctx context.Context, req model.GuestSignInReq) (*model.Identity, string, error)
	SignInWithToken(ctx context.Context, req model.TokenSignInReq) (*model.Identity, string, error)
}

type service struct {
	sessionSecret string
	customSecret  string
	ttl           time.Duration
	newID         func() string
}

func New(sessionSecret, customSecret string) Service {
	return &service{
		sessionSecret: sessionSecret,
		customSecret:  customSecret,
		ttl:           SessionTTL,
		newID:         uuid.NewString,
	}
}

func (s *service) SignInGuest(ctx context.Context, req model.GuestSignInReq) (*model.Identity, string, error) {
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		name = "Guest"
	}
	id := &model.Identity{
		ID:          s.newID(),
		DisplayName: name,
		IsGuest:     true,
		Role:        model.RoleUser,
	}
	return s.issue(id)
}

func (s *service) SignInWithToken(ctx context.Context, req model.TokenSignInReq) (*model.Identity, string, error) {
	if s.customSecret == "" {
		return nil, "", apperr.New(apperr.Configuration, "custom token sign-in is not configured")
	}
	ident, err := jwtutil.ParseCustomToken(req.Token, s.customSecret)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.Auth, "invalid custom token", err)
	}
	return s.issue(&ident)
}

func (s *service) issue(id *model.Identity) (*model.Identity, string, error) {
	token, err := jwtutil.Issue(s.sessionSecret, *id, s.ttl)
	if err != nil {
		return nil, "", err
	}
	return id, token, nil
}
