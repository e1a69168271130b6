package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Miraines/MoonyAndStarry/user-service/internal/app/auth/password"
	customErrors "github.com/Miraines/MoonyAndStarry/user-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/user-service/internal/domain/auth/model"
	lg "github.com/Miraines/MoonyAndStarry/user-service/internal/infra/log"
	"go.uber.org/zap"
)

// Directory is the read-through user lookup the service runs on.
type Directory interface {
	FindByUsername(ctx context.Context, username string) (model.User, bool, error)
	GetRequired(ctx context.Context, username string) (model.User, error)
	Create(ctx context.Context, u model.NewUser) (model.User, error)
}

type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, hash string) (bool, error)
	DummyVerify(ctx context.Context, plaintext string)
}

type TokenIssuer interface {
	Issue(c model.Claims) (token string, exp time.Time, err error)
}

type Service interface {
	Register(context.Context, model.Registration) (model.Session, error)
	Login(context.Context, model.Credentials) (model.Session, error)
	GetProfile(ctx context.Context, username string) (model.Identity, error)
}

type authService struct {
	users  Directory
	hasher PasswordHasher
	tokens TokenIssuer
	log    *zap.Logger
}

func New(users Directory, hasher PasswordHasher, tokens TokenIssuer, log *zap.Logger) Service {
	return &authService{users: users, hasher: hasher, tokens: tokens, log: log}
}

func (a *authService) Register(ctx context.Context, in model.Registration) (model.Session, error) {
	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.FullName) == "" {
		return model.Session{}, customErrors.NewInvalidArgument("username and fullName are required")
	}

	_, exists, err := a.users.FindByUsername(ctx, in.Username)
	if err != nil {
		a.log.Error("registration lookup failed", lg.Fingerprint("user", in.Username), zap.Error(err))
		return model.Session{}, customErrors.ErrCreateFailed
	}
	if exists {
		return model.Session{}, customErrors.ErrConflict
	}

	hash, err := a.hasher.Hash(ctx, in.Password)
	switch {
	case errors.Is(err, password.ErrEmptyPassword):
		return model.Session{}, customErrors.NewInvalidArgument("password is required")
	case err != nil:
		a.log.Error("password hashing failed", lg.Fingerprint("user", in.Username), zap.Error(err))
		return model.Session{}, customErrors.ErrCreateFailed
	}

	// A concurrent registration can win between the lookup and the insert;
	// the store's unique constraint turns that into ErrConflict.
	user, err := a.users.Create(ctx, model.NewUser{
		Username:     in.Username,
		FullName:     in.FullName,
		PasswordHash: hash,
	})
	if err != nil {
		return model.Session{}, err
	}

	a.log.Info("user registered", lg.Fingerprint("user", user.Username), zap.Int64("id", user.ID))
	return a.issue(user.Identity())
}

func (a *authService) Login(ctx context.Context, in model.Credentials) (model.Session, error) {
	user, found, err := a.users.FindByUsername(ctx, in.Username)
	if err != nil {
		return model.Session{}, err
	}
	if !found {
		a.hasher.DummyVerify(ctx, in.Password)
		return model.Session{}, customErrors.ErrUnauthorized
	}

	ok, err := a.hasher.Verify(ctx, in.Password, user.PasswordHash)
	if err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "Login")
	}
	if !ok {
		return model.Session{}, customErrors.ErrUnauthorized
	}

	return a.issue(user.Identity())
}

func (a *authService) GetProfile(ctx context.Context, username string) (model.Identity, error) {
	user, err := a.users.GetRequired(ctx, username)
	if err != nil {
		return model.Identity{}, err
	}
	return user.Identity(), nil
}

func (a *authService) issue(id model.Identity) (model.Session, error) {
	token, exp, err := a.tokens.Issue(model.Claims{UserID: id.ID, Username: id.Username})
	if err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "Issue")
	}
	return model.Session{AccessToken: token, ExpiresAt: exp, Identity: id}, nil
}
