// Package session caches the role lookup behind the dashboard's "is this
// user an admin" check. Entries live in redis under session:<user id> and
// are dropped whenever the account changes.
package session

//go:generate go run go.uber.org/mock/mockgen -source=./session.go -destination=./mocks/session_mock.go -package=mocks

import (
	"context"
	"fmt"

	"lodge/config"
	"lodge/infras/otel"
	userModel "lodge/internal/domains/user/model"
	userRepo "lodge/internal/domains/user/repository"
	"lodge/shared"
	"lodge/shared/cache"
	"lodge/shared/constant"
	"lodge/shared/failure"

	"github.com/rs/zerolog/log"
)

const (
	cachePrefix   = "session"
	otelScopeName = "session"
)

type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

func (s Session) IsAdmin() bool {
	return s.Active && (s.Role == constant.RoleAdmin || s.Role == constant.RoleSuperAdmin)
}

type Provider interface {
	Init(ctx context.Context, userID string) (Session, error)
	IsAdmin(ctx context.Context, userID string) (bool, error)
	Role(ctx context.Context, userID string) (string, error)
	Invalidate(ctx context.Context, userID string) error
}

type providerImpl struct {
	users userRepo.User
	cache cache.RedisCache
	cfg   *config.Config
	otel  otel.Otel
}

func New(users userRepo.User, cache cache.RedisCache, cfg *config.Config, otel otel.Otel) Provider {
	return &providerImpl{
		users: users,
		cache: cache,
		cfg:   cfg,
		otel:  otel,
	}
}

func Key(userID string) string {
	return shared.BuildCacheKey(cachePrefix, userID)
}

// Init returns the cached session for userID, loading it from the users
// table on a miss. Unknown accounts are unauthorized.
func (p *providerImpl) Init(ctx context.Context, userID string) (res Session, err error) {
	ctx, scope := p.otel.NewScope(ctx, otelScopeName, otelScopeName+".Init")
	defer scope.End()
	defer scope.TraceIfError(err)

	if userID == constant.Empty {
		return res, failure.Unauthorized("missing user") // nolint:wrapcheck
	}

	if err = p.cache.Get(ctx, Key(userID), &res); err == nil {
		return res, nil
	}

	user, err := p.users.Get(ctx, shared.FilterByID(userID, userModel.FieldID, userModel.TableName),
		userModel.FieldID, userModel.FieldEmail, userModel.FieldRole, userModel.FieldActive)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to load session user")

		return res, fmt.Errorf("failed to load session user: %w", err)
	}

	if user.ID == constant.Empty {
		return res, failure.Unauthorized("user not found") // nolint:wrapcheck
	}

	res = Session{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Active: user.Active,
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := p.cache.Save(c, Key(userID), res, p.cfg.Session.TTL); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("failed to save session to cache")
		}
	}()

	return res, nil
}

func (p *providerImpl) IsAdmin(ctx context.Context, userID string) (bool, error) {
	sess, err := p.Init(ctx, userID)
	if err != nil {
		return false, err
	}

	return sess.IsAdmin(), nil
}

// Role is empty for deactivated accounts.
func (p *providerImpl) Role(ctx context.Context, userID string) (string, error) {
	sess, err := p.Init(ctx, userID)
	if err != nil {
		return constant.Empty, err
	}

	if !sess.Active {
		return constant.Empty, nil
	}

	return sess.Role, nil
}

func (p *providerImpl) Invalidate(ctx context.Context, userID string) (err error) {
	ctx, scope := p.otel.NewScope(ctx, otelScopeName, otelScopeName+".Invalidate")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = p.cache.Delete(ctx, Key(userID)); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to invalidate session")

		return fmt.Errorf("failed to invalidate session: %w", err)
	}

	return nil
}
