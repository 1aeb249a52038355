package portal

import (
	"context"
	"log/slog"

	"github.com/frictionalfables/fable/cache"
	"github.com/frictionalfables/fable/faults"
	"github.com/frictionalfables/fable/gate"
)

type AdminBackend interface {
	IsCurrentSessionAdmin(ctx context.Context) (bool, error)
	AdminLogin(ctx context.Context, name, password string) (bool, error)
	AdminLogout(ctx context.Context) (bool, error)
}

/*
	AdminController mirrors the remotely verified admin session. Login flips
	the local flag optimistically and seeds the cached admin check before the
	confirming refetch; if the backend later disagrees, the refetch wins.
	Logout always revokes locally, even when the remote call fails: a stale
	admin session on this side is the one state never allowed to persist.
*/

type AdminController interface {
	IsAdmin() *cache.Query[bool]

	Login(ctx context.Context, name, password string) error
	Logout(ctx context.Context) error
}

type adminCredentials struct {
	name     string
	password string
}

type adminImpl struct {
	backend AdminBackend
	store   *cache.Store
	session *gate.Session
	logger  *slog.Logger
	opts    cache.Options

	loginMut *cache.Mutation[adminCredentials, bool]
}

func NewAdminController(backend AdminBackend, store *cache.Store, session *gate.Session, logger *slog.Logger, opts cache.Options) AdminController {
	ac := &adminImpl{
		backend: backend,
		store:   store,
		session: session,
		logger:  logger.WithGroup("admin_controller"),
		opts:    opts,
	}

	ac.loginMut = cache.NewMutation(store, "adminLogin", func(ctx context.Context, creds adminCredentials) (bool, error) {
		ok, err := backend.AdminLogin(ctx, creds.name, creds.password)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, faults.ErrInvalidAdminCredentials
		}
		session.GrantAdmin()
		return true, nil
	}).WithOptimistic(func(adminCredentials) []cache.Seed {
		return []cache.Seed{{Key: cache.NewKey(opIsCurrentSessionAdmin), Value: true}}
	}).WithInvalidation(func(adminCredentials) []cache.Pattern {
		return []cache.Pattern{cache.PatternOf(opIsCurrentSessionAdmin)}
	})

	return ac
}

func (ac *adminImpl) IsAdmin() *cache.Query[bool] {
	return cache.NewQuery(ac.store, cache.NewKey(opIsCurrentSessionAdmin), func(ctx context.Context) (bool, error) {
		ok, err := ac.backend.IsCurrentSessionAdmin(ctx)
		if err != nil {
			return false, err
		}
		// Reconcile the session with the verified answer.
		if ok {
			ac.session.GrantAdmin()
		} else {
			ac.session.RevokeAdmin()
		}
		return ok, nil
	}, ac.opts)
}

func (ac *adminImpl) Login(ctx context.Context, name, password string) error {
	_, err := ac.loginMut.Do(ctx, adminCredentials{name: name, password: password})
	if err != nil {
		issue, msg := faults.ClassifyAdminLogin(err)
		ac.logger.Warn("admin login failed", "issue", issue, "detail", msg)
		return err
	}
	return nil
}

func (ac *adminImpl) Logout(ctx context.Context) error {
	_, err := ac.backend.AdminLogout(ctx)
	ac.session.RevokeAdmin()
	ac.store.Invalidate(cache.PatternOf(opIsCurrentSessionAdmin))
	return err
}
