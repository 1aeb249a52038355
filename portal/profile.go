package portal

import (
	"context"
	"log/slog"

	"github.com/frictionalfables/fable/cache"
	"github.com/frictionalfables/fable/gate"
	"github.com/frictionalfables/fable/models"
)

type ProfileBackend interface {
	GetCallerUserProfile(ctx context.Context) (*models.UserProfile, error)
	GetUserProfile(ctx context.Context, principal string) (*models.PublicProfile, error)
	GetCallerUserRole(ctx context.Context) (models.UserRole, error)
	SaveCallerUserProfile(ctx context.Context, profile models.UserProfile) error
	SetWelcomeMessageShown(ctx context.Context) error
	AssignUserRole(ctx context.Context, principal string, role models.UserRole) error
}

/*
	ProfileController owns the identity-scoped reads. Its caller-profile
	query doubles as the session's profile resolver: every successful fetch
	or save feeds the gate, so the authorization decision always reflects
	the latest known profile, not a guess.
*/

type ProfileController interface {
	Caller() *cache.Query[*models.UserProfile]
	Of(principal string) *cache.Query[*models.PublicProfile]
	Role() *cache.Query[models.UserRole]

	Save(ctx context.Context, profile models.UserProfile) error
	AssignRole(ctx context.Context, principal string, role models.UserRole) error

	// AcknowledgeWelcome persists the one-time welcome acknowledgment if one
	// is owed. It is safe to call any number of times.
	AcknowledgeWelcome(ctx context.Context) error
}

type profileImpl struct {
	backend ProfileBackend
	store   *cache.Store
	session *gate.Session
	logger  *slog.Logger
	opts    cache.Options

	saveMut *cache.Mutation[models.UserProfile, struct{}]
}

func NewProfileController(backend ProfileBackend, store *cache.Store, session *gate.Session, logger *slog.Logger, opts cache.Options) ProfileController {
	pc := &profileImpl{
		backend: backend,
		store:   store,
		session: session,
		logger:  logger.WithGroup("profile_controller"),
		opts:    opts,
	}

	pc.saveMut = cache.NewMutation(store, "saveCallerUserProfile", func(ctx context.Context, profile models.UserProfile) (struct{}, error) {
		if err := backend.SaveCallerUserProfile(ctx, profile); err != nil {
			return struct{}{}, err
		}
		session.ProfileResolved(profile.Name, profile.Email, profile.WelcomeMessageShown)
		return struct{}{}, nil
	}).WithInvalidation(func(models.UserProfile) []cache.Pattern {
		return []cache.Pattern{cache.PatternOf(opCallerUserProfile)}
	})

	return pc
}

func (pc *profileImpl) Caller() *cache.Query[*models.UserProfile] {
	return cache.NewQuery(pc.store, cache.NewKey(opCallerUserProfile), func(ctx context.Context) (*models.UserProfile, error) {
		profile, err := pc.backend.GetCallerUserProfile(ctx)
		if err != nil {
			return nil, err
		}
		if profile == nil {
			pc.session.ProfileMissing()
			return nil, nil
		}
		pc.session.ProfileResolved(profile.Name, profile.Email, profile.WelcomeMessageShown)
		return profile, nil
	}, pc.opts)
}

func (pc *profileImpl) Of(principal string) *cache.Query[*models.PublicProfile] {
	return cache.NewQuery(pc.store, cache.NewKey(opUserProfile, principal), func(ctx context.Context) (*models.PublicProfile, error) {
		return pc.backend.GetUserProfile(ctx, principal)
	}, pc.opts)
}

func (pc *profileImpl) Role() *cache.Query[models.UserRole] {
	return cache.NewQuery(pc.store, cache.NewKey(opCallerUserRole), pc.backend.GetCallerUserRole, pc.opts)
}

func (pc *profileImpl) Save(ctx context.Context, profile models.UserProfile) error {
	_, err := pc.saveMut.Do(ctx, profile)
	return err
}

func (pc *profileImpl) AssignRole(ctx context.Context, principal string, role models.UserRole) error {
	if err := pc.backend.AssignUserRole(ctx, principal, role); err != nil {
		return err
	}
	pc.store.Invalidate(
		cache.PatternOf(opCallerUserRole),
		cache.PatternOf(opUserProfile, principal),
	)
	return nil
}

func (pc *profileImpl) AcknowledgeWelcome(ctx context.Context) error {
	if !pc.session.ConsumeWelcome() {
		return nil
	}
	if err := pc.backend.SetWelcomeMessageShown(ctx); err != nil {
		return err
	}
	pc.store.Invalidate(cache.PatternOf(opCallerUserProfile))
	return nil
}
