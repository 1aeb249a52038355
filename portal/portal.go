package portal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frictionalfables/fable/cache"
	"github.com/frictionalfables/fable/client"
	"github.com/frictionalfables/fable/faults"
	"github.com/frictionalfables/fable/gate"
)

type Config struct {
	Gateway client.Config

	// FreshFor is the default freshness window for cached reads.
	// Zero keeps the cache default.
	FreshFor time.Duration

	Retry cache.RetryPolicy
}

/*
	Portal is the single entry point for the application: one gateway client,
	one cache, one session. Controllers hand out typed reads and mutations
	per content domain; every mutation declares the reads it obsoletes, so
	consumers never invalidate by hand.
*/

type Portal struct {
	client  *client.Client
	store   *cache.Store
	session *gate.Session
	logger  *slog.Logger

	freshFor time.Duration
	retry    cache.RetryPolicy
}

func New(logger *slog.Logger, cfg *Config) (*Portal, error) {
	gatewayCfg := cfg.Gateway
	gatewayCfg.Logger = logger

	c, err := client.NewClient(&gatewayCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create fable client: %w", err)
	}

	retry := cfg.Retry
	if retry.MaxAttempts == 0 {
		retry = cache.DefaultRetryPolicy()
	}

	p := &Portal{
		client:   c,
		store:    cache.NewStore(logger, cfg.FreshFor),
		session:  gate.NewSession(logger),
		logger:   logger.WithGroup("portal"),
		freshFor: cfg.FreshFor,
		retry:    retry,
	}

	// A departing identity takes its cached reads with it.
	p.session.OnReset(p.store.Clear)

	return p, nil
}

// Connect pings the gateway and flips it ready. Queries issued before this
// succeeds fail fast without reaching the network.
func (p *Portal) Connect(ctx context.Context) error {
	return p.client.Connect(ctx)
}

// Login installs a verified identity and its bearer token. Identity-scoped
// queries become enabled; their first Get resolves the profile.
func (p *Portal) Login(principal, token string) {
	p.client.SetSession(token)
	p.session.Login(principal)
}

// Logout clears the token and the session. The session's reset hooks empty
// the cache, so nothing fetched under the old identity survives.
func (p *Portal) Logout() {
	p.client.ClearSession()
	p.session.Logout()
}

// Stop releases background resources. The portal is unusable afterwards.
func (p *Portal) Stop() {
	p.store.Stop()
}

func (p *Portal) Session() *gate.Session {
	return p.session
}

func (p *Portal) Decision() gate.Decision {
	return p.session.Decision()
}

func (p *Portal) AdminDecision() gate.Decision {
	return p.session.AdminDecision()
}

func (p *Portal) queryOpts() cache.Options {
	return cache.Options{FreshFor: p.freshFor, Retry: p.retry}
}

func (p *Portal) identityOpts() cache.Options {
	opts := p.queryOpts()
	opts.Enabled = func() bool {
		return p.client.Ready() && p.session.IdentityPresent()
	}
	return opts
}

func (p *Portal) readyOpts() cache.Options {
	opts := p.queryOpts()
	opts.Enabled = p.client.Ready
	return opts
}

// memberOpts gates reads that only members may see: no permitting decision
// means no network call at all.
func (p *Portal) memberOpts() cache.Options {
	opts := p.queryOpts()
	opts.Enabled = func() bool {
		return p.client.Ready() && p.session.Decision().AllowsMemberContent()
	}
	return opts
}

func (p *Portal) permitMember() error {
	if !p.session.Decision().AllowsMemberContent() {
		return faults.ErrMemberOnly
	}
	return nil
}

// permitIdentified gates writes that any logged-in identity may make,
// regardless of profile completeness.
func (p *Portal) permitIdentified() error {
	if !p.session.IdentityPresent() {
		return faults.ErrLoginRequired
	}
	return nil
}

func (p *Portal) Books() BooksController {
	return NewBooksController(p.client, p.store, p.logger, p.readyOpts(), p.memberOpts())
}

func (p *Portal) Site() SiteController {
	return NewSiteController(p.client, p.store, p.logger, p.readyOpts())
}

func (p *Portal) Blog() BlogController {
	return NewBlogController(p.client, p.store, p.logger, p.readyOpts())
}

func (p *Portal) Notes() NotesController {
	return NewNotesController(p.client, p.store, p.logger, p.readyOpts())
}

func (p *Portal) NewComings() NewComingsController {
	return NewNewComingsController(p.client, p.store, p.logger, p.readyOpts())
}

func (p *Portal) Community() CommunityController {
	return NewCommunityController(p.client, p.store, p.logger, p.readyOpts(), p.permitMember)
}

func (p *Portal) Forum() ForumController {
	return NewForumController(p.client, p.store, p.logger, p.readyOpts(), p.permitMember)
}

func (p *Portal) Suggestions() SuggestionsController {
	return NewSuggestionsController(p.client, p.store, p.logger, p.readyOpts(), p.permitIdentified)
}

func (p *Portal) Profile() ProfileController {
	return NewProfileController(p.client, p.store, p.session, p.logger, p.identityOpts())
}

func (p *Portal) Admin() AdminController {
	return NewAdminController(p.client, p.store, p.session, p.logger, p.identityOpts())
}
