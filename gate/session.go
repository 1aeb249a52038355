package gate

import (
	"log/slog"
	"sync"
)

/*
	Session is the client-side state machine behind the gate. It owns no
	remote state: identity comes from the external login flow, the profile
	state is recomputed from fetched/saved payloads, and the admin flag
	mirrors the remotely verified session (optimistically flipped, then
	reconciled by a refetch).

	Reset hooks registered with OnReset run on logout, after the state has
	been cleared; the portal uses one to empty the cache so a previous
	identity's results never leak into the next session.
*/

type Session struct {
	logger *slog.Logger

	mu           sync.Mutex
	identity     string // empty means anonymous
	profile      ProfileState
	adminSession bool
	welcomeOwed  bool
	welcomeSent  bool

	resetHooks []func()
}

func NewSession(logger *slog.Logger) *Session {
	return &Session{
		logger:  logger.WithGroup("session"),
		profile: ProfileUnknown,
	}
}

// OnReset registers a hook invoked on every logout.
func (s *Session) OnReset(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetHooks = append(s.resetHooks, fn)
}

// Login records a newly established identity. The profile flips back to
// unknown until its query resolves.
func (s *Session) Login(principal string) {
	s.mu.Lock()
	s.identity = principal
	s.profile = ProfileUnknown
	s.adminSession = false
	s.welcomeOwed = false
	s.welcomeSent = false
	s.mu.Unlock()

	s.logger.Info("identity established", "principal", principal)
}

// Logout clears identity and the admin session, then fires the reset hooks.
func (s *Session) Logout() {
	s.mu.Lock()
	s.identity = ""
	s.profile = ProfileUnknown
	s.adminSession = false
	s.welcomeOwed = false
	s.welcomeSent = false
	hooks := make([]func(), len(s.resetHooks))
	copy(hooks, s.resetHooks)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	s.logger.Info("identity cleared")
}

func (s *Session) IdentityPresent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity != ""
}

func (s *Session) Principal() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

func (s *Session) Profile() ProfileState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

func (s *Session) AdminSession() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adminSession
}

// ProfileResolved records the outcome of a profile fetch or save.
// welcomeShown is the stored acknowledgment flag: when the profile first
// transitions to complete and the flag is still false, exactly one welcome
// acknowledgment becomes owed. Re-saving an already complete profile never
// re-arms it.
func (s *Session) ProfileResolved(name, email string, welcomeShown bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == "" {
		return
	}

	prev := s.profile
	s.profile = ProfileStateOf(name, email)

	if s.profile == ProfileComplete && prev != ProfileComplete && !welcomeShown && !s.welcomeSent {
		s.welcomeOwed = true
	}
}

// ProfileMissing records a fetch that found no profile for the identity.
func (s *Session) ProfileMissing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity != "" {
		s.profile = ProfileIncomplete
	}
}

// ConsumeWelcome returns true at most once per completed profile setup.
// The caller is expected to persist the acknowledgment remotely.
func (s *Session) ConsumeWelcome() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.welcomeOwed {
		return false
	}
	s.welcomeOwed = false
	s.welcomeSent = true
	return true
}

// GrantAdmin flips the admin session on (optimistic; reconciled by the
// confirming refetch the admin mutation schedules).
func (s *Session) GrantAdmin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adminSession = true
}

// RevokeAdmin flips the admin session off. It always wins client-side:
// a stale true must never survive a logout whose remote outcome was
// ambiguous.
func (s *Session) RevokeAdmin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adminSession = false
}

// Decision computes the member-surface decision from the current state.
func (s *Session) Decision() Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Compute(s.identity != "", s.profile, s.adminSession)
}

// AdminDecision computes the admin-surface decision.
func (s *Session) AdminDecision() Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeAdmin(s.identity != "", s.adminSession)
}
