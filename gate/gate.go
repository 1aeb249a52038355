package gate

import "strings"

/*
	The authorization gate turns three independent signals (identity
	presence, profile completeness, the remotely verified admin flag) into
	one decision consumed uniformly by every page and mutation guard. No
	caller re-derives these booleans itself.
*/

type ProfileState int

const (
	// ProfileUnknown means the profile has not been fetched yet for the
	// current identity. It is distinct from incomplete so the UI can show a
	// loading state instead of prematurely prompting for profile setup.
	ProfileUnknown ProfileState = iota
	ProfileIncomplete
	ProfileComplete
)

func (p ProfileState) String() string {
	switch p {
	case ProfileIncomplete:
		return "incomplete"
	case ProfileComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// ProfileStateOf derives completeness from the saved payload: complete iff
// both name and email are non-empty after trimming.
func ProfileStateOf(name, email string) ProfileState {
	if strings.TrimSpace(name) != "" && strings.TrimSpace(email) != "" {
		return ProfileComplete
	}
	return ProfileIncomplete
}

type Decision int

const (
	// Unauthenticated: no identity; remediation is the login flow.
	Unauthenticated Decision = iota
	// Pending: identity present but the profile has not resolved yet.
	Pending
	// NeedsProfile: identity present, profile incomplete; remediation is
	// the profile completion prompt, distinct from the login prompt.
	NeedsProfile
	// Member: identity present and profile complete.
	Member
	// AdminDenied: identity present but the admin session is not granted.
	AdminDenied
	// Admin: identity present and the admin session verified remotely.
	Admin
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case NeedsProfile:
		return "needs_profile"
	case Member:
		return "member"
	case AdminDenied:
		return "admin_denied"
	case Admin:
		return "admin"
	default:
		return "unauthenticated"
	}
}

// AllowsMemberContent reports whether member-gated reads and writes may
// proceed. Admin implies member access.
func (d Decision) AllowsMemberContent() bool {
	return d == Member || d == Admin
}

// Compute derives the decision for member surfaces. Admin authorization is
// independent of profile completeness, so a granted admin session wins even
// while the profile is incomplete.
func Compute(identityPresent bool, profile ProfileState, adminSession bool) Decision {
	if !identityPresent {
		return Unauthenticated
	}
	if adminSession {
		return Admin
	}
	switch profile {
	case ProfileComplete:
		return Member
	case ProfileIncomplete:
		return NeedsProfile
	default:
		return Pending
	}
}

// ComputeAdmin derives the decision for admin surfaces: identity present
// and admin flag true, profile completeness deliberately not required.
func ComputeAdmin(identityPresent bool, adminSession bool) Decision {
	if !identityPresent {
		return Unauthenticated
	}
	if !adminSession {
		return AdminDenied
	}
	return Admin
}
