package faults

import (
	"errors"
	"strings"
)

/*
	The backend communicates failures as plain error values, not structured
	codes. Every substring the client keys off lives in this package so the
	matching behavior stays in one testable place. Nothing outside this
	package is allowed to re-derive a category from an error message.
*/

var (
	// ErrGatewayUnavailable is a gating condition, not a user-facing error.
	// Callers that see it should wait for the gateway to become ready.
	ErrGatewayUnavailable = errors.New("gateway unavailable")

	// ErrInvalidAdminCredentials is synthesized when the backend reports a
	// failed admin login with a bare `false` rather than a thrown error, so
	// both paths funnel through the same classification.
	ErrInvalidAdminCredentials = errors.New("Invalid admin credentials")

	// ErrQueryDisabled is reported by queries whose enable gate is closed.
	ErrQueryDisabled = errors.New("query disabled")

	// ErrMemberOnly is raised client-side when a member-gated action is
	// attempted without a permitting decision. The message carries the
	// Unauthorized marker so it classifies like the backend's own refusal.
	ErrMemberOnly = errors.New("Unauthorized: member access required")

	// ErrLoginRequired is raised client-side for actions open to any
	// logged-in identity, profile or not, when no identity is established.
	ErrLoginRequired = errors.New("Unauthorized: login required")
)

type Category int

const (
	Unknown Category = iota
	Unavailable
	Unauthorized
	IncompleteProfile
	InvalidCredentials
	DuplicateAction
	Validation
)

func (c Category) String() string {
	switch c {
	case Unavailable:
		return "unavailable"
	case Unauthorized:
		return "unauthorized"
	case IncompleteProfile:
		return "incomplete_profile"
	case InvalidCredentials:
		return "invalid_credentials"
	case DuplicateAction:
		return "duplicate_action"
	case Validation:
		return "validation"
	default:
		return "unknown"
	}
}

// Marker substrings used by the backend. Matching is exact-substring for
// compatibility with the backend's message format.
const (
	markerUnauthorized  = "Unauthorized"
	markerProfile       = "complete your profile"
	markerAlreadyRated  = "already rated"
	markerAlreadyLiked  = "already liked"
	markerRequired      = "required"
	markerCannotBeEmpty = "cannot be empty"
	markerInvalid       = "Invalid"
)

// Classify maps a raw error onto the taxonomy. It must be called at most
// once per failure, immediately above the cache layer.
func Classify(err error) Category {
	if err == nil {
		return Unknown
	}
	if errors.Is(err, ErrGatewayUnavailable) {
		return Unavailable
	}
	if errors.Is(err, ErrInvalidAdminCredentials) {
		return InvalidCredentials
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, markerProfile):
		return IncompleteProfile
	case strings.Contains(msg, markerUnauthorized):
		return Unauthorized
	case strings.Contains(msg, markerAlreadyRated), strings.Contains(msg, markerAlreadyLiked):
		return DuplicateAction
	case strings.Contains(msg, markerRequired),
		strings.Contains(msg, markerCannotBeEmpty),
		strings.Contains(msg, markerInvalid):
		return Validation
	default:
		return Unknown
	}
}

// Retryable reports whether a failed call may be re-attempted. Authorization
// and profile failures will fail the same way every time; duplicates and
// validation failures are terminal by definition.
func Retryable(err error) bool {
	switch Classify(err) {
	case Unauthorized, IncompleteProfile, InvalidCredentials, DuplicateAction, Validation:
		return false
	default:
		return true
	}
}

// UserMessage renders an already-classified error for display.
func UserMessage(err error) string {
	if err == nil {
		return "An unknown error occurred"
	}
	switch Classify(err) {
	case DuplicateAction:
		return "You have already done that"
	case Unauthorized, IncompleteProfile, Validation:
		return err.Error()
	case Unavailable:
		return "Still connecting, please try again in a moment"
	default:
		return err.Error()
	}
}

type AdminLoginIssue int

const (
	AdminIssueUnknown AdminLoginIssue = iota
	AdminIssueInvalidCredentials
	AdminIssueAuthorization
)

const (
	adminMsgInvalidCredentials = "Invalid admin credentials. Please check your admin name and password."
	adminMsgAuthorization      = "Admin sign-in failed due to an authorization issue. Please re-login and try again."
	adminMsgUnknown            = "Admin sign-in failed. Please try again or contact support if the issue persists."
)

// ClassifyAdminLogin distinguishes a wrong name/password pair from an
// underlying identity problem. The two drive different remediation paths:
// retry the password versus re-run the identity login.
func ClassifyAdminLogin(err error) (AdminLoginIssue, string) {
	if err == nil {
		return AdminIssueUnknown, adminMsgUnknown
	}
	if errors.Is(err, ErrInvalidAdminCredentials) {
		return AdminIssueInvalidCredentials, adminMsgInvalidCredentials
	}
	if errors.Is(err, ErrGatewayUnavailable) {
		return AdminIssueAuthorization, adminMsgAuthorization
	}
	if strings.Contains(err.Error(), markerUnauthorized) {
		return AdminIssueAuthorization, adminMsgAuthorization
	}
	return AdminIssueUnknown, adminMsgUnknown
}
