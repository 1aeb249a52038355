package faults

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, Unknown},
		{"unauthorized trap", errors.New("Unauthorized: caller is not a member"), Unauthorized},
		{"profile trap", errors.New("Please complete your profile before commenting"), IncompleteProfile},
		{"profile wins over unauthorized wording", errors.New("Unauthorized: complete your profile first"), IncompleteProfile},
		{"already rated", errors.New("caller has already rated this book"), DuplicateAction},
		{"already liked", errors.New("caller has already liked this comment"), DuplicateAction},
		{"required field", errors.New("title is required"), Validation},
		{"empty field", errors.New("book id cannot be empty"), Validation},
		{"invalid input", errors.New("Invalid file type"), Validation},
		{"invalid creds sentinel", ErrInvalidAdminCredentials, InvalidCredentials},
		{"wrapped invalid creds", fmt.Errorf("admin login: %w", ErrInvalidAdminCredentials), InvalidCredentials},
		{"gateway unavailable", ErrGatewayUnavailable, Unavailable},
		{"anything else", errors.New("boom"), Unknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestRetryable(t *testing.T) {
	require.False(t, Retryable(errors.New("Unauthorized: admin only")))
	require.False(t, Retryable(errors.New("please complete your profile")))
	require.False(t, Retryable(errors.New("already rated")))
	require.False(t, Retryable(ErrInvalidAdminCredentials))
	require.False(t, Retryable(errors.New("name is required")))

	require.True(t, Retryable(errors.New("connection reset by peer")))
	require.True(t, Retryable(ErrGatewayUnavailable))
	require.True(t, Retryable(errors.New("server returned status 500")))
}

func TestClassifyAdminLogin(t *testing.T) {
	issue, msg := ClassifyAdminLogin(ErrInvalidAdminCredentials)
	require.Equal(t, AdminIssueInvalidCredentials, issue)
	require.Contains(t, msg, "admin name and password")

	issue, msg = ClassifyAdminLogin(errors.New("Unauthorized: session expired"))
	require.Equal(t, AdminIssueAuthorization, issue)
	require.Contains(t, msg, "re-login")

	issue, _ = ClassifyAdminLogin(ErrGatewayUnavailable)
	require.Equal(t, AdminIssueAuthorization, issue)

	issue, msg = ClassifyAdminLogin(errors.New("some transport failure"))
	require.Equal(t, AdminIssueUnknown, issue)
	require.Contains(t, msg, "try again")

	// A wrong password is never an authorization issue; the two drive
	// different remediation affordances.
	issue, _ = ClassifyAdminLogin(fmt.Errorf("login: %w", ErrInvalidAdminCredentials))
	require.NotEqual(t, AdminIssueAuthorization, issue)
}
