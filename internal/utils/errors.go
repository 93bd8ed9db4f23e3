package utils

import (
	"fmt"
	"strings"
)

// ErrorWithSuggestion wraps an error with a helpful suggestion for the user
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\nSuggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to work
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// ErrHabitNotFound creates an error when no habit has the given name
func ErrHabitNotFound(name string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("habit '%s' not found", name),
		Suggestion: "Run 'habitualize habit list --all' to see every habit",
	}
}

// ErrGoalNotFound creates an error when no goal has the given name
func ErrGoalNotFound(name string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("goal '%s' not found", name),
		Suggestion: "Run 'habitualize goal list' to see available goals",
	}
}

// ErrDuplicateName creates an error when a name is already taken
func ErrDuplicateName(kind, name string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("%s '%s' already exists", kind, name),
		Suggestion: fmt.Sprintf("Pick another name or run 'habitualize %s update %s' instead", kind, name),
	}
}

// ErrRemoteNotConfigured creates an error when sync commands run without a remote
func ErrRemoteNotConfigured() error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("no remote is configured"),
		Suggestion: "Set 'remote.type' to github or git in ~/.config/habitualize/config.yaml",
	}
}

// ErrRemoteOffline creates an error when the remote cannot be reached
func ErrRemoteOffline(remote, reason string) error {
	suggestion := "Check your internet connection and try again"
	if strings.Contains(reason, "DNS") || strings.Contains(reason, "no such host") {
		suggestion = "Check your DNS settings and internet connection"
	} else if strings.Contains(reason, "refused") {
		suggestion = "Check if the server is running and accessible"
	} else if strings.Contains(reason, "timeout") {
		suggestion = "The server may be slow or unreachable. Try again later"
	}

	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("remote '%s' is offline: %s", remote, reason),
		Suggestion: suggestion,
	}
}

// ErrInvalidDate creates an error for invalid date formats
func ErrInvalidDate(dateStr string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid date format: %s", dateStr),
		Suggestion: "Use YYYY-MM-DD format (e.g., 2026-01-15)",
	}
}

// ErrInvalidStatus creates an error for invalid goal status values
func ErrInvalidStatus(status string, validStatuses []string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid status: %s", status),
		Suggestion: fmt.Sprintf("Valid statuses: %s", strings.Join(validStatuses, ", ")),
	}
}

// ErrCredentialsNotFound creates an error when no token can be resolved
func ErrCredentialsNotFound(remote, username string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("credentials not found for %s (user: %s)", remote, username),
		Suggestion: fmt.Sprintf("Store a token with 'habitualize credentials set %s %s --prompt'", remote, username),
	}
}

// ErrAuthenticationFailed creates an error when the remote rejects the token
func ErrAuthenticationFailed(remote string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("authentication failed for %s", remote),
		Suggestion: "Check your token with 'habitualize credentials get <remote> <user>' and update if needed",
	}
}

// ErrInvalidConfig creates an error for invalid configuration
func ErrInvalidConfig(field string, reason string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid configuration for '%s': %s", field, reason),
		Suggestion: fmt.Sprintf("Check ~/.config/habitualize/config.yaml and fix the '%s' field", field),
	}
}

// WrapWithSuggestion wraps an existing error with a suggestion
func WrapWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}
