package utils

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorWithSuggestion(t *testing.T) {
	cause := errors.New("habit 'Read' not found")

	withHint := &ErrorWithSuggestion{Err: cause, Suggestion: "Run 'habitualize habit list'"}
	if got := withHint.Error(); !strings.Contains(got, "habit 'Read' not found") || !strings.Contains(got, "Suggestion: Run") {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(withHint, cause) {
		t.Error("errors.Is should see the cause")
	}

	bare := &ErrorWithSuggestion{Err: cause}
	if got := bare.Error(); got != cause.Error() {
		t.Errorf("Error() without suggestion = %q, want %q", got, cause.Error())
	}
}

func TestErrHabitNotFound(t *testing.T) {
	err := ErrHabitNotFound("Read")

	errStr := err.Error()
	if !strings.Contains(errStr, "Read") {
		t.Errorf("Error should contain habit name 'Read', got: %s", errStr)
	}
	if !strings.Contains(errStr, "habit list --all") {
		t.Errorf("Error should suggest 'habit list --all', got: %s", errStr)
	}
}

func TestErrGoalNotFound(t *testing.T) {
	err := ErrGoalNotFound("Marathon")

	errStr := err.Error()
	if !strings.Contains(errStr, "Marathon") {
		t.Errorf("Error should contain goal name, got: %s", errStr)
	}
	if !strings.Contains(errStr, "goal list") {
		t.Errorf("Error should suggest 'goal list', got: %s", errStr)
	}
}

func TestErrDuplicateName(t *testing.T) {
	err := ErrDuplicateName("habit", "Read")

	errStr := err.Error()
	if !strings.Contains(errStr, "habit 'Read' already exists") {
		t.Errorf("Error should name the duplicate, got: %s", errStr)
	}
	if !strings.Contains(errStr, "habitualize habit update Read") {
		t.Errorf("Error should suggest updating instead, got: %s", errStr)
	}
}

func TestErrRemoteNotConfigured(t *testing.T) {
	err := ErrRemoteNotConfigured()

	errStr := err.Error()
	if !strings.Contains(errStr, "no remote") {
		t.Errorf("Error should mention missing remote, got: %s", errStr)
	}
	if !strings.Contains(errStr, "config.yaml") {
		t.Errorf("Error should mention config file, got: %s", errStr)
	}
}

func TestErrRemoteOffline(t *testing.T) {
	tests := []struct {
		name           string
		remote         string
		reason         string
		wantSuggestion string
	}{
		{
			name:           "DNS error",
			remote:         "github",
			reason:         "DNS resolution failed",
			wantSuggestion: "DNS settings",
		},
		{
			name:           "Unknown host",
			remote:         "github",
			reason:         "dial tcp: lookup api.github.test: no such host",
			wantSuggestion: "DNS settings",
		},
		{
			name:           "Connection refused",
			remote:         "git",
			reason:         "connection refused",
			wantSuggestion: "server is running",
		},
		{
			name:           "Timeout",
			remote:         "github",
			reason:         "connection timeout",
			wantSuggestion: "slow or unreachable",
		},
		{
			name:           "Generic error",
			remote:         "github",
			reason:         "unknown error",
			wantSuggestion: "internet connection",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ErrRemoteOffline(tt.remote, tt.reason)

			errStr := err.Error()
			if !strings.Contains(errStr, tt.remote) {
				t.Errorf("Error should contain remote name, got: %s", errStr)
			}
			if !strings.Contains(errStr, tt.reason) {
				t.Errorf("Error should contain reason, got: %s", errStr)
			}
			if !strings.Contains(errStr, tt.wantSuggestion) {
				t.Errorf("Error should contain suggestion about '%s', got: %s", tt.wantSuggestion, errStr)
			}
		})
	}
}

func TestErrInvalidDate(t *testing.T) {
	err := ErrInvalidDate("01/15/2026")

	errStr := err.Error()
	if !strings.Contains(errStr, "01/15/2026") {
		t.Errorf("Error should contain invalid date, got: %s", errStr)
	}
	if !strings.Contains(errStr, "YYYY-MM-DD") {
		t.Errorf("Error should suggest correct format, got: %s", errStr)
	}
}

func TestErrInvalidStatus(t *testing.T) {
	validStatuses := []string{"Not Started", "In Progress", "Completed"}
	err := ErrInvalidStatus("Abandoned", validStatuses)

	errStr := err.Error()
	if !strings.Contains(errStr, "Abandoned") {
		t.Errorf("Error should contain invalid status, got: %s", errStr)
	}
	for _, status := range validStatuses {
		if !strings.Contains(errStr, status) {
			t.Errorf("Error should list valid status '%s', got: %s", status, errStr)
		}
	}
}

func TestErrCredentialsNotFound(t *testing.T) {
	err := ErrCredentialsNotFound("github", "octocat")

	errStr := err.Error()
	if !strings.Contains(errStr, "github") {
		t.Errorf("Error should contain remote name, got: %s", errStr)
	}
	if !strings.Contains(errStr, "octocat") {
		t.Errorf("Error should contain username, got: %s", errStr)
	}
	if !strings.Contains(errStr, "credentials set") {
		t.Errorf("Error should suggest storing credentials, got: %s", errStr)
	}
}

func TestErrAuthenticationFailed(t *testing.T) {
	err := ErrAuthenticationFailed("github")

	errStr := err.Error()
	if !strings.Contains(errStr, "authentication failed") {
		t.Errorf("Error should mention authentication failure, got: %s", errStr)
	}
	if !strings.Contains(errStr, "credentials get") {
		t.Errorf("Error should suggest checking credentials, got: %s", errStr)
	}
}

func TestWrapWithSuggestion(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		suggestion string
		wantNil    bool
	}{
		{
			name:       "wrap error",
			err:        errors.New("original error"),
			suggestion: "try this instead",
			wantNil:    false,
		},
		{
			name:       "wrap nil",
			err:        nil,
			suggestion: "this should not appear",
			wantNil:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := WrapWithSuggestion(tt.err, tt.suggestion)

			if tt.wantNil {
				if result != nil {
					t.Errorf("WrapWithSuggestion(nil, _) should return nil, got %v", result)
				}
				return
			}

			if result == nil {
				t.Fatal("WrapWithSuggestion() returned nil for non-nil error")
			}

			errStr := result.Error()
			if !strings.Contains(errStr, "original error") {
				t.Errorf("Wrapped error should contain original message, got: %s", errStr)
			}
			if !strings.Contains(errStr, tt.suggestion) {
				t.Errorf("Wrapped error should contain suggestion, got: %s", errStr)
			}
		})
	}
}
