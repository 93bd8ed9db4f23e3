package credentials

import (
	"testing"
)

func TestNormalizeRemoteName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"github", "GITHUB"},
		{"github-work", "GITHUB_WORK"},
		{"my-git-mirror", "MY_GIT_MIRROR"},
		{"GIT", "GIT"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := normalizeRemoteName(tt.input); got != tt.expected {
				t.Errorf("normalizeRemoteName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGetEnvVarName(t *testing.T) {
	if got := getEnvVarName("github-work", "token"); got != "HABITUALIZE_GITHUB_WORK_TOKEN" {
		t.Errorf("getEnvVarName() = %q", got)
	}
	if got := TokenEnvVar("git"); got != "HABITUALIZE_GIT_TOKEN" {
		t.Errorf("TokenEnvVar() = %q", got)
	}
}

func TestGetToken(t *testing.T) {
	t.Setenv("HABITUALIZE_GITHUB_TOKEN", "ghp_env")
	t.Setenv("HABITUALIZE_GITHUB_USERNAME", "octocat")

	if got := GetToken("github"); got != "ghp_env" {
		t.Errorf("GetToken() = %q, want %q", got, "ghp_env")
	}
	if got := GetUsername("github"); got != "octocat" {
		t.Errorf("GetUsername() = %q, want %q", got, "octocat")
	}
	if got := GetToken(""); got != "" {
		t.Errorf("GetToken(\"\") = %q, want empty", got)
	}
	if got := GetToken("gitlab"); got != "" {
		t.Errorf("GetToken(unset) = %q, want empty", got)
	}
}
