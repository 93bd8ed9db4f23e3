package credentials

import (
	"strings"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestGetServiceName(t *testing.T) {
	tests := []struct {
		remoteName string
		want       string
	}{
		{"github", "habitualize-github"},
		{"git", "habitualize-git"},
		{"github-work", "habitualize-github-work"},
	}

	for _, tt := range tests {
		t.Run(tt.remoteName, func(t *testing.T) {
			if got := getServiceName(tt.remoteName); got != tt.want {
				t.Errorf("getServiceName(%q) = %q, want %q", tt.remoteName, got, tt.want)
			}
		})
	}
}

func TestSet_Validation(t *testing.T) {
	tests := []struct {
		name        string
		remoteName  string
		username    string
		token       string
		errContains string
	}{
		{"empty remote name", "", "octocat", "tok", "remote name cannot be empty"},
		{"empty username", "github", "", "tok", "username cannot be empty"},
		{"empty token", "github", "octocat", "", "token cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Set(tt.remoteName, tt.username, tt.token)
			if err == nil {
				t.Fatal("Set() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("Set() error = %v, want error containing %q", err, tt.errContains)
			}
		})
	}
}

func TestKeyringRoundTrip(t *testing.T) {
	keyring.MockInit()

	if !IsAvailable() {
		t.Fatal("IsAvailable() = false with mock keyring")
	}

	if err := Set("github", "octocat", "ghp_secret"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	token, err := Get("github", "octocat")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if token != "ghp_secret" {
		t.Errorf("Get() = %q, want %q", token, "ghp_secret")
	}

	if err := Delete("github", "octocat"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err = Get("github", "octocat")
	if err == nil || !strings.Contains(err.Error(), "no token found") {
		t.Errorf("Get() after Delete error = %v, want not found", err)
	}

	err = Delete("github", "octocat")
	if err == nil || !strings.Contains(err.Error(), "no token found") {
		t.Errorf("Delete() of missing entry error = %v, want not found", err)
	}
}
