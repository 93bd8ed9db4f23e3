package credentials

import (
	"os"
	"strings"
)

// normalizeRemoteName converts a remote name to the format used in environment variables
// Example: "github-work" becomes "GITHUB_WORK"
func normalizeRemoteName(remoteName string) string {
	return strings.ReplaceAll(strings.ToUpper(remoteName), "-", "_")
}

// getEnvVarName returns the environment variable name for a remote field
func getEnvVarName(remoteName, field string) string {
	return "HABITUALIZE_" + normalizeRemoteName(remoteName) + "_" + strings.ToUpper(field)
}

// GetUsername retrieves the username from environment variables
// Looks for: HABITUALIZE_{REMOTE}_USERNAME
func GetUsername(remoteName string) string {
	if remoteName == "" {
		return ""
	}
	return os.Getenv(getEnvVarName(remoteName, "USERNAME"))
}

// GetToken retrieves the token from environment variables
// Looks for: HABITUALIZE_{REMOTE}_TOKEN
func GetToken(remoteName string) string {
	if remoteName == "" {
		return ""
	}
	return os.Getenv(getEnvVarName(remoteName, "TOKEN"))
}

// TokenEnvVar returns the environment variable holding remoteName's token.
func TokenEnvVar(remoteName string) string {
	return getEnvVarName(remoteName, "TOKEN")
}
