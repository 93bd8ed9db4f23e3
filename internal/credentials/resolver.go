package credentials

import (
	"fmt"
)

// Source indicates where credentials were found
type Source string

const (
	SourceKeyring Source = "keyring"
	SourceEnv     Source = "env"
	SourceConfig  Source = "config"
	SourceNone    Source = "none"
)

// Credentials represents a resolved remote token
type Credentials struct {
	Username string
	Token    string
	Source   Source
}

// Resolver finds remote tokens with priority Keyring > Environment > Config.
type Resolver struct {
	keyringAvailable func() bool
}

// NewResolver creates a new credential resolver
func NewResolver() *Resolver {
	return &Resolver{keyringAvailable: IsAvailable}
}

// Resolve attempts to find a token for remoteName:
//  1. Keyring (if username is provided)
//  2. HABITUALIZE_{REMOTE}_TOKEN, with HABITUALIZE_{REMOTE}_USERNAME as the user
//  3. configToken, the plain token from the config file
func (r *Resolver) Resolve(remoteName, username, configToken string) (*Credentials, error) {
	if remoteName == "" {
		return nil, fmt.Errorf("remote name is required for credential resolution")
	}

	if username != "" && r.keyringAvailable() {
		if token, err := Get(remoteName, username); err == nil {
			return &Credentials{Username: username, Token: token, Source: SourceKeyring}, nil
		}
	}

	if token := GetToken(remoteName); token != "" {
		envUser := GetUsername(remoteName)
		if envUser == "" {
			envUser = username
		}
		return &Credentials{Username: envUser, Token: token, Source: SourceEnv}, nil
	}

	if configToken != "" {
		return &Credentials{Username: username, Token: configToken, Source: SourceConfig}, nil
	}

	return nil, fmt.Errorf("no credentials found for remote %q (tried: keyring, environment variables, config)", remoteName)
}
