package backend

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"habitualize/backend/mirror"
)

// RemoteConfig describes where the authoritative copy of the tables lives.
type RemoteConfig struct {
	Type       string `yaml:"type" json:"type" validate:"omitempty,oneof=github git none"`
	Owner      string `yaml:"owner,omitempty" json:"owner,omitempty"`
	Repo       string `yaml:"repo,omitempty" json:"repo,omitempty"`
	Branch     string `yaml:"branch,omitempty" json:"branch,omitempty"`
	PathPrefix string `yaml:"path_prefix,omitempty" json:"path_prefix,omitempty"`
	APIURL     string `yaml:"api_url,omitempty" json:"api_url,omitempty" validate:"omitempty,url"`
	Username   string `yaml:"username,omitempty" json:"username,omitempty"`
	Token      string `yaml:"token,omitempty" json:"-"`

	// git working copy settings
	RepoPath string `yaml:"repo_path,omitempty" json:"repo_path,omitempty"`
	AutoPull bool   `yaml:"auto_pull,omitempty" json:"auto_pull,omitempty"`
	AutoPush bool   `yaml:"auto_push,omitempty" json:"auto_push,omitempty"`

	ConflictPolicy string        `yaml:"conflict_policy,omitempty" json:"conflict_policy,omitempty" validate:"omitempty,oneof=last_write_wins reject_stale"`
	Timeout        time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// Enabled reports whether a remote mirror is configured.
func (c RemoteConfig) Enabled() bool {
	return c.Type != "" && c.Type != "none"
}

// RemoteConstructor builds a remote from its configuration
type RemoteConstructor func(config RemoteConfig) (mirror.Remote, error)

// Registry holds registered remote constructors
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]RemoteConstructor
}

var globalRegistry = &Registry{
	constructors: make(map[string]RemoteConstructor),
}

// RegisterRemote registers a remote constructor for a config type
func RegisterRemote(remoteType string, constructor RemoteConstructor) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.constructors[remoteType] = constructor
}

// GetRemoteConstructor returns the constructor for a remote type
func GetRemoteConstructor(remoteType string) (RemoteConstructor, error) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	constructor, ok := globalRegistry.constructors[remoteType]
	if !ok {
		return nil, fmt.Errorf("unsupported remote type: %s", remoteType)
	}
	return constructor, nil
}

// RegisteredRemotes returns the registered remote types, sorted
func RegisteredRemotes() []string {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	types := make([]string, 0, len(globalRegistry.constructors))
	for t := range globalRegistry.constructors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// NewRemote builds the remote named by config.Type.
func NewRemote(config RemoteConfig) (mirror.Remote, error) {
	if !config.Enabled() {
		return nil, fmt.Errorf("no remote configured")
	}
	constructor, err := GetRemoteConstructor(config.Type)
	if err != nil {
		return nil, err
	}
	return constructor(config)
}
