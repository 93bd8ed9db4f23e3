// Package github mirrors tables into a GitHub repository through the
// contents API. The blob SHA of each file is its revision.
package github

import (
	"context"
	"encoding/base64"
	"fmt"

	"habitualize/backend"
	"habitualize/backend/mirror"
	"habitualize/internal/credentials"
	"habitualize/internal/utils"
)

func init() {
	backend.RegisterRemote("github", func(config backend.RemoteConfig) (mirror.Remote, error) {
		return NewRemote(config)
	})
}

// Remote implements mirror.Remote on a GitHub repository
type Remote struct {
	client *APIClient
	config backend.RemoteConfig
}

// NewRemote creates a GitHub remote. The token comes from the keyring, then
// HABITUALIZE_GITHUB_TOKEN, then the config file.
func NewRemote(config backend.RemoteConfig) (*Remote, error) {
	if config.Owner == "" || config.Repo == "" {
		return nil, utils.ErrInvalidConfig("remote", "github remote needs owner and repo")
	}

	username := config.Username
	if username == "" {
		username = config.Owner
	}
	token := config.Token
	creds, err := credentials.NewResolver().Resolve("github", username, config.Token)
	if err == nil {
		token = creds.Token
		utils.Debugf("Using GitHub token from %s", creds.Source)
	} else {
		utils.Warnf("No GitHub token found, requests are unauthenticated: %v", err)
	}

	return &Remote{
		client: NewAPIClient(config.APIURL, token, config.Owner, config.Repo, config.Branch, config.Timeout),
		config: config,
	}, nil
}

func (r *Remote) Name() string {
	return fmt.Sprintf("github:%s/%s", r.config.Owner, r.config.Repo)
}

func (r *Remote) Fetch(ctx context.Context, path string) ([]byte, string, error) {
	contents, err := r.client.GetContents(ctx, path)
	if err != nil {
		return nil, "", err
	}
	data, err := contents.Decode()
	if err != nil {
		return nil, "", err
	}
	return data, contents.SHA, nil
}

func (r *Remote) Create(ctx context.Context, path string, content []byte, message string) (string, error) {
	return r.put(ctx, path, content, message, "")
}

func (r *Remote) Update(ctx context.Context, path string, content []byte, message, revision string) (string, error) {
	return r.put(ctx, path, content, message, revision)
}

func (r *Remote) put(ctx context.Context, path string, content []byte, message, sha string) (string, error) {
	resp, err := r.client.PutContents(ctx, path, PutContentsRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		SHA:     sha,
	})
	if err != nil {
		return "", err
	}
	return resp.Content.SHA, nil
}
