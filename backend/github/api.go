package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"habitualize/backend"
	"habitualize/backend/mirror"
)

const (
	// APIBaseURL is the public GitHub REST API
	APIBaseURL = "https://api.github.com"

	// DefaultTimeout bounds every API call
	DefaultTimeout = 30 * time.Second
)

// APIClient talks to the repository contents endpoints
type APIClient struct {
	baseURL    string
	token      string
	owner      string
	repo       string
	branch     string
	httpClient *http.Client
}

// NewAPIClient creates a client for owner/repo on branch. An empty baseURL
// means api.github.com.
func NewAPIClient(baseURL, token, owner, repo, branch string, timeout time.Duration) *APIClient {
	if baseURL == "" {
		baseURL = APIBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		owner:      owner,
		repo:       repo,
		branch:     branch,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Contents is a file as returned by GET /repos/{owner}/{repo}/contents/{path}
type Contents struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Size     int    `json:"size"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

// Decode returns the file bytes.
func (c *Contents) Decode() ([]byte, error) {
	if c.Encoding != "base64" {
		return nil, fmt.Errorf("unsupported content encoding %q for %s", c.Encoding, c.Path)
	}
	raw := strings.NewReplacer("\n", "", "\r", "").Replace(c.Content)
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content of %s: %w", c.Path, err)
	}
	return data, nil
}

// PutContentsRequest is the body of PUT /repos/{owner}/{repo}/contents/{path}
type PutContentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

// PutContentsResponse carries the new blob and commit
type PutContentsResponse struct {
	Content Contents `json:"content"`
	Commit  struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

func (c *APIClient) contentsEndpoint(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("/repos/%s/%s/contents/%s",
		url.PathEscape(c.owner), url.PathEscape(c.repo), strings.Join(segments, "/"))
}

// doRequest performs an HTTP request with authentication
func (c *APIClient) doRequest(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// statusError maps a non-2xx response to the mirror sentinels or a
// StoreError carrying the body.
func statusError(op, path string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	storeErr := backend.NewStoreError(op, resp.StatusCode, http.StatusText(resp.StatusCode)).
		WithTable(path).
		WithBody(string(body))

	switch {
	case storeErr.IsNotFound():
		return storeErr.WithError(mirror.ErrRemoteNotFound)
	case storeErr.IsConflict():
		return storeErr.WithError(mirror.ErrRevisionConflict)
	}
	return storeErr
}

// GetContents fetches path at the client's branch
func (c *APIClient) GetContents(ctx context.Context, path string) (*Contents, error) {
	endpoint := c.contentsEndpoint(path)
	if c.branch != "" {
		endpoint += "?ref=" + url.QueryEscape(c.branch)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("GetContents", path, resp)
	}

	var contents Contents
	if err := json.NewDecoder(resp.Body).Decode(&contents); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if contents.Type != "" && contents.Type != "file" {
		return nil, fmt.Errorf("%s is a %s, not a file", path, contents.Type)
	}
	return &contents, nil
}

// PutContents creates path, or updates it when req.SHA names its current blob
func (c *APIClient) PutContents(ctx context.Context, path string, req PutContentsRequest) (*PutContentsResponse, error) {
	if req.Branch == "" {
		req.Branch = c.branch
	}

	resp, err := c.doRequest(ctx, http.MethodPut, c.contentsEndpoint(path), req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, statusError("PutContents", path, resp)
	}

	var out PutContentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}
