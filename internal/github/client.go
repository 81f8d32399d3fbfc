// Package github implements the Backend interface on the GitHub GraphQL
// API, using repository issues as entities. This is the remote backend
// family: identifiers are issue numbers rendered as opaque numeric strings.
//
// Native issue relations carry the links: "X blocks Y" maps to a directed
// blocks-edge X -> Y (served by the blockedBy/blocking connections), and
// sub-issues map to parent-edges parent -> child.
package github

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/tether/pkg/types"
)

// DefaultEndpoint is the public GitHub GraphQL endpoint.
const DefaultEndpoint = "https://api.github.com/graphql"

// requestTimeout bounds every API call so no operation blocks
// indefinitely; a timeout surfaces as ErrBackendUnavailable.
const requestTimeout = 15 * time.Second

// Options configures a GitHub backend.
type Options struct {
	Owner string
	Repo  string
	// Token is the personal access token; when empty the GITHUB_TOKEN
	// environment variable is used.
	Token string
	// Endpoint overrides the API URL, for tests.
	Endpoint string
}

// Backend talks to one repository. The repository's node ID is fetched
// once per process and cached; nothing else is cached across calls.
type Backend struct {
	opts   Options
	client *http.Client
	log    *zap.Logger
	repoID string
}

// New validates the options and returns a backend. No network call is made
// until the first operation.
func New(opts Options, log *zap.Logger) (*Backend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Owner == "" || opts.Repo == "" {
		return nil, fmt.Errorf("%w: github owner and repository must be configured", types.ErrValidation)
	}
	if opts.Token == "" {
		opts.Token = os.Getenv("GITHUB_TOKEN")
	}
	if opts.Token == "" {
		return nil, fmt.Errorf("%w: github token missing (set github.token or GITHUB_TOKEN)", types.ErrValidation)
	}
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	return &Backend{
		opts:   opts,
		client: &http.Client{Timeout: requestTimeout},
		log:    log,
	}, nil
}

// graphqlError is one entry of a GraphQL error response.
type graphqlError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// do posts one GraphQL request and decodes the data payload into out.
// Transport failures, rate limits, and 5xx responses are normalized to
// ErrBackendUnavailable; GraphQL NOT_FOUND to ErrNotFound; everything else
// the API rejects to ErrValidation.
func (b *Backend) do(query string, vars map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{"query": query, "variables": vars})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, b.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "bearer "+b.opts.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusForbidden, // secondary rate limit
		resp.StatusCode >= 500:
		return fmt.Errorf("%w: github answered %s", types.ErrBackendUnavailable, resp.Status)
	default:
		return fmt.Errorf("%w: github answered %s", types.ErrValidation, resp.Status)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: decoding response: %v", types.ErrBackendUnavailable, err)
	}
	if len(envelope.Errors) > 0 {
		return normalizeGraphQLError(envelope.Errors[0])
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

func normalizeGraphQLError(e graphqlError) error {
	switch e.Type {
	case "NOT_FOUND":
		return fmt.Errorf("%w: %s", types.ErrNotFound, e.Message)
	case "RATE_LIMITED":
		return fmt.Errorf("%w: %s", types.ErrBackendUnavailable, e.Message)
	default:
		return fmt.Errorf("%w: %s", types.ErrValidation, e.Message)
	}
}

// repositoryID fetches and caches the repository node ID.
func (b *Backend) repositoryID() (string, error) {
	if b.repoID != "" {
		return b.repoID, nil
	}
	var data struct {
		Repository struct {
			ID string `json:"id"`
		} `json:"repository"`
	}
	err := b.do(`query($owner: String!, $name: String!) {
		repository(owner: $owner, name: $name) { id }
	}`, map[string]any{"owner": b.opts.Owner, "name": b.opts.Repo}, &data)
	if err != nil {
		return "", err
	}
	b.repoID = data.Repository.ID
	return b.repoID, nil
}

// issueNumber parses an opaque entity ID back into this backend's native
// numeric format.
func issueNumber(id string) (int, error) {
	n, err := strconv.Atoi(id)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q is not an issue number", types.ErrValidation, id)
	}
	return n, nil
}
