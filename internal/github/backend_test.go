package github

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mesh-intelligence/tether/pkg/types"
)

func TestEntityFromIssue(t *testing.T) {
	var n issueNode
	err := json.Unmarshal([]byte(`{
		"id": "I_abc",
		"number": 42,
		"title": "fix login",
		"body": "users cannot log in",
		"state": "OPEN",
		"labels": {"nodes": [{"name": "area:auth"}, {"name": "urgent"}, {"name": "state:in-progress"}]},
		"assignees": {"nodes": [{"login": "alice"}]}
	}`), &n)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	e := entityFromIssue(n)
	if e.ID != "42" {
		t.Errorf("expected numeric string ID, got %q", e.ID)
	}
	if e.Status != types.StatusInProgress {
		t.Errorf("in-progress marker label not applied: %s", e.Status)
	}
	if e.Labels["area"] != "auth" || e.Labels["urgent"] != "" {
		t.Errorf("label parsing broken: %+v", e.Labels)
	}
	if _, ok := e.Labels["state"]; ok {
		t.Error("marker label must not leak into the label map")
	}
	if e.Assignee != "alice" {
		t.Errorf("assignee not mapped: %s", e.Assignee)
	}
}

func TestEntityFromIssueClosed(t *testing.T) {
	e := entityFromIssue(issueNode{Number: 7, State: "CLOSED"})
	if e.Status != types.StatusClosed {
		t.Errorf("expected closed, got %s", e.Status)
	}
}

func TestLabelNames(t *testing.T) {
	names := labelNames(map[string]string{"area": "auth", "urgent": ""}, types.StatusInProgress)
	want := []string{"area:auth", "urgent", inProgressLabel}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected %v, got %v", want, names)
			break
		}
	}
}

func TestIssueNumberRejectsForeignIDs(t *testing.T) {
	for _, id := range []string{"et-a1b2", "", "-3", "abc"} {
		if _, err := issueNumber(id); !errors.Is(err, types.ErrValidation) {
			t.Errorf("id %q: expected ErrValidation, got %v", id, err)
		}
	}
	if n, err := issueNumber("42"); err != nil || n != 42 {
		t.Errorf("expected 42, got %d, %v", n, err)
	}
}

// newFakeAPI starts a GraphQL stub and a backend pointed at it. The handler
// receives the raw query string and returns the value for the "data" key.
func newFakeAPI(t *testing.T, handler func(query string) (any, int)) *Backend {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		data, status := handler(req.Query)
		w.WriteHeader(status)
		if status == http.StatusOK {
			json.NewEncoder(w).Encode(map[string]any{"data": data})
		}
	}))
	t.Cleanup(srv.Close)

	b, err := New(Options{Owner: "acme", Repo: "widgets", Token: "tok", Endpoint: srv.URL}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return b
}

func TestReadMapsIssue(t *testing.T) {
	b := newFakeAPI(t, func(query string) (any, int) {
		return map[string]any{
			"repository": map[string]any{
				"issue": map[string]any{
					"id": "I_abc", "number": 42, "title": "fix login",
					"body": "", "state": "OPEN",
					"labels":    map[string]any{"nodes": []any{}},
					"assignees": map[string]any{"nodes": []any{}},
				},
			},
		}, http.StatusOK
	})

	e, err := b.Read("42")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if e.ID != "42" || e.Title != "fix login" || e.Status != types.StatusOpen {
		t.Errorf("unexpected entity: %+v", e)
	}
}

func TestReadMissingIssue(t *testing.T) {
	b := newFakeAPI(t, func(query string) (any, int) {
		return map[string]any{"repository": map[string]any{"issue": nil}}, http.StatusOK
	})

	if _, err := b.Read("999"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestServerErrorsAreBackendUnavailable(t *testing.T) {
	for _, status := range []int{http.StatusInternalServerError, http.StatusBadGateway, http.StatusTooManyRequests} {
		b := newFakeAPI(t, func(query string) (any, int) { return nil, status })
		if _, err := b.Read("1"); !errors.Is(err, types.ErrBackendUnavailable) {
			t.Errorf("status %d: expected ErrBackendUnavailable, got %v", status, err)
		}
	}
}

func TestUnreachableHostIsBackendUnavailable(t *testing.T) {
	b, err := New(Options{Owner: "acme", Repo: "widgets", Token: "tok", Endpoint: "http://127.0.0.1:1"}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := b.Read("1"); !errors.Is(err, types.ErrBackendUnavailable) {
		t.Errorf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestListLinksCanonicalDirections(t *testing.T) {
	b := newFakeAPI(t, func(query string) (any, int) {
		return map[string]any{
			"repository": map[string]any{
				"issue": map[string]any{
					"blockedBy": map[string]any{"nodes": []any{map[string]any{"number": 7}}},
					"blocking":  map[string]any{"nodes": []any{map[string]any{"number": 9}}},
					"parent":    map[string]any{"number": 3},
					"subIssues": map[string]any{"nodes": []any{map[string]any{"number": 11}}},
				},
			},
		}, http.StatusOK
	})

	links, err := b.ListLinks("5", "")
	if err != nil {
		t.Fatalf("ListLinks failed: %v", err)
	}

	want := map[types.Link]bool{
		{SourceID: "5", TargetID: "9", Type: types.LinkTypeBlocks}:  true,
		{SourceID: "7", TargetID: "5", Type: types.LinkTypeBlocks}:  true,
		{SourceID: "5", TargetID: "11", Type: types.LinkTypeParent}: true,
		{SourceID: "3", TargetID: "5", Type: types.LinkTypeParent}:  true,
	}
	if len(links) != len(want) {
		t.Fatalf("expected %d links, got %v", len(want), links)
	}
	for _, l := range links {
		if !want[l] {
			t.Errorf("unexpected link %v", l)
		}
	}
}

func TestAddLinkRejectsForeignType(t *testing.T) {
	b := newFakeAPI(t, func(query string) (any, int) { return nil, http.StatusOK })
	for _, typ := range []string{"relates-to", "blocked-by"} {
		if err := b.AddLink("1", "2", typ); !errors.Is(err, types.ErrValidation) {
			t.Errorf("AddLink type %q: expected ErrValidation, got %v", typ, err)
		}
	}
}

func TestNewRequiresConfiguration(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	if _, err := New(Options{Repo: "widgets", Token: "tok"}, nil); !errors.Is(err, types.ErrValidation) {
		t.Errorf("missing owner: expected ErrValidation, got %v", err)
	}
	if _, err := New(Options{Owner: "acme", Repo: "widgets"}, nil); !errors.Is(err, types.ErrValidation) {
		t.Errorf("missing token: expected ErrValidation, got %v", err)
	}

	t.Setenv("GITHUB_TOKEN", "env-tok")
	b, err := New(Options{Owner: "acme", Repo: "widgets"}, nil)
	if err != nil {
		t.Fatalf("env token should satisfy New: %v", err)
	}
	if b.opts.Token != "env-tok" {
		t.Errorf("token not taken from environment")
	}
}

// Guard against accidentally turning GraphQL errors into success.
func TestGraphQLErrorNormalization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data":   nil,
			"errors": []any{map[string]any{"type": "NOT_FOUND", "message": "no such issue"}},
		})
	}))
	defer srv.Close()

	b, err := New(Options{Owner: "acme", Repo: "widgets", Token: "tok", Endpoint: srv.URL}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	_, err = b.Read("1")
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "no such issue") {
		t.Errorf("message lost in normalization: %v", err)
	}
}
