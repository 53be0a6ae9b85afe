package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/civicsync/backend/internal/handler"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	auth, issues := newTestServices(t)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, auth, issues)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode response %s: %v", raw, err)
		}
	}
	return resp, decoded
}

// TestIntegration_IssueLifecycle walks the full register/create/edit/
// resolve/vote flow through the HTTP surface.
func TestIntegration_IssueLifecycle(t *testing.T) {
	srv := newTestServer(t)

	// Register Alice.
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/auth/register", "", map[string]any{
		"name":     "Alice",
		"email":    "a@x.com",
		"password": "secret1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%v)", resp.StatusCode, body)
	}
	aliceToken, _ := body["token"].(string)
	if aliceToken == "" {
		t.Fatal("register: expected a token")
	}
	user, _ := body["user"].(map[string]any)
	if user["email"] != "a@x.com" {
		t.Fatalf("register: unexpected user %v", user)
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Fatal("register: password hash must not be serialized")
	}

	// Login with the wrong password fails with a generic message.
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", map[string]any{
		"email":    "a@x.com",
		"password": "wrong-password",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", resp.StatusCode)
	}
	if msg, _ := body["error"].(string); msg != "Invalid credentials" {
		t.Fatalf("bad login: expected generic message, got %q", msg)
	}

	// Create an issue as Alice.
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/issues", aliceToken, map[string]any{
		"title":       "Broken guardrail",
		"description": "Sharp edge by the school",
		"category":    "Safety",
		"location":    map[string]any{"lat": 1, "lng": 2},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%v)", resp.StatusCode, body)
	}
	if body["status"] != "Pending" {
		t.Fatalf("create: expected status Pending, got %v", body["status"])
	}
	if body["votes"] != float64(0) {
		t.Fatalf("create: expected votes=0, got %v", body["votes"])
	}
	owner, _ := body["createdBy"].(map[string]any)
	if owner["name"] != "Alice" || owner["email"] != "a@x.com" {
		t.Fatalf("create: expected owner expanded, got %v", owner)
	}
	issueID, _ := body["id"].(string)

	// Update category while Pending.
	resp, body = doJSON(t, http.MethodPut, srv.URL+"/issues/"+issueID, aliceToken, map[string]any{
		"category": "Environment",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d (%v)", resp.StatusCode, body)
	}
	if body["category"] != "Environment" {
		t.Fatalf("update: expected category Environment, got %v", body["category"])
	}
	if body["title"] != "Broken guardrail" {
		t.Fatal("update: untouched fields must survive a partial update")
	}

	// Resolve the issue.
	resp, body = doJSON(t, http.MethodPatch, srv.URL+"/issues/"+issueID+"/status", aliceToken, map[string]any{
		"status": "Resolved",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resolve: expected 200, got %d (%v)", resp.StatusCode, body)
	}
	if body["status"] != "Resolved" {
		t.Fatalf("resolve: expected status Resolved, got %v", body["status"])
	}

	// Further edits are rejected.
	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/issues/"+issueID, aliceToken, map[string]any{
		"title": "Too late",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("edit after resolve: expected 400, got %d", resp.StatusCode)
	}

	// So is deletion.
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/issues/"+issueID, aliceToken, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("delete after resolve: expected 400, got %d", resp.StatusCode)
	}

	// Register Bob and vote.
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/auth/register", "", map[string]any{
		"name":     "Bob",
		"email":    "b@x.com",
		"password": "secret2",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register bob: expected 201, got %d", resp.StatusCode)
	}
	bobToken, _ := body["token"].(string)

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/issues/"+issueID+"/vote", bobToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("vote: expected 200, got %d (%v)", resp.StatusCode, body)
	}
	if body["votes"] != float64(1) {
		t.Fatalf("vote: expected votes=1, got %v", body["votes"])
	}

	// A repeat vote is rejected.
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/issues/"+issueID+"/vote", bobToken, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate vote: expected 400, got %d (%v)", resp.StatusCode, body)
	}
}

func TestIntegration_AuthRequired(t *testing.T) {
	srv := newTestServer(t)

	protected := []struct {
		method, path string
	}{
		{http.MethodGet, "/auth/profile"},
		{http.MethodPost, "/issues"},
		{http.MethodPut, "/issues/6f1b9c3a-0000-0000-0000-000000000001"},
		{http.MethodPatch, "/issues/6f1b9c3a-0000-0000-0000-000000000001/status"},
		{http.MethodDelete, "/issues/6f1b9c3a-0000-0000-0000-000000000001"},
		{http.MethodPost, "/issues/6f1b9c3a-0000-0000-0000-000000000001/vote"},
		{http.MethodGet, "/users/my-issues"},
	}

	for _, tc := range protected {
		resp, _ := doJSON(t, tc.method, srv.URL+tc.path, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s without token: expected 401, got %d", tc.method, tc.path, resp.StatusCode)
		}
	}
}

func TestIntegration_PublicListingAndProfile(t *testing.T) {
	srv := newTestServer(t)

	// Register and create two issues.
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/auth/register", "", map[string]any{
		"name":     "Alice",
		"email":    "a@x.com",
		"password": "secret1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}
	token, _ := body["token"].(string)

	for _, title := range []string{"First", "Second"} {
		resp, body = doJSON(t, http.MethodPost, srv.URL+"/issues", token, map[string]any{
			"title":       title,
			"description": "desc",
			"category":    "Other",
			"location":    map[string]any{"lat": 1, "lng": 2},
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create %q: expected 201, got %d (%v)", title, resp.StatusCode, body)
		}
	}

	// Anonymous listing works.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/issues?limit=1", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", resp.StatusCode)
	}
	if body["total"] != float64(2) || body["totalPages"] != float64(2) || body["hasMore"] != true {
		t.Fatalf("list: unexpected paging fields: %v", body)
	}

	// Profile round-trips without the password hash.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/auth/profile", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d", resp.StatusCode)
	}
	user, _ := body["user"].(map[string]any)
	if user["email"] != "a@x.com" {
		t.Fatalf("profile: unexpected user %v", user)
	}
	raw, _ := json.Marshal(body)
	if strings.Contains(strings.ToLower(string(raw)), "password") {
		t.Fatalf("profile: response leaks password material: %s", raw)
	}
}

func TestIntegration_UnknownRouteEchoesPath(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/nope/nothing", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if msg, _ := body["error"].(string); !strings.Contains(msg, "/nope/nothing") {
		t.Fatalf("expected the path echoed in the 404 body, got %q", msg)
	}
}

func TestIntegration_MalformedIssueID(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/issues/not-a-uuid", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("malformed id: expected 404, got %d", resp.StatusCode)
	}
}
