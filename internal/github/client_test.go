package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	for _, baseURL := range []string{"ftp://example.com", "not a url", "https://"} {
		if _, err := NewClient(Config{BaseURL: baseURL}); err == nil {
			t.Errorf("NewClient(%q) succeeded, want error", baseURL)
		}
	}
}

func TestGetAuthenticatedUser(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			t.Errorf("path = %q, want /user", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer gho_abc" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-GitHub-Api-Version"); got != apiVersion {
			t.Errorf("X-GitHub-Api-Version = %q", got)
		}
		writeJSON(w, http.StatusOK, map[string]any{"login": "octocat", "id": 583231})
	}))

	user, err := client.GetAuthenticatedUser(context.Background(), UserToken("gho_abc"))
	if err != nil {
		t.Fatalf("GetAuthenticatedUser: %v", err)
	}
	if user.Login != "octocat" || user.ID != 583231 {
		t.Errorf("user = %+v", user)
	}
}

func TestGetAuthenticatedUserBadCredentials(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"message":           "Bad credentials",
			"documentation_url": "https://docs.github.com/rest",
		})
	}))

	_, err := client.GetAuthenticatedUser(context.Background(), UserToken("expired"))
	var apiError *APIError
	if !errors.As(err, &apiError) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiError.StatusCode != http.StatusUnauthorized || apiError.Message != "Bad credentials" {
		t.Errorf("apiError = %+v", apiError)
	}
	if IsRateLimited(err) {
		t.Error("IsRateLimited = true for 401")
	}
}

func TestRateLimitDetection(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		remaining string
		message   string
		want      bool
	}{
		{"403 with zero remaining", http.StatusForbidden, "0", "API rate limit exceeded", true},
		{"403 with rate limit message only", http.StatusForbidden, "", "You have exceeded a secondary rate limit", true},
		{"429", http.StatusTooManyRequests, "", "slow down", true},
		{"403 permission denied", http.StatusForbidden, "4999", "Resource not accessible by integration", false},
		{"401 with zero remaining", http.StatusUnauthorized, "0", "Bad credentials", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.remaining != "" {
					w.Header().Set("X-RateLimit-Remaining", tt.remaining)
				}
				w.Header().Set("X-RateLimit-Reset", "1700000000")
				writeJSON(w, tt.status, map[string]string{"message": tt.message})
			}))

			_, err := client.GetAuthenticatedUser(context.Background(), UserToken("t"))
			if got := IsRateLimited(err); got != tt.want {
				t.Errorf("IsRateLimited = %v, want %v (err: %v)", got, tt.want, err)
			}
			if StatusCode(err) != tt.status {
				t.Errorf("StatusCode = %d, want %d", StatusCode(err), tt.status)
			}
		})
	}
}

func TestRateLimitErrorCarriesReset(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "API rate limit exceeded"})
	}))

	_, err := client.GetAuthenticatedUser(context.Background(), UserToken("t"))
	var rateLimit *RateLimitError
	if !errors.As(err, &rateLimit) {
		t.Fatalf("error = %v, want *RateLimitError", err)
	}
	if rateLimit.Reset.Unix() != 1700000000 {
		t.Errorf("Reset = %v", rateLimit.Reset)
	}
}

func TestNetworkErrorHasNoStatus(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	client, err := NewClient(Config{BaseURL: baseURL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.GetAuthenticatedUser(context.Background(), UserToken("t"))
	if err == nil {
		t.Fatal("expected error from closed server")
	}
	if StatusCode(err) != 0 {
		t.Errorf("StatusCode = %d, want 0", StatusCode(err))
	}
}

func TestListUserInstallationsFollowsPages(t *testing.T) {
	var serverURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/user/installations", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("per_page") != "100" {
			t.Errorf("per_page = %q", r.URL.Query().Get("per_page"))
		}
		switch r.URL.Query().Get("page") {
		case "":
			w.Header().Set("Link", fmt.Sprintf(`<%s/user/installations?per_page=100&page=2>; rel="next", <%s/user/installations?per_page=100&page=2>; rel="last"`, serverURL, serverURL))
			writeJSON(w, http.StatusOK, map[string]any{
				"total_count":   2,
				"installations": []map[string]any{{"id": 1, "account": map[string]any{"login": "alice"}}},
			})
		case "2":
			writeJSON(w, http.StatusOK, map[string]any{
				"total_count":   2,
				"installations": []map[string]any{{"id": 2, "account": map[string]any{"login": "acme"}}},
			})
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	serverURL = server.URL

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	installations, err := client.ListUserInstallations(context.Background(), UserToken("t"))
	if err != nil {
		t.Fatalf("ListUserInstallations: %v", err)
	}
	if len(installations) != 2 {
		t.Fatalf("got %d installations, want 2", len(installations))
	}
	if installations[0].ID != 1 || installations[1].Account.Login != "acme" {
		t.Errorf("installations = %+v", installations)
	}
}

func TestListUserInstallationsRefusesForeignNextLink(t *testing.T) {
	var foreignHits int
	foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		foreignHits++
		if r.Header.Get("Authorization") != "" {
			t.Errorf("foreign host received Authorization %q", r.Header.Get("Authorization"))
		}
		writeJSON(w, http.StatusOK, map[string]any{"total_count": 0, "installations": []any{}})
	}))
	t.Cleanup(foreign.Close)

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Link", fmt.Sprintf(`<%s/user/installations?page=2>; rel="next"`, foreign.URL))
		writeJSON(w, http.StatusOK, map[string]any{
			"total_count":   2,
			"installations": []map[string]any{{"id": 1, "account": map[string]any{"login": "alice"}}},
		})
	}))

	_, err := client.ListUserInstallations(context.Background(), UserToken("secret"))
	if err == nil {
		t.Fatal("ListUserInstallations succeeded, want error for cross-host next link")
	}
	if foreignHits != 0 {
		t.Errorf("foreign host hit %d times, want 0", foreignHits)
	}
}

func TestCheckSameOrigin(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "https://api.github.com"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	tests := []struct {
		name    string
		link    string
		wantErr bool
	}{
		{"same origin", "https://api.github.com/user/installations?page=2", false},
		{"host case differs", "https://API.github.com/user/installations?page=2", false},
		{"other host", "https://evil.example.com/user/installations?page=2", true},
		{"downgraded scheme", "http://api.github.com/user/installations?page=2", true},
		{"other port", "https://api.github.com:8443/user/installations?page=2", true},
		{"relative link", "/user/installations?page=2", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.checkSameOrigin(tt.link)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkSameOrigin(%q) error = %v, wantErr %v", tt.link, err, tt.wantErr)
			}
		})
	}
}

func TestListUserInstallationsEmpty(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"total_count": 0, "installations": []any{}})
	}))

	installations, err := client.ListUserInstallations(context.Background(), UserToken("t"))
	if err != nil {
		t.Fatalf("ListUserInstallations: %v", err)
	}
	if installations == nil || len(installations) != 0 {
		t.Errorf("installations = %#v, want empty non-nil slice", installations)
	}
}

func TestCreateInstallationToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/app/installations/42/access_tokens" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer app.jwt" {
			t.Errorf("Authorization = %q", got)
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"token":      "ghs_installation",
			"expires_at": "2030-01-01T00:00:00Z",
		})
	}))

	token, err := client.CreateInstallationToken(context.Background(), AppAssertion("app.jwt"), 42)
	if err != nil {
		t.Fatalf("CreateInstallationToken: %v", err)
	}
	if token.Token != "ghs_installation" || token.ExpiresAt.Year() != 2030 {
		t.Errorf("token = %+v", token)
	}
}

func TestListInstallationRepositories(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/installation/repositories" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer ghs_installation" {
			t.Errorf("Authorization = %q", got)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"total_count": 2,
			"repositories": []map[string]any{
				{"name": "widgets", "full_name": "alice/widgets", "owner": map[string]any{"login": "alice"}},
				{"name": "gadgets", "full_name": "alice/gadgets", "owner": map[string]any{"login": "alice"}},
			},
		})
	}))

	repos, err := client.ListInstallationRepositories(context.Background(), InstallationToken("ghs_installation"))
	if err != nil {
		t.Fatalf("ListInstallationRepositories: %v", err)
	}
	if len(repos) != 2 || repos[0].Name != "widgets" || repos[1].Owner.Login != "alice" {
		t.Errorf("repos = %+v", repos)
	}
}

func TestCreateIssue(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/repos/alice/widgets/issues" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		var request CreateIssueRequest
		if err := json.Unmarshal(raw, &request); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if request.Title != "Crash on save" || request.Body != "Steps..." {
			t.Errorf("request = %+v", request)
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"number":   7,
			"html_url": "https://github.com/alice/widgets/issues/7",
		})
	}))

	issue, err := client.CreateIssue(context.Background(), UserToken("t"), "alice", "widgets",
		CreateIssueRequest{Title: "Crash on save", Body: "Steps..."})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	if issue.HTMLURL != "https://github.com/alice/widgets/issues/7" {
		t.Errorf("HTMLURL = %q", issue.HTMLURL)
	}
}

func TestCreateIssueNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
	}))

	_, err := client.CreateIssue(context.Background(), UserToken("t"), "alice", "missing",
		CreateIssueRequest{Title: "x"})
	if !IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = false", err)
	}
}

func TestParseLinkNext(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{"empty header", "", ""},
		{"next and last", `<https://api.github.com/x?page=2>; rel="next", <https://api.github.com/x?page=5>; rel="last"`, "https://api.github.com/x?page=2"},
		{"only last", `<https://api.github.com/x?page=1>; rel="last"`, ""},
		{"prev before next", `<https://api.github.com/x?page=1>; rel="prev", <https://api.github.com/x?page=3>; rel="next"`, "https://api.github.com/x?page=3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseLinkNext(tt.header); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
