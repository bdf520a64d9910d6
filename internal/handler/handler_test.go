package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/auth"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/handler"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/model"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/service"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-at-least-16", time.Hour)
	require.NoError(t, err)
	return ts
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var res handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	return res
}

// ============================================================
// Mocks
// ============================================================

type MockHandshaker struct {
	CapturedCode string
	ReturnRes    *service.HandshakeResult
	ReturnErr    error
}

func (m *MockHandshaker) CompleteOAuthHandshake(ctx context.Context, code string) (*service.HandshakeResult, error) {
	m.CapturedCode = code
	if m.ReturnErr != nil {
		return nil, m.ReturnErr
	}
	return m.ReturnRes, nil
}

type MockLingoStore struct {
	CapturedInput service.CreateLingoInput
	CapturedUser  int64
	Names         []string
	ReturnErr     error
}

func (m *MockLingoStore) CreateLingo(ctx context.Context, input service.CreateLingoInput) (*model.Lingo, error) {
	m.CapturedInput = input
	if m.ReturnErr != nil {
		return nil, m.ReturnErr
	}
	return &model.Lingo{Name: input.Name, Style: input.Style}, nil
}

func (m *MockLingoStore) ListLingos(ctx context.Context, githubUserID int64) ([]string, error) {
	m.CapturedUser = githubUserID
	if m.ReturnErr != nil {
		return nil, m.ReturnErr
	}
	return m.Names, nil
}

type MockRepoLister struct {
	Listing   *service.RepoListing
	ReturnErr error
}

func (m *MockRepoLister) ListRepositories(ctx context.Context, githubUserID int64) (*service.RepoListing, error) {
	if m.ReturnErr != nil {
		return nil, m.ReturnErr
	}
	return m.Listing, nil
}

type MockIssueDrafter struct {
	CapturedGenerate service.GenerateIssueInput
	CapturedCreate   service.CreateIssueInput
	Preview          string
	URL              string
	ReturnErr        error
}

func (m *MockIssueDrafter) GenerateIssue(ctx context.Context, input service.GenerateIssueInput) (string, error) {
	m.CapturedGenerate = input
	return m.Preview, m.ReturnErr
}

func (m *MockIssueDrafter) CreateIssue(ctx context.Context, input service.CreateIssueInput) (string, error) {
	m.CapturedCreate = input
	return m.URL, m.ReturnErr
}

type MockContactSender struct {
	CapturedEmail string
	CapturedBody  string
	ReturnErr     error
}

func (m *MockContactSender) Send(ctx context.Context, email, body string) error {
	m.CapturedEmail = email
	m.CapturedBody = body
	return m.ReturnErr
}

type MockPinger struct {
	ReturnErr error
}

func (m *MockPinger) PingContext(ctx context.Context) error {
	return m.ReturnErr
}
