package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/apperror"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/auth"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/github"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/mail"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/model"
)

// =========================================================================
// FAKES
// =========================================================================

// fakeStore is an in-memory repository.Store.
type fakeStore struct {
	users   map[int64]*model.User // keyed by GitHub ID
	lingos  map[string]*model.Lingo
	records []*model.IssueRecord
	stats   map[string]*model.UserStats
	nextID  int

	upsertUserErr error
	insertErr     error
	statsErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  make(map[int64]*model.User),
		lingos: make(map[string]*model.Lingo),
		stats:  make(map[string]*model.UserStats),
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return prefix + "-" + strconv.Itoa(f.nextID)
}

func (f *fakeStore) UpsertUserByExternalID(ctx context.Context, user *model.User) error {
	if f.upsertUserErr != nil {
		return f.upsertUserErr
	}
	if existing, ok := f.users[user.GitHubID]; ok {
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
	} else {
		user.ID = f.id("user")
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = time.Now()
	copied := *user
	f.users[user.GitHubID] = &copied
	return nil
}

func (f *fakeStore) FindUserByExternalID(ctx context.Context, githubID int64) (*model.User, error) {
	u, ok := f.users[githubID]
	if !ok {
		return nil, apperror.NotFound("user", strconv.FormatInt(githubID, 10))
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) UpsertLingoForUser(ctx context.Context, lingo *model.Lingo) error {
	key := lingo.UserID + "/" + lingo.Name
	if existing, ok := f.lingos[key]; ok {
		lingo.ID = existing.ID
	} else {
		lingo.ID = f.id("lingo")
	}
	copied := *lingo
	f.lingos[key] = &copied
	return nil
}

func (f *fakeStore) FindLingoByName(ctx context.Context, userID, name string) (*model.Lingo, error) {
	l, ok := f.lingos[userID+"/"+name]
	if !ok {
		return nil, apperror.NotFound("lingo", name)
	}
	copied := *l
	return &copied, nil
}

func (f *fakeStore) ListLingoNamesForUser(ctx context.Context, userID string) ([]string, error) {
	names := []string{}
	for _, l := range f.lingos {
		if l.UserID == userID {
			names = append(names, l.Name)
		}
	}
	return names, nil
}

func (f *fakeStore) InsertIssueRecord(ctx context.Context, record *model.IssueRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	record.ID = f.id("issue")
	copied := *record
	f.records = append(f.records, &copied)
	return nil
}

func (f *fakeStore) IncrementUserStats(ctx context.Context, userID string, event model.StatsEvent) error {
	if f.statsErr != nil {
		return f.statsErr
	}
	st, ok := f.stats[userID]
	if !ok {
		st = &model.UserStats{UserID: userID}
		f.stats[userID] = st
	}
	var succeeded int64
	if event.Succeeded {
		succeeded = 1
	}
	switch event.Kind {
	case model.StatsGeneration:
		st.GenerationsAttempted++
		st.GenerationsSucceeded += succeeded
	case model.StatsCreation:
		st.CreationsAttempted++
		st.CreationsSucceeded += succeeded
	default:
		return fmt.Errorf("unknown stats kind %q", event.Kind)
	}
	return nil
}

func (f *fakeStore) GetUserStats(ctx context.Context, userID string) (*model.UserStats, error) {
	if st, ok := f.stats[userID]; ok {
		copied := *st
		return &copied, nil
	}
	return &model.UserStats{UserID: userID}, nil
}

type fakeProvider struct {
	exchange    map[string]*auth.TokenSet
	exchangeErr error
	refreshed   *auth.TokenSet
	refreshErr  error
	refreshCall []string
}

func (f *fakeProvider) Exchange(ctx context.Context, code string) (*auth.TokenSet, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	set, ok := f.exchange[code]
	if !ok {
		return nil, &auth.RejectedError{Status: 200, Code: "bad_verification_code"}
	}
	return set, nil
}

func (f *fakeProvider) Refresh(ctx context.Context, refreshToken string) (*auth.TokenSet, error) {
	f.refreshCall = append(f.refreshCall, refreshToken)
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshed, nil
}

type fakeSigner struct {
	err   error
	calls int
}

func (f *fakeSigner) Sign() (github.AppAssertion, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return github.AppAssertion("app-assertion"), nil
}

type fakeGitHub struct {
	users         map[github.UserToken]*github.User
	installations []github.Installation
	listInstErr   error
	tokenErr      map[int64]error
	repos         map[int64][]github.Repository // keyed by installation ID
	reposErr      map[int64]error
	issueErr      error
	issueURL      string

	issueCalls []github.CreateIssueRequest
	issueToken github.UserToken
}

func (f *fakeGitHub) GetAuthenticatedUser(ctx context.Context, token github.UserToken) (*github.User, error) {
	u, ok := f.users[token]
	if !ok {
		return nil, &github.APIError{StatusCode: 401, Message: "Bad credentials"}
	}
	return u, nil
}

func (f *fakeGitHub) ListUserInstallations(ctx context.Context, token github.UserToken) ([]github.Installation, error) {
	if f.listInstErr != nil {
		return nil, f.listInstErr
	}
	return f.installations, nil
}

func (f *fakeGitHub) CreateInstallationToken(ctx context.Context, assertion github.AppAssertion, installationID int64) (*github.AccessToken, error) {
	if err := f.tokenErr[installationID]; err != nil {
		return nil, err
	}
	return &github.AccessToken{Token: github.InstallationToken(fmt.Sprintf("inst-%d", installationID))}, nil
}

func (f *fakeGitHub) ListInstallationRepositories(ctx context.Context, token github.InstallationToken) ([]github.Repository, error) {
	var id int64
	fmt.Sscanf(string(token), "inst-%d", &id)
	if err := f.reposErr[id]; err != nil {
		return nil, err
	}
	return f.repos[id], nil
}

func (f *fakeGitHub) CreateIssue(ctx context.Context, token github.UserToken, owner, repo string, request github.CreateIssueRequest) (*github.Issue, error) {
	f.issueCalls = append(f.issueCalls, request)
	f.issueToken = token
	if f.issueErr != nil {
		return nil, f.issueErr
	}
	return &github.Issue{Number: 1, HTMLURL: f.issueURL}, nil
}

type fakeWriter struct {
	body     string
	err      error
	template string
	style    string
	sections []string
	calls    int
}

func (f *fakeWriter) GenerateIssueBody(ctx context.Context, template, title, description, style string, sections []string) (string, error) {
	f.calls++
	f.template, f.style, f.sections = template, style, sections
	if f.err != nil {
		return "", f.err
	}
	return f.body, nil
}

type fakeMailer struct {
	sent []mail.Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

// =========================================================================
// HELPERS
// =========================================================================

var errBoom = errors.New("boom")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testDeps struct {
	store    *fakeStore
	provider *fakeProvider
	github   *fakeGitHub
	signer   *fakeSigner
	tokens   *auth.TokenService
	sessions *SessionService
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	d := &testDeps{
		store:    newFakeStore(),
		provider: &fakeProvider{exchange: map[string]*auth.TokenSet{}},
		github:   &fakeGitHub{users: map[github.UserToken]*github.User{}},
		signer:   &fakeSigner{},
		tokens:   tokens,
	}
	d.sessions = NewSessionService(d.store, d.provider, d.github, d.signer, tokens, discardLogger())
	return d
}

// seedUser stores a user with a token that never expires.
func (d *testDeps) seedUser(t *testing.T, githubID int64, login, token string) *model.User {
	t.Helper()
	u := &model.User{GitHubID: githubID, Username: login, AccessToken: token}
	if err := d.store.UpsertUserByExternalID(context.Background(), u); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return u
}

func assertKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("error = %v, want kind %v", err, kind)
	}
}
