package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/apperror"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/github"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/model"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/repository"
)

const (
	MaxIssueTitleLength = 256
	MaxIssueBodyLength  = 65536 // GitHub's limit on issue bodies
)

// IssueService drafts issue bodies with the inference client and files
// them on GitHub. Every attempt by a known user is counted in the user's
// statistics, successful or not.
//
// ORDER OF CHECKS:
// Input validation runs first and costs nothing. The user lookup comes
// next; an unknown user gets an error and no statistics row. Only then is
// the upstream call made, and its outcome counted either way.
type IssueService struct {
	sessions *SessionService
	lingos   repository.LingoRepository
	issues   repository.IssueRepository
	github   GitHubAPI
	writer   IssueWriter
	template string
	logger   *slog.Logger
}

func NewIssueService(
	sessions *SessionService,
	lingos repository.LingoRepository,
	issues repository.IssueRepository,
	gh GitHubAPI,
	writer IssueWriter,
	template string,
	logger *slog.Logger,
) *IssueService {
	return &IssueService{
		sessions: sessions,
		lingos:   lingos,
		issues:   issues,
		github:   gh,
		writer:   writer,
		template: template,
		logger:   logger,
	}
}

type GenerateIssueInput struct {
	GitHubUserID int64
	Title        string
	Description  string
	Lingo        string
}

// GenerateIssue drafts an issue body in the style of the named lingo,
// with exactly the lingo's enabled sections in their fixed order.
func (s *IssueService) GenerateIssue(ctx context.Context, input GenerateIssueInput) (string, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return "", apperror.ValidationFailed("issueTitle", "issueTitle is required")
	}
	if utf8.RuneCountInString(title) > MaxIssueTitleLength {
		return "", apperror.ValidationFailed("issueTitle", fmt.Sprintf("issueTitle must be %d characters or fewer", MaxIssueTitleLength))
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return "", apperror.ValidationFailed("issueDescription", "issueDescription is required")
	}
	if len(description) > MaxIssueBodyLength {
		return "", apperror.ValidationFailed("issueDescription", fmt.Sprintf("issueDescription must be at most %d bytes", MaxIssueBodyLength))
	}
	lingoName := strings.TrimSpace(input.Lingo)
	if lingoName == "" {
		return "", apperror.ValidationFailed("lingo", "lingo is required")
	}

	user, err := s.sessions.LookupUser(ctx, input.GitHubUserID)
	if err != nil {
		return "", err
	}

	body, err := s.generate(ctx, user, title, description, lingoName)
	s.recordStats(ctx, user, model.StatsEvent{Kind: model.StatsGeneration, Succeeded: err == nil})
	if err != nil {
		return "", err
	}
	return body, nil
}

func (s *IssueService) generate(ctx context.Context, user *model.User, title, description, lingoName string) (string, error) {
	lingo, err := s.lingos.FindLingoByName(ctx, user.ID, lingoName)
	if err != nil {
		return "", fmt.Errorf("service/issue: loading lingo %q: %w", lingoName, err)
	}

	body, err := s.writer.GenerateIssueBody(ctx, s.template, title, description, lingo.Style, lingo.Sections.Labels())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", apperror.InferenceUnavailable("issue generation is unavailable, try again later", err)
	}

	s.logger.Info("issue body generated",
		slog.String("userID", user.ID),
		slog.String("lingo", lingoName),
	)
	return body, nil
}

type CreateIssueInput struct {
	GitHubUserID int64
	Repository   string
	Owner        string
	Title        string
	Body         string
}

// CreateIssue files the issue on GitHub as the user and returns its URL.
// Not idempotent: a retry after a timeout may create a duplicate.
func (s *IssueService) CreateIssue(ctx context.Context, input CreateIssueInput) (string, error) {
	owner := strings.TrimSpace(input.Owner)
	repo := strings.TrimSpace(input.Repository)
	title := strings.TrimSpace(input.Title)

	switch {
	case owner == "":
		return "", apperror.ValidationFailed("owner", "owner is required")
	case repo == "":
		return "", apperror.ValidationFailed("repository", "repository is required")
	case title == "":
		return "", apperror.ValidationFailed("issueTitle", "issueTitle is required")
	case utf8.RuneCountInString(title) > MaxIssueTitleLength:
		return "", apperror.ValidationFailed("issueTitle", fmt.Sprintf("issueTitle must be %d characters or fewer", MaxIssueTitleLength))
	case len(input.Body) > MaxIssueBodyLength:
		return "", apperror.ValidationFailed("issuePreview", "issuePreview is too long")
	}

	// Unknown users stop here: nothing is recorded for them.
	user, err := s.sessions.LookupUser(ctx, input.GitHubUserID)
	if err != nil {
		return "", err
	}

	url, err := s.create(ctx, user, owner, repo, title, input.Body)
	s.recordStats(ctx, user, model.StatsEvent{Kind: model.StatsCreation, Succeeded: err == nil})
	if err != nil {
		return "", err
	}

	record := &model.IssueRecord{
		UserID:     user.ID,
		Repository: repo,
		Owner:      owner,
		URL:        url,
	}
	if err := s.issues.InsertIssueRecord(ctx, record); err != nil {
		// The issue exists on GitHub; failing here would invite a duplicate.
		s.logger.Error("issue created but not recorded",
			slog.String("userID", user.ID),
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("issue created",
		slog.String("userID", user.ID),
		slog.String("repository", owner+"/"+repo),
	)
	return url, nil
}

func (s *IssueService) create(ctx context.Context, user *model.User, owner, repo, title, body string) (string, error) {
	if err := s.sessions.EnsureFreshToken(ctx, user); err != nil {
		return "", err
	}

	issue, err := s.github.CreateIssue(ctx, github.UserToken(user.AccessToken), owner, repo, github.CreateIssueRequest{Title: title, Body: body})
	if err != nil {
		if github.IsNotFound(err) {
			return "", apperror.NotFound("repository", owner+"/"+repo)
		}
		return "", githubError("creating the issue", err)
	}
	if issue.HTMLURL == "" {
		return "", apperror.UpstreamUnavailable(0, "GitHub did not return the issue URL", nil)
	}
	return issue.HTMLURL, nil
}

// recordStats applies event to the user's counters. A failure is logged
// and does not change the outcome of the request.
func (s *IssueService) recordStats(ctx context.Context, user *model.User, event model.StatsEvent) {
	if err := s.issues.IncrementUserStats(context.WithoutCancel(ctx), user.ID, event); err != nil {
		s.logger.Warn("could not update statistics",
			slog.String("userID", user.ID),
			slog.String("kind", string(event.Kind)),
			slog.String("error", err.Error()),
		)
	}
}
