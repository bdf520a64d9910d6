package service

import (
	"context"
	"log/slog"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/model"
)

// RepoService lists the repositories a user can file issues in: every
// repository of every App installation the user can access.
//
// LISTING FLOW:
// 1. List the installations visible to the user's OAuth token.
// 2. Sign one App assertion and reuse it for every installation.
// 3. Per installation, mint an installation token and list its repositories.
//
// PARTIAL RESULTS:
// One broken installation (suspended, removed mid-request) must not hide
// the repositories of the others. Its ID goes into FailedInstallations and
// the loop moves on.
type RepoService struct {
	sessions *SessionService
	github   GitHubAPI
	logger   *slog.Logger
}

func NewRepoService(sessions *SessionService, gh GitHubAPI, logger *slog.Logger) *RepoService {
	return &RepoService{sessions: sessions, github: gh, logger: logger}
}

// RepoListing is the aggregate over all installations. Installations whose
// token or repository listing failed are named in FailedInstallations and
// contribute no repositories. Both slices are non-nil.
type RepoListing struct {
	Repos               []model.Repository
	FailedInstallations []int64
}

func (s *RepoService) ListRepositories(ctx context.Context, githubUserID int64) (*RepoListing, error) {
	token, err := s.sessions.ResolveCredential(ctx, githubUserID)
	if err != nil {
		return nil, err
	}

	installations, err := s.github.ListUserInstallations(ctx, token)
	if err != nil {
		return nil, githubError("listing installations", err)
	}

	listing := &RepoListing{
		Repos:               []model.Repository{},
		FailedInstallations: []int64{},
	}
	if len(installations) == 0 {
		return listing, nil
	}

	assertion, err := s.sessions.SignAppAssertion()
	if err != nil {
		return nil, err
	}

	for _, inst := range installations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		installationToken, err := s.sessions.MintInstallationToken(ctx, assertion, inst.ID)
		if err != nil {
			s.logger.Warn("skipping installation",
				slog.Int64("installationID", inst.ID),
				slog.String("stage", "token"),
				slog.String("error", err.Error()),
			)
			listing.FailedInstallations = append(listing.FailedInstallations, inst.ID)
			continue
		}

		repos, err := s.github.ListInstallationRepositories(ctx, installationToken)
		if err != nil {
			s.logger.Warn("skipping installation",
				slog.Int64("installationID", inst.ID),
				slog.String("stage", "repositories"),
				slog.String("error", err.Error()),
			)
			listing.FailedInstallations = append(listing.FailedInstallations, inst.ID)
			continue
		}

		for _, r := range repos {
			listing.Repos = append(listing.Repos, model.Repository{Name: r.Name, Owner: r.Owner.Login})
		}
	}

	s.logger.Debug("repositories listed",
		slog.Int64("githubUserID", githubUserID),
		slog.Int("installations", len(installations)),
		slog.Int("repos", len(listing.Repos)),
		slog.Int("failed", len(listing.FailedInstallations)),
	)
	return listing, nil
}
