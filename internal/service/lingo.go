package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/apperror"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/model"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/repository"
)

const (
	MaxLingoNameLength  = 100
	MaxLingoStyleLength = 2000
)

// LingoService manages a user's named issue-writing styles.
type LingoService struct {
	sessions *SessionService
	lingos   repository.LingoRepository
	logger   *slog.Logger
}

func NewLingoService(sessions *SessionService, lingos repository.LingoRepository, logger *slog.Logger) *LingoService {
	return &LingoService{sessions: sessions, lingos: lingos, logger: logger}
}

// CreateLingoInput holds the validated-on-entry fields of a lingo.
// Sections are section keys such as "has_steps"; absent keys are off.
type CreateLingoInput struct {
	GitHubUserID int64
	Name         string
	Style        string
	Sections     []string
}

// CreateLingo stores a lingo, replacing the style and every section flag
// of an existing lingo with the same name.
func (s *LingoService) CreateLingo(ctx context.Context, input CreateLingoInput) (*model.Lingo, error) {
	name := strings.TrimSpace(input.Name)
	style := strings.TrimSpace(input.Style)

	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if utf8.RuneCountInString(name) > MaxLingoNameLength {
		return nil, apperror.ValidationFailed("name", fmt.Sprintf("name must be %d characters or fewer", MaxLingoNameLength))
	}
	if style == "" {
		return nil, apperror.ValidationFailed("style", "style is required")
	}
	if utf8.RuneCountInString(style) > MaxLingoStyleLength {
		return nil, apperror.ValidationFailed("style", fmt.Sprintf("style must be %d characters or fewer", MaxLingoStyleLength))
	}

	enabled := make([]model.Section, 0, len(input.Sections))
	for _, key := range input.Sections {
		section, ok := model.ParseSection(key)
		if !ok {
			return nil, apperror.ValidationFailed("sections", fmt.Sprintf("unknown section %q", key))
		}
		enabled = append(enabled, section)
	}

	user, err := s.sessions.LookupUser(ctx, input.GitHubUserID)
	if err != nil {
		return nil, err
	}

	lingo := &model.Lingo{
		UserID:   user.ID,
		Name:     name,
		Style:    style,
		Sections: model.NewSectionSet(enabled...),
	}
	if err := s.lingos.UpsertLingoForUser(ctx, lingo); err != nil {
		return nil, fmt.Errorf("service/lingo: storing %q: %w", name, err)
	}

	s.logger.Info("lingo stored",
		slog.String("userID", user.ID),
		slog.String("lingo", name),
	)
	return lingo, nil
}

// ListLingos returns the names of the user's lingos, oldest first.
func (s *LingoService) ListLingos(ctx context.Context, githubUserID int64) ([]string, error) {
	user, err := s.sessions.LookupUser(ctx, githubUserID)
	if err != nil {
		return nil, err
	}
	names, err := s.lingos.ListLingoNamesForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/lingo: listing for user %s: %w", user.ID, err)
	}
	return names, nil
}
