package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/apperror"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/auth"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/github"
)

// githubError translates an error from the GitHub client or the OAuth
// provider into an AppError. what names the failed operation in the
// user-visible message.
//
//	rate limit           → RateLimited
//	grant rejected       → UpstreamAuth
//	401, 403, 404        → UpstreamAuth
//	409                  → Conflict
//	422                  → Validation
//	5xx, network, other  → UpstreamUnavailable
//
// Callers that give 404 a different meaning check github.IsNotFound first.
func githubError(what string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}

	if github.IsRateLimited(err) {
		return apperror.RateLimited("GitHub rate limit exceeded, try again later", err)
	}

	var rejected *auth.RejectedError
	if errors.As(err, &rejected) {
		return apperror.UpstreamAuth(rejected.Status, "GitHub rejected the credentials: "+what, err)
	}

	var apiErr *github.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return apperror.UpstreamAuth(apiErr.StatusCode, "GitHub rejected the credentials: "+what+": "+apiErr.Message, err)
		case http.StatusConflict:
			return apperror.Conflict(apiErr.StatusCode, "GitHub reported a conflict: "+what+": "+apiErr.Message, err)
		case http.StatusUnprocessableEntity:
			return apperror.ValidationFailed("", "GitHub rejected the request: "+apiErr.Message)
		default:
			return apperror.UpstreamUnavailable(apiErr.StatusCode, "GitHub is unavailable: "+what, err)
		}
	}

	if errors.Is(err, context.Canceled) {
		return err
	}
	return apperror.UpstreamUnavailable(0, "GitHub is unreachable: "+what, err)
}
