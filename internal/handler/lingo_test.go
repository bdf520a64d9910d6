package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/apperror"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLingoHandler_HandleCreateLingo(t *testing.T) {
	logger := testLogger()

	t.Run("valid lingo", func(t *testing.T) {
		mock := &MockLingoStore{}
		h := handler.NewLingoHandler(mock, logger)

		body := `{"user_id":42,"name":"terse","style":"Short sentences.","sections":["has_steps","has_expected"]}`
		rr := httptest.NewRecorder()
		h.HandleCreateLingo(rr, postJSON("/create_lingo", body))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, int64(42), mock.CapturedInput.GitHubUserID)
		assert.Equal(t, "terse", mock.CapturedInput.Name)
		assert.Equal(t, []string{"has_steps", "has_expected"}, mock.CapturedInput.Sections)

		var res handler.MessageResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "Lingo terse saved", res.Message)
	})

	t.Run("user id sent as a string", func(t *testing.T) {
		mock := &MockLingoStore{}
		h := handler.NewLingoHandler(mock, logger)

		rr := httptest.NewRecorder()
		h.HandleCreateLingo(rr, postJSON("/create_lingo", `{"user_id":"42","name":"terse","style":"x"}`))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, int64(42), mock.CapturedInput.GitHubUserID)
	})

	t.Run("malformed user id", func(t *testing.T) {
		mock := &MockLingoStore{}
		h := handler.NewLingoHandler(mock, logger)

		rr := httptest.NewRecorder()
		h.HandleCreateLingo(rr, postJSON("/create_lingo", `{"user_id":"alice","name":"terse"}`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "user_id", decodeError(t, rr).Field)
	})

	t.Run("sections must be a list", func(t *testing.T) {
		h := handler.NewLingoHandler(&MockLingoStore{}, logger)

		rr := httptest.NewRecorder()
		h.HandleCreateLingo(rr, postJSON("/create_lingo", `{"user_id":42,"name":"terse","sections":"has_steps"}`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "validation_error", decodeError(t, rr).Error)
	})

	t.Run("unknown user", func(t *testing.T) {
		mock := &MockLingoStore{ReturnErr: apperror.NotFound("user", "7")}
		h := handler.NewLingoHandler(mock, logger)

		rr := httptest.NewRecorder()
		h.HandleCreateLingo(rr, postJSON("/create_lingo", `{"user_id":7,"name":"terse","style":"x"}`))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		res := decodeError(t, rr)
		assert.Equal(t, "not_found", res.Error)
		assert.Equal(t, "user not found with id 7", res.Message)
	})
}

func TestLingoHandler_HandleListLingos(t *testing.T) {
	logger := testLogger()

	t.Run("lists names", func(t *testing.T) {
		mock := &MockLingoStore{Names: []string{"terse", "verbose"}}
		h := handler.NewLingoHandler(mock, logger)

		rr := httptest.NewRecorder()
		h.HandleListLingos(rr, postJSON("/lingo", `{"user_id":42}`))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, int64(42), mock.CapturedUser)

		var res handler.LingoListResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, []string{"terse", "verbose"}, res.Lingos)
	})

	t.Run("no lingos is an empty list", func(t *testing.T) {
		h := handler.NewLingoHandler(&MockLingoStore{}, logger)

		rr := httptest.NewRecorder()
		h.HandleListLingos(rr, postJSON("/lingo", `{"user_id":42}`))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"lingos":[]}`, rr.Body.String())
	})

	t.Run("session belongs to someone else", func(t *testing.T) {
		mock := &MockLingoStore{ReturnErr: apperror.Forbidden("session does not belong to this user")}
		h := handler.NewLingoHandler(mock, logger)

		rr := httptest.NewRecorder()
		h.HandleListLingos(rr, postJSON("/lingo", `{"user_id":42}`))

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "forbidden", decodeError(t, rr).Error)
	})
}
