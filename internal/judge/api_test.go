package judge

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// withUserID mirrors what pkg/middleware.AuthMiddleware stores in the
// request context once a token has been validated.
func withUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), "userID", userID))
}

func TestCreateSubmissionRequiresAuth(t *testing.T) {
	api := NewAPI(nil)
	req := httptest.NewRequest(http.MethodPost, "/submissions", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()

	api.CreateSubmission(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateSubmissionRejectsMalformedBody(t *testing.T) {
	api := NewAPI(nil)
	req := withUserID(httptest.NewRequest(http.MethodPost, "/submissions", bytes.NewBufferString("not json")), "1")
	rec := httptest.NewRecorder()

	api.CreateSubmission(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSubmissionRejectsMissingFields(t *testing.T) {
	api := NewAPI(nil)
	req := withUserID(httptest.NewRequest(http.MethodPost, "/submissions", bytes.NewBufferString(`{"problem_id":1}`)), "1")
	rec := httptest.NewRecorder()

	api.CreateSubmission(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSubmissionRequiresAuth(t *testing.T) {
	api := NewAPI(nil)
	req := httptest.NewRequest(http.MethodGet, "/submissions/1", nil)
	rec := httptest.NewRecorder()

	api.GetSubmission(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListSubmissionsRequiresAuth(t *testing.T) {
	api := NewAPI(nil)
	req := httptest.NewRequest(http.MethodGet, "/submissions", nil)
	rec := httptest.NewRecorder()

	api.ListSubmissions(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWriteServiceError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrSubmissionNotFound, http.StatusNotFound},
		{ErrProblemNotFound, http.StatusNotFound},
		{ErrLanguageNotFound, http.StatusNotFound},
		{ErrLanguageInactive, http.StatusBadRequest},
		{ErrUnsupportedLanguage, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		writeServiceError(rec, c.err)
		assert.Equal(t, c.want, rec.Code)
	}
}
