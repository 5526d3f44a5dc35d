package judge

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"judgecore/pkg/middleware"
)

// API exposes the Submission Service over HTTP.
type API struct {
	service *Service
}

// NewAPI builds an API handler around a Submission Service.
func NewAPI(service *Service) *API {
	return &API{service: service}
}

type createSubmissionRequest struct {
	ProblemID  int64  `json:"problem_id"`
	LanguageID int64  `json:"language_id"`
	Code       string `json:"code"`
	Context    string `json:"context"`
}

// CreateSubmission handles POST /submissions.
func (a *API) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "user not authenticated", http.StatusUnauthorized)
		return
	}

	var req createSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Code == "" || req.ProblemID == 0 || req.LanguageID == 0 {
		http.Error(w, "problem_id, language_id and code are required", http.StatusBadRequest)
		return
	}

	sub, err := a.service.CreateSubmission(r.Context(), userID, req.ProblemID, req.LanguageID, req.Code, req.Context)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sub)
}

// GetSubmission handles GET /submissions/{id}.
func (a *API) GetSubmission(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "user not authenticated", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid submission id", http.StatusBadRequest)
		return
	}

	sub, err := a.service.GetSubmission(r.Context(), id, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sub)
}

// ListSubmissions handles GET /submissions.
func (a *API) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "user not authenticated", http.StatusUnauthorized)
		return
	}

	limit := 20
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	offset := 0
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o >= 0 {
		offset = o
	}

	subs, err := a.service.ListSubmissions(r.Context(), userID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(subs)
}

func currentUserID(r *http.Request) (int64, bool) {
	raw, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSubmissionNotFound), errors.Is(err, ErrProblemNotFound), errors.Is(err, ErrLanguageNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrLanguageInactive), errors.Is(err, ErrUnsupportedLanguage):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
