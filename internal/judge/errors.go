package judge

import "errors"

// Sentinel errors the judge core's collaborators return; callers at the API
// layer type-switch (via errors.Is) to pick an HTTP status.
var (
	ErrSubmissionNotFound    = errors.New("judge: submission not found")
	ErrProblemNotFound       = errors.New("judge: problem not found")
	ErrLanguageNotFound      = errors.New("judge: language not found")
	ErrLanguageInactive      = errors.New("judge: language is not active")
	ErrUnsupportedLanguage   = errors.New("judge: language has no sandbox configuration")
	ErrAlreadyJudging        = errors.New("judge: submission is not pending")
)
