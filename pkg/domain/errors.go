package domain

import "errors"

// failure taxonomy for external collaborators, checked with errors.Is.
// every external-service failure surfaces as one of these wrapped in
// call-site context, nothing is swallowed silently.
var (
	ErrFeedUnavailable           = errors.New("feed unavailable")
	ErrClassificationUnavailable = errors.New("classification unavailable")
	ErrSummarizationUnavailable  = errors.New("summarization unavailable")
	ErrPublishConflict           = errors.New("publish conflict")
	ErrPublishUnavailable        = errors.New("publish unavailable")
	ErrEmailUnavailable          = errors.New("email unavailable")
)
