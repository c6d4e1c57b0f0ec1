package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEvaluationNotFound indicates the repository holds no evaluation with the given id.
	ErrEvaluationNotFound = errors.New("repository does not contain an evaluation with id")

	// ErrLanguageNotSupported indicates a task cannot handle the requested language.
	ErrLanguageNotSupported = errors.New("language not supported")

	// ErrNoMatchingModel indicates the model API does not know the requested model name.
	ErrNoMatchingModel = errors.New("no matching model found")

	// ErrInvalidTemplate indicates a prompt template could not be parsed or rendered.
	ErrInvalidTemplate = errors.New("invalid prompt template")

	// Service Errors.

	// ErrModelUnavailable indicates the model API is not configured.
	ErrModelUnavailable = errors.New("model service unavailable")

	// ErrArgillaUnavailable indicates the Argilla client is not configured.
	// Human evaluation is disabled without it.
	ErrArgillaUnavailable = errors.New("argilla unavailable")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrBusy indicates the model API is temporarily overloaded.
	ErrBusy = errors.New("service busy")
)
