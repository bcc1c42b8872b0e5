package schema

import "errors"

var (
	// ErrInvalidRequest indicates a malformed request payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnknownAction indicates a request named an action nobody handles.
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidTab indicates an invalid tab identifier.
	ErrInvalidTab = errors.New("invalid tab")
	// ErrTabNotFound indicates the tab has no label state.
	ErrTabNotFound = errors.New("tab not found")
	// ErrInvalidWindow indicates an invalid window identifier.
	ErrInvalidWindow = errors.New("invalid window")
	// ErrInvalidLabel indicates a label outside the configured alphabet.
	ErrInvalidLabel = errors.New("invalid label")
	// ErrInvalidAlphabet indicates a label alphabet that cannot back a pool.
	ErrInvalidAlphabet = errors.New("invalid alphabet")
	// ErrActionUnavailable indicates no collaborator could serve the action.
	ErrActionUnavailable = errors.New("action unavailable")
	// ErrNoPreviousTab indicates the window has no earlier tab to switch to.
	ErrNoPreviousTab = errors.New("no previous tab")
)
