package editor

import "errors"

var (
	// ErrCorruptDocument reports bytes the codec or rasterizer cannot parse.
	// User-facing: the file may be corrupted or password-protected.
	ErrCorruptDocument = errors.New("document is corrupt or unreadable")

	// ErrRenderFailed reports an unexpected rasterization failure. A retry at
	// a different zoom is a reasonable user suggestion.
	ErrRenderFailed = errors.New("page render failed")

	// ErrRecognitionUnavailable reports that no OCR capability could be
	// acquired for a session: no worker and no in-process engine.
	ErrRecognitionUnavailable = errors.New("no recognition engine available")

	// ErrInvalidSelection reports a tool invocation whose page selection is
	// empty after defaulting and clamping.
	ErrInvalidSelection = errors.New("invalid page selection")

	// ErrNotFound reports an operation against an unknown document id.
	ErrNotFound = errors.New("document not found")
)
