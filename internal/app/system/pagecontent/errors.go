package pagecontent

import "errors"

// Errors returned by Service. Handlers classify them with errors.Is.
var (
	// ErrInvalidPageID means the page id is not in the default content table.
	ErrInvalidPageID = errors.New("invalid page ID")

	// ErrInvalidContent means a write carried no content.
	ErrInvalidContent = errors.New("invalid content format")

	// ErrUnauthorized means no principal was resolved or it is not an editor.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStoreUnavailable means no backing store is configured.
	ErrStoreUnavailable = errors.New("content store unavailable")
)
