package port

import (
	"context"
	"encoding/json"
)

// SearchResult is one item returned by a directory search.
type SearchResult struct {
	Title   string
	Link    string
	Snippet string
}

// DirectorySearcher abstracts free-text people search. Implementations cap
// limit at 10 results per query.
type DirectorySearcher interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// ProfileFetcher abstracts profile retrieval by directory identifier. The
// returned payload is opaque to the pipeline. Errors may carry the upstream
// HTTP status code (see unipile.ProfileError).
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, identifier string) (json.RawMessage, error)
}
