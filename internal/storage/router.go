package storage

import "context"

// Router sends blob storage URLs to the blob fetcher and everything else
// to the HTTP fetcher.
type Router struct {
	http Fetcher
	blob *BlobFetcher
}

// NewRouter creates a router. blob may be nil when Azure is not configured.
func NewRouter(httpFetcher Fetcher, blob *BlobFetcher) *Router {
	return &Router{http: httpFetcher, blob: blob}
}

func (r *Router) Fetch(ctx context.Context, resourceURL string, kind ResourceKind) FetchOutcome {
	if r.blob != nil && r.blob.Handles(resourceURL) {
		return r.blob.Fetch(ctx, resourceURL, kind)
	}
	return r.http.Fetch(ctx, resourceURL, kind)
}
