package listsync

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"bookworld/internal/platform/apiclient"
	"bookworld/internal/readinglist"
)

// HTTPRemote is the list store behind the bookworld API.
type HTTPRemote struct {
	api *apiclient.Client
}

func NewHTTPRemote(api *apiclient.Client) *HTTPRemote {
	return &HTTPRemote{api: api}
}

func (r *HTTPRemote) List(ctx context.Context) (map[string]readinglist.Entry, error) {
	out := make(map[string]readinglist.Entry)
	if err := r.api.Do(ctx, http.MethodGet, "/api/lists", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *HTTPRemote) Upsert(ctx context.Context, req readinglist.UpsertRequest) (readinglist.Entry, error) {
	var saved readinglist.Entry
	err := r.api.Do(ctx, http.MethodPost, "/api/lists", req, &saved)
	return saved, err
}

func (r *HTTPRemote) Delete(ctx context.Context, workID string) error {
	err := r.api.Do(ctx, http.MethodDelete, "/api/lists/"+url.PathEscape(workID), nil, nil)
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return ErrEntryNotFound
	}
	return err
}
