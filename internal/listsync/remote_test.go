package listsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookworld/internal/platform/apiclient"
	"bookworld/internal/readinglist"
)

func TestHTTPRemote(t *testing.T) {
	var lastUpsert readinglist.UpsertRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/lists":
			w.Write([]byte(`{"success":true,"data":{"OL1W":{"book":{"key":"/works/OL1W","title":"Dune","author_name":["Frank Herbert"],"cover_i":null},"status":"Reading","rating":4,"review":null,"addedDate":"2024-01-02T03:04:05Z"}}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/lists":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&lastUpsert))
			w.Write([]byte(`{"success":true,"data":{"book":{"key":"/works/OL1W","title":"Dune"},"status":"Completed","addedDate":"2024-01-02T03:04:05Z"}}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/api/lists/OL1W":
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"success":false,"error":{"code":"NOT_FOUND","message":"Book not found in list"}}`))
		}
	}))
	defer srv.Close()

	remote := NewHTTPRemote(apiclient.New(srv.URL, apiclient.WithTokenSource(func() string { return "tok" })))
	ctx := context.Background()

	entries, err := remote.List(ctx)
	require.NoError(t, err)
	require.Contains(t, entries, "OL1W")
	assert.Equal(t, readinglist.StatusReading, entries["OL1W"].Status)
	assert.Equal(t, 4, *entries["OL1W"].Rating)

	saved, err := remote.Upsert(ctx, readinglist.UpsertRequest{WorkID: "OL1W", Status: readinglist.StatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, readinglist.StatusCompleted, saved.Status)
	assert.Equal(t, "OL1W", lastUpsert.WorkID)

	require.NoError(t, remote.Delete(ctx, "OL1W"))
	assert.ErrorIs(t, remote.Delete(ctx, "OL404W"), ErrEntryNotFound)
}
