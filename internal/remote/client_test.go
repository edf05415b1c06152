package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

func recordingServer(t *testing.T, status int, response string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.Method = r.Method
		rec.Path = r.URL.Path
		rec.Query = r.URL.RawQuery
		rec.Header = r.Header.Clone()
		rec.Body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestClientInsert(t *testing.T) {
	srv, rec := recordingServer(t, http.StatusCreated, "")
	client := NewClient(srv.URL, "secret")

	err := client.Insert(context.Background(), "items", json.RawMessage(`{"id":"a1","name":"Screws"}`))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, rec.Method)
	assert.Equal(t, "/items", rec.Path)
	assert.Equal(t, "resolution=merge-duplicates", rec.Header.Get("Prefer"))
	assert.Equal(t, "application/json", rec.Header.Get("Content-Type"))
	assert.Equal(t, "secret", rec.Header.Get("apikey"))
	assert.Equal(t, "Bearer secret", rec.Header.Get("Authorization"))
	assert.JSONEq(t, `{"id":"a1","name":"Screws"}`, string(rec.Body))
}

func TestClientUpdate(t *testing.T) {
	srv, rec := recordingServer(t, http.StatusNoContent, "")
	client := NewClient(srv.URL, "secret")

	err := client.Update(context.Background(), "items", "a1", json.RawMessage(`{"quantity":"7"}`))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, rec.Method)
	assert.Equal(t, "/items", rec.Path)
	assert.Equal(t, "id=eq.a1", rec.Query)
	assert.JSONEq(t, `{"quantity":"7"}`, string(rec.Body))
}

func TestClientDelete(t *testing.T) {
	srv, rec := recordingServer(t, http.StatusNoContent, "")
	client := NewClient(srv.URL, "secret")

	err := client.Delete(context.Background(), "locations", "l9")
	require.NoError(t, err)

	assert.Equal(t, http.MethodDelete, rec.Method)
	assert.Equal(t, "/locations", rec.Path)
	assert.Equal(t, "id=eq.l9", rec.Query)
	assert.Empty(t, rec.Body)
}

func TestClientSelectAll(t *testing.T) {
	srv, rec := recordingServer(t, http.StatusOK, `[{"id":"a1"},{"id":"a2"}]`)
	client := NewClient(srv.URL, "")

	rows, err := client.SelectAll(context.Background(), "items")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, rec.Method)
	assert.Equal(t, "select=*", rec.Query)
	assert.Empty(t, rec.Header.Get("apikey"), "no auth headers without a key")
	require.Len(t, rows, 2)
	assert.JSONEq(t, `{"id":"a1"}`, string(rows[0]))
}

func TestClientErrorStatus(t *testing.T) {
	srv, _ := recordingServer(t, http.StatusConflict, `{"message":"duplicate key"}`)
	client := NewClient(srv.URL, "secret")

	err := client.Insert(context.Background(), "items", json.RawMessage(`{"id":"a1"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestClientTrimsTrailingSlash(t *testing.T) {
	srv, rec := recordingServer(t, http.StatusOK, `[]`)
	client := NewClient(srv.URL+"/", "")

	_, err := client.SelectAll(context.Background(), "items")
	require.NoError(t, err)
	assert.Equal(t, "/items", rec.Path)
}
