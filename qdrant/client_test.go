package qdrant

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
	APIKey string
	Body   string
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			APIKey: r.Header.Get("api-key"),
			Body:   string(body),
		})
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL, WithAPIKey("secret")), &requests
}

func writeResult(w http.ResponseWriter, result string) {
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, `{"result":`+result+`,"status":"ok","time":0.001}`)
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		host     string
		port     int
		expected string
	}{
		{"localhost", 6333, "http://localhost:6333"},
		{"", 6333, "http://localhost:6333"},
		{"qdrant.internal", 7000, "http://qdrant.internal:7000"},
		{"http://localhost:6333", 1234, "http://localhost:6333"},
		{"https://cloud.qdrant.io", 6333, "https://cloud.qdrant.io:6333"},
		{"https://cloud.qdrant.io/", 0, "https://cloud.qdrant.io"},
		{"[::1]", 6333, "http://[::1]:6333"},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			got, err := BaseURL(tt.host, tt.port)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	t.Run("no_host", func(t *testing.T) {
		_, err := BaseURL("http://", 6333)
		require.Error(t, err)
	})
}

func TestListCollectionNames(t *testing.T) {
	client, requests := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, `{"collections":[{"name":"doc"},{"name":"empty_coll"}]}`)
	})

	names, err := client.ListCollectionNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"doc", "empty_coll"}, names)

	require.Len(t, *requests, 1)
	assert.Equal(t, http.MethodGet, (*requests)[0].Method)
	assert.Equal(t, "/collections", (*requests)[0].Path)
	assert.Equal(t, "secret", (*requests)[0].APIKey)
}

func TestSampleRecord(t *testing.T) {
	t.Run("keeps_integers_and_floats_apart", func(t *testing.T) {
		client, requests := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeResult(w, `{"points":[{"id":1,"payload":{"count":3,"weight":1.5,"whole":2.0}}],"next_page_offset":2}`)
		})

		payload, err := client.SampleRecord(context.Background(), "doc")
		require.NoError(t, err)
		assert.Equal(t, json.Number("3"), payload["count"])
		assert.Equal(t, json.Number("1.5"), payload["weight"])
		assert.Equal(t, json.Number("2.0"), payload["whole"])

		req := (*requests)[0]
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/collections/doc/points/scroll", req.Path)
		assert.JSONEq(t, `{"limit":1,"with_payload":true,"with_vector":false}`, req.Body)
	})

	t.Run("empty_collection", func(t *testing.T) {
		client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeResult(w, `{"points":[],"next_page_offset":null}`)
		})

		payload, err := client.SampleRecord(context.Background(), "empty_coll")
		require.NoError(t, err)
		assert.Nil(t, payload)
	})

	t.Run("point_without_payload", func(t *testing.T) {
		client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeResult(w, `{"points":[{"id":"5c56c793-69f3-4fbf-87e6-c4bf54c28c26"}]}`)
		})

		payload, err := client.SampleRecord(context.Background(), "doc")
		require.NoError(t, err)
		assert.NotNil(t, payload)
		assert.Empty(t, payload)
	})

	t.Run("api_error", func(t *testing.T) {
		client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"status":{"error":"Not found: Collection missing doesn't exist!"},"time":0.0}`)
		})

		_, err := client.SampleRecord(context.Background(), "missing")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Contains(t, apiErr.Message, "doesn't exist")
	})

	t.Run("plain_text_error", func(t *testing.T) {
		client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, "forbidden\n")
		})

		_, err := client.SampleRecord(context.Background(), "doc")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
		assert.Equal(t, "forbidden", apiErr.Message)
	})
}

func TestRecreateCollection(t *testing.T) {
	t.Run("deletes_then_creates", func(t *testing.T) {
		client, requests := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeResult(w, `true`)
		})

		err := client.RecreateCollection(context.Background(), "doc", VectorParams{Size: 4, Distance: DistanceCosine})
		require.NoError(t, err)

		require.Len(t, *requests, 2)
		assert.Equal(t, http.MethodDelete, (*requests)[0].Method)
		assert.Equal(t, http.MethodPut, (*requests)[1].Method)
		assert.Equal(t, "/collections/doc", (*requests)[1].Path)
		assert.JSONEq(t, `{"vectors":{"size":4,"distance":"Cosine"}}`, (*requests)[1].Body)
	})

	t.Run("missing_collection_is_created", func(t *testing.T) {
		client, requests := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodDelete {
				w.WriteHeader(http.StatusNotFound)
				io.WriteString(w, `{"status":{"error":"Not found"}}`)
				return
			}
			writeResult(w, `true`)
		})

		err := client.RecreateCollection(context.Background(), "doc", VectorParams{Size: 2, Distance: DistanceCosine})
		require.NoError(t, err)
		assert.Len(t, *requests, 2)
	})
}

func TestUpsert(t *testing.T) {
	client, requests := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, `{"operation_id":7,"status":"completed"}`)
	})

	points := []Point{
		{ID: uint64(1), Vector: []float32{0.5, 0.25}, Payload: map[string]any{"title": "a"}},
		{ID: "5c56c793-69f3-4fbf-87e6-c4bf54c28c26", Vector: []float32{1, 0}},
	}
	result, err := client.Upsert(context.Background(), "doc", points, true)
	require.NoError(t, err)
	assert.Equal(t, int64(7), result.OperationID)
	assert.Equal(t, "completed", result.Status)

	req := (*requests)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/collections/doc/points", req.Path)
	assert.Equal(t, "wait=true", req.Query)
	assert.JSONEq(t, `{"points":[
		{"id":1,"vector":[0.5,0.25],"payload":{"title":"a"}},
		{"id":"5c56c793-69f3-4fbf-87e6-c4bf54c28c26","vector":[1,0]}
	]}`, req.Body)
}

func TestConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).ListCollectionNames(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute request")
}
