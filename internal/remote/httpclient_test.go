package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/domain"
)

func staticToken(token string) TokenSource {
	return func() string { return token }
}

func TestFetch_DecodesDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/selection", r.URL.Path)
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(Document{
			Items: []domain.LineItem{{ID: "a", Name: "item a", Quantity: 2}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticToken("tok-1"))
	doc, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, 2, doc.Items[0].Quantity)
	assert.False(t, doc.Empty())
}

func TestFetch_EmptyDefaultsAreNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[],"labels":[],"updatedAt":null}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticToken("tok-1"))
	doc, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, doc.Empty())
	assert.Nil(t, doc.UpdatedAt)
}

func TestFetch_ErrorMapping(t *testing.T) {
	status := http.StatusUnauthorized
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticToken(""))

	_, err := client.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)

	status = http.StatusInternalServerError
	_, err = client.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFetch_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(srv.URL, staticToken("tok-1"))
	_, err := client.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPush_SendsFullReplacePayload(t *testing.T) {
	var received struct {
		Items  []domain.LineItem `json:"items"`
		Labels []domain.Label    `json:"labels"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticToken("tok-1"))
	items := []domain.LineItem{{ID: "a", Name: "item a", Quantity: 1}}
	labels := []domain.Label{{ID: "l1", Name: "Kitchen"}}

	require.NoError(t, client.Push(context.Background(), items, labels))
	assert.Equal(t, items, received.Items)
	assert.Equal(t, labels, received.Labels)
}

func TestPush_ValidationRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticToken("tok-1"))
	err := client.Push(context.Background(), []domain.LineItem{{Name: "no id"}}, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRoundTrip_PushThenFetch(t *testing.T) {
	var stored Document
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var body Document
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			stored = body
			json.NewEncoder(w).Encode(map[string]bool{"success": true})
		case http.MethodGet:
			json.NewEncoder(w).Encode(stored)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticToken("tok-1"))
	items := []domain.LineItem{
		{ID: "a", Name: "item a", Quantity: 2},
		{ID: "b", VariantID: "v1", Name: "item b", Quantity: 1},
	}

	require.NoError(t, client.Push(context.Background(), items, nil))
	doc, err := client.Fetch(context.Background())
	require.NoError(t, err)

	byKey := make(map[string]int, len(doc.Items))
	for _, item := range doc.Items {
		byKey[item.Key()] = item.Quantity
	}
	assert.Equal(t, map[string]int{"a": 2, "b/v1": 1}, byKey)
}
