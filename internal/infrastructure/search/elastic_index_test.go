package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/otp-auth-service/internal/application"
)

type esRequest struct {
	method string
	path   string
	body   string
}

func newFakeES(t *testing.T, status int, reply string) (*elasticsearch.Client, *[]esRequest) {
	t.Helper()
	var seen []esRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = append(seen, esRequest{method: r.Method, path: r.URL.Path, body: string(b)})
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return es, &seen
}

func TestElasticIndex_Index(t *testing.T) {
	es, seen := newFakeES(t, http.StatusCreated, `{"result":"created"}`)
	idx := NewElasticIndex(es, "accounts")

	doc := application.AccountDocument{
		ID:        "id-1",
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		CreatedAt: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, idx.Index(context.Background(), doc))

	require.Len(t, *seen, 1)
	req := (*seen)[0]
	assert.Equal(t, http.MethodPut, req.method)
	assert.Equal(t, "/accounts/_doc/id-1", req.path)

	var got application.AccountDocument
	require.NoError(t, json.Unmarshal([]byte(req.body), &got))
	assert.Equal(t, doc, got)
}

func TestElasticIndex_IndexErrorStatus(t *testing.T) {
	es, _ := newFakeES(t, http.StatusBadRequest, `{"error":"bad"}`)
	err := NewElasticIndex(es, "accounts").Index(context.Background(), application.AccountDocument{ID: "x"})
	assert.Error(t, err)
}

func TestElasticIndex_Search(t *testing.T) {
	reply := `{"hits":{"hits":[
		{"_id":"id-1","_source":{"id":"id-1","email":"ada@example.com","first_name":"Ada","last_name":"Lovelace"}},
		{"_id":"id-2","_source":{"id":"id-2","email":"ada.b@example.com","first_name":"Ada","last_name":"Byron"}}
	]}}`
	es, seen := newFakeES(t, http.StatusOK, reply)

	docs, err := NewElasticIndex(es, "accounts").Search(context.Background(), "ada", 5)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Byron", docs[1].LastName)

	req := (*seen)[0]
	assert.True(t, strings.HasSuffix(req.path, "/accounts/_search"))
	assert.Contains(t, req.body, `"multi_match"`)
	assert.Contains(t, req.body, `"size":5`)
}
