package handlers

import (
	"net/http"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/stretchr/testify/require"

	"github.com/greenstay/hotelenergy/internal/es"
)

func TestSearchWithoutClient(t *testing.T) {
	h := &SearchHandler{Index: es.RoomDataIndex}

	c, _ := jsonContext(http.MethodGet, "/api/v1/search?q=room-101", "")
	requireStatus(t, h.Search(c), http.StatusServiceUnavailable)
}

func TestSearchMissingQuery(t *testing.T) {
	// constructing a client does not dial, so the param validation is
	// reachable without a running cluster
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://127.0.0.1:1"},
	})
	require.NoError(t, err)
	h := &SearchHandler{ES: client, Index: es.RoomDataIndex}

	c, _ := jsonContext(http.MethodGet, "/api/v1/search", "")
	requireStatus(t, h.Search(c), http.StatusBadRequest)
}
