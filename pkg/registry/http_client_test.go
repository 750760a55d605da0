package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/block", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(blockResponse{BlockNumber: 1050})
	})
	mux.HandleFunc("/v1/mrenclave", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]uint64{"aa": 100})
	})
	mux.HandleFunc("/v1/mrsigner", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]uint64{"bb": 100})
	})
	return httptest.NewServer(mux)
}

func TestHTTPClient_ReadsRegistryState(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	c := NewHTTPClient(Config{BaseURL: srv.URL})
	ctx := context.Background()

	block, err := c.CurrentBlockNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1050), block)

	mre, err := c.MrenclaveRegistry(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), mre["aa"])

	mrs, err := c.MrsignerRegistry(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), mrs["bb"])
}

func TestHTTPClient_NonOKStatusFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{BaseURL: srv.URL})
	_, err := c.CurrentBlockNumber(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
