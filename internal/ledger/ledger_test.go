package ledger_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgersync/internal/ledger"
)

func TestRequester_Do(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/echo", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		assert.Equal(t, "secret", req.Header.Get("X-Token"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(req.Body).Decode(&in))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"got": in["name"]})
	})
	r.Get("/fail", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"bad","exception":"ValidationException"}`))
	})
	r.Get("/plain", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	req := ledger.NewRequester(0, func(h http.Header, auth ledger.Auth) {
		h.Set("X-Token", auth.Token)
	})
	auth := ledger.Auth{Token: "secret"}

	t.Run("Success", func(t *testing.T) {
		var out map[string]string

		err := req.Do(context.Background(), auth, http.MethodPost, srv.URL+"/echo", map[string]string{"name": "x"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "x", out["got"])
	})

	t.Run("JSONError", func(t *testing.T) {
		err := req.Do(context.Background(), auth, http.MethodGet, srv.URL+"/fail", nil, nil)

		var apiErr *ledger.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
		assert.Equal(t, "ValidationException", apiErr.Code)
		assert.Contains(t, apiErr.Body, `"message":"bad"`)
		assert.Equal(t, http.MethodGet, apiErr.Method)
	})

	t.Run("PlainError", func(t *testing.T) {
		err := req.Do(context.Background(), auth, http.MethodGet, srv.URL+"/plain", nil, nil)

		var apiErr *ledger.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
		assert.Empty(t, apiErr.Code)
		assert.Equal(t, "nope", apiErr.Body)
		assert.Contains(t, apiErr.Error(), "status 401")
	})
}
