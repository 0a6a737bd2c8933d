package gios_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polairhq/polair/internal/gios"
)

func newTestClient(baseURL string) *gios.Client {
	return gios.NewClient(gios.ClientConfig{
		BaseURL:        baseURL,
		HTTPClient:     http.DefaultClient,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	})
}

func TestClient_StationsPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/station/findAll", r.URL.Path)
		assert.Equal(t, "0", r.URL.Query().Get("page"))
		assert.Equal(t, "200", r.URL.Query().Get("size"))

		response := map[string]any{
			"Lista stacji pomiarowych": []map[string]any{
				{"Identyfikator stacji": 117, "Kod stacji": "DsWrocBartni"},
			},
			"totalPages": 1,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	data, err := client.StationsPage(context.Background(), 0, 200)
	require.NoError(t, err)

	items, ok := data["Lista stacji pomiarowych"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 1)
}

func TestClient_RetriesTransientErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"totalPages": 1})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.StationsPage(context.Background(), 0, 200)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestClient_ExhaustedRetriesReturnAPIError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "persistent failure", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.StationsPage(context.Background(), 0, 200)
	require.Error(t, err)

	var apiErr *gios.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "persistent failure")
	assert.Equal(t, 3, attempts) // 3 attempts total, then surfaced
}

func TestClient_SentinelBodyIsNotRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error_result": "Brak danych pomiarowych",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	payload, err := client.CurrentData(context.Background(), 672)
	require.NoError(t, err)
	assert.True(t, gios.IsErrorSentinel(payload))
	assert.Equal(t, 1, attempts)
}

func TestClient_SentinelIn200IsDomainData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"error_result": "Brak danych",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	payload, err := client.CurrentData(context.Background(), 672)
	require.NoError(t, err)
	assert.True(t, gios.IsErrorSentinel(payload))
}

func TestClient_ArchivalDataQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/archivalData/getDataBySensor/672", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "0", q.Get("page"))
		assert.Equal(t, "30", q.Get("size"))
		assert.Equal(t, "2025-07-16 00:00", q.Get("dateFrom"))
		assert.Equal(t, "2025-08-20 00:00", q.Get("dateTo"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"Lista archiwalnych wyników pomiarów": []map[string]any{},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	from := time.Date(2025, 7, 16, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)
	_, err := client.ArchivalData(context.Background(), 672, from, to, 0, 30)
	require.NoError(t, err)
}

func TestClient_CurrentDataBareList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{
			{"Data": "2025-08-20 12:00:00", "Wartość": 42.5},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	payload, err := client.CurrentData(context.Background(), 672)
	require.NoError(t, err)

	rows, ok := payload.([]any)
	require.True(t, ok)
	assert.Len(t, rows, 1)
}

func TestIsErrorSentinel(t *testing.T) {
	assert.True(t, gios.IsErrorSentinel(map[string]any{"error_result": "x"}))
	assert.False(t, gios.IsErrorSentinel(map[string]any{"Lista danych pomiarowych": []any{}}))
	assert.False(t, gios.IsErrorSentinel([]any{}))
	assert.False(t, gios.IsErrorSentinel(nil))
}
