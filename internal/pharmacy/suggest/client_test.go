package suggest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/suggest"
	"github.com/pharmastock/pharmastock-backend/pkg/config"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(url string) *suggest.Client {
	return suggest.NewClient(&config.SuggestionConfig{
		URL:     url,
		Timeout: 2 * time.Second,
	})
}

func TestSuggest_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/suggest", r.URL.Path)

		var req suggest.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Doliprane 1000mg", req.DrugName)
		assert.Equal(t, 3, req.CurrentStock)

		qty := 50
		json.NewEncoder(w).Encode(suggest.Suggestion{
			AdjustmentSuggestion: "Commander rapidement, stock critique",
			SuggestedQuantity:    &qty,
			Reason:               "stock below threshold with near expiry",
		})
	}))
	defer srv.Close()

	got, err := newClient(srv.URL).Suggest(context.Background(), suggest.Request{
		DrugName:     "Doliprane 1000mg",
		CurrentStock: 3,
		ExpiryDate:   "2025-09-01",
	})

	require.NoError(t, err)
	assert.Equal(t, "Commander rapidement, stock critique", got.AdjustmentSuggestion)
	require.NotNil(t, got.SuggestedQuantity)
	assert.Equal(t, 50, *got.SuggestedQuantity)
}

func TestSuggest_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Suggest(context.Background(), suggest.Request{DrugName: "X"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrRemoteService))

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadGateway, appErr.StatusCode)
}

func TestSuggest_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Suggest(context.Background(), suggest.Request{DrugName: "X"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrRemoteService))
}

func TestSuggest_Unreachable(t *testing.T) {
	_, err := newClient("http://127.0.0.1:1").Suggest(context.Background(), suggest.Request{DrugName: "X"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrRemoteService))
}
