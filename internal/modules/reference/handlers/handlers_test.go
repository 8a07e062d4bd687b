package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vintagescan/pricer/internal/database"
	"github.com/vintagescan/pricer/internal/domain"
	"github.com/vintagescan/pricer/internal/modules/reference"
	testingpkg "github.com/vintagescan/pricer/internal/testing"
)

func newTestRouter(t *testing.T, repo RangeReader) *chi.Mux {
	t.Helper()
	router := chi.NewRouter()
	router.Route("/api", NewHandler(repo, zerolog.Nop()).RegisterRoutes)
	return router
}

func seededRepository(t *testing.T) *reference.Repository {
	t.Helper()
	db := testingpkg.NewTestDB(t, database.NamePricing)
	repo := reference.NewRepository(reference.NewSQLiteStore(db.Conn()), zerolog.Nop())
	_, err := repo.UpsertAll(context.Background(), testingpkg.NewReferenceFixtures())
	require.NoError(t, err)
	return repo
}

func get(router http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", target, nil))
	return w
}

func TestHandleRange(t *testing.T) {
	router := newTestRouter(t, seededRepository(t))

	w := get(router, "/api/reference/range?brand=Levi's&product_type=jeans&era_start=1980&era_end=1999")
	require.Equal(t, http.StatusOK, w.Code)

	var resp RangeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 3, resp.Records)
	assert.Equal(t, 60.0, resp.Min)
	assert.Equal(t, 320.0, resp.Max)
	assert.Equal(t, 175.0, resp.Avg)
	assert.Equal(t, 1980, resp.EraStart)
	assert.Equal(t, 1999, resp.EraEnd)
}

func TestHandleRange_SingleYear(t *testing.T) {
	router := newTestRouter(t, seededRepository(t))

	w := get(router, "/api/reference/range?brand=levis&product_type=jeans&era_start=1995")
	require.Equal(t, http.StatusOK, w.Code)

	var resp RangeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 1995, resp.EraEnd)
	assert.Equal(t, 1, resp.Records)
}

func TestHandleRange_NoData(t *testing.T) {
	router := newTestRouter(t, seededRepository(t))

	w := get(router, "/api/reference/range?brand=levis&product_type=jeans&era_start=2005&era_end=2010")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleRange_BadRequests(t *testing.T) {
	router := newTestRouter(t, seededRepository(t))

	for _, target := range []string{
		"/api/reference/range?product_type=jeans&era_start=1990",
		"/api/reference/range?brand=levis&product_type=jeans",
		"/api/reference/range?brand=levis&product_type=jeans&era_start=1990s",
		"/api/reference/range?brand=levis&product_type=jeans&era_start=1990&era_end=x",
		"/api/reference/range?brand=levis&product_type=jeans&era_start=1990&era_end=1980",
	} {
		w := get(router, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

type failingReader struct{}

func (failingReader) Range(context.Context, string, string, int, int) (*domain.ReferenceRange, error) {
	return nil, errors.New("db closed")
}

func TestHandleRange_StoreError(t *testing.T) {
	router := newTestRouter(t, failingReader{})

	w := get(router, "/api/reference/range?brand=levis&product_type=jeans&era_start=1990")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
