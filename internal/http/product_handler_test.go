package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Goodnews119/Marketplacesite/internal/domain"
	"github.com/Goodnews119/Marketplacesite/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func cdnURL(key string) string {
	if key == "" {
		return ""
	}
	return "https://cdn.test/" + key
}

func TestListProducts_Success(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	catalog := &MockCatalog{products: []*domain.Product{
		{ID: 2, Title: "Course", PriceCents: 5000, AssetKey: "1-course.zip", CreatedAt: created},
		{ID: 1, Title: "Ebook", PriceCents: 1999, Author: "Ann", CreatedAt: created},
	}}

	handler := NewProductHandler(catalog, cdnURL, 5*time.Second)
	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []ProductResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 2)

	assert.Equal(t, "50.00", resp[0].Price)
	assert.Equal(t, "https://cdn.test/1-course.zip", resp[0].AssetURL)
	assert.Equal(t, "19.99", resp[1].Price)
	assert.Equal(t, int64(1999), resp[1].PriceCents)
	assert.Empty(t, resp[1].AssetURL)
	assert.True(t, created.Equal(resp[1].CreatedAt))
}

func TestListProducts_EmptyIsArray(t *testing.T) {
	handler := NewProductHandler(&MockCatalog{products: []*domain.Product{}}, nil, 5*time.Second)
	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListProducts_Error(t *testing.T) {
	handler := NewProductHandler(&MockCatalog{err: errors.New("db down")}, nil, 5*time.Second)
	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestCreateProduct_PriceFormats(t *testing.T) {
	for _, body := range []string{
		`{"title":"Ebook","price":19.99}`,
		`{"title":"Ebook","price":"19.99"}`,
	} {
		catalog := &MockCatalog{}
		handler := NewProductHandler(catalog, nil, 5*time.Second)
		rec := httptest.NewRecorder()
		handler.Create(rec, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body)))

		require.Equal(t, http.StatusCreated, rec.Code, body)
		var resp ProductResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "19.99", resp.Price)
		assert.Equal(t, int64(1999), resp.PriceCents)
	}
}

func TestCreateProduct_NonNumericPrice(t *testing.T) {
	catalog := &MockCatalog{}
	handler := NewProductHandler(catalog, nil, 5*time.Second)
	rec := httptest.NewRecorder()
	handler.Create(rec, httptest.NewRequest(http.MethodPost, "/api/products",
		strings.NewReader(`{"title":"Ebook","price":"abc"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, catalog.created)
}

func TestUpdateProduct_PartialBody(t *testing.T) {
	catalog := &MockCatalog{}
	handler := NewProductHandler(catalog, nil, 5*time.Second)

	req := httptest.NewRequest(http.MethodPut, "/api/products/5", strings.NewReader(`{"price":"5","author":""}`))
	req = withURLParam(req, "id", "5")
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Equal(t, int64(5), catalog.updatedID)
	require.NotNil(t, catalog.updated)
	assert.Nil(t, catalog.updated.Title)
	require.NotNil(t, catalog.updated.Author)
	assert.Equal(t, "", *catalog.updated.Author)
	require.NotNil(t, catalog.updated.Price)
	assert.Equal(t, "5", catalog.updated.Price.String())
}

func TestUpdateProduct_NotFound(t *testing.T) {
	catalog := &MockCatalog{err: &service.Error{Kind: service.ErrNotFound, Message: "product not found"}}
	handler := NewProductHandler(catalog, nil, 5*time.Second)

	req := withURLParam(httptest.NewRequest(http.MethodPut, "/api/products/99", strings.NewReader(`{"title":"x"}`)), "id", "99")
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductIDParam_Invalid(t *testing.T) {
	for _, id := range []string{"abc", "0", "-3", ""} {
		catalog := &MockCatalog{}
		handler := NewProductHandler(catalog, nil, 5*time.Second)

		req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/products/"+id, nil), "id", id)
		rec := httptest.NewRecorder()
		handler.Delete(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, id)
		assert.Zero(t, catalog.deletedID)
	}
}

func TestDeleteProduct_Success(t *testing.T) {
	catalog := &MockCatalog{}
	handler := NewProductHandler(catalog, nil, 5*time.Second)

	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/products/3", nil), "id", "3")
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), catalog.deletedID)
}
