package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cmdshifts/backend-products/internal/catalog"
	apperrors "github.com/cmdshifts/backend-products/internal/errors"
	"github.com/cmdshifts/backend-products/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// mockCatalogService is a mock implementation of the CatalogService interface
type mockCatalogService struct {
	product    *service.ProductDto
	products   []service.ProductDto
	saleResult *service.SaleResultDto
	bulkResult *service.BulkUpdateResultDto
	error      error
}

func (m *mockCatalogService) FindByID(_ context.Context, _ int64) (*service.ProductDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.product, nil
}

func (m *mockCatalogService) FindAll(_ context.Context) ([]service.ProductDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.products, nil
}

func (m *mockCatalogService) FindByCategory(_ context.Context, _ string) ([]service.ProductDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.products, nil
}

func (m *mockCatalogService) Search(_ context.Context, _ string) ([]service.ProductDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.products, nil
}

func (m *mockCatalogService) Create(_ context.Context, _ catalog.ProductInput) (*service.ProductDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.product, nil
}

func (m *mockCatalogService) Sell(_ context.Context, _ service.SaleRequest) (*service.SaleResultDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.saleResult, nil
}

func (m *mockCatalogService) BulkPriceUpdate(_ context.Context, _ []service.PriceUpdate) (*service.BulkUpdateResultDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.bulkResult, nil
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ErrorsResponse struct {
	Errors []string `json:"errors"`
}

// toJSON is a helper function to convert a struct to JSON string
func toJSON(t *testing.T, v interface{}) string {
	t.Helper()
	bytes, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal to JSON: %v", err)
	}
	return string(bytes)
}

// serve routes the request through a chi mux so URL params and the
// literal-before-wildcard route ordering are exercised.
func serve(mock *mockCatalogService, method, target, body string) *httptest.ResponseRecorder {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	api := NewHandler(mock, logger)
	mux := chi.NewMux()
	api.RegisterRoutes(mux)

	req := httptest.NewRequest(method, target, nil)
	if body != "" {
		req.Body = io.NopCloser(strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func Test_CatalogAPI_Create(t *testing.T) {
	created := &service.ProductDto{
		ID: 1, Name: "Green Tea", Sku: "GT-001", Price: 25, Stock: 100,
		Category: "beverage", CreatedAt: "2026-08-30T10:00:00Z",
	}
	testCases := []struct {
		name         string
		mockService  mockCatalogService
		requestBody  string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success - product created",
			mockService:  mockCatalogService{product: created},
			requestBody:  `{"name":"Green Tea","sku":"GT-001","price":25,"stock":100,"category":"beverage"}`,
			expectedCode: http.StatusCreated,
			expectedBody: toJSON(t, created),
		},
		{
			name: "Error - validation failed, all messages reported",
			mockService: mockCatalogService{
				error: &apperrors.ValidationError{Errors: []string{
					"product name must not be empty",
					"price must be greater than 0",
				}},
			},
			requestBody:  `{"name":"","sku":"GT-001","price":-5,"stock":100,"category":"beverage"}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorsResponse{Errors: []string{
				"product name must not be empty",
				"price must be greater than 0",
			}}),
		},
		{
			name:         "Error - invalid json",
			mockService:  mockCatalogService{},
			requestBody:  `invalid json`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid request body"}),
		},
		{
			name:         "Error - service error",
			mockService:  mockCatalogService{error: errors.New("service unavailable")},
			requestBody:  `{"name":"Green Tea","sku":"GT-001","price":25,"stock":100,"category":"beverage"}`,
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Failed to create product"}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			rr := serve(&tc.mockService, http.MethodPost, "/products", tc.requestBody)
			// then
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Equal(t, tc.expectedCode, rr.Code, "status code should match")
			assert.JSONEq(t, tc.expectedBody, rr.Body.String(), "response body should match")
		})
	}
}

func Test_CatalogAPI_List(t *testing.T) {
	products := []service.ProductDto{
		{ID: 1, Name: "Green Tea", Sku: "GT-001", Price: 25, Stock: 100, Category: "beverage", CreatedAt: "2026-08-30T10:00:00Z"},
		{ID: 2, Name: "Rice", Sku: "RC-001", Price: 40, Stock: 10, Category: "food", CreatedAt: "2026-08-30T10:01:00Z"},
	}
	testCases := []struct {
		name         string
		mockService  mockCatalogService
		target       string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success - all products",
			mockService:  mockCatalogService{products: products},
			target:       "/products",
			expectedCode: http.StatusOK,
			expectedBody: toJSON(t, products),
		},
		{
			name:         "Success - empty catalog",
			mockService:  mockCatalogService{products: []service.ProductDto{}},
			target:       "/products",
			expectedCode: http.StatusOK,
			expectedBody: `[]`,
		},
		{
			name:         "Success - category filter",
			mockService:  mockCatalogService{products: products[1:]},
			target:       "/products?category=food",
			expectedCode: http.StatusOK,
			expectedBody: toJSON(t, products[1:]),
		},
		{
			name: "Error - unknown category",
			mockService: mockCatalogService{
				error: &apperrors.InvalidCategoryError{Allowed: catalog.Categories()},
			},
			target:       "/products?category=electronics",
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{
				Error: "category must be one of: food, beverage, household, clothing",
			}),
		},
		{
			name:         "Error - service error",
			mockService:  mockCatalogService{error: errors.New("service unavailable")},
			target:       "/products",
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Failed to fetch products"}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			rr := serve(&tc.mockService, http.MethodGet, tc.target, "")
			// then
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Equal(t, tc.expectedCode, rr.Code, "status code should match")
			assert.JSONEq(t, tc.expectedBody, rr.Body.String(), "response body should match")
		})
	}
}

func Test_CatalogAPI_Search(t *testing.T) {
	products := []service.ProductDto{
		{ID: 1, Name: "Green Tea", Sku: "GT-001", Price: 25, Stock: 100, Category: "beverage", CreatedAt: "2026-08-30T10:00:00Z"},
	}
	testCases := []struct {
		name         string
		mockService  mockCatalogService
		target       string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success - products found",
			mockService:  mockCatalogService{products: products},
			target:       "/products/search?keyword=tea",
			expectedCode: http.StatusOK,
			expectedBody: toJSON(t, products),
		},
		{
			name:         "Success - no matches",
			mockService:  mockCatalogService{products: []service.ProductDto{}},
			target:       "/products/search?keyword=soap",
			expectedCode: http.StatusOK,
			expectedBody: `[]`,
		},
		{
			name:         "Error - missing keyword",
			mockService:  mockCatalogService{error: apperrors.ErrMissingKeyword},
			target:       "/products/search",
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "keyword is required"}),
		},
		{
			name:         "Error - service error",
			mockService:  mockCatalogService{error: errors.New("service unavailable")},
			target:       "/products/search?keyword=tea",
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Failed to search products"}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			rr := serve(&tc.mockService, http.MethodGet, tc.target, "")
			// then
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Equal(t, tc.expectedCode, rr.Code, "status code should match")
			assert.JSONEq(t, tc.expectedBody, rr.Body.String(), "response body should match")
		})
	}
}

func Test_CatalogAPI_Sell(t *testing.T) {
	saleResult := &service.SaleResultDto{
		Message: "product sold successfully",
		Product: service.SoldProduct{
			ID: 1, Name: "Green Tea", Sku: "GT-001", RemainingStock: 97,
		},
		SoldQuantity: 3,
	}
	testCases := []struct {
		name         string
		mockService  mockCatalogService
		requestBody  string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success - product sold",
			mockService:  mockCatalogService{saleResult: saleResult},
			requestBody:  `{"productId":1,"quantity":3}`,
			expectedCode: http.StatusOK,
			expectedBody: toJSON(t, saleResult),
		},
		{
			name:         "Error - invalid quantity",
			mockService:  mockCatalogService{error: apperrors.ErrInvalidQuantity},
			requestBody:  `{"productId":1,"quantity":0}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "quantity must be a number greater than 0"}),
		},
		{
			name:         "Error - missing productId",
			mockService:  mockCatalogService{error: apperrors.ErrMissingProductID},
			requestBody:  `{"quantity":3}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "productId is required"}),
		},
		{
			name:         "Error - insufficient stock",
			mockService:  mockCatalogService{error: &apperrors.InsufficientStockError{Available: 3}},
			requestBody:  `{"productId":1,"quantity":5}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "insufficient stock (only 3 left)"}),
		},
		{
			name:         "Error - product not found",
			mockService:  mockCatalogService{error: apperrors.ErrProductNotFound},
			requestBody:  `{"productId":999,"quantity":3}`,
			expectedCode: http.StatusNotFound,
			expectedBody: toJSON(t, ErrorResponse{Error: "product not found"}),
		},
		{
			name:         "Error - invalid json",
			mockService:  mockCatalogService{},
			requestBody:  `invalid json`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid request body"}),
		},
		{
			name:         "Error - service error",
			mockService:  mockCatalogService{error: errors.New("service unavailable")},
			requestBody:  `{"productId":1,"quantity":3}`,
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Failed to sell product"}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			rr := serve(&tc.mockService, http.MethodPost, "/products/sell", tc.requestBody)
			// then
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Equal(t, tc.expectedCode, rr.Code, "status code should match")
			assert.JSONEq(t, tc.expectedBody, rr.Body.String(), "response body should match")
		})
	}
}

func Test_CatalogAPI_BulkPriceUpdate(t *testing.T) {
	bulkResult := &service.BulkUpdateResultDto{
		Message: "price update completed",
		Summary: service.BulkUpdateSummary{Total: 2, SuccessCount: 1, FailedCount: 1},
		Results: service.BulkUpdateResults{
			Success: []service.BulkUpdateSuccess{
				{ProductID: 1, Name: "Green Tea", Sku: "GT-001", OldPrice: 25, NewPrice: 30},
			},
			Failed: []service.BulkUpdateFailure{
				{Index: 1, ProductID: 999.0, Reason: "product not found"},
			},
		},
	}
	testCases := []struct {
		name         string
		mockService  mockCatalogService
		requestBody  string
		expectedCode int
		expectedBody string
	}{
		{
			// partial failure is still a 200
			name:         "Success - partial outcome reported",
			mockService:  mockCatalogService{bulkResult: bulkResult},
			requestBody:  `{"updates":[{"productId":1,"newPrice":30},{"productId":999,"newPrice":40}]}`,
			expectedCode: http.StatusOK,
			expectedBody: toJSON(t, bulkResult),
		},
		{
			// a stray non-object element fails alone, never the whole batch
			name:         "Success - non-object entry is not an envelope error",
			mockService:  mockCatalogService{bulkResult: bulkResult},
			requestBody:  `{"updates":[{"productId":1,"newPrice":5},7]}`,
			expectedCode: http.StatusOK,
			expectedBody: toJSON(t, bulkResult),
		},
		{
			name:         "Error - updates is not an array",
			mockService:  mockCatalogService{},
			requestBody:  `{"updates":"nope"}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "updates must be a non-empty array"}),
		},
		{
			name:         "Error - updates is empty",
			mockService:  mockCatalogService{},
			requestBody:  `{"updates":[]}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "updates must be a non-empty array"}),
		},
		{
			name:         "Error - updates is missing",
			mockService:  mockCatalogService{},
			requestBody:  `{}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "updates must be a non-empty array"}),
		},
		{
			name:         "Error - invalid json",
			mockService:  mockCatalogService{},
			requestBody:  `invalid json`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid request body"}),
		},
		{
			name:         "Error - service error",
			mockService:  mockCatalogService{error: errors.New("service unavailable")},
			requestBody:  `{"updates":[{"productId":1,"newPrice":30}]}`,
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Failed to update prices"}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			rr := serve(&tc.mockService, http.MethodPut, "/products/bulk-price-update", tc.requestBody)
			// then
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Equal(t, tc.expectedCode, rr.Code, "status code should match")
			assert.JSONEq(t, tc.expectedBody, rr.Body.String(), "response body should match")
		})
	}
}

func Test_CatalogAPI_FindByID(t *testing.T) {
	product := &service.ProductDto{
		ID: 1, Name: "Green Tea", Sku: "GT-001", Price: 25, Stock: 100,
		Category: "beverage", CreatedAt: "2026-08-30T10:00:00Z",
	}
	testCases := []struct {
		name         string
		mockService  mockCatalogService
		productID    string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success - product found",
			mockService:  mockCatalogService{product: product},
			productID:    "1",
			expectedCode: http.StatusOK,
			expectedBody: toJSON(t, product),
		},
		{
			name:         "Error - product not found",
			mockService:  mockCatalogService{error: apperrors.ErrProductNotFound},
			productID:    "999",
			expectedCode: http.StatusNotFound,
			expectedBody: toJSON(t, ErrorResponse{Error: "product not found"}),
		},
		{
			// a non-numeric id can never match, so it is a 404, not a 400
			name:         "Error - non-numeric id",
			mockService:  mockCatalogService{},
			productID:    "abc",
			expectedCode: http.StatusNotFound,
			expectedBody: toJSON(t, ErrorResponse{Error: "product not found"}),
		},
		{
			name:         "Error - fractional id",
			mockService:  mockCatalogService{},
			productID:    "1.5",
			expectedCode: http.StatusNotFound,
			expectedBody: toJSON(t, ErrorResponse{Error: "product not found"}),
		},
		{
			name:         "Error - service error",
			mockService:  mockCatalogService{error: errors.New("service unavailable")},
			productID:    "1",
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Failed to retrieve product"}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			rr := serve(&tc.mockService, http.MethodGet, "/products/"+tc.productID, "")
			// then
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Equal(t, tc.expectedCode, rr.Code, "status code should match")
			assert.JSONEq(t, tc.expectedBody, rr.Body.String(), "response body should match")
		})
	}
}

func Test_CatalogAPI_RouteOrdering(t *testing.T) {
	// given: literal routes must win over the {id} wildcard
	mock := &mockCatalogService{error: apperrors.ErrMissingKeyword}
	// when
	rr := serve(mock, http.MethodGet, "/products/search", "")
	// then: handled by Search, not FindByID
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, toJSON(t, ErrorResponse{Error: "keyword is required"}), rr.Body.String())
}

func Test_CatalogAPI_HealthCheck(t *testing.T) {
	// given
	mock := &mockCatalogService{}
	// when
	rr := serve(mock, http.MethodGet, "/healthz", "")
	// then
	assert.Equal(t, http.StatusOK, rr.Code, "status code should be 200 OK")
	assert.Empty(t, rr.Body.String(), "response body should be empty")
}
