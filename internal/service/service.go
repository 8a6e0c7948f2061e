// Package service provides the implementation of catalog business logic.
package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cmdshifts/backend-products/internal/catalog"
	apperrors "github.com/cmdshifts/backend-products/internal/errors"
	"github.com/cmdshifts/backend-products/internal/store"
	"github.com/cmdshifts/backend-products/pkg/metrics"
)

// CatalogService defines the operations for managing the product catalog.
// It abstracts the underlying business logic and data access.
type CatalogService interface {
	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*ProductDto, error)

	// FindAll returns all products in insertion order.
	FindAll(ctx context.Context) ([]ProductDto, error)

	// FindByCategory returns all products with the given category.
	// Returns InvalidCategoryError if the category is not in the registry.
	FindByCategory(ctx context.Context, category string) ([]ProductDto, error)

	// Search returns all products whose name or sku contains the keyword,
	// case-insensitively. Returns ErrMissingKeyword if the keyword is blank.
	Search(ctx context.Context, keyword string) ([]ProductDto, error)

	// Create validates a candidate product and adds it to the catalog.
	// Returns ValidationError carrying every failed rule if the candidate is
	// not admissible; no state changes in that case.
	Create(ctx context.Context, in catalog.ProductInput) (*ProductDto, error)

	// Sell decrements a product's stock by the requested quantity.
	// Fails with the first violated rule: ErrInvalidQuantity,
	// ErrMissingProductID, ErrProductNotFound or InsufficientStockError.
	Sell(ctx context.Context, req SaleRequest) (*SaleResultDto, error)

	// BulkPriceUpdate applies price overwrites entry by entry, in input
	// order. Individual entries fail independently; the batch as a whole
	// fails only when updates is empty (ErrInvalidUpdatesPayload).
	BulkPriceUpdate(ctx context.Context, updates []PriceUpdate) (*BulkUpdateResultDto, error)
}

// Service implements CatalogService. The mutex serializes each compound
// check-then-act operation (sku check + insert, stock check + decrement, and
// every bulk batch) so the store's invariants hold under concurrent requests.
type Service struct {
	mu         sync.Mutex
	repository store.CatalogStore
}

// NewService creates a new CatalogService backed by the provided store.
func NewService(repo store.CatalogStore) *Service {
	return &Service{
		repository: repo,
	}
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Sku       string  `json:"sku"`
	Price     float64 `json:"price"`
	Stock     float64 `json:"stock"`
	Category  string  `json:"category"`
	CreatedAt string  `json:"createdAt"`
}

// SaleRequest carries the sell operation inputs. Both fields are untyped so
// that wrong JSON types map to the operation's own failure kinds instead of
// decode errors.
type SaleRequest struct {
	ProductID any `json:"productId"`
	Quantity  any `json:"quantity"`
}

// SaleResultDto summarizes a completed sale.
type SaleResultDto struct {
	Message      string      `json:"message"`
	Product      SoldProduct `json:"product"`
	SoldQuantity float64     `json:"soldQuantity"`
}

// SoldProduct identifies the sold product and its remaining stock.
type SoldProduct struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Sku            string  `json:"sku"`
	RemainingStock float64 `json:"remainingStock"`
}

// PriceUpdate is a single entry of a bulk price update.
type PriceUpdate struct {
	ProductID any `json:"productId"`
	NewPrice  any `json:"newPrice"`
}

// BulkUpdateSuccess records one applied price overwrite.
type BulkUpdateSuccess struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Sku       string  `json:"sku"`
	OldPrice  float64 `json:"oldPrice"`
	NewPrice  float64 `json:"newPrice"`
}

// BulkUpdateFailure records one rejected entry, tagged with its original
// index and the productId as given.
type BulkUpdateFailure struct {
	Index     int    `json:"index"`
	ProductID any    `json:"productId"`
	Reason    string `json:"reason"`
}

// BulkUpdateSummary counts the batch outcomes.
type BulkUpdateSummary struct {
	Total        int `json:"total"`
	SuccessCount int `json:"successCount"`
	FailedCount  int `json:"failedCount"`
}

// BulkUpdateResults holds the per-entry outcomes. Each entry lands in exactly
// one of the two lists; the Index field is authoritative for ordering.
type BulkUpdateResults struct {
	Success []BulkUpdateSuccess `json:"success"`
	Failed  []BulkUpdateFailure `json:"failed"`
}

// BulkUpdateResultDto is the full bulk price update response.
type BulkUpdateResultDto struct {
	Message string            `json:"message"`
	Summary BulkUpdateSummary `json:"summary"`
	Results BulkUpdateResults `json:"results"`
}

// FindByID retrieves a product by its ID and returns it as a ProductDto.
func (s *Service) FindByID(ctx context.Context, id int64) (*ProductDto, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDto(product), nil
}

// FindAll retrieves all products and returns them as ProductDtos.
func (s *Service) FindAll(ctx context.Context) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return toDtos(products), nil
}

// FindByCategory retrieves the products with the given category. An
// unrecognized category is rejected, never treated as an empty result.
func (s *Service) FindByCategory(ctx context.Context, category string) ([]ProductDto, error) {
	if !catalog.IsAllowedCategory(category) {
		return nil, &apperrors.InvalidCategoryError{Allowed: catalog.Categories()}
	}
	products, err := s.repository.FindByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	return toDtos(products), nil
}

// Search retrieves the products matching the keyword on name or sku.
func (s *Service) Search(ctx context.Context, keyword string) ([]ProductDto, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, apperrors.ErrMissingKeyword
	}
	products, err := s.repository.SearchByKeyword(ctx, keyword)
	if err != nil {
		return nil, err
	}
	return toDtos(products), nil
}

// Create validates the candidate and inserts it into the store. The sku
// uniqueness probe reads live store state, so the whole sequence runs under
// the service mutex.
func (s *Service) Create(ctx context.Context, in catalog.ProductInput) (*ProductDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	skuTaken := func(sku string) bool {
		_, err := s.repository.FindBySku(ctx, sku)
		return err == nil
	}
	if errs := catalog.ValidateProduct(in, false, skuTaken); len(errs) > 0 {
		return nil, &apperrors.ValidationError{Errors: errs}
	}

	// Validation passed; the coercions below cannot fail.
	name, _ := catalog.AsString(in.Name)
	sku, _ := catalog.AsString(in.Sku)
	category, _ := catalog.AsString(in.Category)
	price, _ := catalog.AsNumber(in.Price)
	stock, _ := catalog.AsNumber(in.Stock)

	product, err := s.repository.Insert(ctx, store.Product{
		Name:      strings.TrimSpace(name),
		Sku:       strings.TrimSpace(sku),
		Price:     price,
		Stock:     stock,
		Category:  strings.TrimSpace(category),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	metrics.ProductsCreated.Inc()
	return toDto(product), nil
}

// Sell checks the request rule by rule, first failure wins, then decrements
// the product's stock in place. Stock can never go negative: the quantity is
// checked against available stock under the same mutex hold as the write.
func (s *Service) Sell(ctx context.Context, req SaleRequest) (*SaleResultDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quantity, ok := catalog.AsNumber(req.Quantity)
	if !ok || quantity <= 0 {
		return nil, apperrors.ErrInvalidQuantity
	}
	if req.ProductID == nil {
		return nil, apperrors.ErrMissingProductID
	}
	id, ok := asProductID(req.ProductID)
	if !ok {
		// A non-numeric or fractional productId can never match a stored id.
		return nil, apperrors.ErrProductNotFound
	}
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		return nil, &apperrors.InsufficientStockError{Available: product.Stock}
	}

	updated, err := s.repository.UpdateStock(ctx, id, product.Stock-quantity)
	if err != nil {
		return nil, err
	}
	metrics.ItemsSold.Add(quantity)
	return &SaleResultDto{
		Message: "product sold successfully",
		Product: SoldProduct{
			ID:             updated.ID,
			Name:           updated.Name,
			Sku:            updated.Sku,
			RemainingStock: updated.Stock,
		},
		SoldQuantity: quantity,
	}, nil
}

// BulkPriceUpdate processes the entries as a strictly ordered sequence, one
// at a time, against current store state: an earlier entry's write is visible
// to later entries targeting the same product. Partial success is the
// designed outcome, not an error.
func (s *Service) BulkPriceUpdate(ctx context.Context, updates []PriceUpdate) (*BulkUpdateResultDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(updates) == 0 {
		return nil, apperrors.ErrInvalidUpdatesPayload
	}

	success := make([]BulkUpdateSuccess, 0, len(updates))
	failed := make([]BulkUpdateFailure, 0)

	for i, update := range updates {
		if update.ProductID == nil {
			failed = append(failed, BulkUpdateFailure{
				Index:     i,
				ProductID: update.ProductID,
				Reason:    "missing productId",
			})
			continue
		}
		newPrice, ok := catalog.AsNumber(update.NewPrice)
		if !ok || newPrice <= 0 {
			failed = append(failed, BulkUpdateFailure{
				Index:     i,
				ProductID: update.ProductID,
				Reason:    "newPrice must be a number greater than 0",
			})
			continue
		}
		id, ok := asProductID(update.ProductID)
		if !ok {
			failed = append(failed, BulkUpdateFailure{
				Index:     i,
				ProductID: update.ProductID,
				Reason:    "product not found",
			})
			continue
		}
		product, err := s.repository.FindByID(ctx, id)
		if err != nil {
			failed = append(failed, BulkUpdateFailure{
				Index:     i,
				ProductID: update.ProductID,
				Reason:    "product not found",
			})
			continue
		}

		oldPrice := product.Price
		updated, err := s.repository.UpdatePrice(ctx, id, newPrice)
		if err != nil {
			failed = append(failed, BulkUpdateFailure{
				Index:     i,
				ProductID: update.ProductID,
				Reason:    "product not found",
			})
			continue
		}
		metrics.PricesUpdated.Inc()
		success = append(success, BulkUpdateSuccess{
			ProductID: updated.ID,
			Name:      updated.Name,
			Sku:       updated.Sku,
			OldPrice:  oldPrice,
			NewPrice:  newPrice,
		})
	}

	return &BulkUpdateResultDto{
		Message: "price update completed",
		Summary: BulkUpdateSummary{
			Total:        len(updates),
			SuccessCount: len(success),
			FailedCount:  len(failed),
		},
		Results: BulkUpdateResults{
			Success: success,
			Failed:  failed,
		},
	}, nil
}

// asProductID coerces a loosely typed productId to an integer id. Fractional
// numbers are rejected: no stored id can match them.
func asProductID(v any) (int64, bool) {
	n, ok := catalog.AsNumber(v)
	if !ok {
		return 0, false
	}
	id := int64(n)
	if float64(id) != n {
		return 0, false
	}
	return id, true
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:        product.ID,
		Name:      product.Name,
		Sku:       product.Sku,
		Price:     product.Price,
		Stock:     product.Stock,
		Category:  product.Category,
		CreatedAt: product.CreatedAt.Format(time.RFC3339),
	}
}

// toDtos converts a slice of store.Product to ProductDtos.
func toDtos(products []store.Product) []ProductDto {
	dtos := make([]ProductDto, len(products))
	for i := range products {
		dtos[i] = *toDto(&products[i])
	}
	return dtos
}
