// Package rest provides HTTP handlers for catalog operations.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmdshifts/backend-products/internal/catalog"
	apperrors "github.com/cmdshifts/backend-products/internal/errors"
	"github.com/cmdshifts/backend-products/internal/service"
	"github.com/cmdshifts/backend-products/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  service.CatalogService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new instance of the catalog API with the provided service.
func NewHandler(service service.CatalogService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the catalog service.
// The literal routes are registered before the {id} wildcard so that
// /search, /sell and /bulk-price-update are never shadowed by it.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/search", h.Search)
		r.Post("/sell", h.Sell)
		r.Put("/bulk-price-update", h.BulkPriceUpdate)
		r.Get("/{id}", h.FindByID)
	})

	r.Get("/healthz", h.HealthCheck)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var input catalog.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to create product")

	created, err := h.service.Create(r.Context(), input)
	if err != nil {
		var validationErr *apperrors.ValidationError
		if errors.As(err, &validationErr) {
			mLogger.WarnContext(r.Context(), "Product validation failed", "errors", validationErr.Errors)
			web.RespondErrors(w, mLogger, http.StatusBadRequest, validationErr.Errors)
			return
		}
		mLogger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Sku", created.Sku)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// List retrieves all products, optionally filtered by category. An
// unrecognized category value is rejected, never silently ignored.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	category := r.URL.Query().Get("category")

	var (
		list []service.ProductDto
		err  error
	)
	if category != "" {
		mLogger.DebugContext(r.Context(), "Received request to list products by category", "category", category)
		list, err = h.service.FindByCategory(r.Context(), category)
	} else {
		mLogger.DebugContext(r.Context(), "Received request to list all products")
		list, err = h.service.FindAll(r.Context())
	}
	if err != nil {
		var categoryErr *apperrors.InvalidCategoryError
		if errors.As(err, &categoryErr) {
			mLogger.WarnContext(r.Context(), "Invalid category filter", "category", category)
			web.RespondError(w, mLogger, http.StatusBadRequest, categoryErr.Error())
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// Search retrieves products matching a keyword against name or sku.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	keyword := r.URL.Query().Get("keyword")

	mLogger.DebugContext(r.Context(), "Received request to search products", "keyword", keyword)
	list, err := h.service.Search(r.Context(), keyword)
	if err != nil {
		if errors.Is(err, apperrors.ErrMissingKeyword) {
			mLogger.WarnContext(r.Context(), "Missing search keyword")
			web.RespondError(w, mLogger, http.StatusBadRequest, apperrors.ErrMissingKeyword.Error())
			return
		}
		mLogger.ErrorContext(r.Context(), "Error searching products", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to search products")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully searched products", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// Sell decrements a product's stock by the requested quantity.
func (h *Handler) Sell(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req service.SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to sell product")

	result, err := h.service.Sell(r.Context(), req)
	if err != nil {
		var stockErr *apperrors.InsufficientStockError
		switch {
		case errors.Is(err, apperrors.ErrInvalidQuantity),
			errors.Is(err, apperrors.ErrMissingProductID):
			mLogger.WarnContext(r.Context(), "Invalid sale request", "error", err)
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
		case errors.As(err, &stockErr):
			mLogger.WarnContext(r.Context(), "Insufficient stock", "available", stockErr.Available)
			web.RespondError(w, mLogger, http.StatusBadRequest, stockErr.Error())
		case errors.Is(err, apperrors.ErrProductNotFound):
			mLogger.WarnContext(r.Context(), "Product not found for sale")
			web.RespondError(w, mLogger, http.StatusNotFound, apperrors.ErrProductNotFound.Error())
		default:
			mLogger.ErrorContext(r.Context(), "Error selling product", "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to sell product")
		}
		return
	}
	mLogger.InfoContext(r.Context(), "Product sold successfully",
		"ID", result.Product.ID, "quantity", result.SoldQuantity, "remaining", result.Product.RemainingStock)
	web.RespondJSON(w, mLogger, http.StatusOK, result)
}

// BulkPriceUpdateRequest is the bulk update envelope. The entries themselves
// are checked one by one in the service; only the envelope shape is enforced
// here. Entries stay raw so that a non-object element rejects that entry
// alone, never the whole batch.
type BulkPriceUpdateRequest struct {
	Updates []json.RawMessage `json:"updates" validate:"required,min=1"`
}

// BulkPriceUpdate applies a batch of price overwrites. Once the envelope is
// structurally valid the response is always 200, with per-entry outcomes.
func (h *Handler) BulkPriceUpdate(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req BulkPriceUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "updates" {
			mLogger.WarnContext(r.Context(), "updates is not an array")
			web.RespondError(w, mLogger, http.StatusBadRequest, apperrors.ErrInvalidUpdatesPayload.Error())
			return
		}
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		mLogger.WarnContext(r.Context(), "Invalid updates payload", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, apperrors.ErrInvalidUpdatesPayload.Error())
		return
	}
	mLogger.DebugContext(r.Context(), "Received bulk price update", "entries", len(req.Updates))

	entries := make([]service.PriceUpdate, len(req.Updates))
	for i, raw := range req.Updates {
		// A non-object element decodes to a zero entry, which the service
		// records as a per-entry "missing productId" failure.
		var entry service.PriceUpdate
		if err := json.Unmarshal(raw, &entry); err != nil {
			entry = service.PriceUpdate{}
		}
		entries[i] = entry
	}

	result, err := h.service.BulkPriceUpdate(r.Context(), entries)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidUpdatesPayload) {
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
			return
		}
		mLogger.ErrorContext(r.Context(), "Error applying bulk price update", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to update prices")
		return
	}
	mLogger.InfoContext(r.Context(), "Bulk price update completed",
		"total", result.Summary.Total, "succeeded", result.Summary.SuccessCount, "failed", result.Summary.FailedCount)
	web.RespondJSON(w, mLogger, http.StatusOK, result)
}

// FindByID retrieves a product by its ID. Non-numeric identifiers can never
// match a stored id, so they fall through to 404 rather than 400.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	pathValueID := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(pathValueID, 10, 64)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Non-numeric product ID", "ID", pathValueID)
		web.RespondError(w, mLogger, http.StatusNotFound, apperrors.ErrProductNotFound.Error())
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to find product by ID", "ID", id)
	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrProductNotFound) {
			mLogger.WarnContext(r.Context(), "Product not found", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, apperrors.ErrProductNotFound.Error())
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product", "ID", found.ID, "Name", found.Name)
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
