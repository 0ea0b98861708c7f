package transport

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"catalog-webflux/internal/domain"
	"catalog-webflux/internal/flow"
	"catalog-webflux/internal/middleware"
	"catalog-webflux/internal/pipeline"
	"catalog-webflux/internal/render"
	"catalog-webflux/internal/validation"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Form field names of the product form
const (
	FieldID         = "id"
	FieldName       = "name"
	FieldPrice      = "price"
	FieldCategoryID = "category_id"
	FieldCreatedAt  = "created_at"
)

// CatalogHandler binds the catalog routes to the flow controller and renders
// its outcomes.
type CatalogHandler struct {
	controller *flow.Controller
	renderer   *render.Renderer
	policies   pipeline.Policies
	logger     *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(controller *flow.Controller, renderer *render.Renderer, policies pipeline.Policies, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		controller: controller,
		renderer:   renderer,
		policies:   policies,
		logger:     logger,
	}
}

// RegisterRoutes registers all catalog routes. Routes that change the store
// run through mutating, which may be nil.
func (h *CatalogHandler) RegisterRoutes(r chi.Router, mutating func(http.Handler) http.Handler) {
	r.Get("/", h.List(h.policies.Plain))
	r.Get("/listar", h.List(h.policies.Plain))
	r.Get("/listar-datadriver", h.List(h.policies.Paced))
	r.Get("/listar-full", h.List(h.policies.Full))
	r.Get("/listar-chunked", h.List(h.policies.Chunked))

	r.Get("/form", h.CreateForm)
	r.Get("/form/{id}", h.EditForm)

	r.Group(func(r chi.Router) {
		if mutating != nil {
			r.Use(mutating)
		}
		r.Post("/form", h.Save)
		r.Get("/eliminar/{id}", h.Delete)
	})
}

// List handles the list routes for policy
func (h *CatalogHandler) List(policy pipeline.Policy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		outcome, err := h.controller.List(r.Context(), flow.ListRequest{
			Policy:     policy,
			CategoryID: q.Get("categoria"),
			Success:    q.Get("success"),
			Error:      q.Get("error"),
		})
		if err != nil {
			h.fail(w, r, "Failed to list products", err)
			return
		}

		h.respond(w, r, outcome, "")
	}
}

// CreateForm handles GET /form
func (h *CatalogHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.controller.CreateForm(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to open create form", err)
		return
	}

	h.respond(w, r, outcome, "")
}

// EditForm handles GET /form/{id}
func (h *CatalogHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.controller.EditForm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to open edit form", err)
		return
	}

	h.respond(w, r, outcome, "")
}

// Save handles POST /form
func (h *CatalogHandler) Save(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Debug("Form decode failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "formulario inválido")
		return
	}

	form, rawPrice := decodeProductForm(r)
	if len(form.Errors) > 0 {
		h.logger.Debug("Product form validation failed",
			zap.String("product_id", form.Product.ID),
			zap.Any("errors", form.Errors),
		)
	}

	outcome, err := h.controller.Save(r.Context(), form)
	if err != nil {
		h.fail(w, r, "Failed to save product", err)
		return
	}

	h.respond(w, r, outcome, rawPrice)
}

// Delete handles GET /eliminar/{id}
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.controller.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to delete product", err)
		return
	}

	h.respond(w, r, outcome, "")
}

// decodeProductForm reads and validates the submitted product. The raw
// price text is returned so an unparseable value can be shown again.
func decodeProductForm(r *http.Request) (*flow.FormState, string) {
	rawPrice := strings.TrimSpace(r.PostFormValue(FieldPrice))

	product := &domain.Product{
		ID:   strings.TrimSpace(r.PostFormValue(FieldID)),
		Name: strings.TrimSpace(r.PostFormValue(FieldName)),
	}
	if categoryID := strings.TrimSpace(r.PostFormValue(FieldCategoryID)); categoryID != "" {
		product.Category = &domain.Category{ID: categoryID}
	}
	if createdAt, err := time.Parse(time.RFC3339Nano, r.PostFormValue(FieldCreatedAt)); err == nil {
		product.CreatedAt = createdAt
	}

	var priceErrors validation.FieldErrors
	if rawPrice == "" {
		priceErrors = append(priceErrors, validation.Missing(FieldPrice))
	} else if price, err := strconv.ParseFloat(strings.Replace(rawPrice, ",", ".", 1), 64); err != nil || math.IsInf(price, 0) || math.IsNaN(price) {
		priceErrors = append(priceErrors, validation.NotANumber(FieldPrice))
	} else {
		product.Price = price
	}

	errs := validation.Product(validation.ProductInput{
		Name:       product.Name,
		Price:      product.Price,
		CategoryID: product.CategoryID(),
	})

	return &flow.FormState{
		Product: product,
		Errors:  append(errs, priceErrors...),
	}, rawPrice
}

// respond writes outcome. Redirects after a POST use 303 so the browser
// follows them with a GET.
func (h *CatalogHandler) respond(w http.ResponseWriter, r *http.Request, outcome flow.Outcome, rawPrice string) {
	switch outcome.Kind {
	case flow.RedirectSuccess, flow.RedirectError:
		status := http.StatusFound
		if r.Method == http.MethodPost {
			status = http.StatusSeeOther
		}
		http.Redirect(w, r, outcome.Location(), status)
		return
	}

	if outcome.View == flow.ViewForm {
		h.renderForm(w, r, outcome.Model, rawPrice)
		return
	}

	h.renderList(w, r, outcome.Model)
}

func (h *CatalogHandler) renderForm(w http.ResponseWriter, r *http.Request, model *flow.Model, rawPrice string) {
	priceValue := render.PriceValue(model.Product)
	if rawPrice != "" && model.Errors.Has(FieldPrice) {
		priceValue = rawPrice
	}

	page := &render.FormPage{
		Title:      model.Title,
		Button:     model.Button,
		Product:    model.Product,
		PriceValue: priceValue,
		CategoryID: model.Product.CategoryID(),
		Categories: model.Categories,
		Errors:     model.Errors,
	}

	if err := h.renderer.Page(w, flow.ViewForm, page); err != nil {
		h.fail(w, r, "Failed to render form", err)
	}
}

func (h *CatalogHandler) renderList(w http.ResponseWriter, r *http.Request, model *flow.Model) {
	listing := model.Listing
	page := &render.ListPage{
		Title:      model.Title,
		Path:       r.URL.Path,
		Success:    model.Success,
		Error:      model.Error,
		CategoryID: r.URL.Query().Get("categoria"),
		Categories: model.Categories,
		Chunked:    listing.Policy.View == pipeline.ViewListChunked,
		ChunkSize:  listing.Policy.ChunkSize,
	}

	if !listing.Policy.Streamed() {
		products, err := listing.All()
		if err != nil {
			h.fail(w, r, "Failed to read listing", err)
			return
		}
		page.Products = products

		if err := h.renderer.Page(w, listing.Policy.View, page); err != nil {
			h.fail(w, r, "Failed to render list", err)
		}
		return
	}

	// Headers are gone once the first batch is written; failures past this
	// point can only be logged.
	err := h.renderer.StreamList(w, page, listing.Batches())
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.logger.Debug("Streamed listing stopped by client",
			zap.String("policy", listing.Policy.Name),
			zap.Error(err),
		)
	default:
		h.logger.Error("Streamed listing aborted",
			zap.String("policy", listing.Policy.Name),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

func (h *CatalogHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	middleware.RespondWithError(w, http.StatusInternalServerError, "error interno del servidor")
}
