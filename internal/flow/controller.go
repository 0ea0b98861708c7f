// Package flow turns one user action into one terminal outcome. Lookups
// that find nothing become redirect-error outcomes and validation problems
// re-render the form; only store faults come back as errors.
package flow

import (
	"context"
	"fmt"

	"catalog-webflux/internal/domain"
	"catalog-webflux/internal/pipeline"
	"catalog-webflux/internal/service"
	"catalog-webflux/internal/stream"
	"catalog-webflux/internal/validation"

	"go.uber.org/zap"
)

const (
	ViewForm = "form"

	TitleList       = "Listado de productos"
	TitleCreate     = "Formulario de producto"
	TitleEdit       = "Editar Producto"
	TitleFormErrors = "Errores en formulario producto"

	ButtonCreate = "Guardar"
	ButtonEdit   = "Editar"

	MsgSaved           = "producto guardado con exito"
	MsgDeleted         = "producto eliminado con exito"
	MsgProductNotFound = "no existe el producto"
	MsgCategoryMissing = "no existe la categoria"
)

// ListRequest selects a listing variant and carries the status flags read
// from the list URL.
type ListRequest struct {
	Policy     pipeline.Policy
	CategoryID string
	Success    string
	Error      string
}

// FormState is the request-scoped state of one create or edit operation.
// The form round-trips the product id and creation time, which ties the
// POST back to the GET that rendered it.
type FormState struct {
	Product *domain.Product
	Errors  validation.FieldErrors
}

// Mode is edit when the submitted product already has an id
func (f *FormState) Mode() Mode {
	if f.Product != nil && !f.Product.IsNew() {
		return ModeEdit
	}
	return ModeCreate
}

// Controller orchestrates the list, form, save and delete actions
type Controller struct {
	catalog  service.CatalogService
	pipeline *pipeline.Pipeline
	logger   *zap.Logger
}

// NewController creates a new Controller
func NewController(catalog service.CatalogService, pipe *pipeline.Pipeline, logger *zap.Logger) *Controller {
	return &Controller{
		catalog:  catalog,
		pipeline: pipe,
		logger:   logger,
	}
}

// List renders the policy's list view. The listing itself stays lazy; only
// the categories are read up front.
func (c *Controller) List(ctx context.Context, req ListRequest) (Outcome, error) {
	categories, err := c.categories(ctx)
	if err != nil {
		return Outcome{}, err
	}

	listing := c.pipeline.Listing(ctx, req.Policy, req.CategoryID)

	return render(req.Policy.View, &Model{
		Title:      TitleList,
		Categories: categories,
		Listing:    listing,
		Success:    req.Success,
		Error:      req.Error,
	}), nil
}

// CreateForm renders an empty form in create mode
func (c *Controller) CreateForm(ctx context.Context) (Outcome, error) {
	categories, err := c.categories(ctx)
	if err != nil {
		return Outcome{}, err
	}

	return render(ViewForm, &Model{
		Title:      TitleCreate,
		Button:     ButtonCreate,
		Mode:       ModeCreate,
		Product:    &domain.Product{},
		Categories: categories,
	}), nil
}

// EditForm renders the form pre-populated with the product, or redirects
// with an error when there is no product with that id.
func (c *Controller) EditForm(ctx context.Context, id string) (Outcome, error) {
	product, found, err := c.catalog.FindProduct(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if !found {
		c.logger.Info("Product to edit not found", zap.String("product_id", id))
		return failure(MsgProductNotFound), nil
	}

	categories, err := c.categories(ctx)
	if err != nil {
		return Outcome{}, err
	}

	c.logger.Debug("Editing product", zap.String("product_id", product.ID), zap.String("name", product.Name))

	return render(ViewForm, &Model{
		Title:      TitleEdit,
		Button:     ButtonEdit,
		Mode:       ModeEdit,
		Product:    product,
		Categories: categories,
	}), nil
}

// Save persists a validated submission. A submission with field errors is
// shown again in the mode it was opened in.
func (c *Controller) Save(ctx context.Context, form *FormState) (Outcome, error) {
	mode := form.Mode()

	if len(form.Errors) > 0 {
		categories, err := c.categories(ctx)
		if err != nil {
			return Outcome{}, err
		}

		button := ButtonCreate
		if mode == ModeEdit {
			button = ButtonEdit
		}

		return render(ViewForm, &Model{
			Title:      TitleFormErrors,
			Button:     button,
			Mode:       mode,
			Product:    form.Product,
			Categories: categories,
			Errors:     form.Errors,
		}), nil
	}

	category, found, err := c.catalog.FindCategory(ctx, form.Product.CategoryID())
	if err != nil {
		return Outcome{}, err
	}
	if !found {
		c.logger.Warn("Submitted category not found",
			zap.String("category_id", form.Product.CategoryID()),
			zap.String("product_id", form.Product.ID),
		)
		return failure(MsgCategoryMissing), nil
	}

	product := form.Product.Clone()
	product.Category = category

	saved, err := c.catalog.Save(ctx, product)
	if err != nil {
		return Outcome{}, err
	}

	c.logger.Info("Product saved",
		zap.String("product_id", saved.ID),
		zap.String("name", saved.Name),
		zap.String("category", saved.Category.Name),
		zap.String("mode", string(mode)),
	)

	return success(MsgSaved), nil
}

// Delete removes the product with id, or redirects with an error when
// there is none.
func (c *Controller) Delete(ctx context.Context, id string) (Outcome, error) {
	product, found, err := c.catalog.FindProduct(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if !found {
		c.logger.Info("Product to delete not found", zap.String("product_id", id))
		return failure(MsgProductNotFound), nil
	}

	if err := c.catalog.Delete(ctx, product); err != nil {
		return Outcome{}, err
	}

	c.logger.Info("Product deleted", zap.String("product_id", product.ID), zap.String("name", product.Name))
	return success(MsgDeleted), nil
}

func (c *Controller) categories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := stream.Collect(c.catalog.ListCategories(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}
