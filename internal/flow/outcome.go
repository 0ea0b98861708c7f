package flow

import (
	"net/url"

	"catalog-webflux/internal/domain"
	"catalog-webflux/internal/pipeline"
	"catalog-webflux/internal/validation"
)

// ListPath is where every redirect outcome points
const ListPath = "/listar"

// Kind is the terminal outcome of a user action
type Kind int

const (
	// Render shows View with Model
	Render Kind = iota
	// RedirectSuccess redirects to the list tagged with a success message
	RedirectSuccess
	// RedirectError redirects to the list tagged with an error message
	RedirectError
)

func (k Kind) String() string {
	switch k {
	case Render:
		return "render"
	case RedirectSuccess:
		return "redirect-success"
	case RedirectError:
		return "redirect-error"
	default:
		return "unknown"
	}
}

// Mode tells the form view whether it creates or edits a product
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Model is the context handed to a view
type Model struct {
	Title      string
	Button     string
	Mode       Mode
	Product    *domain.Product
	Categories []*domain.Category
	Errors     validation.FieldErrors
	Listing    *pipeline.Listing
	Success    string
	Error      string
}

// Outcome is exactly one of: render a view, redirect tagged success,
// redirect tagged error.
type Outcome struct {
	Kind    Kind
	View    string
	Model   *Model
	Message string
}

func render(view string, model *Model) Outcome {
	return Outcome{Kind: Render, View: view, Model: model}
}

func success(message string) Outcome {
	return Outcome{Kind: RedirectSuccess, Message: message}
}

func failure(message string) Outcome {
	return Outcome{Kind: RedirectError, Message: message}
}

// Location returns the redirect target for redirect outcomes
func (o Outcome) Location() string {
	switch o.Kind {
	case RedirectSuccess:
		return ListPath + "?success=" + url.QueryEscape(o.Message)
	case RedirectError:
		return ListPath + "?error=" + url.QueryEscape(o.Message)
	default:
		return ""
	}
}
