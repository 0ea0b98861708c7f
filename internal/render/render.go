// Package render provides HTML template rendering for the catalog views.
// Pages are rendered in one piece; the list view can also be streamed
// batch by batch, flushing each batch to the client as it arrives.
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"time"

	"catalog-webflux/internal/domain"
	"catalog-webflux/internal/stream"
	"catalog-webflux/internal/validation"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	tmplListHead = "list_head"
	tmplListRows = "list_rows"
	tmplListFoot = "list_foot"
)

// ListPage holds the data of the list view
type ListPage struct {
	Title      string
	Path       string
	Success    string
	Error      string
	CategoryID string
	Categories []*domain.Category
	Products   []*domain.Product
	Chunked    bool
	ChunkSize  int
}

// FormPage holds the data of the create/edit form
type FormPage struct {
	Title      string
	Button     string
	Product    *domain.Product
	PriceValue string
	CategoryID string
	Categories []*domain.Category
	Errors     validation.FieldErrors
}

// Renderer executes the embedded view templates
type Renderer struct {
	templates *template.Template
}

// New parses all embedded templates into one set
func New() (*Renderer, error) {
	tmpl, err := template.New("catalog").Funcs(template.FuncMap{
		"price": func(v float64) string {
			return strconv.FormatFloat(v, 'f', 2, 64)
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02/01/2006")
		},
		// timestamp round-trips through the hidden created_at field
		"timestamp": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(time.RFC3339Nano)
		},
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Renderer{templates: tmpl}, nil
}

// PriceValue formats a product price for the form input. An untouched new
// product shows an empty field.
func PriceValue(p *domain.Product) string {
	if p == nil || (p.IsNew() && p.Price == 0) {
		return ""
	}
	return strconv.FormatFloat(p.Price, 'f', -1, 64)
}

// Page renders the named view in full. Nothing is written to w when the
// template fails.
func (rn *Renderer) Page(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := rn.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("execute template %s: %w", name, err)
	}
	if rw, ok := w.(http.ResponseWriter); ok {
		rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// StreamList writes the list view incrementally: the head, then one block
// of rows per batch flushed as soon as it is written, then the foot. It
// stops pulling batches on the first write error, so a disconnected client
// stops the producer too. An error from the sequence aborts the page
// without the foot.
func (rn *Renderer) StreamList(w http.ResponseWriter, page *ListPage, batches stream.Seq[[]*domain.Product]) error {
	rc := http.NewResponseController(w)

	// A paced listing outlives any server write timeout
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return fmt.Errorf("clear write deadline: %w", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	if err := rn.templates.ExecuteTemplate(w, tmplListHead, page); err != nil {
		return fmt.Errorf("write list head: %w", err)
	}
	if err := flush(rc); err != nil {
		return err
	}

	for batch, err := range batches {
		if err != nil {
			return err
		}
		if err := rn.templates.ExecuteTemplate(w, tmplListRows, batch); err != nil {
			return fmt.Errorf("write list rows: %w", err)
		}
		if err := flush(rc); err != nil {
			return err
		}
	}

	if err := rn.templates.ExecuteTemplate(w, tmplListFoot, page); err != nil {
		return fmt.Errorf("write list foot: %w", err)
	}
	return flush(rc)
}

func flush(rc *http.ResponseController) error {
	if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}
