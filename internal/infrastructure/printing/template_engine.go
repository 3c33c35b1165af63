package printing

import (
	"bytes"
	"context"
	"html/template"
	"maps"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// quantityPlaces matches the storage precision of item quantities
const quantityPlaces = 4

// TemplateEngine renders invoice HTML with html/template. Numbers, dates and
// captions follow the configured locale.
type TemplateEngine struct {
	tag      language.Tag
	currency string
	printer  *message.Printer
	labels   Labels
	funcMap  template.FuncMap
	invoice  *template.Template
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithLocale sets the BCP 47 language tag used for formatting; invalid tags are ignored
func WithLocale(locale string) TemplateEngineOption {
	return func(e *TemplateEngine) {
		if tag, err := language.Parse(locale); err == nil {
			e.tag = tag
		}
	}
}

// WithCurrency sets the currency code printed next to amounts
func WithCurrency(code string) TemplateEngineOption {
	return func(e *TemplateEngine) {
		if code != "" {
			e.currency = strings.ToUpper(code)
		}
	}
}

// NewTemplateEngine creates a template engine and parses the embedded invoice template
func NewTemplateEngine(opts ...TemplateEngineOption) (*TemplateEngine, error) {
	e := &TemplateEngine{
		tag:      language.Lithuanian,
		currency: "EUR",
	}
	for _, opt := range opts {
		opt(e)
	}

	base, _ := e.tag.Base()
	e.printer = message.NewPrinter(e.tag)
	e.labels = labelsFor(base.String())
	upper := cases.Upper(e.tag)

	e.funcMap = template.FuncMap{
		"formatMoney":    e.formatMoney,
		"formatQuantity": e.formatQuantity,
		"longDate":       e.labels.formatLongDate,
		"formatDate":     formatDate,
		"currency":       func() string { return e.currency },
		"upper":          upper.String,
		"padLeft":        padLeft,
		"safeURL":        safeURL,
	}

	content, err := LoadTemplateContent(invoiceTemplatePath)
	if err != nil {
		return nil, err
	}
	e.invoice, err = template.New("invoice").Funcs(e.funcMap).Parse(content)
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "failed to parse invoice template", err)
	}
	return e, nil
}

type invoiceTemplateData struct {
	View   *InvoiceView
	Labels Labels
}

// RenderInvoice renders the invoice document for view
func (e *TemplateEngine) RenderInvoice(ctx context.Context, view *InvoiceView) (string, error) {
	if err := view.Validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := e.invoice.Execute(&buf, invoiceTemplateData{View: view, Labels: e.labels}); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute invoice template", err)
	}
	return buf.String(), nil
}

// RenderString renders a template string with the engine's functions
func (e *TemplateEngine) RenderString(ctx context.Context, name, content string, data any) (string, error) {
	if content == "" {
		return "", NewRenderError(ErrCodeInvalidHTML, "template content is empty", nil)
	}

	tmpl, err := template.New(name).Funcs(e.funcMap).Parse(content)
	if err != nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "failed to parse template", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template", err)
	}
	return buf.String(), nil
}

// GetFuncMap returns a copy of the template function map
func (e *TemplateEngine) GetFuncMap() template.FuncMap {
	funcMap := make(template.FuncMap, len(e.funcMap))
	maps.Copy(funcMap, e.funcMap)
	return funcMap
}

// Currency returns the configured currency code
func (e *TemplateEngine) Currency() string {
	return e.currency
}

// formatMoney prints an amount with two decimals and locale grouping
// Example (en): 1234.5 -> "1,234.50"
func (e *TemplateEngine) formatMoney(d decimal.Decimal) string {
	return e.printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// formatQuantity prints a quantity without trailing zeros
// Example (en): 2.5000 -> "2.5"
func (e *TemplateEngine) formatQuantity(d decimal.Decimal) string {
	return e.printer.Sprint(number.Decimal(d.Round(quantityPlaces).InexactFloat64(),
		number.MaxFractionDigits(quantityPlaces)))
}

// formatDate formats a date as YYYY-MM-DD
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// padLeft pads s on the left with pad until it is length runes long
func padLeft(s string, length int, pad string) string {
	n := len([]rune(s))
	if n >= length || pad == "" {
		return s
	}
	return strings.Repeat(pad, length-n) + s
}

// safeURL marks a URL built by the server as trusted; only data:image/ URLs pass
func safeURL(s string) template.URL {
	if !strings.HasPrefix(s, "data:image/") {
		return template.URL("")
	}
	return template.URL(s)
}
