package printing

import (
	"context"
	"time"
)

// Margins are page margins in millimeters
type Margins struct {
	Top, Right, Bottom, Left float64
}

// InvoiceMargins leaves a 10mm border on every side
var InvoiceMargins = Margins{Top: 10, Right: 10, Bottom: 10, Left: 10}

// Paper is a sheet size in millimeters
type Paper struct {
	Width, Height float64
}

// A4 is the only sheet invoices are printed on
var A4 = Paper{Width: 210, Height: 297}

// RenderRequest is one HTML document to print
type RenderRequest struct {
	HTML  string
	Title string
	// Margins defaults to InvoiceMargins
	Margins *Margins
	// Timeout overrides the renderer's default
	Timeout time.Duration
}

// RenderResult is the printed document
type RenderResult struct {
	PDFData   []byte
	PageCount int
	Duration  time.Duration
}

// PDFRenderer prints HTML to PDF
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// Render error codes
const (
	ErrCodeRenderTimeout = "RENDER_TIMEOUT"
	ErrCodeRenderFailed  = "RENDER_FAILED"
	ErrCodeInvalidHTML   = "INVALID_HTML"
	ErrCodeInvalidView   = "INVALID_VIEW"
)

// RenderError is returned by the template engine and the renderers
type RenderError struct {
	Code    string
	Message string
	Err     error
}

// NewRenderError wraps cause, which may be nil, under code
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Err: cause}
}

func (e *RenderError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *RenderError) Unwrap() error { return e.Err }
