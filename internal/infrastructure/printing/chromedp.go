package printing

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	defaultRenderTimeout = 30 * time.Second
	mmPerInch            = 25.4
)

// headlessFlags keep a container Chrome quiet and deterministic
var headlessFlags = map[string]any{
	"headless":                      true,
	"disable-gpu":                   true,
	"no-first-run":                  true,
	"disable-default-apps":          true,
	"disable-extensions":            true,
	"disable-dev-shm-usage":         true,
	"disable-background-networking": true,
	"disable-sync":                  true,
	"disable-translate":             true,
	"font-render-hinting":           "none",
}

// ChromeConfig selects the browser the renderer drives
type ChromeConfig struct {
	// RemoteURL is the DevTools URL of a running Chrome. Empty launches one.
	RemoteURL string
	// ExecPath overrides the binary for local launches
	ExecPath string
	// NoSandbox is needed when Chrome runs as root in a container
	NoSandbox bool
	Timeout   time.Duration
	Logger    *zap.Logger
}

// ChromeConfigFromDocument maps the document settings onto a renderer config
func ChromeConfigFromDocument(cfg config.DocumentConfig, logger *zap.Logger) ChromeConfig {
	return ChromeConfig{
		RemoteURL: cfg.ChromeRemoteURL,
		ExecPath:  cfg.ChromePath,
		NoSandbox: true,
		Timeout:   cfg.RenderTimeout,
		Logger:    logger,
	}
}

// ChromedpRenderer prints HTML through the Chrome DevTools Protocol. Each
// Render opens a tab on a shared allocator; the browser itself starts with
// the first tab.
type ChromedpRenderer struct {
	timeout time.Duration
	logger  *zap.Logger
	alloc   context.Context
	cancel  context.CancelFunc
}

var _ PDFRenderer = (*ChromedpRenderer)(nil)

// NewChromedpRenderer prepares the allocator for cfg
func NewChromedpRenderer(cfg ChromeConfig) *ChromedpRenderer {
	r := &ChromedpRenderer{timeout: cfg.Timeout, logger: cfg.Logger}
	if r.timeout <= 0 {
		r.timeout = defaultRenderTimeout
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	r.logger = r.logger.Named("chrome")

	if cfg.RemoteURL != "" {
		r.alloc, r.cancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return r
	}
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for name, value := range headlessFlags {
		opts = append(opts, chromedp.Flag(name, value))
	}
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	r.alloc, r.cancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r
}

func (r *ChromedpRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if req == nil || strings.TrimSpace(req.HTML) == "" {
		return nil, NewRenderError(ErrCodeInvalidHTML, "nothing to render", nil)
	}

	timeout := cmp.Or(req.Timeout, r.timeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tab, closeTab := chromedp.NewContext(r.alloc, chromedp.WithLogf(r.logger.Sugar().Debugf))
	defer closeTab()
	// the tab does not inherit ctx, so close it when the request ends
	defer context.AfterFunc(ctx, closeTab)()

	started := time.Now()
	var pdf []byte
	err := chromedp.Run(tab,
		chromedp.Navigate("about:blank"),
		loadDocument(wrapDocument(req.HTML, req.Title)),
		printA4(req.Margins, &pdf),
	)
	switch {
	case err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, NewRenderError(ErrCodeRenderTimeout, fmt.Sprintf("rendering exceeded %v", timeout), err)
	case err != nil && errors.Is(ctx.Err(), context.Canceled):
		return nil, NewRenderError(ErrCodeRenderTimeout, "rendering cancelled", err)
	case err != nil:
		r.logger.Error("Chrome print failed", zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chrome print failed", err)
	case len(pdf) == 0:
		return nil, NewRenderError(ErrCodeRenderFailed, "chrome returned an empty document", nil)
	}

	result := &RenderResult{PDFData: pdf, PageCount: countPages(pdf), Duration: time.Since(started)}
	r.logger.Debug("PDF printed",
		zap.Int("bytes", len(pdf)),
		zap.Int("pages", result.PageCount),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// Close stops the browser, or detaches from a remote one
func (r *ChromedpRenderer) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	return nil
}

func loadDocument(doc string) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		return page.SetDocumentContent(tree.Frame.ID, doc).Do(ctx)
	}
}

func printA4(margins *Margins, out *[]byte) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		data, _, err := printParams(A4, margins).Do(ctx)
		*out = data
		return err
	}
}

// printParams converts millimeters to the inches Chrome expects
func printParams(paper Paper, margins *Margins) *page.PrintToPDFParams {
	m := InvoiceMargins
	if margins != nil {
		m = *margins
	}
	return page.PrintToPDF().
		WithPaperWidth(paper.Width / mmPerInch).
		WithPaperHeight(paper.Height / mmPerInch).
		WithMarginTop(m.Top / mmPerInch).
		WithMarginRight(m.Right / mmPerInch).
		WithMarginBottom(m.Bottom / mmPerInch).
		WithMarginLeft(m.Left / mmPerInch).
		WithPrintBackground(true).
		WithPreferCSSPageSize(false)
}

// wrapDocument turns a fragment into a UTF-8 document; full documents pass through
func wrapDocument(body, title string) string {
	head := strings.ToLower(body[:min(len(body), 512)])
	if strings.Contains(head, "<!doctype") || strings.Contains(head, "<html") {
		return body
	}

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8">`)
	if title != "" {
		fmt.Fprintf(&b, "<title>%s</title>", html.EscapeString(title))
	}
	b.WriteString("</head><body>")
	b.WriteString(body)
	b.WriteString("</body></html>")
	return b.String()
}

// countPages counts page objects, which never fall below one
func countPages(pdf []byte) int {
	pages := bytes.Count(pdf, []byte("/Type /Page")) - bytes.Count(pdf, []byte("/Type /Pages"))
	return max(pages, 1)
}
