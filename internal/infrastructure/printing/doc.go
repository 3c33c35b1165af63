// Package printing turns an invoice view model into a PDF document.
//
// TemplateEngine renders the embedded HTML invoice template with
// locale-aware number and date formatting. ChromedpRenderer prints the
// resulting HTML with headless Chrome.
//
//	engine, _ := NewTemplateEngine(WithLocale("lt"), WithCurrency("EUR"))
//	html, err := engine.RenderInvoice(ctx, view)
//	result, err := renderer.Render(ctx, &RenderRequest{HTML: html, Title: view.Title()})
package printing
