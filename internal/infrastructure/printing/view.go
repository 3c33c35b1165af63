package printing

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceView is the fully resolved data printed on an invoice document.
// Nothing in it is looked up while the template runs.
type InvoiceView struct {
	Series      string
	Number      int64
	InvoiceDate time.Time
	DueDate     time.Time
	Seller      SellerInfo
	Buyer       BuyerInfo
	Items       []LineView
	Total       decimal.Decimal
	Notes       string
}

// SellerInfo is the issuing party
type SellerInfo struct {
	Name        string
	CompanyCode string
	VATCode     string
	Address     string
	Phone       string
	Email       string
	Website     string
	BankName    string
	BankAccount string
	// SignatureURL is a data:image/png;base64 URL, empty when no signature is stored
	SignatureURL string
}

// BuyerInfo is the invoiced client. Private client notes are not part of it.
type BuyerInfo struct {
	Name        string
	CompanyCode string
	VATCode     string
	Address     string
	Phone       string
	Email       string
}

// LineView is one printed item row
type LineView struct {
	Index       int // 1-based
	Description string
	Unit        string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	Total       decimal.Decimal
}

// DisplayNumber is the number zero-padded to seven digits
func (v *InvoiceView) DisplayNumber() string {
	return fmt.Sprintf("%07d", v.Number)
}

// Title is used for the HTML title and PDF metadata
func (v *InvoiceView) Title() string {
	return v.Series + " " + v.DisplayNumber()
}

// FileName is the attachment name offered to the browser
func (v *InvoiceView) FileName() string {
	return fmt.Sprintf("invoice-%s-%d.pdf", v.Series, v.Number)
}

// Validate checks the fields the template cannot do without
func (v *InvoiceView) Validate() error {
	if v == nil {
		return NewRenderError(ErrCodeInvalidView, "invoice view is nil", nil)
	}
	if v.Series == "" || v.Number < 1 {
		return NewRenderError(ErrCodeInvalidView, "invoice view has no number", nil)
	}
	if v.Seller.Name == "" || v.Buyer.Name == "" {
		return NewRenderError(ErrCodeInvalidView, "invoice view is missing a party", nil)
	}
	return nil
}

// DataURL embeds binary image data as a base64 data URL
func DataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
