package invoice

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/client"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status represents the payment state of an invoice
type Status string

const (
	StatusDraft   Status = "draft"
	StatusSent    Status = "sent"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// AllStatuses lists every valid status
var AllStatuses = []Status{StatusDraft, StatusSent, StatusPaid, StatusOverdue}

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string into a Status
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", shared.NewDomainError("INVALID_STATUS", "Status must be one of draft, sent, paid, overdue")
	}
	return st, nil
}

// amountPlaces matches the decimal(18,4) storage precision
const amountPlaces = 4

// maxAmount is the exclusive bound of a decimal(18,4) column
var maxAmount = decimal.New(1, 18-amountPlaces)

// Item is a line of an invoice. It has no lifecycle outside its invoice.
type Item struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	Position    int
	Description string
	Unit        string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	Total       decimal.Decimal // Quantity * Price
}

// ItemInput is a submitted line item
type ItemInput struct {
	Description string
	Unit        string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
}

// Validate checks a single line item
func (in ItemInput) Validate() error {
	if strings.TrimSpace(in.Description) == "" {
		return shared.NewDomainError("INVALID_ITEM_DESCRIPTION", "Item description cannot be empty")
	}
	if len(in.Description) > 1000 {
		return shared.NewDomainError("INVALID_ITEM_DESCRIPTION", "Item description cannot exceed 1000 characters")
	}
	if strings.TrimSpace(in.Unit) == "" {
		return shared.NewDomainError("INVALID_ITEM_UNIT", "Item unit cannot be empty")
	}
	if len(in.Unit) > 50 {
		return shared.NewDomainError("INVALID_ITEM_UNIT", "Item unit cannot exceed 50 characters")
	}
	if in.Quantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if in.Price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if in.Quantity.Round(amountPlaces).GreaterThanOrEqual(maxAmount) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity is too large")
	}
	if in.Price.Round(amountPlaces).GreaterThanOrEqual(maxAmount) {
		return shared.NewDomainError("INVALID_PRICE", "Price is too large")
	}
	if in.lineTotal().GreaterThanOrEqual(maxAmount) {
		return shared.NewDomainError("INVALID_ITEM_TOTAL", "Item total is too large")
	}
	return nil
}

// lineTotal is the total of the item as it will be stored
func (in ItemInput) lineTotal() decimal.Decimal {
	return LineTotal(in.Quantity.Round(amountPlaces), in.Price.Round(amountPlaces))
}

// Input is the full payload accepted by create and update
type Input struct {
	ClientID    uuid.UUID
	InvoiceDate time.Time
	DueDate     time.Time
	Notes       string
	Items       []ItemInput
}

// Validate checks the header and every item before anything is written
func (in Input) Validate() error {
	if in.ClientID == uuid.Nil {
		return shared.NewDomainError("INVALID_CLIENT", "Client is required")
	}
	if in.InvoiceDate.IsZero() {
		return shared.NewDomainError("INVALID_INVOICE_DATE", "Invoice date is required")
	}
	if in.DueDate.IsZero() {
		return shared.NewDomainError("INVALID_DUE_DATE", "Due date is required")
	}
	if len(in.Items) == 0 {
		return shared.NewDomainError("INVALID_ITEMS", "Invoice must have at least one item")
	}
	total := decimal.Zero
	for i, item := range in.Items {
		if err := item.Validate(); err != nil {
			var de *shared.DomainError
			if errors.As(err, &de) {
				return shared.NewDomainError(de.Code, fmt.Sprintf("Item %d: %s", i+1, de.Message))
			}
			return err
		}
		total = total.Add(item.lineTotal())
	}
	if total.GreaterThanOrEqual(maxAmount) {
		return shared.NewDomainError("INVALID_TOTAL", "Invoice total is too large")
	}
	return nil
}

// Invoice is the aggregate root of the ledger
type Invoice struct {
	shared.OwnedEntity
	ClientID    uuid.UUID
	Series      string
	Number      int64
	InvoiceDate time.Time
	DueDate     time.Time
	Notes       string
	Status      Status
	Total       decimal.Decimal // sum of item totals, never client supplied
	Items       []Item

	// Client is attached on reads
	Client *client.Client
}

// NewInvoice builds a draft invoice for userID. Series and number are
// assigned by the repository when the invoice is persisted.
func NewInvoice(userID uuid.UUID, in Input) (*Invoice, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner cannot be empty")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	inv := &Invoice{
		OwnedEntity: shared.NewOwnedEntity(userID),
		Status:      StatusDraft,
	}
	inv.applyHeader(in)
	inv.replaceItems(in.Items)
	return inv, nil
}

// Update replaces the header fields and the whole item set.
// Series and number are left untouched.
func (i *Invoice) Update(in Input) error {
	if err := in.Validate(); err != nil {
		return err
	}
	i.applyHeader(in)
	i.replaceItems(in.Items)
	i.Touch()
	return nil
}

// AssignNumber sets the human-facing identifier reserved for this invoice
func (i *Invoice) AssignNumber(series string, number int64) {
	i.Series = series
	i.Number = number
}

// SetStatus moves the invoice to any valid status
func (i *Invoice) SetStatus(s Status) error {
	if !s.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Status must be one of draft, sent, paid, overdue")
	}
	i.Status = s
	i.Touch()
	return nil
}

// RecalculateTotal recomputes item totals and the invoice total
func (i *Invoice) RecalculateTotal() {
	total := decimal.Zero
	for k := range i.Items {
		i.Items[k].Total = LineTotal(i.Items[k].Quantity, i.Items[k].Price)
		total = total.Add(i.Items[k].Total)
	}
	i.Total = total
}

// DisplayNumber is the number zero-padded to seven digits
func (i *Invoice) DisplayNumber() string {
	return fmt.Sprintf("%07d", i.Number)
}

// Title is the series and number joined by a space
func (i *Invoice) Title() string {
	return i.Series + " " + i.DisplayNumber()
}

// IsPaid reports whether the invoice has been settled
func (i *Invoice) IsPaid() bool {
	return i.Status == StatusPaid
}

func (i *Invoice) applyHeader(in Input) {
	i.ClientID = in.ClientID
	i.InvoiceDate = DateOnly(in.InvoiceDate)
	i.DueDate = DateOnly(in.DueDate)
	i.Notes = in.Notes
}

func (i *Invoice) replaceItems(inputs []ItemInput) {
	items := make([]Item, 0, len(inputs))
	for pos, in := range inputs {
		items = append(items, Item{
			ID:          uuid.New(),
			InvoiceID:   i.ID,
			Position:    pos,
			Description: strings.TrimSpace(in.Description),
			Unit:        strings.TrimSpace(in.Unit),
			Quantity:    in.Quantity.Round(amountPlaces),
			Price:       in.Price.Round(amountPlaces),
		})
	}
	i.Items = items
	i.RecalculateTotal()
}

// LineTotal is quantity times price at storage precision
func LineTotal(quantity, price decimal.Decimal) decimal.Decimal {
	return quantity.Mul(price).Round(amountPlaces)
}

// DateOnly truncates t to midnight UTC of its calendar date
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
