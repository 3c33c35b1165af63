package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/client"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of invoice and due dates
const DateLayout = "2006-01-02"

// ItemRequest is one submitted line item
type ItemRequest struct {
	Description string          `json:"description" binding:"required,max=1000"`
	Unit        string          `json:"unit" binding:"required,max=50"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// InvoiceRequest is the payload for creating or updating an invoice.
// Totals, series and number are never accepted from the client.
type InvoiceRequest struct {
	ClientID    string        `json:"client_id" binding:"required,uuid"`
	InvoiceDate string        `json:"invoice_date" binding:"required,datetime=2006-01-02"`
	DueDate     string        `json:"due_date" binding:"required,datetime=2006-01-02"`
	Notes       string        `json:"notes"`
	Items       []ItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ToInput converts the request into the domain input
func (r InvoiceRequest) ToInput() (invoice.Input, error) {
	clientID, err := uuid.Parse(r.ClientID)
	if err != nil {
		return invoice.Input{}, shared.NewDomainError("INVALID_CLIENT", "Client id is not a valid UUID")
	}
	invoiceDate, err := time.ParseInLocation(DateLayout, r.InvoiceDate, time.UTC)
	if err != nil {
		return invoice.Input{}, shared.NewDomainError("INVALID_INVOICE_DATE", "Invoice date must be in YYYY-MM-DD format")
	}
	dueDate, err := time.ParseInLocation(DateLayout, r.DueDate, time.UTC)
	if err != nil {
		return invoice.Input{}, shared.NewDomainError("INVALID_DUE_DATE", "Due date must be in YYYY-MM-DD format")
	}

	items := make([]invoice.ItemInput, len(r.Items))
	for i, it := range r.Items {
		items[i] = invoice.ItemInput{
			Description: it.Description,
			Unit:        it.Unit,
			Quantity:    it.Quantity,
			Price:       it.Price,
		}
	}
	return invoice.Input{
		ClientID:    clientID,
		InvoiceDate: invoiceDate,
		DueDate:     dueDate,
		Notes:       r.Notes,
		Items:       items,
	}, nil
}

// StatusRequest changes the status of an invoice
type StatusRequest struct {
	Status string `json:"status" binding:"required,oneof=draft sent paid overdue"`
}

// ListQuery holds the query string of the invoice list
type ListQuery struct {
	Month    string `form:"month"`
	ClientID string `form:"client_id" binding:"omitempty,uuid"`
	Status   string `form:"status" binding:"omitempty,oneof=draft sent paid overdue"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=invoice_date total number client_name"`
	SortDir  string `form:"sort_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PerPage  int    `form:"per_page" binding:"omitempty,min=1"`
}

// ToFilter converts the query into a normalized list filter
func (q ListQuery) ToFilter() (invoice.ListFilter, error) {
	f := invoice.NewListFilter()
	if q.SortBy != "" {
		f.OrderBy = q.SortBy
	}
	if q.SortDir != "" {
		f.OrderDir = q.SortDir
	}
	if q.Page > 0 {
		f.Page = q.Page
	}
	if q.PerPage > 0 {
		f.PageSize = q.PerPage
	}
	f.Normalize()

	if q.Month != "" {
		m, err := invoice.ParseMonth(q.Month)
		if err != nil {
			return f, err
		}
		f.Month = &m
	}
	if q.ClientID != "" {
		id, err := uuid.Parse(q.ClientID)
		if err != nil {
			return f, shared.NewDomainError("INVALID_CLIENT", "Client id is not a valid UUID")
		}
		f.ClientID = &id
	}
	if q.Status != "" {
		st, err := invoice.ParseStatus(q.Status)
		if err != nil {
			return f, err
		}
		f.Status = &st
	}
	return f, nil
}

// ClientSummary is the client attached to an invoice response
type ClientSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	CompanyCode string    `json:"company_code"`
	VATCode     string    `json:"vat_code"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
}

// ItemResponse represents a line item in API responses
type ItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Position    int             `json:"position"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Total       decimal.Decimal `json:"total"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID            uuid.UUID       `json:"id"`
	ClientID      uuid.UUID       `json:"client_id"`
	Series        string          `json:"series"`
	Number        int64           `json:"number"`
	DisplayNumber string          `json:"display_number"`
	InvoiceDate   string          `json:"invoice_date"`
	DueDate       string          `json:"due_date"`
	Notes         string          `json:"notes"`
	Status        string          `json:"status"`
	Total         decimal.Decimal `json:"total"`
	Client        *ClientSummary  `json:"client,omitempty"`
	Items         []ItemResponse  `json:"items,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ToInvoiceResponse converts a domain Invoice to InvoiceResponse
func ToInvoiceResponse(inv *invoice.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:            inv.ID,
		ClientID:      inv.ClientID,
		Series:        inv.Series,
		Number:        inv.Number,
		DisplayNumber: inv.DisplayNumber(),
		InvoiceDate:   inv.InvoiceDate.Format(DateLayout),
		DueDate:       inv.DueDate.Format(DateLayout),
		Notes:         inv.Notes,
		Status:        inv.Status.String(),
		Total:         inv.Total,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
	if inv.Client != nil {
		resp.Client = toClientSummary(inv.Client)
	}
	if len(inv.Items) > 0 {
		resp.Items = make([]ItemResponse, len(inv.Items))
		for i, it := range inv.Items {
			resp.Items[i] = ItemResponse{
				ID:          it.ID,
				Position:    it.Position,
				Description: it.Description,
				Unit:        it.Unit,
				Quantity:    it.Quantity,
				Price:       it.Price,
				Total:       it.Total,
			}
		}
	}
	return resp
}

func toClientSummary(c *client.Client) *ClientSummary {
	return &ClientSummary{
		ID:          c.ID,
		Name:        c.Name,
		CompanyCode: c.CompanyCode,
		VATCode:     c.VATCode,
		Address:     c.Address,
		Phone:       c.Phone,
		Email:       c.Email,
	}
}

// ToInvoiceResponses converts a slice of invoices
func ToInvoiceResponses(invoices []invoice.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = ToInvoiceResponse(&invoices[i])
	}
	return out
}
