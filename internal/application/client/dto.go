package client

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/client"
	"github.com/shopspring/decimal"
)

// ClientRequest is the allow-listed payload for creating or updating a client
type ClientRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	CompanyCode string `json:"company_code" binding:"max=255"`
	VATCode     string `json:"vat_code" binding:"max=255"`
	Address     string `json:"address" binding:"max=255"`
	Phone       string `json:"phone" binding:"max=255"`
	Email       string `json:"email" binding:"omitempty,email,max=255"`
	Notes       string `json:"notes"`
}

func (r ClientRequest) details() client.Details {
	return client.Details{
		Name:        r.Name,
		CompanyCode: r.CompanyCode,
		VATCode:     r.VATCode,
		Address:     r.Address,
		Phone:       r.Phone,
		Email:       r.Email,
		Notes:       r.Notes,
	}
}

// ClientResponse represents a client in API responses
type ClientResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	CompanyCode string    `json:"company_code"`
	VATCode     string    `json:"vat_code"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToClientResponse converts a domain Client to ClientResponse
func ToClientResponse(c *client.Client) ClientResponse {
	return ClientResponse{
		ID:          c.ID,
		Name:        c.Name,
		CompanyCode: c.CompanyCode,
		VATCode:     c.VATCode,
		Address:     c.Address,
		Phone:       c.Phone,
		Email:       c.Email,
		Notes:       c.Notes,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// ClientStatsResponse is the invoice rollup of one client
type ClientStatsResponse struct {
	ClientID     uuid.UUID       `json:"client_id"`
	Name         string          `json:"name"`
	InvoiceCount int64           `json:"invoice_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	UnpaidAmount decimal.Decimal `json:"unpaid_amount"`
}
