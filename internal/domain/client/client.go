package client

import (
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
)

// Client is a customer record owned by one seller.
// Notes are private to the seller and never appear on issued documents.
type Client struct {
	shared.OwnedEntity
	Name        string
	CompanyCode string
	VATCode     string
	Address     string
	Phone       string
	Email       string
	Notes       string
}

// Details is the allow-listed set of fields accepted on create and update
type Details struct {
	Name        string
	CompanyCode string
	VATCode     string
	Address     string
	Phone       string
	Email       string
	Notes       string
}

// NewClient creates a client owned by userID
func NewClient(userID uuid.UUID, d Details) (*Client, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner cannot be empty")
	}
	c := &Client{OwnedEntity: shared.NewOwnedEntity(userID)}
	if err := c.apply(d); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces the client's details
func (c *Client) Update(d Details) error {
	if err := c.apply(d); err != nil {
		return err
	}
	c.Touch()
	return nil
}

func (c *Client) apply(d Details) error {
	d = d.trimmed()
	if err := d.Validate(); err != nil {
		return err
	}
	c.Name = d.Name
	c.CompanyCode = d.CompanyCode
	c.VATCode = d.VATCode
	c.Address = d.Address
	c.Phone = d.Phone
	c.Email = strings.ToLower(d.Email)
	c.Notes = d.Notes
	return nil
}

func (d Details) trimmed() Details {
	return Details{
		Name:        strings.TrimSpace(d.Name),
		CompanyCode: strings.TrimSpace(d.CompanyCode),
		VATCode:     strings.TrimSpace(d.VATCode),
		Address:     strings.TrimSpace(d.Address),
		Phone:       strings.TrimSpace(d.Phone),
		Email:       strings.TrimSpace(d.Email),
		Notes:       d.Notes,
	}
}

// Validate checks required fields and length bounds
func (d Details) Validate() error {
	if d.Name == "" {
		return shared.NewDomainError("INVALID_NAME", "Client name cannot be empty")
	}
	bounded := []struct {
		field, value string
	}{
		{"name", d.Name},
		{"company_code", d.CompanyCode},
		{"vat_code", d.VATCode},
		{"address", d.Address},
		{"phone", d.Phone},
		{"email", d.Email},
	}
	for _, b := range bounded {
		if len(b.value) > 255 {
			return shared.NewDomainError("INVALID_"+strings.ToUpper(b.field), b.field+" cannot exceed 255 characters")
		}
	}
	if d.Email != "" {
		addr, err := mail.ParseAddress(d.Email)
		if err != nil || addr.Address != d.Email {
			return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
		}
	}
	return nil
}
