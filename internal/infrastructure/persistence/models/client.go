package models

import (
	"github.com/invoicer/backend/internal/domain/client"
)

// ClientModel is the persistence model for the Client domain entity.
type ClientModel struct {
	OwnedModel
	Name        string `gorm:"type:varchar(255);not null;index"`
	CompanyCode string `gorm:"type:varchar(255)"`
	VATCode     string `gorm:"column:vat_code;type:varchar(255)"`
	Address     string `gorm:"type:varchar(255)"`
	Phone       string `gorm:"type:varchar(255)"`
	Email       string `gorm:"type:varchar(255)"`
	Notes       string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client entity.
func (m *ClientModel) ToDomain() *client.Client {
	return &client.Client{
		OwnedEntity: m.ToOwnedEntity(),
		Name:        m.Name,
		CompanyCode: m.CompanyCode,
		VATCode:     m.VATCode,
		Address:     m.Address,
		Phone:       m.Phone,
		Email:       m.Email,
		Notes:       m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Client entity.
func (m *ClientModel) FromDomain(c *client.Client) {
	m.FromDomainOwnedEntity(c.OwnedEntity)
	m.Name = c.Name
	m.CompanyCode = c.CompanyCode
	m.VATCode = c.VATCode
	m.Address = c.Address
	m.Phone = c.Phone
	m.Email = c.Email
	m.Notes = c.Notes
}

// ClientModelFromDomain creates a new persistence model from a domain Client entity.
func ClientModelFromDomain(c *client.Client) *ClientModel {
	m := &ClientModel{}
	m.FromDomain(c)
	return m
}
