package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	OwnedModel
	ClientID    uuid.UUID          `gorm:"type:uuid;not null;index"`
	Series      string             `gorm:"type:varchar(50);not null;index:idx_invoices_series_number"`
	Number      int64              `gorm:"not null;index:idx_invoices_series_number"`
	InvoiceDate time.Time          `gorm:"type:date;not null;index"`
	DueDate     time.Time          `gorm:"type:date;not null"`
	Notes       string             `gorm:"type:text"`
	Status      invoice.Status     `gorm:"type:varchar(20);not null;default:'draft';index"`
	Total       decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	Client      *ClientModel       `gorm:"foreignKey:ClientID"`
	Items       []InvoiceItemModel `gorm:"foreignKey:InvoiceID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice. The client and
// items are mapped when they were loaded.
func (m *InvoiceModel) ToDomain() *invoice.Invoice {
	inv := &invoice.Invoice{
		OwnedEntity: m.ToOwnedEntity(),
		ClientID:    m.ClientID,
		Series:      m.Series,
		Number:      m.Number,
		InvoiceDate: m.InvoiceDate.UTC(),
		DueDate:     m.DueDate.UTC(),
		Notes:       m.Notes,
		Status:      m.Status,
		Total:       m.Total,
		Items:       make([]invoice.Item, len(m.Items)),
	}
	for i := range m.Items {
		inv.Items[i] = m.Items[i].ToDomain()
	}
	if m.Client != nil {
		inv.Client = m.Client.ToDomain()
	}
	return inv
}

// FromDomain populates the header fields from a domain Invoice.
// Items are mapped separately with ItemModelsFromDomain.
func (m *InvoiceModel) FromDomain(inv *invoice.Invoice) {
	m.FromDomainOwnedEntity(inv.OwnedEntity)
	m.ClientID = inv.ClientID
	m.Series = inv.Series
	m.Number = inv.Number
	m.InvoiceDate = inv.InvoiceDate
	m.DueDate = inv.DueDate
	m.Notes = inv.Notes
	m.Status = inv.Status
	m.Total = inv.Total
}

// InvoiceModelFromDomain creates a new header model from a domain Invoice.
func InvoiceModelFromDomain(inv *invoice.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceItemModel is the persistence model for an invoice line
type InvoiceItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position    int             `gorm:"not null;default:0"`
	Description string          `gorm:"type:text;not null"`
	Unit        string          `gorm:"type:varchar(50);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Total       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain Item.
func (m *InvoiceItemModel) ToDomain() invoice.Item {
	return invoice.Item{
		ID:          m.ID,
		InvoiceID:   m.InvoiceID,
		Position:    m.Position,
		Description: m.Description,
		Unit:        m.Unit,
		Quantity:    m.Quantity,
		Price:       m.Price,
		Total:       m.Total,
	}
}

// ItemModelsFromDomain maps the invoice's items, stamping them with the
// invoice ID and the given time.
func ItemModelsFromDomain(inv *invoice.Invoice, at time.Time) []InvoiceItemModel {
	out := make([]InvoiceItemModel, len(inv.Items))
	for i, it := range inv.Items {
		out[i] = InvoiceItemModel{
			ID:          it.ID,
			InvoiceID:   inv.ID,
			Position:    it.Position,
			Description: it.Description,
			Unit:        it.Unit,
			Quantity:    it.Quantity,
			Price:       it.Price,
			Total:       it.Total,
			CreatedAt:   at,
			UpdatedAt:   at,
		}
	}
	return out
}
