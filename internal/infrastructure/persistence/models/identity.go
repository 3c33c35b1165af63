package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	BaseModel
	Name              string `gorm:"type:varchar(255);not null"`
	Email             string `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash      string `gorm:"type:varchar(255);not null"`
	CompanyCode       string `gorm:"type:varchar(255)"`
	VATCode           string `gorm:"column:vat_code;type:varchar(255)"`
	Address           string `gorm:"type:varchar(255)"`
	Phone             string `gorm:"type:varchar(255)"`
	Website           string `gorm:"type:varchar(255)"`
	BankName          string `gorm:"type:varchar(255)"`
	BankAccount       string `gorm:"type:varchar(255)"`
	SignatureKey      string `gorm:"type:varchar(500)"`
	InvoiceSeries     string `gorm:"type:varchar(50)"`
	NextInvoiceNumber int64  `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseEntity:        m.BaseModel.ToDomain(),
		Name:              m.Name,
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		CompanyCode:       m.CompanyCode,
		VATCode:           m.VATCode,
		Address:           m.Address,
		Phone:             m.Phone,
		Website:           m.Website,
		BankName:          m.BankName,
		BankAccount:       m.BankAccount,
		SignatureKey:      m.SignatureKey,
		InvoiceSeries:     m.InvoiceSeries,
		NextInvoiceNumber: m.NextInvoiceNumber,
	}
}

// FromDomain populates the persistence model from a domain User entity.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainBaseEntity(u.BaseEntity)
	m.Name = u.Name
	m.Email = u.Email
	m.PasswordHash = u.PasswordHash
	m.CompanyCode = u.CompanyCode
	m.VATCode = u.VATCode
	m.Address = u.Address
	m.Phone = u.Phone
	m.Website = u.Website
	m.BankName = u.BankName
	m.BankAccount = u.BankAccount
	m.SignatureKey = u.SignatureKey
	m.InvoiceSeries = u.InvoiceSeries
	m.NextInvoiceNumber = u.NextInvoiceNumber
}

// UserModelFromDomain creates a new persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}

// SessionModel is the persistence model for a login session
type SessionModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	Name       string     `gorm:"type:varchar(255);not null"`
	LastUsedAt *time.Time
	ExpiresAt  time.Time `gorm:"not null;index"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SessionModel) TableName() string {
	return "sessions"
}

// ToDomain converts the persistence model to a domain Session.
func (m *SessionModel) ToDomain() *identity.Session {
	return &identity.Session{
		ID:         m.ID,
		UserID:     m.UserID,
		Name:       m.Name,
		LastUsedAt: m.LastUsedAt,
		ExpiresAt:  m.ExpiresAt,
		CreatedAt:  m.CreatedAt,
	}
}

// SessionModelFromDomain creates a new persistence model from a domain Session.
func SessionModelFromDomain(s *identity.Session) *SessionModel {
	return &SessionModel{
		ID:         s.ID,
		UserID:     s.UserID,
		Name:       s.Name,
		LastUsedAt: s.LastUsedAt,
		ExpiresAt:  s.ExpiresAt,
		CreatedAt:  s.CreatedAt,
	}
}
