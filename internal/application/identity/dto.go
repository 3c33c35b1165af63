package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/identity"
)

// RegisterInput contains the input for seller registration
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	DeviceName string
}

// LoginInput contains the input for user login
type LoginInput struct {
	Email      string
	Password   string
	DeviceName string
}

// AuthResult is returned by register, login and password change
type AuthResult struct {
	User      UserResponse
	Token     string
	ExpiresAt time.Time
	SessionID uuid.UUID
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	UserID          uuid.UUID
	CurrentPassword string
	NewPassword     string
}

// UserResponse is the seller as returned by the API. Secrets are never included.
type UserResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	CompanyCode       string    `json:"company_code"`
	VATCode           string    `json:"vat_code"`
	Address           string    `json:"address"`
	Phone             string    `json:"phone"`
	Website           string    `json:"website"`
	BankName          string    `json:"bank_name"`
	BankAccount       string    `json:"bank_account"`
	Signature         string    `json:"signature,omitempty"`
	SignatureURL      string    `json:"signature_url,omitempty"`
	InvoiceSeries     string    `json:"invoice_series"`
	NextInvoiceNumber int64     `json:"next_invoice_number"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ToUserResponse converts a domain User to UserResponse
func ToUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		CompanyCode:       u.CompanyCode,
		VATCode:           u.VATCode,
		Address:           u.Address,
		Phone:             u.Phone,
		Website:           u.Website,
		BankName:          u.BankName,
		BankAccount:       u.BankAccount,
		Signature:         u.SignatureKey,
		InvoiceSeries:     u.InvoiceSeries,
		NextInvoiceNumber: u.NextInvoiceNumber,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

// SessionResponse describes one login session of the caller
type SessionResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	IsCurrent  bool       `json:"is_current"`
}

// ProfileRequest is the allow-listed profile update payload
type ProfileRequest struct {
	Name              string `json:"name" binding:"required,max=255"`
	CompanyCode       string `json:"company_code" binding:"max=255"`
	VATCode           string `json:"vat_code" binding:"max=255"`
	Address           string `json:"address" binding:"max=255"`
	Phone             string `json:"phone" binding:"max=255"`
	Website           string `json:"website" binding:"max=255"`
	BankName          string `json:"bank_name" binding:"max=255"`
	BankAccount       string `json:"bank_account" binding:"max=255"`
	InvoiceSeries     string `json:"invoice_series" binding:"max=50"`
	NextInvoiceNumber *int64 `json:"next_invoice_number" binding:"omitempty,min=1"`
}

func (r ProfileRequest) toUpdate() identity.ProfileUpdate {
	return identity.ProfileUpdate{
		Name:              r.Name,
		CompanyCode:       r.CompanyCode,
		VATCode:           r.VATCode,
		Address:           r.Address,
		Phone:             r.Phone,
		Website:           r.Website,
		BankName:          r.BankName,
		BankAccount:       r.BankAccount,
		InvoiceSeries:     r.InvoiceSeries,
		NextInvoiceNumber: r.NextInvoiceNumber,
	}
}

// SignatureResponse is returned after a signature upload
type SignatureResponse struct {
	Message      string `json:"message"`
	Signature    string `json:"signature"`
	SignatureURL string `json:"signature_url"`
}
